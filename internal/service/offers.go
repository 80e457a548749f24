package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"earnhub/internal/model"
	"earnhub/internal/repository"

	"github.com/google/uuid"
)

type OfferService struct {
	repo   OfferRepository
	holder *MultiplierHolder
	events *EventHub
}

func NewOfferService(repo OfferRepository, holder *MultiplierHolder, events *EventHub) *OfferService {
	return &OfferService{
		repo:   repo,
		holder: holder,
		events: events,
	}
}

// ActiveMultiplier resolves the multiplier currently in effect for the
// user: the stored streak is seeded into the holder, and whatever the
// holder ends up with (streak bonus or a better spin bonus) wins.
func (s *OfferService) ActiveMultiplier(ctx context.Context, userID uuid.UUID) (float64, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get profile: %w", err)
	}

	s.holder.SeedFromStreak(userID, profile.CurrentStreak)
	multiplier, _ := s.holder.Current(userID)
	return multiplier, nil
}

// CompleteOffer runs the completion sequence: compute points from the
// multiplier the caller resolved, evaluate the streak, and persist the
// completion + profile update + referral credit as one atomic write.
// The multiplier arrives as a parameter rather than being read from
// shared state here, so the value credited is always the value audited
// on the completion row.
func (s *OfferService) CompleteOffer(ctx context.Context, userID uuid.UUID, offerID, offerName, payout string, multiplier float64) (*model.OfferCompletion, error) {
	if offerID == "" || offerName == "" || payout == "" || multiplier < 1 {
		return nil, ErrInvalidInput
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	points, err := ComputePoints(payout, multiplier)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	streak := EvaluateStreak(profile.LastCompletionAt, now, profile.CurrentStreak, profile.BestStreak)

	completion := &model.OfferCompletion{
		ID:          uuid.New(),
		UserID:      userID,
		OfferID:     offerID,
		OfferName:   offerName,
		Points:      points,
		Multiplier:  multiplier,
		CompletedAt: now,
	}

	err = s.repo.RecordCompletion(ctx, &model.CompletionWrite{
		Completion:    completion,
		Streak:        streak,
		ReferrerID:    profile.ReferrerID,
		ReferralBonus: ReferralBonus,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyCompleted), errors.Is(err, repository.ErrDuplicateEarning):
			return nil, ErrOfferAlreadyCredited
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	s.holder.Propose(userID, StreakMultiplier(streak.CurrentStreak), SourceStreak)

	s.events.Publish(userID, Event{
		Type: EventPointsCredited,
		Payload: map[string]any{
			"offer_id":   offerID,
			"points":     points,
			"multiplier": multiplier,
			"streak":     streak.CurrentStreak,
		},
	})

	if profile.ReferrerID != nil {
		s.events.Publish(*profile.ReferrerID, Event{
			Type: EventReferralCredited,
			Payload: map[string]any{
				"referred_username": profile.Username,
				"points":            ReferralBonus,
			},
		})
	}

	return completion, nil
}

func (s *OfferService) GetCompletions(ctx context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error) {
	completions, err := s.repo.GetCompletions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completions: %w", err)
	}
	return completions, nil
}
