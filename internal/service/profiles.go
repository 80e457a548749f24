package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"earnhub/internal/model"
	"earnhub/internal/repository"

	"github.com/google/uuid"
)

const (
	referralCodeLength   = 6
	referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	SpinCooldown = 24 * time.Hour

	leaderboardSize = 100
)

// wheelSegments are the spin outcomes with their relative weights.
// Larger multipliers are rarer.
var wheelSegments = []struct {
	value  float64
	weight int
}{
	{1.1, 30},
	{1.2, 25},
	{1.3, 20},
	{1.5, 15},
	{1.75, 7},
	{2.0, 3},
}

type ProfileService struct {
	repo   ProfileRepository
	holder *MultiplierHolder
}

func NewProfileService(repo ProfileRepository, holder *MultiplierHolder) *ProfileService {
	return &ProfileService{
		repo:   repo,
		holder: holder,
	}
}

// Register creates a profile for the authenticated identity. When a
// referral code is supplied it is applied immediately after creation,
// granting the welcome bonus and crediting the referrer's counters.
func (s *ProfileService) Register(ctx context.Context, userID uuid.UUID, username, referralCode string) (*model.Profile, error) {
	if username == "" {
		return nil, ErrInvalidInput
	}

	profile := &model.Profile{
		ID:               userID,
		Username:         username,
		RegistrationDate: time.Now().UTC(),
	}

	for attempt := 0; ; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate referral code: %w", err)
		}
		profile.ReferralCode = code

		err = s.repo.CreateProfile(ctx, profile)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) && attempt < 5 {
			continue
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if referralCode != "" {
		referrer, err := s.repo.GetProfileByReferralCode(ctx, referralCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrReferralCodeInvalid
			}
			return nil, fmt.Errorf("failed to look up referral code: %w", err)
		}

		err = s.repo.ApplyReferralSignup(ctx, userID, referrer.ID, WelcomeBonus)
		if err != nil {
			return nil, fmt.Errorf("failed to apply referral code: %w", err)
		}

		return s.repo.GetProfile(ctx, userID)
	}

	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) GetLeaderboard(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.repo.GetTopProfiles(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) GetReferrals(ctx context.Context, userID uuid.UUID) ([]*model.ProfileReferral, error) {
	referrals, err := s.repo.GetProfileReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	return referrals, nil
}

func (s *ProfileService) CompleteTutorial(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.CompleteTutorial(ctx, userID, TutorialBonus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrTutorialAlreadyDone):
			return ErrTutorialAlreadyDone
		}
		return fmt.Errorf("failed to complete tutorial: %w", err)
	}
	return nil
}

// StreakStatus reports the stored streak, the multiplier derived from
// it, and whatever the holder currently has in effect for the session.
func (s *ProfileService) StreakStatus(ctx context.Context, userID uuid.UUID) (*model.StreakStatus, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.holder.SeedFromStreak(userID, profile.CurrentStreak)
	active, source := s.holder.Current(userID)

	status := &model.StreakStatus{
		CurrentStreak:    profile.CurrentStreak,
		BestStreak:       profile.BestStreak,
		LastCompletionAt: profile.LastCompletionAt,
		StreakMultiplier: StreakMultiplier(profile.CurrentStreak),
		ActiveMultiplier: active,
		MultiplierSource: string(source),
		SpinAvailable:    true,
	}

	if profile.LastSpinAt != nil {
		nextSpin := profile.LastSpinAt.Add(SpinCooldown)
		if time.Now().Before(nextSpin) {
			status.SpinAvailable = false
			status.NextSpinAt = &nextSpin
		}
	}

	return status, nil
}

type SpinResult struct {
	Multiplier float64
	Source     MultiplierSource
	Applied    bool
}

// Spin runs the bonus wheel. The cooldown gates the action itself; the
// result is only proposed to the holder, which keeps whichever
// multiplier is best.
func (s *ProfileService) Spin(ctx context.Context, userID uuid.UUID) (*SpinResult, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if profile.LastSpinAt != nil && now.Sub(*profile.LastSpinAt) < SpinCooldown {
		return nil, ErrSpinNotAvailable
	}

	value := spinWheel()

	err = s.repo.UpdateLastSpin(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record spin: %w", err)
	}

	s.holder.SeedFromStreak(userID, profile.CurrentStreak)
	applied := s.holder.Propose(userID, value, SourceSpin)

	return &SpinResult{
		Multiplier: value,
		Source:     SourceSpin,
		Applied:    applied,
	}, nil
}

func spinWheel() float64 {
	total := 0
	for _, seg := range wheelSegments {
		total += seg.weight
	}

	n := mrand.Intn(total)
	for _, seg := range wheelSegments {
		if n < seg.weight {
			return seg.value
		}
		n -= seg.weight
	}
	return wheelSegments[0].value
}

func generateReferralCode() (string, error) {
	code := make([]byte, referralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
