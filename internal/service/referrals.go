package service

import (
	"context"
	"errors"
	"fmt"

	"earnhub/internal/model"
	"earnhub/internal/repository"

	"github.com/google/uuid"
)

type ReferralService struct {
	repo ProfileRepository
}

func NewReferralService(repo ProfileRepository) *ReferralService {
	return &ReferralService{
		repo: repo,
	}
}

// ApplyReferralSignup links the acting user to the owner of the code.
// First-referral-wins: a user who already has a referrer gets an error,
// the existing link is never overwritten.
func (s *ReferralService) ApplyReferralSignup(ctx context.Context, userID uuid.UUID, code string) error {
	if code == "" {
		return ErrInvalidInput
	}

	referrer, err := s.repo.GetProfileByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReferralCodeInvalid
		}
		return fmt.Errorf("failed to look up referral code: %w", err)
	}

	if referrer.ID == userID {
		return ErrSelfReferral
	}

	err = s.repo.ApplyReferralSignup(ctx, userID, referrer.ID, WelcomeBonus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrReferrerAlreadySet):
			return ErrReferrerAlreadySet
		}
		return fmt.Errorf("failed to apply referral code: %w", err)
	}

	return nil
}

func (s *ReferralService) GetEarnings(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error) {
	earnings, err := s.repo.GetReferralEarnings(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral earnings: %w", err)
	}
	return earnings, nil
}
