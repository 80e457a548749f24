package mocks

import (
	"context"
	"time"

	"earnhub/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockOfferRepository) RecordCompletion(ctx context.Context, w *model.CompletionWrite) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockOfferRepository) GetCompletions(ctx context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OfferCompletion), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetProfileByReferralCode(ctx context.Context, code string) (*model.Profile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetTopProfiles(ctx context.Context, limit int) ([]*model.Profile, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetProfileReferrals(ctx context.Context, userID uuid.UUID) ([]*model.ProfileReferral, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProfileReferral), args.Error(1)
}

func (m *MockProfileRepository) ApplyReferralSignup(ctx context.Context, userID, referrerID uuid.UUID, welcomeBonus int) error {
	args := m.Called(ctx, userID, referrerID, welcomeBonus)
	return args.Error(0)
}

func (m *MockProfileRepository) CompleteTutorial(ctx context.Context, userID uuid.UUID, bonus int) error {
	args := m.Called(ctx, userID, bonus)
	return args.Error(0)
}

func (m *MockProfileRepository) UpdateLastSpin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockProfileRepository) GetReferralEarnings(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReferralEarning), args.Error(1)
}

type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) GetRewards(ctx context.Context) ([]*model.Reward, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reward), args.Error(1)
}

func (m *MockRewardRepository) GetRewardOption(ctx context.Context, rewardID, optionID uuid.UUID) (*model.RewardOption, error) {
	args := m.Called(ctx, rewardID, optionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RewardOption), args.Error(1)
}

func (m *MockRewardRepository) CreateReward(ctx context.Context, reward *model.Reward) error {
	args := m.Called(ctx, reward)
	return args.Error(0)
}

func (m *MockRewardRepository) CreateRedemption(ctx context.Context, redemption *model.Redemption) error {
	args := m.Called(ctx, redemption)
	return args.Error(0)
}

func (m *MockRewardRepository) GetRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.Redemption, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Redemption), args.Error(1)
}
