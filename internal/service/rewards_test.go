package service

import (
	"context"
	"testing"

	"earnhub/internal/model"
	"earnhub/internal/repository"
	"earnhub/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRedemptionCost(t *testing.T) {
	tests := []struct {
		name     string
		option   model.RewardOption
		expected int
	}{
		{
			name:     "Nominal price",
			option:   model.RewardOption{PointCost: 10000, DoublePoints: false},
			expected: 10000,
		},
		{
			name:     "Double points halves the cost",
			option:   model.RewardOption{PointCost: 10000, DoublePoints: true},
			expected: 5000,
		},
		{
			name:     "Odd cost rounds half up",
			option:   model.RewardOption{PointCost: 4999, DoublePoints: true},
			expected: 2500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedemptionCost(&tt.option))
		})
	}
}

func TestRewardService_Redeem(t *testing.T) {
	userID := uuid.New()
	rewardID := uuid.New()
	optionID := uuid.New()

	option := &model.RewardOption{
		ID:           optionID,
		RewardID:     rewardID,
		CashAmount:   10.0,
		PointCost:    10000,
		DoublePoints: true,
	}

	t.Run("Successful redemption charges the halved cost", func(t *testing.T) {
		mockRepo := &mocks.MockRewardRepository{}
		hub := NewEventHub()
		svc := NewRewardService(mockRepo, hub)

		ch := hub.Subscribe(userID)

		mockRepo.On("GetRewardOption", mock.Anything, rewardID, optionID).Return(option, nil)
		mockRepo.On("CreateRedemption", mock.Anything, mock.MatchedBy(func(red *model.Redemption) bool {
			return red.UserID == userID &&
				red.PointsSpent == 5000 &&
				red.CashAmount == 10.0 &&
				red.Status == model.RedemptionStatusPending
		})).Return(nil)

		redemption, err := svc.Redeem(context.Background(), userID, rewardID, optionID)
		assert.NoError(t, err)
		assert.Equal(t, 5000, redemption.PointsSpent)
		assert.Equal(t, model.RedemptionStatusPending, redemption.Status)
		assert.Nil(t, redemption.ProcessedAt)

		select {
		case event := <-ch:
			assert.Equal(t, EventRedemptionCreated, event.Type)
			assert.Equal(t, 5000, event.Payload["points_spent"])
		default:
			t.Fatal("expected redemption_created event")
		}

		mockRepo.AssertExpectations(t)
	})

	t.Run("Insufficient balance", func(t *testing.T) {
		mockRepo := &mocks.MockRewardRepository{}
		svc := NewRewardService(mockRepo, NewEventHub())

		mockRepo.On("GetRewardOption", mock.Anything, rewardID, optionID).Return(option, nil)
		mockRepo.On("CreateRedemption", mock.Anything, mock.Anything).
			Return(repository.ErrInsufficientPoints)

		redemption, err := svc.Redeem(context.Background(), userID, rewardID, optionID)
		assert.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Nil(t, redemption)
	})

	t.Run("Unknown option", func(t *testing.T) {
		mockRepo := &mocks.MockRewardRepository{}
		svc := NewRewardService(mockRepo, NewEventHub())

		mockRepo.On("GetRewardOption", mock.Anything, rewardID, optionID).
			Return(nil, repository.ErrNotFound)

		_, err := svc.Redeem(context.Background(), userID, rewardID, optionID)
		assert.ErrorIs(t, err, ErrRewardNotFound)
	})
}

func TestRewardService_CreateReward(t *testing.T) {
	mockRepo := &mocks.MockRewardRepository{}
	svc := NewRewardService(mockRepo, NewEventHub())

	mockRepo.On("CreateReward", mock.Anything, mock.MatchedBy(func(rw *model.Reward) bool {
		return rw.Slug == "amazon-gift-card" &&
			rw.ID != uuid.Nil &&
			len(rw.Options) == 1 &&
			rw.Options[0].RewardID == rw.ID
	})).Return(nil)

	reward, err := svc.CreateReward(context.Background(), &model.Reward{
		Name: "Amazon Gift Card",
		Options: []model.RewardOption{
			{CashAmount: 5, PointCost: 5000},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "amazon-gift-card", reward.Slug)

	mockRepo.AssertExpectations(t)
}

func TestRewardService_CreateReward_Invalid(t *testing.T) {
	svc := NewRewardService(&mocks.MockRewardRepository{}, NewEventHub())

	_, err := svc.CreateReward(context.Background(), &model.Reward{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateReward(context.Background(), &model.Reward{Name: "No tiers"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
