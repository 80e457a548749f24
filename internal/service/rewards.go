package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"earnhub/internal/model"
	"earnhub/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type RewardService struct {
	repo   RewardRepository
	events *EventHub
}

func NewRewardService(repo RewardRepository, events *EventHub) *RewardService {
	return &RewardService{
		repo:   repo,
		events: events,
	}
}

func (s *RewardService) Catalog(ctx context.Context) ([]*model.Reward, error) {
	rewards, err := s.repo.GetRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	return rewards, nil
}

// RedemptionCost is the points charged for an option. A double_points
// option charges half the nominal catalog price, rounded half up, at
// redemption time.
func RedemptionCost(option *model.RewardOption) int {
	if option.DoublePoints {
		return int(math.Round(float64(option.PointCost) / 2))
	}
	return option.PointCost
}

// Redeem validates the option, computes the cost, and writes the
// pending redemption together with the balance charge atomically.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID, optionID uuid.UUID) (*model.Redemption, error) {
	option, err := s.repo.GetRewardOption(ctx, rewardID, optionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward option: %w", err)
	}

	cost := RedemptionCost(option)

	redemption := &model.Redemption{
		ID:          uuid.New(),
		UserID:      userID,
		RewardID:    rewardID,
		OptionID:    optionID,
		PointsSpent: cost,
		CashAmount:  option.CashAmount,
		Status:      model.RedemptionStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.repo.CreateRedemption(ctx, redemption)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientPoints):
			return nil, ErrInsufficientPoints
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create redemption: %w", err)
	}

	s.events.Publish(userID, Event{
		Type: EventRedemptionCreated,
		Payload: map[string]any{
			"redemption_id": redemption.ID.String(),
			"points_spent":  cost,
			"cash_amount":   option.CashAmount,
			"status":        redemption.Status,
		},
	})

	return redemption, nil
}

func (s *RewardService) GetRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.Redemption, error) {
	redemptions, err := s.repo.GetRedemptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get redemptions: %w", err)
	}
	return redemptions, nil
}

func (s *RewardService) CreateReward(ctx context.Context, reward *model.Reward) (*model.Reward, error) {
	if reward.Name == "" || len(reward.Options) == 0 {
		return nil, ErrInvalidInput
	}

	reward.ID = uuid.New()
	reward.Slug = slug.Make(reward.Name)
	for i := range reward.Options {
		reward.Options[i].ID = uuid.New()
		reward.Options[i].RewardID = reward.ID
	}

	err := s.repo.CreateReward(ctx, reward)
	if err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	return reward, nil
}
