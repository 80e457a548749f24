package model

import (
	"time"

	"github.com/google/uuid"
)

type Reward struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	ImageURL   string
	Category   string
	Tags       []string
	Popular    bool
	Featured   bool
	New        bool
	ComingSoon bool
	ExpiresAt  *time.Time
	Options    []RewardOption
}

type RewardOption struct {
	ID           uuid.UUID
	RewardID     uuid.UUID
	CashAmount   float64
	PointCost    int
	DoublePoints bool
}

const (
	RedemptionStatusPending    = "pending"
	RedemptionStatusProcessing = "processing"
	RedemptionStatusCompleted  = "completed"
	RedemptionStatusFailed     = "failed"
)

type Redemption struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	RewardID    uuid.UUID
	OptionID    uuid.UUID
	PointsSpent int
	CashAmount  float64
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
