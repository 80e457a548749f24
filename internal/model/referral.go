package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralEarning struct {
	ID           uuid.UUID
	ReferrerID   uuid.UUID
	ReferredID   uuid.UUID
	CompletionID uuid.UUID
	Points       int
	CreatedAt    time.Time
}
