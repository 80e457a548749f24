package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferCompletion struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	OfferID     string
	OfferName   string
	Points      int
	Multiplier  float64
	CompletedAt time.Time
}

// CompletionWrite is everything the ledger applies atomically when an
// offer completion is recorded: the completion row, the streak fields
// to set on the profile, and the referral credit when the user was
// referred.
type CompletionWrite struct {
	Completion    *OfferCompletion
	Streak        StreakUpdate
	ReferrerID    *uuid.UUID
	ReferralBonus int
}
