package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversion is the ad network's server-side confirmation of an offer
// completion, written by the postback receiver. Completions and
// conversions are independent logs of the same real-world event; the
// reconciler pairs them up after the fact.
type Conversion struct {
	ID        int64
	OfferID   int64
	Payout    float64
	UserID    uuid.UUID
	IP        string
	Source    string
	Email     string
	Matched   bool
	CreatedAt time.Time
}
