package model

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                uuid.UUID
	Username          string
	Points            int
	LifetimePoints    int
	CurrentStreak     int
	BestStreak        int
	LastCompletionAt  *time.Time
	LastSpinAt        *time.Time
	ReferralCode      string
	ReferrerID        *uuid.UUID
	PendingReferrals  int
	TotalReferrals    int
	ReferralEarnings  int
	TutorialCompleted bool
	IsAdmin           bool
	RegistrationDate  time.Time
}

type ProfileReferral struct {
	Username string
	Points   int
	JoinedAt time.Time
}

// StreakUpdate is the set of profile field changes produced by
// evaluating the streak rule at completion time.
type StreakUpdate struct {
	CurrentStreak    int
	BestStreak       int
	LastCompletionAt time.Time
}

type StreakStatus struct {
	CurrentStreak    int
	BestStreak       int
	LastCompletionAt *time.Time
	StreakMultiplier float64
	ActiveMultiplier float64
	MultiplierSource string
	SpinAvailable    bool
	NextSpinAt       *time.Time
}
