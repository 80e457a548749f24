package service

import (
	"math"
	"strconv"
	"time"

	"earnhub/internal/model"
)

const (
	// PointsPerDollar is the fixed exchange rate used everywhere:
	// offer payouts, the reward catalog, and referral bonuses.
	PointsPerDollar = 1000

	ReferralBonus = 5000
	WelcomeBonus  = 5000
	TutorialBonus = 1000

	StreakStep    = 0.1
	MaxMultiplier = 2.0
)

// EvaluateStreak classifies a completion against the previous one by
// calendar day (UTC) and returns the profile fields to persist:
//
//   - no prior completion: streak starts at 1
//   - same calendar day: nothing changes
//   - exactly one calendar day later: streak increments
//   - anything else (gap of 2+ days, or a future-dated anomaly): reset to 1,
//     best streak untouched
func EvaluateStreak(last *time.Time, now time.Time, currentStreak, bestStreak int) model.StreakUpdate {
	if last == nil {
		return model.StreakUpdate{
			CurrentStreak:    1,
			BestStreak:       max(bestStreak, 1),
			LastCompletionAt: now,
		}
	}

	switch calendarDaysBetween(*last, now) {
	case 0:
		return model.StreakUpdate{
			CurrentStreak:    currentStreak,
			BestStreak:       bestStreak,
			LastCompletionAt: *last,
		}
	case 1:
		newStreak := currentStreak + 1
		return model.StreakUpdate{
			CurrentStreak:    newStreak,
			BestStreak:       max(bestStreak, newStreak),
			LastCompletionAt: now,
		}
	default:
		return model.StreakUpdate{
			CurrentStreak:    1,
			BestStreak:       bestStreak,
			LastCompletionAt: now,
		}
	}
}

// StreakMultiplier derives the streak multiplier from the streak count:
// +0.1x per consecutive day, capped at 2.0x. Always recomputed, never
// stored, so it cannot drift from the streak itself.
func StreakMultiplier(streak int) float64 {
	m := 1 + StreakStep*float64(streak)
	if m > MaxMultiplier {
		return MaxMultiplier
	}
	return m
}

// ComputePoints converts a decimal payout string into points at the
// fixed exchange rate and applies the multiplier. Both multiplications
// round half up.
func ComputePoints(payout string, multiplier float64) (int, error) {
	amount, err := strconv.ParseFloat(payout, 64)
	if err != nil || amount < 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, ErrInvalidPayout
	}

	basePoints := math.Round(amount * PointsPerDollar)
	return int(math.Round(basePoints * multiplier)), nil
}

// calendarDaysBetween counts whole calendar days from a's date to b's
// date in UTC. Negative when b's date is before a's.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	aDay := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bDay := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay) / (24 * time.Hour))
}
