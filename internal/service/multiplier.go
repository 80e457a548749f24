package service

import (
	"sync"

	"github.com/google/uuid"
)

type MultiplierSource string

const (
	SourceNone   MultiplierSource = "none"
	SourceStreak MultiplierSource = "streak"
	SourceSpin   MultiplierSource = "spin"
)

type heldMultiplier struct {
	value  float64
	source MultiplierSource
}

// MultiplierHolder tracks the best active multiplier per user for the
// lifetime of the process. Updates are monotonic: a proposal only wins
// if it is strictly greater than what is held, so a streak
// recalculation can never downgrade an active spin bonus, and vice
// versa.
type MultiplierHolder struct {
	mu   sync.Mutex
	held map[uuid.UUID]heldMultiplier
}

func NewMultiplierHolder() *MultiplierHolder {
	return &MultiplierHolder{
		held: make(map[uuid.UUID]heldMultiplier),
	}
}

// Propose applies (value, source) only when value is strictly greater
// than the currently held value. Reports whether the update was applied.
func (h *MultiplierHolder) Propose(userID uuid.UUID, value float64, source MultiplierSource) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.held[userID]
	if ok && value <= current.value {
		return false
	}
	if !ok && value <= 1 {
		return false
	}

	h.held[userID] = heldMultiplier{value: value, source: source}
	return true
}

// Current returns the active multiplier for the user, defaulting to 1x
// with no source.
func (h *MultiplierHolder) Current(userID uuid.UUID) (float64, MultiplierSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.held[userID]
	if !ok {
		return 1, SourceNone
	}
	return current.value, current.source
}

// SeedFromStreak proposes the streak-derived multiplier, used at
// session start so the holder reflects the user's earned streak bonus.
func (h *MultiplierHolder) SeedFromStreak(userID uuid.UUID, streak int) {
	if m := StreakMultiplier(streak); m > 1 {
		h.Propose(userID, m, SourceStreak)
	}
}
