package service

import (
	"sync"

	"github.com/google/uuid"
)

const (
	EventPointsCredited    = "points_credited"
	EventReferralCredited  = "referral_credited"
	EventRedemptionCreated = "redemption_created"
	EventConversionMatched = "conversion_matched"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventHub fans ledger events out to per-user subscribers (the
// websocket connections). Delivery is best-effort: a subscriber that
// cannot keep up drops events rather than blocking the publisher.
type EventHub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan Event]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

func (h *EventHub) Subscribe(userID uuid.UUID) chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}

	return ch
}

func (h *EventHub) Unsubscribe(userID uuid.UUID, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[userID]; ok {
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

func (h *EventHub) Publish(userID uuid.UUID, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}
