package worker

import (
	"context"
	"errors"
	"time"

	"earnhub/internal/repository"
	"earnhub/internal/service"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/go-co-op/gocron/v2"
)

const reconcileBatchSize = 200

// Reconciler periodically matches ad network conversions against the
// completions the app credited. A matched pair confirms the credit; a
// conversion that stays unmatched past the grace window is reported so
// an operator can investigate. Points are never moved here.
type Reconciler struct {
	conv     service.ConversionRepository
	events   *service.EventHub
	interval time.Duration
	grace    time.Duration
	sched    gocron.Scheduler
}

func NewReconciler(conv service.ConversionRepository, events *service.EventHub, interval, grace time.Duration) *Reconciler {
	return &Reconciler{
		conv:     conv,
		events:   events,
		interval: interval,
		grace:    grace,
	}
}

func (r *Reconciler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	r.sched = sched

	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			defer cancel()
			r.Run(ctx)
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	return nil
}

func (r *Reconciler) Stop() error {
	if r.sched == nil {
		return nil
	}
	return r.sched.Shutdown()
}

// Run processes one batch of unmatched conversions.
func (r *Reconciler) Run(ctx context.Context) {
	log := logger.Logger()

	conversions, err := r.conv.GetUnmatchedConversions(ctx, reconcileBatchSize)
	if err != nil {
		log.Error("failed to load unmatched conversions", zap.Error(err))
		return
	}

	var matched, stale int
	for _, conversion := range conversions {
		completion, err := r.conv.FindCompletionForConversion(ctx, conversion)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				if time.Since(conversion.CreatedAt) > r.grace {
					stale++
					log.Warn("conversion unmatched past grace window",
						zap.Int64("conversion_id", conversion.ID),
						zap.Int64("offer_id", conversion.OfferID),
						zap.String("user_id", conversion.UserID.String()),
						zap.Time("created_at", conversion.CreatedAt))
				}
				continue
			}
			log.Error("failed to match conversion",
				zap.Int64("conversion_id", conversion.ID),
				zap.Error(err))
			continue
		}

		if err := r.conv.MarkConversionMatched(ctx, conversion.ID); err != nil {
			log.Error("failed to mark conversion matched",
				zap.Int64("conversion_id", conversion.ID),
				zap.Error(err))
			continue
		}

		matched++
		r.events.Publish(conversion.UserID, service.Event{
			Type: service.EventConversionMatched,
			Payload: map[string]any{
				"offer_id":      conversion.OfferID,
				"completion_id": completion.ID,
				"points":        completion.Points,
			},
		})
	}

	if len(conversions) > 0 {
		log.Info("reconcile pass finished",
			zap.Int("scanned", len(conversions)),
			zap.Int("matched", matched),
			zap.Int("stale", stale))
	}
}
