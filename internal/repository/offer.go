package repository

import (
	"context"
	"fmt"
	"time"

	"earnhub/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type OfferCompletion struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	OfferID     string    `db:"offer_id"`
	OfferName   string    `db:"offer_name"`
	Points      int       `db:"points"`
	Multiplier  float64   `db:"multiplier"`
	CompletedAt time.Time `db:"completed_at"`
}

// RecordCompletion applies an offer completion as a single transaction:
// the completion row, the streak/point update on the profile, and the
// referral credit (ledger row + referrer counters) when present.
func (r *Repository) RecordCompletion(ctx context.Context, w *model.CompletionWrite) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		c := w.Completion

		query, args, err := squirrel.
			Insert("offer_completions").
			SetMap(map[string]interface{}{
				"id":           c.ID,
				"user_id":      c.UserID,
				"offer_id":     c.OfferID,
				"offer_name":   c.OfferName,
				"points":       c.Points,
				"multiplier":   c.Multiplier,
				"completed_at": c.CompletedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build completion insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err, "offer_completions_once") {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to insert completion: %w", err)
		}

		profileQuery, profileArgs, err := squirrel.
			Update("profiles").
			SetMap(map[string]interface{}{
				"current_streak":     w.Streak.CurrentStreak,
				"best_streak":        w.Streak.BestStreak,
				"last_completion_at": w.Streak.LastCompletionAt,
			}).
			Set("points", squirrel.Expr("points + ?", c.Points)).
			Set("lifetime_points", squirrel.Expr("lifetime_points + ?", c.Points)).
			Where(squirrel.Eq{"id": c.UserID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build profile update query: %w", err)
		}

		result, err := tx.ExecContext(ctx, profileQuery, profileArgs...)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		if w.ReferrerID == nil {
			return nil
		}

		earningQuery, earningArgs, err := squirrel.
			Insert("referral_earnings").
			SetMap(map[string]interface{}{
				"id":            uuid.New(),
				"referrer_id":   *w.ReferrerID,
				"referred_id":   c.UserID,
				"completion_id": c.ID,
				"points":        w.ReferralBonus,
				"created_at":    c.CompletedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build earning insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, earningQuery, earningArgs...)
		if err != nil {
			if isUniqueViolation(err, "referral_earnings_once") {
				return ErrDuplicateEarning
			}
			return fmt.Errorf("failed to insert referral earning: %w", err)
		}

		referrerQuery, referrerArgs, err := squirrel.
			Update("profiles").
			Set("points", squirrel.Expr("points + ?", w.ReferralBonus)).
			Set("lifetime_points", squirrel.Expr("lifetime_points + ?", w.ReferralBonus)).
			Set("referral_earnings", squirrel.Expr("referral_earnings + ?", w.ReferralBonus)).
			Set("pending_referrals", squirrel.Expr("GREATEST(pending_referrals - 1, 0)")).
			Where(squirrel.Eq{"id": *w.ReferrerID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referrer update query: %w", err)
		}

		_, err = tx.ExecContext(ctx, referrerQuery, referrerArgs...)
		if err != nil {
			return fmt.Errorf("failed to credit referrer: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetCompletions(ctx context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "offer_id", "offer_name", "points", "multiplier", "completed_at").
		From("offer_completions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("completed_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var completions []OfferCompletion
	err = r.db.SelectContext(ctx, &completions, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.OfferCompletion, len(completions))
	for i, c := range completions {
		out[i] = &model.OfferCompletion{
			ID:          c.ID,
			UserID:      c.UserID,
			OfferID:     c.OfferID,
			OfferName:   c.OfferName,
			Points:      c.Points,
			Multiplier:  c.Multiplier,
			CompletedAt: c.CompletedAt,
		}
	}

	return out, nil
}

func (r *Repository) GetReferralEarnings(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error) {
	query, args, err := squirrel.
		Select("id", "referrer_id", "referred_id", "completion_id", "points", "created_at").
		From("referral_earnings").
		Where(squirrel.Eq{"referrer_id": referrerID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID           uuid.UUID `db:"id"`
		ReferrerID   uuid.UUID `db:"referrer_id"`
		ReferredID   uuid.UUID `db:"referred_id"`
		CompletionID uuid.UUID `db:"completion_id"`
		Points       int       `db:"points"`
		CreatedAt    time.Time `db:"created_at"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.ReferralEarning, len(rows))
	for i, row := range rows {
		out[i] = &model.ReferralEarning{
			ID:           row.ID,
			ReferrerID:   row.ReferrerID,
			ReferredID:   row.ReferredID,
			CompletionID: row.CompletionID,
			Points:       row.Points,
			CreatedAt:    row.CreatedAt,
		}
	}

	return out, nil
}
