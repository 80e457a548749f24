package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"earnhub/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type conversion struct {
	ID        int64     `db:"id"`
	OfferID   int64     `db:"offer_id"`
	Payout    float64   `db:"payout"`
	UserID    uuid.UUID `db:"user_id"`
	IP        string    `db:"ip"`
	Source    string    `db:"source"`
	Email     string    `db:"email"`
	Matched   bool      `db:"matched"`
	CreatedAt time.Time `db:"created_at"`
}

func (c *conversion) toModel() *model.Conversion {
	return &model.Conversion{
		ID:        c.ID,
		OfferID:   c.OfferID,
		Payout:    c.Payout,
		UserID:    c.UserID,
		IP:        c.IP,
		Source:    c.Source,
		Email:     c.Email,
		Matched:   c.Matched,
		CreatedAt: c.CreatedAt,
	}
}

func (r *Repository) CreateConversion(ctx context.Context, conv *model.Conversion) error {
	query, args, err := squirrel.
		Insert("conversions").
		SetMap(map[string]interface{}{
			"offer_id": conv.OfferID,
			"payout":   conv.Payout,
			"user_id":  conv.UserID,
			"ip":       conv.IP,
			"source":   conv.Source,
			"email":    conv.Email,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build conversion insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	return nil
}

func (r *Repository) GetUnmatchedConversions(ctx context.Context, limit int) ([]*model.Conversion, error) {
	query, args, err := squirrel.
		Select("*").
		From("conversions").
		Where(squirrel.Eq{"matched": false}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var conversions []conversion
	err = r.db.SelectContext(ctx, &conversions, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Conversion, len(conversions))
	for i := range conversions {
		out[i] = conversions[i].toModel()
	}

	return out, nil
}

// FindCompletionForConversion looks for a client-recorded completion
// matching the postback's user and offer.
func (r *Repository) FindCompletionForConversion(ctx context.Context, conv *model.Conversion) (*model.OfferCompletion, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "offer_id", "offer_name", "points", "multiplier", "completed_at").
		From("offer_completions").
		Where(squirrel.Eq{
			"user_id":  conv.UserID,
			"offer_id": strconv.FormatInt(conv.OfferID, 10),
		}).
		OrderBy("completed_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c OfferCompletion
	err = r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.OfferCompletion{
		ID:          c.ID,
		UserID:      c.UserID,
		OfferID:     c.OfferID,
		OfferName:   c.OfferName,
		Points:      c.Points,
		Multiplier:  c.Multiplier,
		CompletedAt: c.CompletedAt,
	}, nil
}

func (r *Repository) MarkConversionMatched(ctx context.Context, conversionID int64) error {
	query, args, err := squirrel.
		Update("conversions").
		Set("matched", true).
		Where(squirrel.Eq{"id": conversionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
