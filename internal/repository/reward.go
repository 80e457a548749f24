package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"earnhub/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type reward struct {
	ID         uuid.UUID      `db:"id"`
	Name       string         `db:"name"`
	Slug       string         `db:"slug"`
	ImageURL   string         `db:"image_url"`
	Category   string         `db:"category"`
	Tags       pq.StringArray `db:"tags"`
	Popular    bool           `db:"popular"`
	Featured   bool           `db:"featured"`
	IsNew      bool           `db:"is_new"`
	ComingSoon bool           `db:"coming_soon"`
	ExpiresAt  *time.Time     `db:"expires_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

type rewardOption struct {
	ID           uuid.UUID `db:"id"`
	RewardID     uuid.UUID `db:"reward_id"`
	CashAmount   float64   `db:"cash_amount"`
	PointCost    int       `db:"point_cost"`
	DoublePoints bool      `db:"double_points"`
}

type redemption struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	RewardID    uuid.UUID  `db:"reward_id"`
	OptionID    uuid.UUID  `db:"option_id"`
	PointsSpent int        `db:"points_spent"`
	CashAmount  float64    `db:"cash_amount"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

func (r *Repository) GetRewards(ctx context.Context) ([]*model.Reward, error) {
	query, args, err := squirrel.
		Select("*").
		From("rewards").
		OrderBy("featured DESC", "popular DESC", "name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rewards []reward
	err = r.db.SelectContext(ctx, &rewards, query, args...)
	if err != nil {
		return nil, err
	}

	optionsQuery, optionsArgs, err := squirrel.
		Select("id", "reward_id", "cash_amount", "point_cost", "double_points").
		From("reward_options").
		OrderBy("point_cost ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var options []rewardOption
	err = r.db.SelectContext(ctx, &options, optionsQuery, optionsArgs...)
	if err != nil {
		return nil, err
	}

	byReward := make(map[uuid.UUID][]model.RewardOption)
	for _, o := range options {
		byReward[o.RewardID] = append(byReward[o.RewardID], model.RewardOption{
			ID:           o.ID,
			RewardID:     o.RewardID,
			CashAmount:   o.CashAmount,
			PointCost:    o.PointCost,
			DoublePoints: o.DoublePoints,
		})
	}

	out := make([]*model.Reward, len(rewards))
	for i, rw := range rewards {
		out[i] = &model.Reward{
			ID:         rw.ID,
			Name:       rw.Name,
			Slug:       rw.Slug,
			ImageURL:   rw.ImageURL,
			Category:   rw.Category,
			Tags:       rw.Tags,
			Popular:    rw.Popular,
			Featured:   rw.Featured,
			New:        rw.IsNew,
			ComingSoon: rw.ComingSoon,
			ExpiresAt:  rw.ExpiresAt,
			Options:    byReward[rw.ID],
		}
	}

	return out, nil
}

func (r *Repository) GetRewardOption(ctx context.Context, rewardID, optionID uuid.UUID) (*model.RewardOption, error) {
	query, args, err := squirrel.
		Select("id", "reward_id", "cash_amount", "point_cost", "double_points").
		From("reward_options").
		Where(squirrel.Eq{"id": optionID, "reward_id": rewardID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var option rewardOption
	err = r.db.GetContext(ctx, &option, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.RewardOption{
		ID:           option.ID,
		RewardID:     option.RewardID,
		CashAmount:   option.CashAmount,
		PointCost:    option.PointCost,
		DoublePoints: option.DoublePoints,
	}, nil
}

func (r *Repository) CreateReward(ctx context.Context, rw *model.Reward) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("rewards").
			SetMap(map[string]interface{}{
				"id":          rw.ID,
				"name":        rw.Name,
				"slug":        rw.Slug,
				"image_url":   rw.ImageURL,
				"category":    rw.Category,
				"tags":        pq.StringArray(rw.Tags),
				"popular":     rw.Popular,
				"featured":    rw.Featured,
				"is_new":      rw.New,
				"coming_soon": rw.ComingSoon,
				"expires_at":  rw.ExpiresAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build reward insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert reward: %w", err)
		}

		if len(rw.Options) == 0 {
			return nil
		}

		builder := squirrel.
			Insert("reward_options").
			Columns("id", "reward_id", "cash_amount", "point_cost", "double_points")

		for _, o := range rw.Options {
			builder = builder.Values(o.ID, rw.ID, o.CashAmount, o.PointCost, o.DoublePoints)
		}

		optionsQuery, optionsArgs, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build options insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, optionsQuery, optionsArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert reward options: %w", err)
		}

		return nil
	})
}

// CreateRedemption inserts the redemption row and charges the balance
// in one transaction. The decrement is conditional on the balance
// covering the cost, so a redemption can never be recorded without its
// deduction.
func (r *Repository) CreateRedemption(ctx context.Context, red *model.Redemption) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		chargeQuery, chargeArgs, err := squirrel.
			Update("profiles").
			Set("points", squirrel.Expr("points - ?", red.PointsSpent)).
			Where(squirrel.Eq{"id": red.UserID}).
			Where("points >= ?", red.PointsSpent).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, chargeQuery, chargeArgs...)
		if err != nil {
			return fmt.Errorf("failed to charge balance: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := r.getProfileWithTx(ctx, tx, red.UserID); err != nil {
				return err
			}
			return ErrInsufficientPoints
		}

		query, args, err := squirrel.
			Insert("redemptions").
			SetMap(map[string]interface{}{
				"id":           red.ID,
				"user_id":      red.UserID,
				"reward_id":    red.RewardID,
				"option_id":    red.OptionID,
				"points_spent": red.PointsSpent,
				"cash_amount":  red.CashAmount,
				"status":       red.Status,
				"created_at":   red.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build redemption insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert redemption: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.Redemption, error) {
	query, args, err := squirrel.
		Select("*").
		From("redemptions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var redemptions []redemption
	err = r.db.SelectContext(ctx, &redemptions, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Redemption, len(redemptions))
	for i, red := range redemptions {
		out[i] = &model.Redemption{
			ID:          red.ID,
			UserID:      red.UserID,
			RewardID:    red.RewardID,
			OptionID:    red.OptionID,
			PointsSpent: red.PointsSpent,
			CashAmount:  red.CashAmount,
			Status:      red.Status,
			CreatedAt:   red.CreatedAt,
			ProcessedAt: red.ProcessedAt,
		}
	}

	return out, nil
}
