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
)

type Profile struct {
	ID                uuid.UUID  `db:"id"`
	Username          string     `db:"username"`
	Points            int        `db:"points"`
	LifetimePoints    int        `db:"lifetime_points"`
	CurrentStreak     int        `db:"current_streak"`
	BestStreak        int        `db:"best_streak"`
	LastCompletionAt  *time.Time `db:"last_completion_at"`
	LastSpinAt        *time.Time `db:"last_spin_at"`
	ReferralCode      string     `db:"referral_code"`
	ReferrerID        *uuid.UUID `db:"referrer_id"`
	PendingReferrals  int        `db:"pending_referrals"`
	TotalReferrals    int        `db:"total_referrals"`
	ReferralEarnings  int        `db:"referral_earnings"`
	TutorialCompleted bool       `db:"tutorial_completed"`
	IsAdmin           bool       `db:"is_admin"`
	RegistrationDate  time.Time  `db:"registration_date"`
}

func (p *Profile) toModel() *model.Profile {
	return &model.Profile{
		ID:                p.ID,
		Username:          p.Username,
		Points:            p.Points,
		LifetimePoints:    p.LifetimePoints,
		CurrentStreak:     p.CurrentStreak,
		BestStreak:        p.BestStreak,
		LastCompletionAt:  p.LastCompletionAt,
		LastSpinAt:        p.LastSpinAt,
		ReferralCode:      p.ReferralCode,
		ReferrerID:        p.ReferrerID,
		PendingReferrals:  p.PendingReferrals,
		TotalReferrals:    p.TotalReferrals,
		ReferralEarnings:  p.ReferralEarnings,
		TutorialCompleted: p.TutorialCompleted,
		IsAdmin:           p.IsAdmin,
		RegistrationDate:  p.RegistrationDate,
	}
}

func (r *Repository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	query, args, err := squirrel.
		Insert("profiles").
		SetMap(map[string]interface{}{
			"id":                profile.ID,
			"username":          profile.Username,
			"points":            profile.Points,
			"lifetime_points":   profile.LifetimePoints,
			"referral_code":     profile.ReferralCode,
			"registration_date": profile.RegistrationDate,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "profiles_referral_code_key") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile Profile
	query, args, err := squirrel.
		Select("*").
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &profile, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return profile.toModel(), nil
}

func (r *Repository) GetProfileByReferralCode(ctx context.Context, code string) (*model.Profile, error) {
	var profile Profile
	query, args, err := squirrel.
		Select("*").
		From("profiles").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &profile, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return profile.toModel(), nil
}

// ApplyReferralSignup links userID to referrerID and applies the signup
// bonuses. First-referral-wins: the profile update is conditional on
// referrer_id still being NULL.
func (r *Repository) ApplyReferralSignup(ctx context.Context, userID, referrerID uuid.UUID, welcomeBonus int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("profiles").
			SetMap(map[string]interface{}{
				"referrer_id": referrerID,
			}).
			Set("points", squirrel.Expr("points + ?", welcomeBonus)).
			Set("lifetime_points", squirrel.Expr("lifetime_points + ?", welcomeBonus)).
			Where(squirrel.Eq{"id": userID}).
			Where("referrer_id IS NULL").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to set referrer: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := r.getProfileWithTx(ctx, tx, userID); err != nil {
				return err
			}
			return ErrReferrerAlreadySet
		}

		referrerQuery, referrerArgs, err := squirrel.
			Update("profiles").
			Set("pending_referrals", squirrel.Expr("pending_referrals + 1")).
			Set("total_referrals", squirrel.Expr("total_referrals + 1")).
			Where(squirrel.Eq{"id": referrerID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, referrerQuery, referrerArgs...)
		if err != nil {
			return fmt.Errorf("failed to update referrer counters: %w", err)
		}

		return nil
	})
}

func (r *Repository) CompleteTutorial(ctx context.Context, userID uuid.UUID, bonus int) error {
	query, args, err := squirrel.
		Update("profiles").
		Set("tutorial_completed", true).
		Set("points", squirrel.Expr("points + ?", bonus)).
		Set("lifetime_points", squirrel.Expr("lifetime_points + ?", bonus)).
		Where(squirrel.Eq{"id": userID, "tutorial_completed": false}).
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
		if _, err := r.GetProfile(ctx, userID); err != nil {
			return err
		}
		return ErrTutorialAlreadyDone
	}

	return nil
}

func (r *Repository) UpdateLastSpin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("profiles").
		Set("last_spin_at", at).
		Where(squirrel.Eq{"id": userID}).
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

func (r *Repository) GetTopProfiles(ctx context.Context, limit int) ([]*model.Profile, error) {
	query, args, err := squirrel.
		Select("*").
		From("profiles").
		OrderBy("lifetime_points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var profiles []Profile
	err = r.db.SelectContext(ctx, &profiles, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Profile, len(profiles))
	for i := range profiles {
		out[i] = profiles[i].toModel()
	}

	return out, nil
}

func (r *Repository) GetProfileReferrals(ctx context.Context, userID uuid.UUID) ([]*model.ProfileReferral, error) {
	query, args, err := squirrel.
		Select("username", "points", "registration_date").
		From("profiles").
		Where(squirrel.Eq{"referrer_id": userID}).
		OrderBy("registration_date DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []struct {
		Username         string    `db:"username"`
		Points           int       `db:"points"`
		RegistrationDate time.Time `db:"registration_date"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile referrals: %w", err)
	}

	refs := make([]*model.ProfileReferral, len(rows))
	for i, row := range rows {
		refs[i] = &model.ProfileReferral{
			Username: row.Username,
			Points:   row.Points,
			JoinedAt: row.RegistrationDate,
		}
	}

	return refs, nil
}

func (r *Repository) getProfileWithTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Profile, error) {
	var profile Profile
	query, args, err := squirrel.
		Select("*").
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &profile, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return profile.toModel(), nil
}
