package service

import (
	"context"
	"errors"
	"time"

	"earnhub/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidPayout        = errors.New("invalid payout amount")
	ErrOfferAlreadyCredited = errors.New("offer already credited")
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrRewardNotFound       = errors.New("reward not found")
	ErrReferralCodeInvalid  = errors.New("referral code not found")
	ErrReferrerAlreadySet   = errors.New("a referral code was already applied")
	ErrSelfReferral         = errors.New("cannot apply your own referral code")
	ErrSpinNotAvailable     = errors.New("spin is on cooldown")
	ErrTutorialAlreadyDone  = errors.New("tutorial already completed")
)

type Service struct {
	*ProfileService
	*OfferService
	*RewardService
	*ReferralService
	*FeedService
}

func NewService(
	profiles *ProfileService,
	offers *OfferService,
	rewards *RewardService,
	referrals *ReferralService,
	feed *FeedService,
) *Service {
	return &Service{
		ProfileService:  profiles,
		OfferService:    offers,
		RewardService:   rewards,
		ReferralService: referrals,
		FeedService:     feed,
	}
}

type ProfileServiceI interface {
	Register(ctx context.Context, userID uuid.UUID, username, referralCode string) (*model.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	GetLeaderboard(ctx context.Context) ([]*model.Profile, error)
	GetReferrals(ctx context.Context, userID uuid.UUID) ([]*model.ProfileReferral, error)
	CompleteTutorial(ctx context.Context, userID uuid.UUID) error
	StreakStatus(ctx context.Context, userID uuid.UUID) (*model.StreakStatus, error)
	Spin(ctx context.Context, userID uuid.UUID) (*SpinResult, error)
}

type OfferServiceI interface {
	ActiveMultiplier(ctx context.Context, userID uuid.UUID) (float64, error)
	CompleteOffer(ctx context.Context, userID uuid.UUID, offerID, offerName, payout string, multiplier float64) (*model.OfferCompletion, error)
	GetCompletions(ctx context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error)
}

type RewardServiceI interface {
	Catalog(ctx context.Context) ([]*model.Reward, error)
	Redeem(ctx context.Context, userID, rewardID, optionID uuid.UUID) (*model.Redemption, error)
	GetRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.Redemption, error)
	CreateReward(ctx context.Context, reward *model.Reward) (*model.Reward, error)
}

type ReferralServiceI interface {
	ApplyReferralSignup(ctx context.Context, userID uuid.UUID, code string) error
	GetEarnings(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error)
}

type FeedServiceI interface {
	Fetch(ctx context.Context, params map[string]string) ([]byte, bool, error)
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetProfileByReferralCode(ctx context.Context, code string) (*model.Profile, error)
	GetTopProfiles(ctx context.Context, limit int) ([]*model.Profile, error)
	GetProfileReferrals(ctx context.Context, userID uuid.UUID) ([]*model.ProfileReferral, error)
	ApplyReferralSignup(ctx context.Context, userID, referrerID uuid.UUID, welcomeBonus int) error
	CompleteTutorial(ctx context.Context, userID uuid.UUID, bonus int) error
	UpdateLastSpin(ctx context.Context, userID uuid.UUID, at time.Time) error
	GetReferralEarnings(ctx context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error)
}

type OfferRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	RecordCompletion(ctx context.Context, w *model.CompletionWrite) error
	GetCompletions(ctx context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error)
}

type RewardRepository interface {
	GetRewards(ctx context.Context) ([]*model.Reward, error)
	GetRewardOption(ctx context.Context, rewardID, optionID uuid.UUID) (*model.RewardOption, error)
	CreateReward(ctx context.Context, reward *model.Reward) error
	CreateRedemption(ctx context.Context, redemption *model.Redemption) error
	GetRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.Redemption, error)
}

type ConversionRepository interface {
	CreateConversion(ctx context.Context, conv *model.Conversion) error
	GetUnmatchedConversions(ctx context.Context, limit int) ([]*model.Conversion, error)
	FindCompletionForConversion(ctx context.Context, conv *model.Conversion) (*model.OfferCompletion, error)
	MarkConversionMatched(ctx context.Context, conversionID int64) error
}
