package service

import (
	"context"
	"testing"
	"time"

	"earnhub/internal/model"
	"earnhub/internal/repository"
	"earnhub/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_ApplyReferralSignup(t *testing.T) {
	userID := uuid.New()
	referrerID := uuid.New()

	referrer := &model.Profile{
		ID:           referrerID,
		Username:     "referrer",
		ReferralCode: "ABC123",
	}

	tests := []struct {
		name          string
		code          string
		mockSetup     func(repo *mocks.MockProfileRepository)
		expectedError error
	}{
		{
			name: "Successful application",
			code: "ABC123",
			mockSetup: func(repo *mocks.MockProfileRepository) {
				repo.On("GetProfileByReferralCode", mock.Anything, "ABC123").Return(referrer, nil)
				repo.On("ApplyReferralSignup", mock.Anything, userID, referrerID, WelcomeBonus).Return(nil)
			},
		},
		{
			name:          "Empty code",
			code:          "",
			expectedError: ErrInvalidInput,
		},
		{
			name: "Unknown code",
			code: "NOPE99",
			mockSetup: func(repo *mocks.MockProfileRepository) {
				repo.On("GetProfileByReferralCode", mock.Anything, "NOPE99").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrReferralCodeInvalid,
		},
		{
			name: "Referrer already set",
			code: "ABC123",
			mockSetup: func(repo *mocks.MockProfileRepository) {
				repo.On("GetProfileByReferralCode", mock.Anything, "ABC123").Return(referrer, nil)
				repo.On("ApplyReferralSignup", mock.Anything, userID, referrerID, WelcomeBonus).
					Return(repository.ErrReferrerAlreadySet)
			},
			expectedError: ErrReferrerAlreadySet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockProfileRepository{}
			if tt.mockSetup != nil {
				tt.mockSetup(mockRepo)
			}
			svc := NewReferralService(mockRepo)

			err := svc.ApplyReferralSignup(context.Background(), userID, tt.code)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_SelfReferralRejected(t *testing.T) {
	userID := uuid.New()
	mockRepo := &mocks.MockProfileRepository{}
	mockRepo.On("GetProfileByReferralCode", mock.Anything, "MYCODE").Return(&model.Profile{
		ID:           userID,
		ReferralCode: "MYCODE",
	}, nil)

	svc := NewReferralService(mockRepo)

	err := svc.ApplyReferralSignup(context.Background(), userID, "MYCODE")
	assert.ErrorIs(t, err, ErrSelfReferral)
}

// fakeLedger is an in-memory repository implementing the transactional
// semantics of the real one, used for the end-to-end referral scenario.
type fakeLedger struct {
	profiles    map[uuid.UUID]*model.Profile
	byCode      map[string]uuid.UUID
	completions []*model.OfferCompletion
	earnings    []*model.ReferralEarning
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		profiles: make(map[uuid.UUID]*model.Profile),
		byCode:   make(map[string]uuid.UUID),
	}
}

func (f *fakeLedger) CreateProfile(_ context.Context, p *model.Profile) error {
	if _, taken := f.byCode[p.ReferralCode]; taken {
		return repository.ErrDuplicateCode
	}
	cp := *p
	f.profiles[p.ID] = &cp
	f.byCode[p.ReferralCode] = p.ID
	return nil
}

func (f *fakeLedger) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLedger) GetProfileByReferralCode(_ context.Context, code string) (*model.Profile, error) {
	id, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.GetProfile(context.Background(), id)
}

func (f *fakeLedger) GetTopProfiles(_ context.Context, _ int) ([]*model.Profile, error) {
	return nil, nil
}

func (f *fakeLedger) GetProfileReferrals(_ context.Context, _ uuid.UUID) ([]*model.ProfileReferral, error) {
	return nil, nil
}

func (f *fakeLedger) ApplyReferralSignup(_ context.Context, userID, referrerID uuid.UUID, bonus int) error {
	user, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if user.ReferrerID != nil {
		return repository.ErrReferrerAlreadySet
	}
	referrer, ok := f.profiles[referrerID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ReferrerID = &referrerID
	user.Points += bonus
	user.LifetimePoints += bonus
	referrer.PendingReferrals++
	referrer.TotalReferrals++
	return nil
}

func (f *fakeLedger) CompleteTutorial(_ context.Context, userID uuid.UUID, bonus int) error {
	user, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if user.TutorialCompleted {
		return repository.ErrTutorialAlreadyDone
	}
	user.TutorialCompleted = true
	user.Points += bonus
	user.LifetimePoints += bonus
	return nil
}

func (f *fakeLedger) UpdateLastSpin(_ context.Context, userID uuid.UUID, at time.Time) error {
	user, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastSpinAt = &at
	return nil
}

func (f *fakeLedger) GetReferralEarnings(_ context.Context, referrerID uuid.UUID) ([]*model.ReferralEarning, error) {
	var out []*model.ReferralEarning
	for _, e := range f.earnings {
		if e.ReferrerID == referrerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) RecordCompletion(_ context.Context, w *model.CompletionWrite) error {
	c := w.Completion
	user, ok := f.profiles[c.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range f.completions {
		if existing.UserID == c.UserID && existing.OfferID == c.OfferID {
			return repository.ErrAlreadyCompleted
		}
	}

	f.completions = append(f.completions, c)
	user.Points += c.Points
	user.LifetimePoints += c.Points
	user.CurrentStreak = w.Streak.CurrentStreak
	user.BestStreak = w.Streak.BestStreak
	last := w.Streak.LastCompletionAt
	user.LastCompletionAt = &last

	if w.ReferrerID != nil {
		referrer, ok := f.profiles[*w.ReferrerID]
		if !ok {
			return repository.ErrNotFound
		}
		f.earnings = append(f.earnings, &model.ReferralEarning{
			ID:           uuid.New(),
			ReferrerID:   *w.ReferrerID,
			ReferredID:   c.UserID,
			CompletionID: c.ID,
			Points:       w.ReferralBonus,
		})
		referrer.Points += w.ReferralBonus
		referrer.LifetimePoints += w.ReferralBonus
		referrer.ReferralEarnings += w.ReferralBonus
		if referrer.PendingReferrals > 0 {
			referrer.PendingReferrals--
		}
	}

	return nil
}

func (f *fakeLedger) GetCompletions(_ context.Context, userID uuid.UUID) ([]*model.OfferCompletion, error) {
	var out []*model.OfferCompletion
	for _, c := range f.completions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// End-to-end referral scenario: signup with a referral code, then a
// first offer completion by the referred user.
func TestReferralFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	holder := NewMultiplierHolder()

	profiles := NewProfileService(ledger, holder)
	offers := NewOfferService(ledger, holder, NewEventHub())

	referrer, err := profiles.Register(ctx, uuid.New(), "referrer", "")
	assert.NoError(t, err)

	// Pin the generated code to the documented scenario value.
	ledger.profiles[referrer.ID].ReferralCode = "ABC123"
	ledger.byCode["ABC123"] = referrer.ID

	newUser, err := profiles.Register(ctx, uuid.New(), "newbie", "ABC123")
	assert.NoError(t, err)

	assert.Equal(t, WelcomeBonus, newUser.Points)
	assert.NotNil(t, newUser.ReferrerID)
	assert.Equal(t, referrer.ID, *newUser.ReferrerID)

	refProfile, err := profiles.GetProfile(ctx, referrer.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, refProfile.PendingReferrals)
	assert.Equal(t, 1, refProfile.TotalReferrals)

	multiplier, err := offers.ActiveMultiplier(ctx, newUser.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, multiplier)

	completion, err := offers.CompleteOffer(ctx, newUser.ID, "offer-77", "First Survey", "2.00", multiplier)
	assert.NoError(t, err)
	assert.Equal(t, 2000, completion.Points)

	userProfile, err := profiles.GetProfile(ctx, newUser.ID)
	assert.NoError(t, err)
	assert.Equal(t, WelcomeBonus+2000, userProfile.Points)
	assert.Equal(t, 1, userProfile.CurrentStreak)

	refProfile, err = profiles.GetProfile(ctx, referrer.ID)
	assert.NoError(t, err)
	assert.Equal(t, ReferralBonus, refProfile.Points)
	assert.Equal(t, ReferralBonus, refProfile.LifetimePoints)
	assert.Equal(t, ReferralBonus, refProfile.ReferralEarnings)
	assert.Equal(t, 0, refProfile.PendingReferrals)
	assert.Equal(t, 1, refProfile.TotalReferrals)

	earnings, err := ledger.GetReferralEarnings(ctx, referrer.ID)
	assert.NoError(t, err)
	assert.Len(t, earnings, 1)
	assert.Equal(t, newUser.ID, earnings[0].ReferredID)
	assert.Equal(t, completion.ID, earnings[0].CompletionID)
}

func TestProfileService_Spin(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	holder := NewMultiplierHolder()
	profiles := NewProfileService(ledger, holder)

	user, err := profiles.Register(ctx, uuid.New(), "spinner", "")
	assert.NoError(t, err)

	result, err := profiles.Spin(ctx, user.ID)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, result.Multiplier, 1.1)
	assert.LessOrEqual(t, result.Multiplier, 2.0)

	// Second spin inside the cooldown window is rejected.
	_, err = profiles.Spin(ctx, user.ID)
	assert.ErrorIs(t, err, ErrSpinNotAvailable)

	status, err := profiles.StreakStatus(ctx, user.ID)
	assert.NoError(t, err)
	assert.False(t, status.SpinAvailable)
	assert.NotNil(t, status.NextSpinAt)
	assert.Equal(t, result.Multiplier, status.ActiveMultiplier)
	assert.Equal(t, string(SourceSpin), status.MultiplierSource)
}

func TestProfileService_CompleteTutorial(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	profiles := NewProfileService(ledger, NewMultiplierHolder())

	user, err := profiles.Register(ctx, uuid.New(), "learner", "")
	assert.NoError(t, err)

	assert.NoError(t, profiles.CompleteTutorial(ctx, user.ID))

	p, err := profiles.GetProfile(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, p.TutorialCompleted)
	assert.Equal(t, TutorialBonus, p.Points)

	assert.ErrorIs(t, profiles.CompleteTutorial(ctx, user.ID), ErrTutorialAlreadyDone)
}
