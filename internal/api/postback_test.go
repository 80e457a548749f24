package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"earnhub/internal/model"
	"earnhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeProfileService struct {
	known map[uuid.UUID]*model.Profile
}

func (f *fakeProfileService) Register(context.Context, uuid.UUID, string, string) (*model.Profile, error) {
	return nil, nil
}

func (f *fakeProfileService) GetProfile(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	p, ok := f.known[userID]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeProfileService) GetLeaderboard(context.Context) ([]*model.Profile, error) {
	return nil, nil
}

func (f *fakeProfileService) GetReferrals(context.Context, uuid.UUID) ([]*model.ProfileReferral, error) {
	return nil, nil
}

func (f *fakeProfileService) CompleteTutorial(context.Context, uuid.UUID) error { return nil }

func (f *fakeProfileService) StreakStatus(context.Context, uuid.UUID) (*model.StreakStatus, error) {
	return nil, nil
}

func (f *fakeProfileService) Spin(context.Context, uuid.UUID) (*service.SpinResult, error) {
	return nil, nil
}

type fakeConversionStore struct {
	created []*model.Conversion
	err     error
}

func (f *fakeConversionStore) CreateConversion(_ context.Context, conv *model.Conversion) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, conv)
	return nil
}

func (f *fakeConversionStore) GetUnmatchedConversions(context.Context, int) ([]*model.Conversion, error) {
	return nil, nil
}

func (f *fakeConversionStore) FindCompletionForConversion(context.Context, *model.Conversion) (*model.OfferCompletion, error) {
	return nil, nil
}

func (f *fakeConversionStore) MarkConversionMatched(context.Context, int64) error { return nil }

func postbackTestRouter(profiles *fakeProfileService, store *fakeConversionStore, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPostbackRoutes(router, profiles, store, secret)
	return router
}

func TestHandlePostback(t *testing.T) {
	userID := uuid.New()
	profiles := &fakeProfileService{
		known: map[uuid.UUID]*model.Profile{
			userID: {ID: userID, Username: "tester"},
		},
	}

	validQuery := url.Values{
		"offer_id": {"4242"},
		"payout":   {"2.50"},
		"aff_sub4": {userID.String()},
		"ip":       {"203.0.113.7"},
		"aff_sub5": {"network-a"},
		"email":    {"tester@example.com"},
	}

	tests := []struct {
		name           string
		method         string
		query          url.Values
		expectedStatus int
	}{
		{
			name:           "Valid conversion",
			method:         http.MethodGet,
			query:          validQuery,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "POST rejected",
			method:         http.MethodPost,
			query:          validQuery,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "Missing offer_id",
			method: http.MethodGet,
			query: url.Values{
				"payout":   {"2.50"},
				"aff_sub4": {userID.String()},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Missing payout",
			method: http.MethodGet,
			query: url.Values{
				"offer_id": {"4242"},
				"aff_sub4": {userID.String()},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Missing aff_sub4",
			method: http.MethodGet,
			query: url.Values{
				"offer_id": {"4242"},
				"payout":   {"2.50"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Malformed offer_id",
			method: http.MethodGet,
			query: url.Values{
				"offer_id": {"not-a-number"},
				"payout":   {"2.50"},
				"aff_sub4": {userID.String()},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Negative payout",
			method: http.MethodGet,
			query: url.Values{
				"offer_id": {"4242"},
				"payout":   {"-1.00"},
				"aff_sub4": {userID.String()},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Unknown user",
			method: http.MethodGet,
			query: url.Values{
				"offer_id": {"4242"},
				"payout":   {"2.50"},
				"aff_sub4": {uuid.New().String()},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeConversionStore{}
			router := postbackTestRouter(profiles, store, "")

			req := httptest.NewRequest(tt.method, "/postback?"+tt.query.Encode(), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				assert.Len(t, store.created, 1)
				conv := store.created[0]
				assert.Equal(t, int64(4242), conv.OfferID)
				assert.Equal(t, 2.50, conv.Payout)
				assert.Equal(t, userID, conv.UserID)
				assert.Equal(t, "203.0.113.7", conv.IP)
				assert.Equal(t, "network-a", conv.Source)
				assert.Equal(t, "tester@example.com", conv.Email)
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			} else {
				assert.Empty(t, store.created)
			}
		})
	}
}

func TestHandlePostback_Signature(t *testing.T) {
	userID := uuid.New()
	profiles := &fakeProfileService{
		known: map[uuid.UUID]*model.Profile{
			userID: {ID: userID, Username: "tester"},
		},
	}
	secret := "shared-secret"

	query := url.Values{
		"offer_id": {"7"},
		"payout":   {"1.00"},
		"aff_sub4": {userID.String()},
	}

	t.Run("Valid signature accepted", func(t *testing.T) {
		store := &fakeConversionStore{}
		router := postbackTestRouter(profiles, store, secret)

		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("sig", postbackSignature(secret, "7", "1.00", userID.String()))

		req := httptest.NewRequest(http.MethodGet, "/postback?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, store.created, 1)
	})

	t.Run("Missing signature rejected", func(t *testing.T) {
		store := &fakeConversionStore{}
		router := postbackTestRouter(profiles, store, secret)

		req := httptest.NewRequest(http.MethodGet, "/postback?"+query.Encode(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, store.created)
	})

	t.Run("Tampered payout rejected", func(t *testing.T) {
		store := &fakeConversionStore{}
		router := postbackTestRouter(profiles, store, secret)

		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("payout", "99.00")
		q.Set("sig", postbackSignature(secret, "7", "1.00", userID.String()))

		req := httptest.NewRequest(http.MethodGet, "/postback?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, store.created)
	})
}
