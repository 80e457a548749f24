package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"earnhub/internal/model"
	"earnhub/internal/service"
	"earnhub/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeOfferService struct{}

func (f *fakeOfferService) ActiveMultiplier(context.Context, uuid.UUID) (float64, error) {
	return 1.0, nil
}

func (f *fakeOfferService) CompleteOffer(context.Context, uuid.UUID, string, string, string, float64) (*model.OfferCompletion, error) {
	return nil, nil
}

func (f *fakeOfferService) GetCompletions(context.Context, uuid.UUID) ([]*model.OfferCompletion, error) {
	return nil, nil
}

type fakeFeedService struct {
	body     []byte
	fallback bool
	err      error
}

func (f *fakeFeedService) Fetch(context.Context, map[string]string) ([]byte, bool, error) {
	return f.body, f.fallback, f.err
}

func feedTestRouter(feed *fakeFeedService, sessionAuth *auth.SessionAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewOfferRoutes(router.Group("/api/v1"), &fakeOfferService{}, feed, sessionAuth)
	return router
}

func TestGetOfferFeed(t *testing.T) {
	sessionAuth := auth.NewSessionAuth("test-secret", false)
	token := sessionAuth.MintToken(uuid.New(), auth.DefaultTokenTTL)

	t.Run("Upstream body served without fallback header", func(t *testing.T) {
		feed := &fakeFeedService{body: []byte(`{"success":true,"offers":[]}`)}
		router := feedTestRouter(feed, sessionAuth)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/feed", strings.NewReader(`{"ip":"203.0.113.7"}`))
		req.Header.Set("Authorization", "Session "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Offer-Feed-Fallback"))
		assert.JSONEq(t, `{"success":true,"offers":[]}`, w.Body.String())
	})

	t.Run("Fallback body flagged via header", func(t *testing.T) {
		feed := &fakeFeedService{
			body:     []byte(`{"success":true,"offers":[{"offer_id":"sample-1"}],"sample":true}`),
			fallback: true,
		}
		router := feedTestRouter(feed, sessionAuth)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/feed", strings.NewReader(`{"ip":"203.0.113.7"}`))
		req.Header.Set("Authorization", "Session "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("X-Offer-Feed-Fallback"))
	})

	t.Run("Missing ip rejected", func(t *testing.T) {
		feed := &fakeFeedService{err: service.ErrInvalidInput}
		router := feedTestRouter(feed, sessionAuth)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/feed", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Session "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unauthenticated rejected", func(t *testing.T) {
		router := feedTestRouter(&fakeFeedService{}, sessionAuth)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/feed", strings.NewReader(`{"ip":"203.0.113.7"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
