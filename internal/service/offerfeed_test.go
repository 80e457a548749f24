package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestFeedService_Fetch(t *testing.T) {
	params := map[string]string{"user_id": "u-1", "ip": "203.0.113.7"}

	t.Run("Upstream body passed through verbatim", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "203.0.113.7", r.URL.Query().Get("ip"))
			w.Write([]byte(`{"success":true,"offers":[{"offer_id":"up-1"}]}`))
		}))
		defer upstream.Close()

		svc := NewFeedService(FeedConfig{BaseURL: upstream.URL, APIKey: "test-key"})

		body, fallback, err := svc.Fetch(context.Background(), params)
		assert.NoError(t, err)
		assert.False(t, fallback)
		assert.JSONEq(t, `{"success":true,"offers":[{"offer_id":"up-1"}]}`, string(body))
	})

	t.Run("Failing upstream serves the sample list", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer upstream.Close()

		svc := NewFeedService(FeedConfig{BaseURL: upstream.URL, APIKey: "test-key"})

		body, fallback, err := svc.Fetch(context.Background(), params)
		assert.NoError(t, err)
		assert.True(t, fallback)

		var payload struct {
			Success bool `json:"success"`
			Sample  bool `json:"sample"`
			Offers  []struct {
				OfferID string  `json:"offer_id"`
				Payout  float64 `json:"payout"`
			} `json:"offers"`
		}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.True(t, payload.Success)
		assert.True(t, payload.Sample)
		assert.NotEmpty(t, payload.Offers)
	})

	t.Run("Missing api key serves the sample list", func(t *testing.T) {
		svc := NewFeedService(FeedConfig{BaseURL: "http://127.0.0.1:0", APIKey: ""})

		body, fallback, err := svc.Fetch(context.Background(), params)
		assert.NoError(t, err)
		assert.True(t, fallback)
		assert.NotEmpty(t, body)
	})

	t.Run("Missing ip is a caller error, no fallback", func(t *testing.T) {
		svc := NewFeedService(FeedConfig{BaseURL: "http://127.0.0.1:0", APIKey: "test-key"})

		_, _, err := svc.Fetch(context.Background(), map[string]string{"user_id": "u-1"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
