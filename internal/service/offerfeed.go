package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
)

type FeedConfig struct {
	BaseURL string
	APIKey  string
}

// FeedService proxies the ad network's offer listing. On any upstream
// failure it serves the built-in sample list so the offer wall never
// renders empty.
type FeedService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFeedService(cfg FeedConfig) *FeedService {
	return &FeedService{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sampleOffer struct {
	OfferID     string  `json:"offer_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Payout      float64 `json:"payout"`
	Category    string  `json:"category"`
}

var sampleOffers = []sampleOffer{
	{OfferID: "sample-1", Name: "Daily Trivia Challenge", Description: "Answer 10 trivia questions", Payout: 0.50, Category: "survey"},
	{OfferID: "sample-2", Name: "Puzzle Quest Install", Description: "Install and reach level 5", Payout: 2.00, Category: "app"},
	{OfferID: "sample-3", Name: "Market Research Survey", Description: "15 minute consumer survey", Payout: 1.25, Category: "survey"},
	{OfferID: "sample-4", Name: "Streaming Free Trial", Description: "Sign up for a 7 day trial", Payout: 5.00, Category: "trial"},
	{OfferID: "sample-5", Name: "Cashback Shopping Signup", Description: "Create an account and browse", Payout: 0.75, Category: "signup"},
}

// Fetch returns the upstream listing body verbatim, or the sample list
// with fallback=true when the upstream cannot be reached. A missing ip
// parameter is a caller error and gets no fallback.
func (s *FeedService) Fetch(ctx context.Context, params map[string]string) ([]byte, bool, error) {
	if params["ip"] == "" {
		return nil, false, ErrInvalidInput
	}

	body, err := s.fetchUpstream(ctx, params)
	if err != nil {
		logger.Logger().Warn("offer feed upstream failed, serving sample offers", zap.Error(err))
		fallback, merr := json.Marshal(map[string]any{"success": true, "offers": sampleOffers, "sample": true})
		if merr != nil {
			return nil, false, merr
		}
		return fallback, true, nil
	}

	return body, false, nil
}

func (s *FeedService) fetchUpstream(ctx context.Context, params map[string]string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("ad network api key not configured")
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	return body, nil
}
