package api

import (
	"errors"
	"net/http"

	"earnhub/internal/service"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type offerRoutes struct {
	os   service.OfferServiceI
	feed service.FeedServiceI
	a    *auth.SessionAuth
}

func NewOfferRoutes(handler *gin.RouterGroup, os service.OfferServiceI, feed service.FeedServiceI, a *auth.SessionAuth) {
	r := &offerRoutes{os: os, feed: feed, a: a}

	h := handler.Group("/offers")
	h.Use(a.SessionAuthMiddleware())
	{
		h.POST("/feed", r.GetOfferFeed)
		h.POST("/complete", r.CompleteOffer)
		h.GET("/completions", r.GetCompletions)
	}
}

type OfferFeedRequest struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Limit     string `json:"limit"`
}

// GetOfferFeed proxies the ad network listing for the authenticated
// user. The upstream payload is passed through verbatim; when the
// upstream is unreachable a built-in sample listing is served instead.
func (r *offerRoutes) GetOfferFeed(c *gin.Context) {
	log := logger.Logger()

	var req OfferFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	params := map[string]string{
		"user_id": sessionUser.ID.String(),
		"ip":      req.IP,
	}
	if req.UserAgent != "" {
		params["user_agent"] = req.UserAgent
	}
	if req.Limit != "" {
		params["limit"] = req.Limit
	}

	body, fallback, err := r.feed.Fetch(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ip is required"})
			return
		}
		log.Error("failed to fetch offer feed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "offer feed unavailable"})
		return
	}

	if fallback {
		c.Header("X-Offer-Feed-Fallback", "true")
	}
	c.Data(http.StatusOK, "application/json", body)
}

type CompleteOfferRequest struct {
	OfferID   string `json:"offer_id"`
	OfferName string `json:"offer_name"`
	Payout    string `json:"payout"`
}

func (r *offerRoutes) CompleteOffer(c *gin.Context) {
	log := logger.Logger()

	var req CompleteOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	multiplier, err := r.os.ActiveMultiplier(c.Request.Context(), sessionUser.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to resolve multiplier", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete offer"})
		return
	}

	completion, err := r.os.CompleteOffer(c.Request.Context(), sessionUser.ID, req.OfferID, req.OfferName, req.Payout, multiplier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "offer_id, offer_name and payout are required"})
		case errors.Is(err, service.ErrInvalidPayout):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout amount"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrOfferAlreadyCredited):
			c.JSON(http.StatusConflict, gin.H{"error": "offer already credited"})
		default:
			log.Error("failed to complete offer", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete offer"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"completion_id": completion.ID,
		"offer_id":      completion.OfferID,
		"offer_name":    completion.OfferName,
		"points":        completion.Points,
		"multiplier":    completion.Multiplier,
		"completed_at":  completion.CompletedAt,
	})
}

func (r *offerRoutes) GetCompletions(c *gin.Context) {
	log := logger.Logger()

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	completions, err := r.os.GetCompletions(c.Request.Context(), sessionUser.ID)
	if err != nil {
		log.Error("failed to get completions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get completions"})
		return
	}

	out := make([]gin.H, 0, len(completions))
	for _, completion := range completions {
		out = append(out, gin.H{
			"completion_id": completion.ID,
			"offer_id":      completion.OfferID,
			"offer_name":    completion.OfferName,
			"points":        completion.Points,
			"multiplier":    completion.Multiplier,
			"completed_at":  completion.CompletedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}
