package api

import (
	"errors"
	"net/http"

	"earnhub/internal/middleware"
	"earnhub/internal/model"
	"earnhub/internal/service"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type rewardRoutes struct {
	rs service.RewardServiceI
	a  *auth.SessionAuth
}

func NewRewardRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, a *auth.SessionAuth, authz *middleware.Authorization) {
	r := &rewardRoutes{rs: rs, a: a}

	h := handler.Group("/rewards")
	h.Use(a.SessionAuthMiddleware())
	{
		h.GET("/", r.GetCatalog)
		h.POST("/redeem", r.Redeem)
		h.GET("/redemptions", r.GetRedemptions)
	}

	admin := h.Group("/admin")
	admin.Use(authz.AdminOnly())
	{
		admin.POST("/new", r.CreateReward)
	}
}

func (r *rewardRoutes) GetCatalog(c *gin.Context) {
	log := logger.Logger()

	rewards, err := r.rs.Catalog(c.Request.Context())
	if err != nil {
		log.Error("failed to get reward catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get reward catalog"})
		return
	}

	out := make([]gin.H, 0, len(rewards))
	for _, reward := range rewards {
		options := make([]gin.H, 0, len(reward.Options))
		for _, option := range reward.Options {
			options = append(options, gin.H{
				"option_id":     option.ID,
				"cash_amount":   option.CashAmount,
				"point_cost":    option.PointCost,
				"double_points": option.DoublePoints,
				"current_cost":  service.RedemptionCost(&option),
			})
		}

		out = append(out, gin.H{
			"reward_id":   reward.ID,
			"name":        reward.Name,
			"slug":        reward.Slug,
			"category":    reward.Category,
			"image_url":   reward.ImageURL,
			"tags":        reward.Tags,
			"popular":     reward.Popular,
			"featured":    reward.Featured,
			"new":         reward.New,
			"coming_soon": reward.ComingSoon,
			"expires_at":  reward.ExpiresAt,
			"options":     options,
		})
	}

	c.JSON(http.StatusOK, out)
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
	OptionID string `json:"option_id"`
}

func (r *rewardRoutes) Redeem(c *gin.Context) {
	log := logger.Logger()

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward_id"})
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid option_id"})
		return
	}

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	redemption, err := r.rs.Redeem(c.Request.Context(), sessionUser.ID, rewardID, optionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reward option not found"})
		case errors.Is(err, service.ErrInsufficientPoints):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient points"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to redeem reward", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem reward"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"redemption_id": redemption.ID,
		"reward_id":     redemption.RewardID,
		"option_id":     redemption.OptionID,
		"points_spent":  redemption.PointsSpent,
		"cash_amount":   redemption.CashAmount,
		"status":        redemption.Status,
		"created_at":    redemption.CreatedAt,
	})
}

func (r *rewardRoutes) GetRedemptions(c *gin.Context) {
	log := logger.Logger()

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	redemptions, err := r.rs.GetRedemptions(c.Request.Context(), sessionUser.ID)
	if err != nil {
		log.Error("failed to get redemptions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get redemptions"})
		return
	}

	out := make([]gin.H, 0, len(redemptions))
	for _, redemption := range redemptions {
		out = append(out, gin.H{
			"redemption_id": redemption.ID,
			"reward_id":     redemption.RewardID,
			"option_id":     redemption.OptionID,
			"points_spent":  redemption.PointsSpent,
			"cash_amount":   redemption.CashAmount,
			"status":        redemption.Status,
			"created_at":    redemption.CreatedAt,
			"processed_at":  redemption.ProcessedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}

type CreateRewardRequest struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	ImageURL   string   `json:"image_url"`
	Tags       []string `json:"tags"`
	Popular    bool     `json:"popular"`
	Featured   bool     `json:"featured"`
	New        bool     `json:"new"`
	ComingSoon bool     `json:"coming_soon"`
	Options    []struct {
		CashAmount   float64 `json:"cash_amount"`
		PointCost    int     `json:"point_cost"`
		DoublePoints bool    `json:"double_points"`
	} `json:"options"`
}

func (r *rewardRoutes) CreateReward(c *gin.Context) {
	log := logger.Logger()

	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reward := &model.Reward{
		Name:       req.Name,
		Category:   req.Category,
		ImageURL:   req.ImageURL,
		Tags:       req.Tags,
		Popular:    req.Popular,
		Featured:   req.Featured,
		New:        req.New,
		ComingSoon: req.ComingSoon,
	}
	for _, option := range req.Options {
		reward.Options = append(reward.Options, model.RewardOption{
			CashAmount:   option.CashAmount,
			PointCost:    option.PointCost,
			DoublePoints: option.DoublePoints,
		})
	}

	created, err := r.rs.CreateReward(c.Request.Context(), reward)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and at least one option are required"})
			return
		}
		log.Error("failed to create reward", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reward"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reward_id": created.ID,
		"slug":      created.Slug,
	})
}
