package api

import (
	"errors"
	"net/http"

	"earnhub/internal/model"
	"earnhub/internal/service"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type profileRoutes struct {
	ps service.ProfileServiceI
	rs service.ReferralServiceI
	a  *auth.SessionAuth
}

func NewProfileRoutes(handler *gin.RouterGroup, ps service.ProfileServiceI, rs service.ReferralServiceI, a *auth.SessionAuth) {
	r := &profileRoutes{ps: ps, rs: rs, a: a}

	h := handler.Group("/profiles")
	h.Use(a.SessionAuthMiddleware())
	{
		h.POST("/", r.Register)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:user_id", r.GetProfile)
		h.GET("/:user_id/referrals", r.GetReferrals)
		h.GET("/:user_id/earnings", r.GetReferralEarnings)
		h.POST("/:user_id/referral", r.ApplyReferralCode)
		h.POST("/:user_id/tutorial", r.CompleteTutorial)
	}

	s := handler.Group("/")
	s.Use(a.SessionAuthMiddleware())
	{
		s.GET("/streak/:user_id", r.GetStreakStatus)
		s.POST("/spin/:user_id", r.Spin)
	}
}

// sessionScopedID parses the user_id path parameter and rejects the
// request when it does not belong to the authenticated session.
func (r *profileRoutes) sessionScopedID(c *gin.Context) (uuid.UUID, bool) {
	log := logger.Logger()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return uuid.Nil, false
	}

	sessionUser, ok := auth.SessionUserFrom(c)
	if !ok {
		log.Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	if sessionUser.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session does not match user_id"})
		return uuid.Nil, false
	}

	return userID, true
}

type RegisterRequest struct {
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code"`
}

func (r *profileRoutes) Register(c *gin.Context) {
	log := logger.Logger()

	var req RegisterRequest
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

	profile, err := r.ps.Register(c.Request.Context(), sessionUser.ID, req.Username, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		case errors.Is(err, service.ErrReferralCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "referral code not found"})
		default:
			log.Error("failed to register profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register profile"})
		}
		return
	}

	c.JSON(http.StatusCreated, profileResponse(profile))
}

func (r *profileRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	profile, err := r.ps.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no profile associated with the provided user_id"})
			return
		}
		log.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, profileResponse(profile))
}

func (r *profileRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	profiles, err := r.ps.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	response := make([]gin.H, 0, len(profiles))
	for i, profile := range profiles {
		response = append(response, gin.H{
			"rank":            i + 1,
			"username":        profile.Username,
			"lifetime_points": profile.LifetimePoints,
			"total_referrals": profile.TotalReferrals,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (r *profileRoutes) GetReferrals(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	referrals, err := r.ps.GetReferrals(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to get referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	out := make([]gin.H, 0, len(referrals))
	for _, ref := range referrals {
		out = append(out, gin.H{
			"username":  ref.Username,
			"points":    ref.Points,
			"joined_at": ref.JoinedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}

func (r *profileRoutes) GetReferralEarnings(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	earnings, err := r.rs.GetEarnings(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to get referral earnings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral earnings"})
		return
	}

	out := make([]gin.H, 0, len(earnings))
	for _, e := range earnings {
		out = append(out, gin.H{
			"referred_id":   e.ReferredID,
			"completion_id": e.CompletionID,
			"points":        e.Points,
			"created_at":    e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}

type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code"`
}

func (r *profileRoutes) ApplyReferralCode(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.rs.ApplyReferralSignup(c.Request.Context(), userID, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "referral code is required"})
		case errors.Is(err, service.ErrReferralCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "referral code not found"})
		case errors.Is(err, service.ErrSelfReferral):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot apply your own referral code"})
		case errors.Is(err, service.ErrReferrerAlreadySet):
			c.JSON(http.StatusConflict, gin.H{"error": "a referral code was already applied"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to apply referral code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply referral code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": true})
}

func (r *profileRoutes) CompleteTutorial(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	err := r.ps.CompleteTutorial(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrTutorialAlreadyDone):
			c.JSON(http.StatusConflict, gin.H{"error": "tutorial already completed"})
		default:
			log.Error("failed to complete tutorial", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete tutorial"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"tutorial_completed": true})
}

func (r *profileRoutes) GetStreakStatus(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	status, err := r.ps.StreakStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get streak status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get streak status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current_streak":     status.CurrentStreak,
		"best_streak":        status.BestStreak,
		"last_completion_at": status.LastCompletionAt,
		"streak_multiplier":  status.StreakMultiplier,
		"active_multiplier":  status.ActiveMultiplier,
		"multiplier_source":  status.MultiplierSource,
		"spin_available":     status.SpinAvailable,
		"next_spin_at":       status.NextSpinAt,
	})
}

func (r *profileRoutes) Spin(c *gin.Context) {
	log := logger.Logger()

	userID, ok := r.sessionScopedID(c)
	if !ok {
		return
	}

	result, err := r.ps.Spin(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrSpinNotAvailable):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "spin is on cooldown"})
		default:
			log.Error("failed to spin", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to spin"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"multiplier": result.Multiplier,
		"source":     string(result.Source),
		"applied":    result.Applied,
	})
}

func profileResponse(profile *model.Profile) gin.H {
	return gin.H{
		"user_id":            profile.ID,
		"username":           profile.Username,
		"points":             profile.Points,
		"lifetime_points":    profile.LifetimePoints,
		"current_streak":     profile.CurrentStreak,
		"best_streak":        profile.BestStreak,
		"referral_code":      profile.ReferralCode,
		"referrer_id":        profile.ReferrerID,
		"pending_referrals":  profile.PendingReferrals,
		"total_referrals":    profile.TotalReferrals,
		"referral_earnings":  profile.ReferralEarnings,
		"tutorial_completed": profile.TutorialCompleted,
		"registration_date":  profile.RegistrationDate,
	}
}
