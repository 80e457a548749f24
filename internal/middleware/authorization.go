package middleware

import (
	"net/http"

	"earnhub/internal/service"
	"earnhub/pkg/auth"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type Authorization struct {
	profileService service.ProfileServiceI
}

func NewAuthorization(profileService service.ProfileServiceI) *Authorization {
	return &Authorization{
		profileService: profileService,
	}
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		sessionUser, ok := auth.SessionUserFrom(c)
		if !ok {
			log.Error("session user not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		profile, err := a.profileService.GetProfile(c.Request.Context(), sessionUser.ID)
		if err != nil {
			log.Error("failed to get profile data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !profile.IsAdmin {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.String("user_id", sessionUser.ID.String()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}
