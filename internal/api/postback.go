package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"earnhub/internal/model"
	"earnhub/internal/service"
	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type postbackRoutes struct {
	ps     service.ProfileServiceI
	conv   service.ConversionRepository
	secret string
}

// NewPostbackRoutes registers the ad network postback endpoint. The
// network calls it server-to-server, so it sits outside the session
// middleware; an optional shared secret authenticates the caller.
func NewPostbackRoutes(handler gin.IRouter, ps service.ProfileServiceI, conv service.ConversionRepository, secret string) {
	r := &postbackRoutes{ps: ps, conv: conv, secret: secret}
	handler.Any("/postback", r.HandlePostback)
}

func (r *postbackRoutes) HandlePostback(c *gin.Context) {
	log := logger.Logger()

	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	offerID := c.Query("offer_id")
	payout := c.Query("payout")
	affSub4 := c.Query("aff_sub4")

	if offerID == "" || payout == "" || affSub4 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer_id, payout and aff_sub4 are required"})
		return
	}

	if r.secret != "" {
		expected := postbackSignature(r.secret, offerID, payout, affSub4)
		if !hmac.Equal([]byte(expected), []byte(c.Query("sig"))) {
			log.Warn("postback signature mismatch", zap.String("offer_id", offerID))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	offerIDNum, err := strconv.ParseInt(offerID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer_id"})
		return
	}

	payoutNum, err := strconv.ParseFloat(payout, 64)
	if err != nil || payoutNum < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout"})
		return
	}

	userID, err := uuid.Parse(affSub4)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aff_sub4"})
		return
	}

	_, err = r.ps.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to look up profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conversion := &model.Conversion{
		OfferID: offerIDNum,
		Payout:  payoutNum,
		UserID:  userID,
		IP:      c.Query("ip"),
		Source:  c.Query("aff_sub5"),
		Email:   c.Query("email"),
	}

	if err := r.conv.CreateConversion(c.Request.Context(), conversion); err != nil {
		log.Error("failed to record conversion",
			zap.Int64("offer_id", offerIDNum),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record conversion"})
		return
	}

	log.Info("conversion recorded",
		zap.Int64("offer_id", offerIDNum),
		zap.String("user_id", userID.String()),
		zap.Float64("payout", payoutNum))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func postbackSignature(secret, offerID, payout, userID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(offerID + "|" + payout + "|" + userID))
	return hex.EncodeToString(mac.Sum(nil))
}
