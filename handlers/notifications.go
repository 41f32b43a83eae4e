package handlers

import (
	"net/http"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"
	"narya-api/notify"

	"github.com/gin-gonic/gin"
)

type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription" binding:"required"`
}

// Subscribe upserts the caller's push subscription; at most one per user
func Subscribe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription"})
		return
	}

	var sub models.PushSubscription
	if err := config.DB.Where("user_id = ?", userID).First(&sub).Error; err == nil {
		config.DB.Model(&sub).Updates(map[string]interface{}{
			"endpoint": req.Subscription.Endpoint,
			"p256dh":   req.Subscription.Keys.P256dh,
			"auth":     req.Subscription.Keys.Auth,
		})
	} else {
		sub = models.PushSubscription{
			UserID:   userID,
			Endpoint: req.Subscription.Endpoint,
			P256dh:   req.Subscription.Keys.P256dh,
			Auth:     req.Subscription.Keys.Auth,
		}
		if err := config.DB.Create(&sub).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscribed"})
}

// Unsubscribe deletes the caller's push subscription
func Unsubscribe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	config.DB.Where("user_id = ?", userID).Delete(&models.PushSubscription{})
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

// VapidPublicKey serves the public key the frontend subscribes with
func VapidPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": notify.PublicVAPIDKey()})
}
