package handlers

import (
	"errors"
	"net/http"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"
	"narya-api/orderflow"
	"narya-api/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Payment providers, wired in main via InitPayments
var (
	MpesaProvider    *payments.Mpesa
	StripeProvider   *payments.Stripe
	CoinbaseProvider *payments.Coinbase
)

func InitPayments() {
	MpesaProvider = payments.NewMpesaFromEnv()
	StripeProvider = payments.NewStripeFromEnv()
	CoinbaseProvider = payments.NewCoinbaseFromEnv()
}

type StkPushRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

// StkPush initiates an M-Pesa STK push for an existing order. The provider's
// CheckoutRequestID is stored as the payment correlation id; confirmation
// arrives later on the callback endpoint.
func StkPush(c *gin.Context) {
	var req StkPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, ok := loadOwnOrder(c, req.OrderID)
	if !ok {
		return
	}

	res, err := MpesaProvider.Initiate(c.Request.Context(), order, payments.InitiateOptions{Phone: req.Phone})
	if err != nil {
		config.Logger.Error("mpesa initiation failed", zap.Uint("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "M-Pesa STK Push failed"})
		return
	}

	storeInitiation(order.ID, res)
	c.JSON(http.StatusOK, gin.H{
		"message":  "STK Push sent! Complete payment on your phone.",
		"order_id": order.ID,
	})
}

// MpesaCallback is invoked by Safaricom out-of-band. A payload that matches
// no local order is acknowledged and ignored so provider retries stay quiet;
// a malformed payload is rejected.
func MpesaCallback(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	cb, err := payments.ParseCallback(body)
	if err != nil {
		config.Logger.Warn("mpesa callback parse failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed callback"})
		return
	}

	order, err := orderflow.FindByProviderRef(config.DB, cb.CheckoutRequestID)
	if err != nil {
		config.Logger.Warn("mpesa callback for unknown order",
			zap.String("checkout_request_id", cb.CheckoutRequestID))
		c.JSON(http.StatusOK, gin.H{"message": "Order not found, ignoring callback"})
		return
	}

	if !cb.Success() {
		config.Logger.Info("mpesa payment failed",
			zap.Uint("order_id", order.ID), zap.String("reason", cb.ResultDesc))
		c.JSON(http.StatusOK, gin.H{"message": "Callback processed"})
		return
	}

	applyPayment(c, order.ID, models.PaymentResult{
		ProviderID:   cb.CheckoutRequestID,
		Status:       "Paid",
		Amount:       cb.Amount,
		Receipt:      cb.Receipt,
		EmailAddress: "mpesa@safaricom.com",
	})
}

type CreateIntentRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// StripeCreateIntent creates a PaymentIntent and returns the client secret
func StripeCreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, ok := loadOwnOrder(c, req.OrderID)
	if !ok {
		return
	}

	res, err := StripeProvider.Initiate(c.Request.Context(), order, payments.InitiateOptions{})
	if err != nil {
		config.Logger.Error("stripe initiation failed", zap.Uint("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe payment initiation failed"})
		return
	}

	storeInitiation(order.ID, res)
	c.JSON(http.StatusOK, gin.H{"client_secret": res.ClientSecret})
}

// StripeWebhook handles signed Stripe events. Signature verification fails
// closed; verified events for unknown orders are acknowledged and ignored.
func StripeWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	conf, err := StripeProvider.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		config.Logger.Warn("stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook verification failed"})
		return
	}
	if conf == nil {
		// verified, but not an event we act on
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var order models.Order
	if err := config.DB.Where("ref = ?", conf.OrderRef).First(&order).Error; err != nil {
		config.Logger.Warn("stripe webhook for unknown order", zap.String("order_ref", conf.OrderRef))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	applyPayment(c, order.ID, models.PaymentResult{
		ProviderID:   conf.IntentID,
		Status:       conf.Status,
		EmailAddress: conf.ReceiptEmail,
	})
}

type CreateChargeRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// CryptoCreateCharge creates a Coinbase Commerce charge and returns the
// hosted checkout URL
func CryptoCreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, ok := loadOwnOrder(c, req.OrderID)
	if !ok {
		return
	}

	res, err := CoinbaseProvider.Initiate(c.Request.Context(), order, payments.InitiateOptions{})
	if err != nil {
		config.Logger.Error("coinbase initiation failed", zap.Uint("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Crypto charge creation failed"})
		return
	}

	storeInitiation(order.ID, res)
	c.JSON(http.StatusOK, gin.H{"hosted_url": res.HostedURL, "id": res.ProviderID})
}

// CryptoWebhook handles signed Coinbase Commerce events
func CryptoWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	conf, err := CoinbaseProvider.VerifyWebhook(body, c.GetHeader("X-CC-Webhook-Signature"))
	if err != nil {
		config.Logger.Warn("coinbase webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook verification failed"})
		return
	}
	if conf == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var order models.Order
	if err := config.DB.Where("ref = ?", conf.OrderRef).First(&order).Error; err != nil {
		config.Logger.Warn("coinbase webhook for unknown order", zap.String("order_ref", conf.OrderRef))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	applyPayment(c, order.ID, models.PaymentResult{
		ProviderID: conf.ChargeID,
		Status:     "confirmed",
	})
}

// loadOwnOrder fetches an order and enforces ownership
func loadOwnOrder(c *gin.Context, orderID uint) (*models.Order, bool) {
	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	if order.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
		return nil, false
	}
	if order.IsPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order is already paid"})
		return nil, false
	}
	return &order, true
}

// storeInitiation records the provider correlation id on the order
func storeInitiation(orderID uint, res *payments.InitiateResult) {
	config.DB.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"payment_provider_id": res.ProviderID,
		"payment_status":      res.Status,
	})
}

// applyPayment marks the order paid through the idempotent engine path and
// acknowledges the provider either way.
func applyPayment(c *gin.Context, orderID uint, result models.PaymentResult) {
	_, err := orderflow.MarkPaid(config.DB, orderID, result)
	switch {
	case err == nil:
		config.Logger.Info("order marked paid", zap.Uint("order_id", orderID),
			zap.String("provider_id", result.ProviderID))
	case errors.Is(err, orderflow.ErrAlreadyPaid):
		// duplicate delivery; same end state, no side effects
		config.Logger.Info("duplicate payment confirmation ignored", zap.Uint("order_id", orderID))
	default:
		config.Logger.Error("failed to mark order paid", zap.Uint("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
