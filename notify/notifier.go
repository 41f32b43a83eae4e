package notify

import (
	"encoding/json"
	"fmt"

	"narya-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier fans a status-changing event out to the order owner: one email
// plus a web push to every registered subscription. Delivery is at-most-once
// and best-effort; no queue, no retry, no backoff. A failure never affects
// the already-committed change that triggered it.
type Notifier struct {
	DB     *gorm.DB
	Email  EmailSender
	Push   PushSender
	Logger *zap.Logger
}

func New(db *gorm.DB, email EmailSender, push PushSender, logger *zap.Logger) *Notifier {
	return &Notifier{DB: db, Email: email, Push: push, Logger: logger}
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// OrderStatusChanged implements orderflow.Notifier. Delivery happens off the
// request path.
func (n *Notifier) OrderStatusChanged(order *models.Order, from, to models.DeliveryStatus) {
	go n.deliverStatusChange(order, from, to)
}

// OrderPaid implements orderflow.Notifier.
func (n *Notifier) OrderPaid(order *models.Order) {
	go n.deliverPaid(order)
}

func (n *Notifier) deliverStatusChange(order *models.Order, from, to models.DeliveryStatus) {
	subject := fmt.Sprintf("Your Narya Baby order #%d is now %s", order.ID, to)
	html := fmt.Sprintf(`
		<h2>Order update</h2>
		<p>Your order #%d moved from <b>%s</b> to <b>%s</b>.</p>
		<p>Total: KES %.2f</p>
	`, order.ID, from, to, order.TotalPrice)
	n.sendEmail(order, subject, html)

	n.fanoutPush(order.UserID, pushPayload{
		Title: "Order update",
		Body:  fmt.Sprintf("Order #%d is now %s", order.ID, to),
		URL:   fmt.Sprintf("/order/%d", order.ID),
	})
}

func (n *Notifier) deliverPaid(order *models.Order) {
	subject := fmt.Sprintf("Payment received for Narya Baby order #%d", order.ID)
	html := fmt.Sprintf(`
		<h2>Thank you for your payment!</h2>
		<p>We received KES %.2f via %s for order #%d.</p>
		<p>We'll let you know as soon as it ships.</p>
	`, order.TotalPrice, order.PaymentMethod, order.ID)
	n.sendEmail(order, subject, html)

	n.fanoutPush(order.UserID, pushPayload{
		Title: "Payment received",
		Body:  fmt.Sprintf("Order #%d has been paid. Thank you!", order.ID),
		URL:   fmt.Sprintf("/order/%d", order.ID),
	})
}

func (n *Notifier) sendEmail(order *models.Order, subject, html string) {
	if n.Email == nil {
		return
	}
	to := ""
	if order.User != nil {
		to = order.User.Email
	}
	if to == "" {
		var user models.User
		if err := n.DB.First(&user, order.UserID).Error; err != nil {
			n.Logger.Warn("notification email skipped, user not found",
				zap.Uint("order_id", order.ID), zap.Uint("user_id", order.UserID))
			return
		}
		to = user.Email
	}
	if err := n.Email.Send(to, subject, html); err != nil {
		n.Logger.Warn("notification email failed",
			zap.Uint("order_id", order.ID), zap.String("to", to), zap.Error(err))
	}
}

// fanoutPush attempts delivery to every subscription the user has. A failed
// delivery deletes that subscription (stale endpoint) without blocking
// delivery to the rest.
func (n *Notifier) fanoutPush(userID uint, payload pushPayload) {
	if n.Push == nil {
		return
	}
	var subs []models.PushSubscription
	if err := n.DB.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		n.Logger.Warn("loading push subscriptions failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	body, _ := json.Marshal(payload)
	for i := range subs {
		sub := subs[i]
		if err := n.Push.Send(&sub, body); err != nil {
			n.Logger.Info("removing stale push subscription",
				zap.Uint("user_id", sub.UserID), zap.String("endpoint", sub.Endpoint), zap.Error(err))
			n.DB.Delete(&models.PushSubscription{}, sub.ID)
		}
	}
}
