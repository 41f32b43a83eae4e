package orderflow

import (
	"errors"
	"sync"
	"time"

	"narya-api/models"
	"narya-api/statemachine"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyPaid signals a duplicate payment confirmation. Callers
	// acknowledge and skip side effects; the order is unchanged.
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrConcurrentUpdate means the conditional write matched no row because
	// another writer got there first.
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
)

// Notifier receives status-changing events. Implementations must be
// best-effort: they never block the committed change and never return errors.
type Notifier interface {
	OrderStatusChanged(order *models.Order, from, to models.DeliveryStatus)
	OrderPaid(order *models.Order)
}

// Notify is wired in main. A nil Notifier disables fan-out, which keeps
// the engine usable in tests and one-off scripts.
var Notify Notifier

// orderLocks serializes the read-validate-write sequence per order id.
// Two concurrent writers against the same order (an admin transition racing
// a payment webhook) would otherwise race with a lost update.
var orderLocks sync.Map

func lockOrder(id uint) func() {
	v, _ := orderLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Transition applies a delivery status change to an order. It validates the
// change against the state machine, stamps the status timestamp
// (first-write-only), appends one OrderLog row and triggers notification
// fan-out. An invalid transition leaves the order untouched.
func Transition(db *gorm.DB, orderID uint, to models.DeliveryStatus, actorID uint, note string) (*models.Order, error) {
	unlock := lockOrder(orderID)
	defer unlock()

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	from := order.DeliveryStatus
	if err := statemachine.CanTransition(from, to); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{"delivery_status": to}
	if col, ok := timestampColumn(to); ok && !timestampSet(&order.StatusTimestamps, to) {
		updates[col] = now
	}
	if to == models.StatusDelivered {
		updates["is_delivered"] = true
		updates["delivered_at"] = now
	}

	// Conditional write: succeeds only if the stored status still equals the
	// value read above. The per-order lock makes this unreachable in-process;
	// the guard covers external writers sharing the database file.
	res := db.Model(&models.Order{}).
		Where("id = ? AND delivery_status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentUpdate
	}

	logRow := models.OrderLog{
		OrderID:    order.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
	}
	if err := db.Create(&logRow).Error; err != nil {
		return nil, err
	}

	if err := db.Preload("User").Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, err
	}

	if Notify != nil {
		Notify.OrderStatusChanged(&order, from, to)
	}
	return &order, nil
}

// MarkPaid records a successful payment confirmation. It is idempotent:
// confirming an already-paid order returns ErrAlreadyPaid with no state
// change, so duplicate provider callbacks never send duplicate notifications.
// On first confirmation the payer's server-side cart is cleared.
func MarkPaid(db *gorm.DB, orderID uint, result models.PaymentResult) (*models.Order, error) {
	unlock := lockOrder(orderID)
	defer unlock()

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.IsPaid {
		return &order, ErrAlreadyPaid
	}

	now := time.Now()
	res := db.Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]interface{}{
			"is_paid":               true,
			"paid_at":               now,
			"payment_provider_id":   result.ProviderID,
			"payment_status":        result.Status,
			"payment_update_time":   result.UpdateTime,
			"payment_email_address": result.EmailAddress,
			"payment_amount":        result.Amount,
			"payment_receipt":       result.Receipt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return &order, ErrAlreadyPaid
	}

	clearCart(db, order.UserID)

	if err := db.Preload("User").Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, err
	}

	if Notify != nil {
		Notify.OrderPaid(&order)
	}
	return &order, nil
}

// FindByProviderRef resolves the order an asynchronous provider callback
// belongs to. M-Pesa callbacks only carry the CheckoutRequestID stored at
// initiation time.
func FindByProviderRef(db *gorm.DB, providerID string) (*models.Order, error) {
	var order models.Order
	err := db.Where("payment_provider_id = ?", providerID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func clearCart(db *gorm.DB, userID uint) {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return
	}
	db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{})
	db.Delete(&cart)
}

func timestampColumn(s models.DeliveryStatus) (string, bool) {
	switch s {
	case models.StatusOnTheWayToStore:
		return "ts_on_the_way_to_store", true
	case models.StatusAtStore:
		return "ts_at_store", true
	case models.StatusPicked:
		return "ts_picked", true
	case models.StatusDelivered:
		return "ts_delivered", true
	}
	return "", false
}

func timestampSet(ts *models.StatusTimestamps, s models.DeliveryStatus) bool {
	switch s {
	case models.StatusOnTheWayToStore:
		return ts.OnTheWayToStore != nil
	case models.StatusAtStore:
		return ts.AtStore != nil
	case models.StatusPicked:
		return ts.Picked != nil
	case models.StatusDelivered:
		return ts.Delivered != nil
	}
	return false
}
