package orderflow

import (
	"testing"

	"narya-api/models"
	"narya-api/statemachine"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingNotifier struct {
	statusChanges []models.DeliveryStatus
	paidOrders    []uint
}

func (n *recordingNotifier) OrderStatusChanged(order *models.Order, from, to models.DeliveryStatus) {
	n.statusChanges = append(n.statusChanges, to)
}

func (n *recordingNotifier) OrderPaid(order *models.Order) {
	n.paidOrders = append(n.paidOrders, order.ID)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderLog{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	user := models.User{Name: "Wanjiku", Email: "wanjiku@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	order := models.Order{
		Ref:            "ord-test-ref",
		UserID:         user.ID,
		PaymentMethod:  models.PaymentMpesa,
		ItemsPrice:     1000,
		TotalPrice:     1000,
		DeliveryStatus: models.StatusPending,
		Items: []models.OrderItem{
			{ProductID: 1, Name: "Baby romper", Qty: 2, Price: 500},
		},
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestTransitionHappyPath(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)
	rec := &recordingNotifier{}
	Notify = rec
	defer func() { Notify = nil }()

	updated, err := Transition(db, order.ID, models.StatusOnTheWayToStore, 7, "courier dispatched")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnTheWayToStore, updated.DeliveryStatus)
	require.NotNil(t, updated.StatusTimestamps.OnTheWayToStore)
	assert.Nil(t, updated.StatusTimestamps.AtStore)

	var logs []models.OrderLog
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StatusPending, logs[0].FromStatus)
	assert.Equal(t, models.StatusOnTheWayToStore, logs[0].ToStatus)
	assert.Equal(t, uint(7), logs[0].ActorID)
	assert.Equal(t, "courier dispatched", logs[0].Note)

	assert.Equal(t, []models.DeliveryStatus{models.StatusOnTheWayToStore}, rec.statusChanges)
}

func TestTransitionSkippingStatesRejected(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)

	_, err := Transition(db, order.ID, models.StatusPicked, 1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	// order untouched, no audit row written
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.StatusPending, reloaded.DeliveryStatus)
	assert.Nil(t, reloaded.StatusTimestamps.Picked)

	var count int64
	db.Model(&models.OrderLog{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)

	for _, to := range []models.DeliveryStatus{
		models.StatusOnTheWayToStore,
		models.StatusAtStore,
		models.StatusPicked,
		models.StatusDelivered,
	} {
		_, err := Transition(db, order.ID, to, 1, "")
		require.NoError(t, err, "advance to %s", to)
	}

	var delivered models.Order
	require.NoError(t, db.First(&delivered, order.ID).Error)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	require.NotNil(t, delivered.StatusTimestamps.Delivered)

	_, err := Transition(db, order.ID, models.StatusCancelled, 1, "")
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	cancelled := seedOrder2(t, db, "ord-cancel")
	_, err = Transition(db, cancelled.ID, models.StatusCancelled, 1, "out of stock")
	require.NoError(t, err)
	_, err = Transition(db, cancelled.ID, models.StatusOnTheWayToStore, 1, "")
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
}

func seedOrder2(t *testing.T, db *gorm.DB, ref string) *models.Order {
	t.Helper()
	order := models.Order{Ref: ref, UserID: 1, DeliveryStatus: models.StatusPending, TotalPrice: 50}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestTransitionUnknownOrder(t *testing.T) {
	db := openTestDB(t)
	_, err := Transition(db, 9999, models.StatusCancelled, 1, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)
	rec := &recordingNotifier{}
	Notify = rec
	defer func() { Notify = nil }()

	result := models.PaymentResult{ProviderID: "ws_CO_123", Status: "Paid", Receipt: "QGH7YTR2KL"}
	paid, err := MarkPaid(db, order.ID, result)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "QGH7YTR2KL", paid.PaymentResult.Receipt)
	firstPaidAt := *paid.PaidAt

	// duplicate webhook delivery
	again, err := MarkPaid(db, order.ID, models.PaymentResult{ProviderID: "ws_CO_123", Status: "Paid"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.True(t, again.IsPaid)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	require.NotNil(t, reloaded.PaidAt)
	assert.Equal(t, firstPaidAt.Unix(), reloaded.PaidAt.Unix())

	// exactly one paid notification went out
	assert.Equal(t, []uint{order.ID}, rec.paidOrders)
}

func TestMarkPaidClearsCart(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)

	cart := models.Cart{
		UserID:     order.UserID,
		TotalPrice: 1000,
		Items:      []models.CartItem{{ProductID: 1, Quantity: 2, Price: 500}},
	}
	require.NoError(t, db.Create(&cart).Error)

	_, err := MarkPaid(db, order.ID, models.PaymentResult{ProviderID: "pi_1", Status: "succeeded"})
	require.NoError(t, err)

	var carts int64
	db.Model(&models.Cart{}).Where("user_id = ?", order.UserID).Count(&carts)
	assert.Zero(t, carts)
	var items int64
	db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&items)
	assert.Zero(t, items)
}

func TestFindByProviderRef(t *testing.T) {
	db := openTestDB(t)
	order := seedOrder(t, db)
	require.NoError(t, db.Model(order).Update("payment_provider_id", "ws_CO_555").Error)

	found, err := FindByProviderRef(db, "ws_CO_555")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = FindByProviderRef(db, "ws_CO_unknown")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
