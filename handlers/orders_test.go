package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"
	"narya-api/orderflow"
	"narya-api/routes"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.SubCategory{},
		&models.Product{},
		&models.Review{},
		&models.GeneralReview{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderLog{},
		&models.PushSubscription{},
		&models.BlogPost{},
	))
	config.DB = db
	config.Logger = zap.NewNop()

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

func createUser(t *testing.T, role models.UserRole) (*models.User, string) {
	t.Helper()
	user := models.User{
		Name:         "Test " + string(role),
		Email:        fmt.Sprintf("%s%d@example.com", role, randSeq()),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, config.DB.Create(&user).Error)
	token, err := middleware.GenerateToken(&user)
	require.NoError(t, err)
	return &user, token
}

var seq uint

func randSeq() uint {
	seq++
	return seq
}

func createProduct(t *testing.T) *models.Product {
	t.Helper()
	cat := models.Category{Name: fmt.Sprintf("Clothing-%d", randSeq()), Slug: fmt.Sprintf("clothing-%d", seq)}
	require.NoError(t, config.DB.Create(&cat).Error)
	product := models.Product{
		Name:         "Baby romper",
		Slug:         fmt.Sprintf("baby-romper-%d", randSeq()),
		Price:        500,
		CategoryID:   cat.ID,
		CountInStock: 10,
	}
	require.NoError(t, config.DB.Create(&product).Error)
	return &product
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func placeOrder(t *testing.T, r *gin.Engine, token string, product *models.Product) uint {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/orders", token, gin.H{
		"items":            []gin.H{{"product_id": product.ID, "qty": 2}},
		"shipping_address": gin.H{"full_name": "Test Buyer", "address": "Moi Ave", "city": "Nairobi", "phone": "0712345678"},
		"payment_method":   models.PaymentMpesa,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Order.ID
}

func TestCreateOrderAndAdvanceStatus(t *testing.T) {
	r := setupRouter(t)
	_, userToken := createUser(t, models.RoleCustomer)
	admin, adminToken := createUser(t, models.RoleAdmin)
	product := createProduct(t)

	orderID := placeOrder(t, r, userToken, product)

	var order models.Order
	require.NoError(t, config.DB.First(&order, orderID).Error)
	assert.Equal(t, models.StatusPending, order.DeliveryStatus)
	assert.False(t, order.IsPaid)
	assert.EqualValues(t, 1000, order.TotalPrice)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), adminToken, gin.H{
		"status": models.StatusOnTheWayToStore,
		"note":   "courier dispatched",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, config.DB.First(&order, orderID).Error)
	assert.Equal(t, models.StatusOnTheWayToStore, order.DeliveryStatus)
	require.NotNil(t, order.StatusTimestamps.OnTheWayToStore)

	var logs []models.OrderLog
	require.NoError(t, config.DB.Where("order_id = ?", orderID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StatusPending, logs[0].FromStatus)
	assert.Equal(t, models.StatusOnTheWayToStore, logs[0].ToStatus)
	assert.Equal(t, admin.ID, logs[0].ActorID)
}

func TestInvalidStatusTransitionRejected(t *testing.T) {
	r := setupRouter(t)
	_, userToken := createUser(t, models.RoleCustomer)
	_, adminToken := createUser(t, models.RoleAdmin)
	product := createProduct(t)

	orderID := placeOrder(t, r, userToken, product)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), adminToken, gin.H{
		"status": models.StatusPicked,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var order models.Order
	require.NoError(t, config.DB.First(&order, orderID).Error)
	assert.Equal(t, models.StatusPending, order.DeliveryStatus)

	var count int64
	config.DB.Model(&models.OrderLog{}).Where("order_id = ?", orderID).Count(&count)
	assert.Zero(t, count)
}

func TestNonAdminCannotTransition(t *testing.T) {
	r := setupRouter(t)
	_, userToken := createUser(t, models.RoleCustomer)
	product := createProduct(t)

	orderID := placeOrder(t, r, userToken, product)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), userToken, gin.H{
		"status": models.StatusOnTheWayToStore,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteOrderOnlyWhileUnpaid(t *testing.T) {
	r := setupRouter(t)
	_, userToken := createUser(t, models.RoleCustomer)
	product := createProduct(t)

	orderID := placeOrder(t, r, userToken, product)

	_, err := orderflow.MarkPaid(config.DB, orderID, models.PaymentResult{ProviderID: "pi_1", Status: "succeeded"})
	require.NoError(t, err)

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "paid orders must not be deletable")

	unpaidID := placeOrder(t, r, userToken, product)
	admin, _ := createUser(t, models.RoleAdmin)
	_, err = orderflow.Transition(config.DB, unpaidID, models.StatusCancelled, admin.ID, "changed my mind")
	require.NoError(t, err)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/orders/%d", unpaidID), userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	config.DB.Model(&models.Order{}).Where("id = ?", unpaidID).Count(&count)
	assert.Zero(t, count)

	// the audit trail goes with the order, no orphaned rows
	config.DB.Model(&models.OrderLog{}).Where("order_id = ?", unpaidID).Count(&count)
	assert.Zero(t, count)
}

func TestMpesaCallbackUnknownOrderIgnored(t *testing.T) {
	r := setupRouter(t)

	payload := gin.H{
		"Body": gin.H{
			"stkCallback": gin.H{
				"CheckoutRequestID": "ws_CO_does_not_exist",
				"ResultCode":        0,
				"ResultDesc":        "Success",
			},
		},
	}
	w := doJSON(r, http.MethodPost, "/api/payments/callback", "", payload)
	// acknowledged so Safaricom does not retry, but nothing changes locally
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderHiddenFromOtherUsers(t *testing.T) {
	r := setupRouter(t)
	_, ownerToken := createUser(t, models.RoleCustomer)
	_, strangerToken := createUser(t, models.RoleCustomer)
	product := createProduct(t)

	orderID := placeOrder(t, r, ownerToken, product)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
