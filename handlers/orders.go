package handlers

import (
	"errors"
	"net/http"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"
	"narya-api/orderflow"
	"narya-api/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	Items []struct {
		ProductID uint `json:"product_id" binding:"required"`
		Qty       int  `json:"qty" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
}

var validPaymentMethods = map[string]bool{
	models.PaymentMpesa:          true,
	models.PaymentCashOnDelivery: true,
	models.PaymentCard:           true,
	models.PaymentBitcoin:        true,
	models.PaymentPayPal:         true,
}

// CreateOrder creates a new order in Pending, unpaid. Item name, price and
// image are snapshotted from the live product at this moment.
func CreateOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validPaymentMethods[req.PaymentMethod] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method: " + req.PaymentMethod})
		return
	}

	var orderItems []models.OrderItem
	var itemsPrice float64
	for _, reqItem := range req.Items {
		var product models.Product
		if err := config.DB.First(&product, reqItem.ProductID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if product.CountInStock < reqItem.Qty {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock for '" + product.Name + "'"})
			return
		}
		itemsPrice += product.Price * float64(reqItem.Qty)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       reqItem.Qty,
			Price:     product.Price,
			Image:     firstImage(product.Images),
		})
	}

	order := models.Order{
		Ref:             uuid.NewString(),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   0,
		TotalPrice:      itemsPrice,
		DeliveryStatus:  models.StatusPending,
	}

	if err := config.DB.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	config.DB.Preload("Items").First(&order, order.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Order created", "order": order})
}

// GetMyOrders returns all orders for the logged-in user
func GetMyOrders(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var orders []models.Order
	config.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders)
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrder returns a single order with status and timestamps. Owner or admin.
func GetOrder(c *gin.Context) {
	var order models.Order
	if err := config.DB.Preload("Items").Preload("User").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.UserID != middleware.GetUserID(c) && middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetAllOrders returns all orders with a status summary for the admin board
func GetAllOrders(c *gin.Context) {
	var orders []models.Order
	query := config.DB.Preload("Items").Preload("User")

	if status := c.Query("status"); status != "" {
		query = query.Where("delivery_status = ?", status)
	}
	if paid := c.Query("paid"); paid == "true" {
		query = query.Where("is_paid = ?", true)
	} else if paid == "false" {
		query = query.Where("is_paid = ?", false)
	}

	query.Order("created_at desc").Find(&orders)

	summary := map[string]int{}
	var totalRevenue float64
	for _, o := range orders {
		summary[string(o.DeliveryStatus)]++
		if o.IsPaid {
			totalRevenue += o.TotalPrice
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": totalRevenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

// GetOrderLogs returns the audit trail for an order, newest first. Admin only.
func GetOrderLogs(c *gin.Context) {
	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	var logs []models.OrderLog
	config.DB.Preload("Actor").
		Where("order_id = ?", order.ID).
		Order("created_at desc").
		Find(&logs)
	c.JSON(http.StatusOK, gin.H{"count": len(logs), "logs": logs})
}

type UpdateOrderStatusRequest struct {
	Status models.DeliveryStatus `json:"status" binding:"required"`
	Note   string                `json:"note"`
}

// UpdateOrderStatus applies a delivery status transition. Admin only.
func UpdateOrderStatus(c *gin.Context) {
	adminID := middleware.GetUserID(c)

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	updated, err := orderflow.Transition(config.DB, order.ID, req.Status, adminID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, statemachine.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             err.Error(),
				"current_status":    order.DeliveryStatus,
				"requested":         req.Status,
				"valid_next_states": statemachine.NextStates(order.DeliveryStatus),
			})
		case errors.Is(err, orderflow.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orderflow.ErrConcurrentUpdate):
			c.JSON(http.StatusConflict, gin.H{"error": "Order was modified concurrently, retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        updated.ID,
		"previous_status": order.DeliveryStatus,
		"current_status":  updated.DeliveryStatus,
	})
}

// DeleteOrder cancels an order by deletion. Only the owner may do this, and
// only while the order is unpaid; once paid, deletion is disallowed.
func DeleteOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
		return
	}
	if order.IsPaid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Paid orders cannot be deleted"})
		return
	}

	config.DB.Where("order_id = ?", order.ID).Delete(&models.OrderItem{})
	config.DB.Where("order_id = ?", order.ID).Delete(&models.OrderLog{})
	if err := config.DB.Delete(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order_id": order.ID})
}

func firstImage(images string) string {
	for i := 0; i < len(images); i++ {
		if images[i] == ',' {
			return images[:i]
		}
	}
	return images
}
