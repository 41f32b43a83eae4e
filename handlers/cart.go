package handlers

import (
	"net/http"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"

	"github.com/gin-gonic/gin"
)

// GetCart returns the user's server-side cart, empty if none exists
func GetCart(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var cart models.Cart
	if err := config.DB.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"items": []models.CartItem{}, "total_price": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cart.Items, "total_price": cart.TotalPrice})
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// AddToCart adds a product to the cart, merging quantities for repeats
func AddToCart(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := config.DB.First(&product, req.ProductID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var cart models.Cart
	if err := config.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		cart = models.Cart{UserID: userID}
		if err := config.DB.Create(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cart"})
			return
		}
	}

	var item models.CartItem
	if err := config.DB.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error; err == nil {
		config.DB.Model(&item).Update("quantity", item.Quantity+req.Quantity)
	} else {
		config.DB.Create(&models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Price:     product.Price,
		})
	}

	recalcCart(&cart)
	config.DB.Preload("Items.Product").First(&cart, cart.ID)
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveFromCart drops one product from the cart
func RemoveFromCart(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var cart models.Cart
	if err := config.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}

	config.DB.Where("cart_id = ? AND product_id = ?", cart.ID, c.Param("productId")).Delete(&models.CartItem{})
	recalcCart(&cart)
	config.DB.Preload("Items.Product").First(&cart, cart.ID)
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// ClearCart removes the cart entirely
func ClearCart(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var cart models.Cart
	if err := config.DB.Where("user_id = ?", userID).First(&cart).Error; err == nil {
		config.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{})
		config.DB.Delete(&cart)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func recalcCart(cart *models.Cart) {
	var items []models.CartItem
	config.DB.Where("cart_id = ?", cart.ID).Find(&items)
	var total float64
	for _, i := range items {
		total += i.Price * float64(i.Quantity)
	}
	config.DB.Model(cart).Update("total_price", total)
}
