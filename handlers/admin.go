package handlers

import (
	"net/http"

	"narya-api/config"
	"narya-api/models"

	"github.com/gin-gonic/gin"
)

// AdminStats returns dashboard entity counts
func AdminStats(c *gin.Context) {
	var users, products, orders, reviews int64
	config.DB.Model(&models.User{}).Count(&users)
	config.DB.Model(&models.Product{}).Count(&products)
	config.DB.Model(&models.Order{}).Count(&orders)
	config.DB.Model(&models.Review{}).Count(&reviews)

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"products": products,
		"orders":   orders,
		"reviews":  reviews,
	})
}

// AdminGetAllUsers returns all users (admin only)
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}
