package handlers

import (
	"net/http"

	"narya-api/config"
	"narya-api/middleware"
	"narya-api/models"

	"github.com/gin-gonic/gin"
)

type ReviewRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"required"`
}

// CreateReview adds a product review; at most one per user per product
func CreateReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := config.DB.First(&models.Product{}, req.ProductID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var existing models.Review
	if err := config.DB.Where("product_id = ? AND user_id = ?", req.ProductID, userID).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You already reviewed this product"})
		return
	}

	review := models.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}

	config.DB.Preload("User").First(&review, review.ID)
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListProductReviews returns all reviews for a product (public)
func ListProductReviews(c *gin.Context) {
	var reviews []models.Review
	config.DB.Preload("User").
		Where("product_id = ?", c.Param("id")).
		Order("created_at desc").
		Find(&reviews)
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "reviews": reviews})
}

type ReviewUpdateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// UpdateReview edits the caller's own review
func UpdateReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var review models.Review
	if err := config.DB.First(&review, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	if review.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this review"})
		return
	}

	var req ReviewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config.DB.Model(&review).Updates(models.Review{Rating: req.Rating, Comment: req.Comment})
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// DeleteReview removes the caller's own review (admins may remove any)
func DeleteReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var review models.Review
	if err := config.DB.First(&review, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	if review.UserID != userID && middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this review"})
		return
	}
	config.DB.Delete(&review)
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

type GeneralReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
	OrderID *uint  `json:"order_id"`
}

// CreateGeneralReview adds a store-wide review
func CreateGeneralReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req GeneralReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := models.GeneralReview{
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
		OrderID: req.OrderID,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListGeneralReviews returns store-wide reviews (public)
func ListGeneralReviews(c *gin.Context) {
	var reviews []models.GeneralReview
	config.DB.Preload("User").Order("created_at desc").Limit(50).Find(&reviews)
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "reviews": reviews})
}

// DeleteGeneralReview removes the caller's own store-wide review
func DeleteGeneralReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var review models.GeneralReview
	if err := config.DB.First(&review, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	if review.UserID != userID && middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
		return
	}
	config.DB.Delete(&review)
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
