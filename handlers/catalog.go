package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"narya-api/config"
	"narya-api/models"

	"github.com/gin-gonic/gin"
)

const productCacheTTL = 10 * time.Minute

// ListProducts returns the catalog with optional filters (public)
func ListProducts(c *gin.Context) {
	var products []models.Product
	query := config.DB.Preload("Category").Preload("SubCategory")

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if subCategoryID := c.Query("sub_category_id"); subCategoryID != "" {
		query = query.Where("sub_category_id = ?", subCategoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}
	if c.Query("new_arrivals") == "true" {
		query = query.Where("new_arrival = ?", true)
	}
	if c.Query("top_deals") == "true" {
		query = query.Where("top_deal = ?", true)
	}

	query.Order("created_at desc").Find(&products)
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

// GetProduct returns a single product, read through the cache when enabled
func GetProduct(c *gin.Context) {
	id := c.Param("id")
	key := "product:" + id

	if config.Redis != nil {
		if val, err := config.Redis.Get(context.Background(), key).Result(); err == nil {
			var cached models.Product
			if json.Unmarshal([]byte(val), &cached) == nil {
				c.JSON(http.StatusOK, gin.H{"product": cached})
				return
			}
		}
	}

	var product models.Product
	if err := config.DB.Preload("Category").Preload("SubCategory").First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if config.Redis != nil {
		if data, err := json.Marshal(product); err == nil {
			config.Redis.Set(context.Background(), key, data, productCacheTTL)
		}
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetRelatedProducts returns other products in the same category
func GetRelatedProducts(c *gin.Context) {
	var product models.Product
	if err := config.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	var related []models.Product
	config.DB.Where("category_id = ? AND id != ?", product.CategoryID, product.ID).
		Limit(8).Find(&related)
	c.JSON(http.StatusOK, gin.H{"products": related})
}

type ProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Slug          string  `json:"slug" binding:"required"`
	Description   string  `json:"description"`
	Images        string  `json:"images"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	OldPrice      float64 `json:"old_price"`
	CategoryID    uint    `json:"category_id" binding:"required"`
	SubCategoryID *uint   `json:"sub_category_id"`
	CountInStock  int     `json:"count_in_stock"`
	Featured      bool    `json:"featured"`
	NewArrival    bool    `json:"new_arrival"`
	TopDeal       bool    `json:"top_deal"`
}

// CreateProduct adds a product to the catalog (admin)
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.First(&models.Category{}, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}

	product := models.Product{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Images:        req.Images,
		Price:         req.Price,
		OldPrice:      req.OldPrice,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		CountInStock:  req.CountInStock,
		Featured:      req.Featured,
		NewArrival:    req.NewArrival,
		TopDeal:       req.TopDeal,
	}
	if err := config.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct updates a product and invalidates its cache entry (admin)
func UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := config.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := models.Product{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Images:        req.Images,
		Price:         req.Price,
		OldPrice:      req.OldPrice,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		CountInStock:  req.CountInStock,
		Featured:      req.Featured,
		NewArrival:    req.NewArrival,
		TopDeal:       req.TopDeal,
	}
	if err := config.DB.Model(&product).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	invalidateProductCache(product.ID)
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct removes a product from the catalog (admin)
func DeleteProduct(c *gin.Context) {
	var product models.Product
	if err := config.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	config.DB.Delete(&product)
	invalidateProductCache(product.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func invalidateProductCache(id uint) {
	if config.Redis != nil {
		config.Redis.Del(context.Background(), fmt.Sprintf("product:%d", id))
	}
}

// ListCategories returns all categories with their subcategories (public)
func ListCategories(c *gin.Context) {
	var categories []models.Category
	query := config.DB.Preload("SubCategories")
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}
	query.Find(&categories)
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "categories": categories})
}

// GetCategoryBySlug returns one category (public)
func GetCategoryBySlug(c *gin.Context) {
	var category models.Category
	if err := config.DB.Preload("SubCategories").Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug" binding:"required"`
	Image    string `json:"image"`
	Featured bool   `json:"featured"`
}

// CreateCategory adds a category (admin)
func CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.Category{Name: req.Name, Slug: req.Slug, Image: req.Image, Featured: req.Featured}
	if err := config.DB.Create(&category).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListSubCategories returns subcategories, optionally filtered by category
func ListSubCategories(c *gin.Context) {
	var subs []models.SubCategory
	query := config.DB.Preload("Category")
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}
	query.Find(&subs)
	c.JSON(http.StatusOK, gin.H{"count": len(subs), "sub_categories": subs})
}

type SubCategoryRequest struct {
	Name       string `json:"name" binding:"required"`
	Slug       string `json:"slug" binding:"required"`
	CategoryID uint   `json:"category_id" binding:"required"`
	Image      string `json:"image"`
	Featured   bool   `json:"featured"`
}

// CreateSubCategory adds a subcategory under a category (admin)
func CreateSubCategory(c *gin.Context) {
	var req SubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := config.DB.First(&models.Category{}, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}
	sub := models.SubCategory{
		Name:       req.Name,
		Slug:       req.Slug,
		CategoryID: req.CategoryID,
		Image:      req.Image,
		Featured:   req.Featured,
	}
	if err := config.DB.Create(&sub).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Subcategory already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sub_category": sub})
}

type SubCategoryUpdateRequest struct {
	Name       *string `json:"name"`
	Slug       *string `json:"slug"`
	CategoryID *uint   `json:"category_id"`
	Image      *string `json:"image"`
	Featured   *bool   `json:"featured"`
}

// UpdateSubCategory updates the fields present in the request (admin)
func UpdateSubCategory(c *gin.Context) {
	var sub models.SubCategory
	if err := config.DB.First(&sub, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subcategory not found"})
		return
	}

	var req SubCategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CategoryID != nil {
		if err := config.DB.First(&models.Category{}, *req.CategoryID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
			return
		}
		sub.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.Slug != nil {
		sub.Slug = *req.Slug
	}
	if req.Image != nil {
		sub.Image = *req.Image
	}
	if req.Featured != nil {
		sub.Featured = *req.Featured
	}

	if err := config.DB.Save(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subcategory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_category": sub})
}

// DeleteSubCategory removes a subcategory (admin)
func DeleteSubCategory(c *gin.Context) {
	var sub models.SubCategory
	if err := config.DB.First(&sub, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subcategory not found"})
		return
	}
	config.DB.Delete(&sub)
	c.JSON(http.StatusOK, gin.H{"message": "Subcategory deleted"})
}
