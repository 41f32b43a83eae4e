package handlers

import (
	"net/http"
	"time"

	"narya-api/config"
	"narya-api/models"

	"github.com/gin-gonic/gin"
)

// ListBlogPosts returns published posts, newest first (public)
func ListBlogPosts(c *gin.Context) {
	var posts []models.BlogPost
	config.DB.Where("published = ?", true).Order("created_at desc").Find(&posts)
	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
}

type BlogPostRequest struct {
	Title         string `json:"title" binding:"required"`
	Slug          string `json:"slug" binding:"required"`
	Excerpt       string `json:"excerpt"`
	Content       string `json:"content"`
	AuthorName    string `json:"author_name"`
	FeaturedImage string `json:"featured_image"`
	Categories    string `json:"categories"`
	Published     *bool  `json:"published"`
}

// CreateBlogPost publishes a post (admin)
func CreateBlogPost(c *gin.Context) {
	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.BlogPost{
		Title:         req.Title,
		Slug:          req.Slug,
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		AuthorName:    req.AuthorName,
		FeaturedImage: req.FeaturedImage,
		Categories:    req.Categories,
		Published:     true,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if post.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := config.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A post with this slug already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}
