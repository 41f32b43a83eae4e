package routes

import (
	"narya-api/handlers"
	"narya-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Catalog (no auth needed)
		public.GET("/products", handlers.ListProducts)
		public.GET("/products/:id", handlers.GetProduct)
		public.GET("/products/:id/related", handlers.GetRelatedProducts)
		public.GET("/products/:id/reviews", handlers.ListProductReviews)
		public.GET("/categories", handlers.ListCategories)
		public.GET("/categories/:slug", handlers.GetCategoryBySlug)
		public.GET("/subcategories", handlers.ListSubCategories)
		public.GET("/general-reviews", handlers.ListGeneralReviews)
		public.GET("/blog", handlers.ListBlogPosts)

		// Provider callbacks (unauthenticated; webhooks verify signatures)
		public.POST("/payments/callback", handlers.MpesaCallback)
		public.POST("/payments/stripe/webhook", handlers.StripeWebhook)
		public.POST("/crypto/webhook", handlers.CryptoWebhook)

		// Web push public key
		public.GET("/notifications/vapidPublicKey", handlers.VapidPublicKey)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/auth/profile", handlers.GetProfile)

		// Cart
		auth.GET("/cart", handlers.GetCart)
		auth.POST("/cart", handlers.AddToCart)
		auth.DELETE("/cart/items/:productId", handlers.RemoveFromCart)
		auth.DELETE("/cart", handlers.ClearCart)

		// Orders
		auth.POST("/orders", handlers.CreateOrder)
		auth.GET("/orders/myorders", handlers.GetMyOrders)
		auth.GET("/orders/:id", handlers.GetOrder)
		auth.DELETE("/orders/:id", handlers.DeleteOrder)

		// Payment initiation
		auth.POST("/payments/stkpush", handlers.StkPush)
		auth.POST("/payments/stripe/create-intent", handlers.StripeCreateIntent)
		auth.POST("/crypto/create-charge", handlers.CryptoCreateCharge)

		// Reviews
		auth.POST("/reviews", handlers.CreateReview)
		auth.PUT("/reviews/:id", handlers.UpdateReview)
		auth.DELETE("/reviews/:id", handlers.DeleteReview)
		auth.POST("/general-reviews", handlers.CreateGeneralReview)
		auth.DELETE("/general-reviews/:id", handlers.DeleteGeneralReview)

		// Push subscriptions
		auth.POST("/notifications/subscribe", handlers.Subscribe)
		auth.POST("/notifications/unsubscribe", handlers.Unsubscribe)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/orders", handlers.GetAllOrders)
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus)
		admin.GET("/orders/:id/logs", handlers.GetOrderLogs)

		admin.POST("/products", handlers.CreateProduct)
		admin.PUT("/products/:id", handlers.UpdateProduct)
		admin.DELETE("/products/:id", handlers.DeleteProduct)
		admin.POST("/categories", handlers.CreateCategory)
		admin.POST("/subcategories", handlers.CreateSubCategory)
		admin.PUT("/subcategories/:id", handlers.UpdateSubCategory)
		admin.DELETE("/subcategories/:id", handlers.DeleteSubCategory)
		admin.POST("/blog", handlers.CreateBlogPost)

		admin.GET("/admin/stats", handlers.AdminStats)
		admin.GET("/admin/users", handlers.AdminGetAllUsers)
	}
}
