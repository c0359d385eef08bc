package router

import (
	"github.com/gin-gonic/gin"

	"github.com/unimerch/backend/internal/interfaces/http/handler"
	"github.com/unimerch/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers the API routes dispatch to
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Search   *handler.SearchHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Review   *handler.ReviewHandler
	Stats    *handler.StatsHandler
	Upload   *handler.UploadHandler
	Health   *handler.HealthHandler
}

// Guards are the per-route authentication middlewares
type Guards struct {
	// Auth rejects requests without a valid access token
	Auth gin.HandlerFunc
	// Optional attaches the caller when a token is sent
	Optional gin.HandlerFunc
	// AuthLimit throttles the credential endpoints. May be nil.
	AuthLimit gin.HandlerFunc
}

func (g Guards) authLimit() []gin.HandlerFunc {
	if g.AuthLimit == nil {
		return nil
	}
	return []gin.HandlerFunc{g.AuthLimit}
}

// DomainGroups builds the route table of the API
func DomainGroups(h Handlers, g Guards) []*DomainGroup {
	admin := middleware.RequireAdmin()
	seller := middleware.RequireSeller()

	authRoutes := NewDomainGroup("auth", "/auth")
	credentials := authRoutes.Group("credentials", "").Use(g.authLimit()...)
	credentials.POST("/register", h.Auth.Register)
	credentials.POST("/login", h.Auth.Login)
	credentials.POST("/refresh", h.Auth.RefreshToken)
	credentials.POST("/forgot-password", h.Auth.ForgotPassword)
	credentials.POST("/reset-password", h.Auth.ResetPassword)
	authRoutes.POST("/logout", g.Auth, h.Auth.Logout)
	authRoutes.GET("/me", g.Auth, h.Auth.Me)

	userRoutes := NewDomainGroup("users", "/users").Use(g.Auth)
	userRoutes.GET("/profile", h.User.GetProfile)
	userRoutes.PUT("/profile", h.User.UpdateProfile)
	userRoutes.DELETE("/profile", h.User.DeleteProfile)
	userRoutes.PUT("/change-password", h.User.ChangePassword)
	userRoutes.GET("/:id/orders", h.User.Orders)
	userRoutes.GET("", admin, h.User.List)
	userRoutes.GET("/:id", admin, h.User.Get)
	userRoutes.PUT("/:id", admin, h.User.Update)
	userRoutes.PUT("/:id/role", admin, h.User.ChangeRole)
	userRoutes.DELETE("/:id", admin, h.User.Delete)

	categoryRoutes := NewDomainGroup("categories", "/categories")
	categoryRoutes.GET("", h.Category.List)
	categoryRoutes.GET("/:id", h.Category.Get)
	categoryRoutes.GET("/:id/products", g.Optional, h.Category.Products)
	categoryRoutes.GET("/:id/stats", g.Auth, admin, h.Category.Stats)
	categoryRoutes.POST("", g.Auth, seller, h.Category.Create)
	categoryRoutes.PUT("/:id", g.Auth, seller, h.Category.Update)
	categoryRoutes.DELETE("/:id", g.Auth, admin, h.Category.Delete)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.GET("", g.Optional, h.Product.List)
	productRoutes.GET("/featured", h.Product.Featured)
	productRoutes.GET("/search", g.Optional, h.Product.Search)
	productRoutes.GET("/seller/:sellerId", g.Optional, h.Product.BySeller)
	productRoutes.GET("/category/:categoryId", g.Optional, h.Product.ByCategory)
	productRoutes.GET("/:id", g.Optional, h.Product.Get)
	productRoutes.GET("/:id/reviews", h.Product.Reviews)
	productRoutes.POST("", g.Auth, seller, h.Product.Create)
	productRoutes.PUT("/:id", g.Auth, seller, h.Product.Update)
	productRoutes.DELETE("/:id", g.Auth, seller, h.Product.Delete)
	productRoutes.PUT("/:id/status", g.Auth, seller, h.Product.UpdateStatus)
	productRoutes.PUT("/:id/quantity", g.Auth, seller, h.Product.UpdateQuantity)
	productRoutes.PUT("/:id/featured", g.Auth, admin, h.Product.SetFeatured)

	searchRoutes := NewDomainGroup("search", "/search").Use(g.Optional)
	searchRoutes.GET("/products", h.Search.Products)
	searchRoutes.GET("/advanced", h.Search.Advanced)
	searchRoutes.GET("/categories", h.Search.Categories)
	searchRoutes.GET("/users", h.Search.Users)
	searchRoutes.GET("/suggestions", h.Search.Suggestions)
	searchRoutes.GET("/popular", h.Search.Popular)
	searchRoutes.POST("/log", h.Search.Log)

	cartRoutes := NewDomainGroup("cart", "/cart").Use(g.Auth)
	cartRoutes.GET("", h.Cart.Get)
	cartRoutes.POST("/add", h.Cart.Add)
	cartRoutes.PUT("/update/:id", h.Cart.Update)
	cartRoutes.DELETE("/remove/:id", h.Cart.Remove)
	cartRoutes.DELETE("/clear", h.Cart.Clear)
	cartRoutes.GET("/validate", h.Cart.Validate)
	cartRoutes.GET("/count", h.Cart.Count)
	cartRoutes.GET("/total", h.Cart.Total)

	orderRoutes := NewDomainGroup("orders", "/orders").Use(g.Auth)
	orderRoutes.POST("", h.Order.Create)
	orderRoutes.GET("", h.Order.List)
	orderRoutes.GET("/stats", h.Order.Stats)
	orderRoutes.GET("/seller/:sellerId", seller, h.Order.BySeller)
	orderRoutes.GET("/status/:status", admin, h.Order.ByStatus)
	orderRoutes.GET("/:id", h.Order.Get)
	orderRoutes.GET("/:id/items", h.Order.Items)
	orderRoutes.PUT("/:id/status", h.Order.UpdateStatus)
	orderRoutes.DELETE("/:id", h.Order.Cancel)
	orderRoutes.POST("/:id/payment", h.Order.Pay)

	paymentRoutes := NewDomainGroup("payments", "/payments").Use(g.Auth)
	paymentRoutes.POST("", h.Payment.Create)
	paymentRoutes.GET("/user", h.Payment.ListMine)
	paymentRoutes.GET("/stats", admin, h.Payment.Stats)
	paymentRoutes.GET("/revenue", admin, h.Payment.Revenue)
	paymentRoutes.GET("/detail/:id", h.Payment.Get)
	paymentRoutes.GET("/:id", h.Payment.ForOrder)
	paymentRoutes.PUT("/:id/status", h.Payment.UpdateStatus)
	paymentRoutes.POST("/:id/refund", admin, h.Payment.Refund)

	adminRoutes := NewDomainGroup("admin", "/admin").Use(g.Auth, admin)
	adminRoutes.GET("/orders", h.Order.AdminList)
	adminRoutes.GET("/payments", h.Payment.AdminList)

	webhookRoutes := NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/stripe", h.Payment.StripeWebhook)

	reviewRoutes := NewDomainGroup("reviews", "/reviews")
	reviewRoutes.GET("", g.Auth, h.Review.List)
	reviewRoutes.GET("/product/:productId", h.Review.ForProduct)
	reviewRoutes.GET("/product/:productId/stats", h.Review.ProductStats)
	reviewRoutes.GET("/user/:userId", g.Auth, h.Review.ForUser)
	reviewRoutes.GET("/:id", h.Review.Get)
	reviewRoutes.POST("", g.Auth, h.Review.Create)
	reviewRoutes.PUT("/:id", g.Auth, h.Review.Update)
	reviewRoutes.DELETE("/:id", g.Auth, h.Review.Delete)
	reviewRoutes.POST("/:id/helpful", g.Auth, h.Review.MarkHelpful)

	statsRoutes := NewDomainGroup("stats", "/stats").Use(g.Auth)
	statsRoutes.GET("/seller/:sellerId", seller, h.Stats.Seller)
	statsRoutes.GET("/dashboard", admin, h.Stats.Dashboard)
	statsRoutes.GET("/products", admin, h.Stats.Products)
	statsRoutes.GET("/orders", admin, h.Stats.Orders)
	statsRoutes.GET("/users", admin, h.Stats.Users)
	statsRoutes.GET("/revenue", admin, h.Stats.Revenue)
	statsRoutes.GET("/sales/:period", admin, h.Stats.Sales)
	statsRoutes.GET("/categories", admin, h.Stats.Categories)
	statsRoutes.GET("/reviews", admin, h.Stats.Reviews)
	statsRoutes.GET("/top-products", admin, h.Stats.TopProducts)

	uploadRoutes := NewDomainGroup("upload", "/upload")
	uploadRoutes.GET("/images/:filename", h.Upload.Serve)
	uploadRoutes.POST("/image", g.Auth, h.Upload.Image)
	uploadRoutes.POST("/images", g.Auth, h.Upload.Images)
	uploadRoutes.POST("/product-images", g.Auth, seller, h.Upload.ProductImages)
	uploadRoutes.POST("/category-image", g.Auth, seller, h.Upload.CategoryImage)
	uploadRoutes.POST("/avatar", g.Auth, h.Upload.Avatar)
	uploadRoutes.DELETE("/:filename", g.Auth, h.Upload.Delete)

	healthRoutes := NewDomainGroup("health", "/health")
	healthRoutes.GET("", h.Health.Health)

	return []*DomainGroup{
		authRoutes, userRoutes, categoryRoutes, productRoutes, searchRoutes,
		cartRoutes, orderRoutes, paymentRoutes, adminRoutes, webhookRoutes,
		reviewRoutes, statsRoutes, uploadRoutes, healthRoutes,
	}
}
