package routes

import (
	productsapi "atelier-backend/internal/api/products"
	seriesapi "atelier-backend/internal/api/series"
	tagsapi "atelier-backend/internal/api/tags"
	usersapi "atelier-backend/internal/api/users"
	worksapi "atelier-backend/internal/api/works"
	"atelier-backend/internal/app/http/middleware"
	"atelier-backend/internal/assets"
	"atelier-backend/internal/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies carries everything the handlers need, wired once at startup.
type Dependencies struct {
	DB       *gorm.DB
	Sessions *auth.Manager
	Store    assets.Store
	Assets   *assets.Coordinator
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authed := middleware.AuthMiddleware(deps.Sessions)
	admin := middleware.RequireRole("admin")
	upload := middleware.UploadImages(deps.Store)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "message": "Route not found"})
	})

	userHandler := usersapi.NewHandler(deps.DB, deps.Sessions)
	user := r.Group("/user")
	{
		public := user.Group("")
		public.Use(middleware.SanitizeAndCleanInputMiddleware())
		public.POST("", userHandler.Register)
		public.POST("/login", userHandler.Login)

		authedUser := user.Group("")
		authedUser.Use(authed)
		authedUser.GET("/profile", userHandler.Profile)
		authedUser.POST("/refresh", userHandler.Refresh)
		authedUser.POST("/logout", userHandler.Logout)
		authedUser.GET("/cart", userHandler.GetCart)
		authedUser.PATCH("/cart", userHandler.UpdateCart)
	}

	productHandler := productsapi.NewHandler(deps.DB, deps.Assets)
	product := r.Group("/product")
	{
		product.POST("/add", authed, admin, upload, productHandler.Create)
		product.GET("/all", authed, admin, productHandler.GetAll)
		product.GET("/:id", productHandler.GetByID)
		product.GET("", productHandler.Get)
		product.PATCH("/:id", authed, admin, upload, productHandler.Update)
	}

	workHandler := worksapi.NewHandler(deps.DB, deps.Assets)
	work := r.Group("/work")
	{
		work.POST("/add", authed, admin, upload, workHandler.Create)
		work.GET("/all", authed, admin, workHandler.GetAll)
		work.GET("/:id", workHandler.GetByID)
		work.GET("", workHandler.Get)
		work.PATCH("/:id", authed, admin, upload, workHandler.Update)
		work.POST("/:id/like", authed, workHandler.ToggleLike)
	}

	seriesHandler := seriesapi.NewHandler(deps.DB, deps.Assets)
	series := r.Group("/series")
	{
		series.POST("/add", authed, admin, upload, seriesHandler.Create)
		series.GET("/all", authed, admin, seriesHandler.GetAll)
		series.GET("/:id", seriesHandler.GetByID)
		series.GET("", seriesHandler.Get)
		series.PATCH("/:id", authed, admin, upload, seriesHandler.Update)
	}

	tagHandler := tagsapi.NewHandler(deps.DB)
	tag := r.Group("/tag")
	{
		tag.POST("/add", authed, admin, tagHandler.Create)
		tag.GET("/all", authed, admin, tagHandler.GetAll)
		tag.GET("", tagHandler.Get)
		tag.POST("/update", authed, admin, tagHandler.Reconcile)
	}
}
