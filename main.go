package main

import (
	"time"

	"atelier-backend/config"
	"atelier-backend/database"
	routes "atelier-backend/internal/app/http"
	"atelier-backend/internal/assets"
	"atelier-backend/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	cfg := config.Load()
	db := database.InitDB(cfg.DBURL)

	store := assets.NewStore(cfg)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Dependencies{
		DB:       db,
		Sessions: auth.NewManager(db, cfg.JWTSecret),
		Store:    store,
		Assets:   assets.NewCoordinator(store),
	})

	r.Run(":" + cfg.Port)
}
