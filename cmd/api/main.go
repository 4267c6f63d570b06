package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stitchworks/internal/config"
	"stitchworks/internal/database"
	"stitchworks/internal/domain/auth"
	"stitchworks/internal/domain/notification"
	"stitchworks/internal/middleware"
	jwtsvc "stitchworks/internal/pkg/jwt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	if err := db.AutoMigrate(&auth.User{}, &notification.Notification{}); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := auth.NewUserRepository(db)
	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	hub := notification.NewHub()
	notifRepo := notification.NewRepository(db)
	notifService := notification.NewService(notifRepo, hub)
	notifHandler := notification.NewHandler(notifService)
	wsHandler := notification.NewWSHandler(hub, j, notifService, userRepo)

	retention := time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour
	go notifService.CleanupLoop(context.Background(), time.Hour, retention)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	api := r.Group("/api")
	{
		authHandler.RegisterRoutes(api)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(j), middleware.AdminOnly())
		notification.RegisterRoutes(admin, notifHandler)
	}

	// Websocket auth happens inside the handler: the token rides the query
	// string, not the Authorization header.
	r.GET("/ws/notifications", wsHandler.HandleWebSocket)

	log.Info().Str("port", cfg.Port).Msg("starting api server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
