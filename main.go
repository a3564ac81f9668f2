package main

import (
	"context"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/admin"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/auth"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/crypto"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/game"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/migrations"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/news"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/storage"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/telemetry"
	"github.com/zofiadobrowolskaa/battleship-web-protocols/users"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {

	// logger setup
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ENVs
	ALLOWED_ORIGINS, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		log.Fatal().Msg("Missing allowed origins")
	}
	allowedOrigins := strings.Split(ALLOWED_ORIGINS, ",")

	POSTGRES_URL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		log.Fatal().Msg("Missing postgres url")
	}

	JWT_KEY, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		log.Fatal().Msg("Missing jwt signing key")
	}

	port, exists := os.LookupEnv("PORT")
	if !exists {
		port = "5000"
	}

	// Dependencies
	if err := migrations.Migrate(POSTGRES_URL); err != nil {
		log.Fatal().Err(err).Msg("Migrations failed")
	}

	pgRepo, err := storage.NewPostgresRepo(context.Background(), POSTGRES_URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't create postgres pool")
	}
	defer pgRepo.Close()

	tokenAge := time.Hour * 24 * 7 // 7 days
	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(JWT_KEY, tokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge)

	// Telemetry is optional: without a broker the gateway publishes into
	// the void.
	var publisher game.NewsPublisher = game.NopPublisher{}
	var natsPub *telemetry.Publisher
	if natsURL, ok := os.LookupEnv("NATS_URL"); ok {
		natsPub, err = telemetry.Connect(natsURL)
		if err != nil {
			log.Warn().Err(err).Msg("Couldn't connect to NATS, telemetry disabled")
		} else {
			defer natsPub.Close()
			publisher = natsPub
		}
	}

	gateway := game.NewGateway(pgRepo, publisher)
	gatewayStarted := make(chan struct{})
	go gateway.Run(context.Background(), gatewayStarted)
	<-gatewayStarted

	if natsPub != nil {
		go natsPub.BroadcastStatus(context.Background(), gateway, time.Second*5)
	}

	gameHandler := game.NewGameHandler(gateway)
	userHandler := users.NewUserHandler(pgRepo)
	newsHandler := news.NewNewsHandler(pgRepo)
	adminHandler := admin.NewAdminHandler(pgRepo, pgRepo)

	r := CreateServer(allowedOrigins)

	{
		authGroup := r.Group("/api/auth")
		authGroup.POST("/register", authHandler.RegisterHandler)
		authGroup.POST("/login", authHandler.LoginHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	r.GET("/api/news", newsHandler.ListHandler)

	protected := r.Group("/api")
	protected.Use(authHandler.RequireAuthMiddleware(time.Second * 2))
	{
		protected.GET("/game/ws", gameHandler.WebsocketHandler)
		protected.POST("/game/shot", gameHandler.FireHandler)

		protected.GET("/rooms", gameHandler.ListRoomsHandler)
		protected.DELETE("/rooms/:roomId", gameHandler.CloseRoomHandler)

		protected.GET("/users/me", userHandler.ProfileHandler)
		protected.PUT("/users/me", userHandler.UpdateProfileHandler)
		protected.DELETE("/users/me", userHandler.DeleteHandler)
		protected.GET("/users/search", userHandler.SearchHandler)

		adminGroup := protected.Group("/admin")
		adminGroup.POST("/news", newsHandler.CreateHandler)
		adminGroup.PUT("/news/:id", newsHandler.UpdateHandler)
		adminGroup.DELETE("/news/:id", newsHandler.DeleteHandler)

		adminGroup.POST("/reports", adminHandler.CreateReportHandler)
		adminGroup.GET("/reports", adminHandler.ListReportsHandler)
		adminGroup.PUT("/reports/:id", adminHandler.UpdateReportHandler)
		adminGroup.DELETE("/reports/:id", adminHandler.DeleteReportHandler)

		adminGroup.GET("/history", adminHandler.ListHistoryHandler)
		adminGroup.PUT("/history/:id", adminHandler.UpdateHistoryHandler)
		adminGroup.DELETE("/history/:id", adminHandler.DeleteHistoryHandler)
	}

	log.Info().Str("port", port).Msg("server listening")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Couldn't start server")
	}
}
