// main.go
package main

import (
	"github.com/drewmudry/chatshorts-api/auth"
	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/config"
	"github.com/drewmudry/chatshorts-api/generations"
	"github.com/drewmudry/chatshorts-api/internal/platform"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
}

func NewServer(cfg *config.Config) (*Server, error) {
	// Use the shared connection initializers
	db := platform.NewDBConnection(cfg.Database)
	if err := platform.Migrate(db); err != nil {
		return nil, err
	}
	rdb := platform.NewRedisClient(cfg.Redis)

	router := gin.Default()

	// Add CORS middleware for your frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Router: router,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	})

	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rendered audio and video
	s.Router.Static("/assets", s.Config.Storage.Dir)

	avatarHandler := avatars.NewHandler(s.DB)
	generationHandler := generations.NewHandler(s.DB, s.Redis, avatars.NewCatalog(s.DB), s.Config.Timeline.Options())

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Chatshorts API v1"})
	})

	// Protected routes that require authentication
	protected := s.Router.Group("")
	protected.Use(auth.AuthMiddleware(s.Config.Server.JWTSecret))
	{
		avatarRoutes := protected.Group("/avatars")
		{
			avatarRoutes.GET("", avatarHandler.ListAvatars)
			avatarRoutes.POST("", avatarHandler.CreateAvatar)
			avatarRoutes.GET("/:id", avatarHandler.GetAvatar)
		}

		generationRoutes := protected.Group("/generations")
		{
			generationRoutes.POST("", generationHandler.CreateGeneration)
			generationRoutes.GET("", generationHandler.GetUserGenerations)
			generationRoutes.GET("/:id", generationHandler.GetGeneration)
			generationRoutes.GET("/:id/timeline", generationHandler.GetTimeline)
			generationRoutes.GET("/:id/frames/:frame", generationHandler.GetFrame)
		}
	}
}

func (s *Server) Run() error {
	log.Printf("🚀 Server starting on port %s", s.Config.Server.Port)
	return s.Router.Run(":" + s.Config.Server.Port)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.ConfigureLogging(cfg.LogLevel)

	if cfg.Server.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server: ", err)
	}

	if err := server.Run(); err != nil {
		log.Fatal("Failed to run server: ", err)
	}
}
