package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/romes311/tourismiq/internal/config"
	"github.com/romes311/tourismiq/internal/handler"
	"github.com/romes311/tourismiq/internal/middleware"
	"github.com/romes311/tourismiq/internal/realtime"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	engine *gin.Engine
	hub    *realtime.Hub
	bridge *realtime.Bridge
}

// NewServer is the composition root: every repository, service and handler
// is wired here, including the hub instance the dispatcher pushes through.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	hub := realtime.NewHub()

	var bridge *realtime.Bridge
	var publisher service.EventPublisher
	if redisClient != nil {
		bridge = realtime.NewBridge(redisClient, hub)
		publisher = bridge
	}

	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	upvoteRepo := repository.NewUpvoteRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	notificationSvc := service.NewNotificationService(notificationRepo, hub, publisher)
	connectionSvc := service.NewConnectionService(connectionRepo, userRepo, notificationSvc)
	upvoteSvc := service.NewUpvoteService(upvoteRepo, postRepo, redisClient)
	messageSvc := service.NewMessageService(messageRepo, userRepo, notificationSvc)
	authSvc := service.NewAuthService(userRepo, searchSvc, cfg.JWTSecret, cfg.TokenTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	connectionHandler := handler.NewConnectionHandler(connectionSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, hub)
	postHandler := handler.NewPostHandler(postRepo, upvoteSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)

	router := gin.New()
	setupCORS(router, cfg)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Connection routes
		protected.POST("/connections", connectionHandler.Request)
		protected.GET("/connections", connectionHandler.List)
		protected.GET("/connections/requests", connectionHandler.ListRequests)
		protected.PUT("/connections/:id/respond", connectionHandler.Respond)
		protected.DELETE("/connections/:id", connectionHandler.Disconnect)

		// Post + upvote routes
		protected.POST("/posts", postHandler.Create)
		protected.GET("/posts/:post_id", postHandler.Get)
		protected.POST("/posts/:post_id/upvote", postHandler.SetUpvote)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.DELETE("/notifications", notificationHandler.ClearAll)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Message routes
		protected.POST("/messages", messageHandler.Send)
		protected.GET("/messages/:user_id", messageHandler.ListConversation)

		// Member directory
		protected.GET("/members/search", searchHandler.SearchMembers)
	}

	return &Server{
		engine: router,
		hub:    hub,
		bridge: bridge,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Hub exposes the realtime registry to the composition root.
func (s *Server) Hub() *realtime.Hub {
	return s.hub
}

// Bridge returns the redis fan-out bridge, nil when redis is not configured.
func (s *Server) Bridge() *realtime.Bridge {
	return s.bridge
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
