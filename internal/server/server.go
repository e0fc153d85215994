// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"xweeter/internal/bootstrap"
	"xweeter/internal/config"
	"xweeter/internal/database"
	"xweeter/internal/media"
	"xweeter/internal/middleware"
	"xweeter/internal/models"
	"xweeter/internal/notifications"
	"xweeter/internal/repository"
	"xweeter/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultPageSize = 10

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	replyRepo      repository.ReplyRepository
	likeRepo       repository.LikeRepository
	mediaStore     media.BlobStore
	mediaFetcher   *media.Fetcher
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	broadcaster    *notifications.Broadcaster
	replyService   *service.ReplyService
	likeService    *service.LikeService
}

// NewServer connects to the database and Redis and builds a Server. Redis is
// optional: without it broadcasts stay on this instance.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true}, middleware.Logger)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := media.NewStoreFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("media store setup failed: %w", err)
	}

	maxBytes := int64(cfg.MediaMaxUploadSizeMB) << 20
	fetcher := media.NewFetcher(time.Duration(cfg.MediaFetchTimeoutSeconds)*time.Second, maxBytes)
	uploader := media.NewService(store, fetcher, maxBytes, middleware.Logger)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("xweeter-api"),
		replyRepo:      repository.NewReplyRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		mediaStore:     store,
		mediaFetcher:   fetcher,
		hub:            notifications.NewHub(),
	}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	s.broadcaster = notifications.NewBroadcaster(s.hub, s.notifier, middleware.Logger)
	s.replyService = service.NewReplyService(s.replyRepo, uploader, s.broadcaster,
		service.WithLogger(middleware.Logger))
	s.likeService = service.NewLikeService(s.likeRepo)

	middleware.InitMiddleware(cfg)
	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "xweeter replies",
		BodyLimit: s.bodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// bodyLimit leaves room for an inline base64 media source of the maximum size.
func (s *Server) bodyLimit() int {
	mb := s.config.MediaMaxUploadSizeMB
	if mb <= 0 {
		mb = 10
	}
	return (mb*4/3 + 1) << 20
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Media is embedded cross-origin, so the resource policy stays open.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS before anything that can short-circuit so error responses carry the headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Success: false,
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.mediaStore.(*media.LocalStore); ok {
		app.Static("/media", local.Dir())
	}

	xweets := app.Group("/xweets")
	xweets.Get("/:xweetId/replies", s.GetRepliesForPost)
	xweets.Get("/:xweetId/likes", s.GetLikesForPost)
	xweets.Delete("/:xweetId/likes/:userId", middleware.AuthRequired, s.UnlikePost)

	users := app.Group("/users")
	users.Get("/:userId/replies", s.GetRepliesByUser)
	users.Post("/:userId/replies", middleware.RateLimit(s.redis, 30, time.Minute, "create_reply"), s.CreateReply)
	users.Get("/:userId/replies/:replyId", middleware.AuthRequired, s.GetReply)
	users.Put("/:userId/replies/:replyId", middleware.AuthRequired, s.UpdateReply)
	users.Delete("/:userId/replies/:replyId", middleware.AuthRequired, s.DeleteReply)

	users.Get("/:userId/likes", s.GetLikesByUser)
	users.Get("/:userId/likes/:likeId", s.GetLike)
	users.Post("/:userId/likes", middleware.AuthRequired, middleware.RateLimit(s.redis, 60, time.Minute, "create_like"), s.CreateLike)
	users.Delete("/:userId/likes/:likeId", middleware.AuthRequired, s.DeleteLike)

	app.Get("/ws", s.WebSocketUpgrade, s.WebSocketRepliesHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so a
// deployment without it is still ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":  dbStatus,
			"redis":     redisStatus,
			"media":     s.mediaStore.Name(),
			"listeners": s.hub.Count(),
		},
		"time": time.Now(),
	})
}

// Start wires the hub to Redis and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			return fmt.Errorf("failed to start %s wiring: %w", s.hub.Name(), err)
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if s.mediaFetcher != nil {
		_ = s.mediaFetcher.Close()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
