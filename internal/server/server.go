// Package server contains the HTTP handlers and routing of the Yatube site.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/render"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// metrics returns the process-wide HTTP metrics middleware; collectors register once.
func metrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New("yatube")
	})
	return promMiddleware
}

// Server holds all dependencies and provides handlers
type Server struct {
	config    *config.Config
	db        *gorm.DB
	redis     *redis.Client
	app       *fiber.App
	views     *render.Engine
	sessions  *SessionManager
	pageCache *PageCache
	media     *media.Service
	storage   media.Storage
	flags     *featureflags.Manager

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	groupService   *service.GroupService
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching and session revocation then degrade gracefully.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	storage, err := media.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}
	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		views:       render.New(),
		sessions:    NewSessionManager(cfg.SessionSecret, redisClient, cfg.IsProduction()),
		pageCache:   NewPageCache(redisClient, cfg.IndexCacheTTL),
		storage:     storage,
		media:       media.NewService(storage, flags.EnabledGlobally(featureflags.ImageThumbnails)),
		flags:       flags,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
	}

	s.postService = service.NewPostService(service.PostRepositories{
		Posts:    s.postRepo,
		Groups:   s.groupRepo,
		Users:    s.userRepo,
		Comments: s.commentRepo,
		Follows:  s.followRepo,
	}, s.media, cfg.PostsPerPage)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo, flags)
	s.userService = service.NewUserService(s.userRepo)
	s.groupService = service.NewGroupService(s.groupRepo)

	s.views.AddFunc("mediaURL", s.media.URL)

	return s, nil
}

// PageCache exposes the index page cache so it can be reset.
func (s *Server) PageCache() *PageCache {
	return s.pageCache
}

// App builds the fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        s.views,
		ErrorHandler: s.ErrorHandler,
		// Usernames may be non-ASCII; route params must arrive decoded.
		UnescapePath: true,
		BodyLimit:    int(s.config.MaxUploadBytes()) + 1024*1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing populates the trace ID the context middleware reads
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	app.Use(metrics().Middleware)

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	// Session user for every request
	app.Use(s.sessions.Authenticate(s.userService.GetUserByID))

	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrfmiddlewaretoken",
		CookieName:     "csrftoken",
		CookieSameSite: "Lax",
		CookieSecure:   s.config.IsProduction(),
		CookieHTTPOnly: true,
		Expiration:     12 * time.Hour,
		ContextKey:     render.CSRFKey,
		Next: func(c *fiber.Ctx) bool {
			return !s.config.CSRFEnabled
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.WarnContext(c.UserContext(), "csrf check failed", slog.String("error", err.Error()))
			return c.Status(fiber.StatusForbidden).SendString("CSRF verification failed. Request aborted.")
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	metrics().RegisterAt(app, "/metrics")
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))

	// Uploaded images
	if s.storage.Name() == "local" {
		app.Static(s.config.MediaURL, s.config.MediaRoot, fiber.Static{MaxAge: 3600})
	}

	// Auth pages
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupPage)
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout", s.Logout)
	auth.Post("/logout", s.Logout)

	// Public pages
	app.Get("/", s.pageCache.Handler(), s.Index)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/profile/:username", s.Profile)
	app.Get("/posts/:id", s.PostDetail)

	// Pages requiring login
	login := middleware.LoginRequired()
	app.Get("/create", login, s.PostCreate)
	app.Post("/create", login, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.PostCreate)
	app.Get("/posts/:id/edit", login, s.PostEdit)
	app.Post("/posts/:id/edit", login, s.PostEdit)
	app.Post("/posts/:id/delete", login, s.PostDelete)
	app.Post("/posts/:id/comment", login, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.AddComment)
	app.Get("/follow", login, s.FollowIndex)
	app.Get("/profile/:username/follow", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow", login, s.ProfileUnfollow)
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database is reachable. Redis is optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":   dbStatus,
			"redis":      redisStatus,
			"page_cache": s.pageCache.Backend(),
			"media":      s.storage.Name(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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
