package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"algotracker/internal/account"
	"algotracker/internal/api/auth"
	"algotracker/internal/api/middleware"
	"algotracker/internal/config"
	"algotracker/internal/model"
	"algotracker/internal/pkg/dedup"
	"algotracker/internal/pkg/metrics"
	"algotracker/internal/pkg/notify"
	"algotracker/internal/pkg/otp"
	"algotracker/internal/pkg/password"
	"algotracker/internal/pkg/ratelimit"
	"algotracker/internal/pkg/token"
	"algotracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Accounts is the account flow the server exposes.
type Accounts interface {
	auth.AccountService
	middleware.Authenticator
	middleware.RoleDecoder
}

// Server holds the API dependencies and the gin router.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *gorm.DB
	rdb      *redis.Client
	router   *gin.Engine
	accounts Accounts
	problems ProblemStore
	deduper  Deduper
}

// NewServer connects MySQL and redis, migrates the schema and builds the
// router.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		closeDB(db)
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	accountStore := store.NewAccounts(db)
	svc := account.NewService(
		accountStore,
		password.NewHasher(cfg.Security.BcryptCost),
		otp.NewManager(accountStore, cfg.App.OTPTTL),
		token.NewIssuer(
			cfg.Security.AccessTokenSecret,
			cfg.Security.AccessTokenTTL,
			cfg.Security.RoleTokenSecret,
			cfg.Security.RoleTokenTTL,
		),
		notify.NewEmailSender(&cfg.Email, logger),
		ratelimit.NewKeyedLimiter(rdb, logger, "algotracker:ratelimit:otp:", cfg.App.OTPRateLimit, cfg.App.OTPRateBurst),
		account.Options{
			ClientURL:         cfg.App.ClientURL,
			RoleSuffixes:      cfg.Security.RoleSuffixes,
			CookiePrefixes:    cfg.Security.CookiePrefixes,
			MinPasswordLength: cfg.App.MinPasswordLength,
			Logger:            logger,
		},
	)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		rdb:      rdb,
		accounts: svc,
		problems: store.NewProblems(db),
		deduper:  dedup.NewLinkDeduplicator(rdb, time.Duration(cfg.App.ProblemDedupWindow)*time.Second),
	}
	s.registerRoutes()
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close closes the database and redis connections.
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// registerRoutes builds the router and registers every route.
func (s *Server) registerRoutes() {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(s.logger))
	s.router = r

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealthz)

	cookies := auth.NewCookiePolicy(s.cfg)
	v1 := r.Group("/api/v1")
	for group, role := range map[string]string{"managers": model.RoleManager, "users": model.RoleUser} {
		h := auth.NewHandler(s.accounts, role, cookies, s.logger)
		g := v1.Group("/" + group)
		g.POST("/create", h.Register)
		g.POST("/login", h.Login)
		g.POST("/logout", h.Logout)
		g.POST("/otp", h.SendOTP)
		g.POST("/otp/:id/verify", h.VerifyOTP)
		g.POST("/reset-password/:id", h.ResetPassword)
	}

	problems := v1.Group("/problems")
	problems.Use(middleware.AuthMiddleware(s.accounts, auth.AccessCookieName))
	problems.POST("", s.handleCreateProblem)
	problems.GET("", s.handleListProblems)
	problems.GET("/:id", s.handleGetProblem)
	problems.PUT("/:id", s.handleUpdateProblem)
	problems.DELETE("/:id", middleware.RequireRole(s.accounts, model.RoleManager), s.handleDeleteProblem)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
