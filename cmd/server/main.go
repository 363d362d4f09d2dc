package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/respiratools/bars/internal/cache"
	"github.com/respiratools/bars/internal/charts"
	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/errors"
	"github.com/respiratools/bars/internal/frontend"
	"github.com/respiratools/bars/internal/middleware"
	"github.com/respiratools/bars/internal/monitoring"
	"github.com/respiratools/bars/internal/ratelimit"
	"github.com/respiratools/bars/internal/report"
	"github.com/respiratools/bars/internal/security"
)

// config is the server configuration, read from the environment.
type config struct {
	Port            string
	MaxUploadBytes  int64
	MaxRows         int
	CacheTTL        time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	PDFMaxTableRows int
	ScoreTimeout    time.Duration
	AllowedOrigins  []string
	EnableHSTS      bool
}

func loadConfig() config {
	return config{
		Port:            getEnvOrDefault("PORT", "8080"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),
		MaxRows:         getEnvInt("MAX_ROWS", dataset.DefaultLimits().MaxRows),
		CacheTTL:        getEnvDuration("CACHE_TTL", 15*time.Minute),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
		PDFMaxTableRows: getEnvInt("PDF_MAX_TABLE_ROWS", report.DefaultConfig().MaxTableRows),
		ScoreTimeout:    getEnvDuration("SCORE_TIMEOUT", 30*time.Second),
		AllowedOrigins:  strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "*"), ","),
		EnableHSTS:      os.Getenv("ENABLE_HSTS") == "true",
	}
}

// server wires the scoring pipeline behind the HTTP surface. It holds no
// patient data; every request is computed from its own body and discarded.
type server struct {
	cfg      config
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	renderer *charts.Renderer
	reports  *report.Builder
	limits   dataset.Limits
}

func newServer(cfg config) *server {
	return &server{
		cfg:     cfg,
		metrics: monitoring.NewMetrics(),
		logger:  monitoring.NewLogger(),
		cache:   cache.New(cfg.CacheTTL),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
			IdleEviction:      10 * time.Minute,
		}),
		renderer: charts.NewRenderer(),
		reports:  report.NewBuilder(report.Config{MaxTableRows: cfg.PDFMaxTableRows}),
		limits:   dataset.Limits{MaxRows: cfg.MaxRows},
	}
}

func (s *server) setupRouter() *gin.Engine {
	r := gin.New()

	// Monitoring first so every request is captured.
	r.Use(monitoring.Middleware(s.metrics, s.logger))
	r.Use(middleware.RequestID())

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.Headers(security.HeadersConfig{EnableHSTS: s.cfg.EnableHSTS}))
	r.Use(security.BodyLimit(s.cfg.MaxUploadBytes))

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.Use(middleware.Gzip())
	r.Use(ratelimit.Middleware(s.limiter, s.metrics))

	// Identical tables resolve from the cache; only the scoring endpoint is
	// cached since the binary exports are cheap to rebuild relative to size.
	r.Use(s.cache.Middleware(s.metrics, "/api/v1/score"))

	staticFS, err := frontend.StaticFS()
	if err != nil {
		slog.Error("Failed to load embedded frontend", "error", err)
	} else {
		page := frontend.Handler(staticFS)
		r.GET("/", page)
		r.NoRoute(page)
	}

	api := r.Group("/api/v1")
	api.POST("/score", s.handleScore)
	api.POST("/report", s.handleReport)
	api.POST("/export/csv", s.handleExportCSV)
	api.GET("/template", s.handleTemplate)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)

	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	s := newServer(cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
