package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/protocol-risk/internal/cache"
	"github.com/yourorg/protocol-risk/internal/circuitbreaker"
	"github.com/yourorg/protocol-risk/internal/config"
	"github.com/yourorg/protocol-risk/internal/dashboard"
	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/telemetry"
)

const version = "1.0.0"

// Server represents the read API server
type Server struct {
	config    config.Config
	service   *dashboard.Service
	breakers  []*circuitbreaker.CircuitBreaker
	limiter   *rate.Limiter
	startTime time.Time
	server    *http.Server
}

func main() {
	// Configure logging
	setupLogging()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		logrus.Fatalf("Failed to load watchlist: %v", err)
	}

	shutdownTracer := telemetry.InitTracer(cfg)
	defer shutdownTracer()

	// Upstream clients share one response cache
	responses := cache.New[[]byte](cfg.CacheTTL)
	opts := fetchOptions(cfg)
	llama := fetch.NewLlama(cfg.LlamaURL, fetch.NewClient(dashboard.ProviderLlama, responses, opts))
	hyperliquid := fetch.NewHyperliquid(cfg.HyperliquidURL, fetch.NewClient(dashboard.ProviderHyperliquid, responses, opts))
	snapshot := fetch.NewSnapshot(cfg.SnapshotURL, fetch.NewClient(dashboard.ProviderSnapshot, responses, opts))

	service, err := dashboard.New(watchlist, llama, hyperliquid, snapshot, dashboard.Options{
		VaultAddress:  cfg.HLPVaultAddress,
		TopLimit:      cfg.TopProtocolLimit,
		DexLimit:      cfg.DexLimit,
		ProposalLimit: cfg.ProposalLimit,
		Logger:        logrus.StandardLogger(),
	})
	if err != nil {
		logrus.Fatalf("Failed to create dashboard service: %v", err)
	}

	logrus.WithField("protocols", len(watchlist)).Info("Watchlist loaded")

	server := NewServer(cfg, service,
		llama.Client().Breaker(),
		hyperliquid.Client().Breaker(),
		snapshot.Client().Breaker(),
	)
	server.Start()
}

func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	// Set log formatter based on environment
	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Set log level based on environment
	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

func fetchOptions(cfg config.Config) fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = cfg.RequestTimeout
	opts.RetryMax = cfg.RetryMax
	opts.BreakerFailures = cfg.BreakerFailures
	opts.BreakerReset = cfg.BreakerReset
	return opts
}

// NewServer creates a server over the dashboard service. The breakers are
// reported and controlled through /status and /circuit.
func NewServer(cfg config.Config, service *dashboard.Service, breakers ...*circuitbreaker.CircuitBreaker) *Server {
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.RateLimitBurst, 1))
	}
	return &Server{
		config:    cfg,
		service:   service,
		breakers:  breakers,
		limiter:   limiter,
		startTime: time.Now(),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.errorResponse(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.errorResponse(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/circuit", s.handleCircuitStatus)
	r.Post("/circuit", s.handleCircuitStatus)
	if s.config.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/watchlist", s.handleWatchlist)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/protocols", s.handleTopProtocols)
		r.Get("/protocols/{slug}", s.handleProtocolDetail)
		r.Get("/dex", s.handleDexVolumes)
		r.Get("/perps/markets", s.handlePerpMarkets)
		r.Get("/perps/funding", s.handleFunding)
		r.Get("/perps/vault", s.handleVault)
		r.Get("/governance", s.handleProposals)
		r.Get("/governance/{slug}", s.handleProtocolProposals)
	})

	return r
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() {
	// Configure server with timeouts
	s.server = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}
