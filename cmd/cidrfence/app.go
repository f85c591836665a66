package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cidrfence/cidrfence/internal/config"
	"github.com/cidrfence/cidrfence/internal/middleware"
	"github.com/cidrfence/cidrfence/internal/observability"
	"github.com/cidrfence/cidrfence/internal/policy"
)

// application wires the policy evaluator into an HTTP server.
type application struct {
	cfg       *config.Config
	logger    observability.Logger
	evaluator *policy.Evaluator
	server    *http.Server
}

// newApplication builds the evaluator and HTTP server from the
// configuration.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	opts := []policy.RegistryOption{
		policy.WithLogger(logger),
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, policy.WithMetrics(policy.NewMetrics(cfg.Metrics.Namespace)))
	}

	cache, err := buildDecisionCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, policy.WithDecisionCache(cache))
	}

	registry, err := policy.NewRegistryFromRules(cfg.Rules, opts...)
	if err != nil {
		return nil, err
	}

	evaluator, err := registry.Build()
	if err != nil {
		return nil, err
	}

	access := middleware.NewAccessControl(evaluator,
		middleware.WithAccessLogger(logger),
		middleware.WithClientIPExtractor(middleware.NewClientIPExtractor(cfg.TrustedProxies)),
		middleware.WithDeniedStatus(cfg.Server.DeniedStatusCode),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(access.Handler())

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	}

	return &application{
		cfg:       cfg,
		logger:    logger,
		evaluator: evaluator,
		server:    server,
	}, nil
}

// buildDecisionCache constructs the configured decision cache backend.
// A nil return means the registry should use its default in-memory
// cache.
func buildDecisionCache(cfg *config.Config, logger observability.Logger) (policy.DecisionCache, error) {
	switch cfg.Cache.Type {
	case config.CacheTypeMemory, "":
		return nil, nil
	case config.CacheTypeNone:
		return policy.NewNoopDecisionCache(), nil
	case config.CacheTypeRedis:
		redisOpts, err := redis.ParseURL(cfg.Cache.Redis.URL)
		if err != nil {
			return nil, err
		}
		return policy.NewRedisDecisionCache(redis.NewClient(redisOpts),
			policy.WithRedisCacheLogger(logger),
			policy.WithRedisCacheTTL(cfg.Cache.Redis.TTL.Duration()),
		), nil
	default:
		return nil, errors.New("unknown cache type: " + cfg.Cache.Type)
	}
}

// run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *application) run() {
	go func() {
		a.logger.Info("listening",
			observability.String("address", a.cfg.Server.ListenAddress),
			observability.Int("rules", len(a.cfg.Rules)),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server failed", observability.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("shutdown error", observability.Error(err))
	}
	if err := a.evaluator.Close(); err != nil {
		a.logger.Error("cache close error", observability.Error(err))
	}
}
