package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-checkout/internal/commerce"
	"github.com/noah-isme/storefront-checkout/internal/config"
	"github.com/noah-isme/storefront-checkout/internal/events"
	"github.com/noah-isme/storefront-checkout/internal/handoff"
	"github.com/noah-isme/storefront-checkout/internal/health"
	"github.com/noah-isme/storefront-checkout/internal/money"
	"github.com/noah-isme/storefront-checkout/internal/obs"
	"github.com/noah-isme/storefront-checkout/internal/payment"
	"github.com/noah-isme/storefront-checkout/internal/ratelimit"
	"github.com/noah-isme/storefront-checkout/internal/resilience"
	"github.com/noah-isme/storefront-checkout/internal/security"
	"github.com/noah-isme/storefront-checkout/internal/session"
	"github.com/noah-isme/storefront-checkout/internal/storefront"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "checkout")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.RegisterMetrics(nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", !cfg.IsDevelopment())
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   envOrDefault("OBS_SERVICE_NAME", obs.DefaultServiceName),
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = newRedisClient(ctx, cfg.RedisURL, metricsEnabled, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	var store handoff.Store
	switch cfg.HandoffBackend {
	case config.HandoffRedis:
		store = handoff.NewRedisStore(redisClient)
	default:
		store = handoff.NewMemoryStore(cfg.HandoffMemorySize, cfg.HandoffTTL)
		if !cfg.IsDevelopment() {
			logger.Warn().Msg("hand-off store is in memory; checkout context is not shared between instances")
		}
	}
	handoffMgr := handoff.New(store, handoff.Options{TTL: cfg.HandoffTTL, Logger: logger})

	backend := commerce.NewClient(commerce.ClientConfig{
		BaseURL:        cfg.CommerceBaseURL,
		PublishableKey: cfg.CommerceKey,
		Timeout:        cfg.CommerceTimeout,
		MaxAttempts:    envInt("COMMERCE_MAX_ATTEMPTS", 3),
		Logger:         logger.With().Str("component", "commerce").Logger(),
	})

	bus := events.NewBus(logger.With().Str("component", "events").Logger())
	events.RegisterDefaultSubscribers(bus, logger)

	sessions, err := session.NewManager(session.Config{
		Secret:     []byte(cfg.SessionSecret),
		CookieName: cfg.SessionCookieName,
		Domain:     cfg.CookieDomain,
		Secure:     cfg.CookieSecure,
		SameSite:   cfg.CookieSameSite,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise sessions")
	}

	storefrontHandler := &storefront.Handler{
		Backend:       backend,
		Handoff:       handoffMgr,
		Providers:     payment.NewCatalog(payment.DefaultEntries),
		Money:         money.NewFormatter(money.Options{DefaultLocale: cfg.DefaultLocale}),
		Bus:           bus,
		DefaultLocale: cfg.DefaultLocale,
		Logger:        logger,
	}

	publishLimit := ratelimit.Handler{
		Limiter: newLimiter(redisClient, logger),
		Config: ratelimit.Config{
			Key:    ratelimit.SessionOrIP("financing:"),
			Window: time.Minute,
			Max:    cfg.RateLimitPerMinute,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate_limit_unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, SkipPaths: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.CookieSecure, NoStore: true}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", cfg.IsDevelopment()) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.PingerChecker{Pinger: handoffMgr},
		StoreTimeout: envDurationMillis("HEALTH_READY_STORE_TIMEOUT_MS", 300),
		StoreName:    cfg.HandoffBackend,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	csrf := security.CSRF{
		Cookie:   "sf_csrf",
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes, RequireJSON: true}.Middleware)
		v.Use(sessions.Middleware)
		if cfg.CSRFEnabled {
			v.Use(csrf.Issue, csrf.Middleware)
		}
		storefrontHandler.Routes(v, publishLimit.Middleware)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("handoff", cfg.HandoffBackend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("server draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 15000))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
}

func newRedisClient(ctx context.Context, url string, metricsEnabled bool, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// newLimiter picks the rate limit backend: Redis when available so limits hold
// across instances, in-process otherwise.
func newLimiter(client *redis.Client, logger zerolog.Logger) ratelimit.Limiter {
	const prefix = "ratelimit:"
	if client == nil {
		return ratelimit.NewMemoryLimiter(prefix)
	}
	if envOrDefault("RATE_LIMIT_STRATEGY", "fixed") == "sliding" {
		return ratelimit.SlidingWindow{Client: client, Prefix: prefix}
	}
	lim, err := ratelimit.NewRedisLimiter(client, prefix)
	if err != nil {
		logger.Error().Err(err).Msg("initialise redis rate limiter, falling back to memory")
		return ratelimit.NewMemoryLimiter(prefix)
	}
	return lim
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
