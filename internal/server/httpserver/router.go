package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/snapback/internal/server/httpserver/handler"
	"github.com/yndnr/snapback/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Users serves the user endpoints.
	Users handler.UserService

	// Ready backs GET /ready.
	Ready func(ctx context.Context) error

	// Engine names the storage engine in the status endpoint.
	Engine string

	Logger *slog.Logger

	// Metrics records request metrics and serves MetricsPath when set.
	Metrics     *metric.Registry
	MetricsPath string

	// CORSAllowedOrigins enables CORS for the listed origins (empty = disabled).
	CORSAllowedOrigins []string

	// RateLimitRPS is the per-IP request rate (0 = unlimited).
	RateLimitRPS   float64
	RateLimitBurst int

	MaxBodyBytes int64

	// EnableAudit enables request logging and request metrics.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsPath:    "/metrics",
		RateLimitRPS:   100,
		RateLimitBurst: 200,
		EnableAudit:    true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(handler.Config{
		Users:        cfg.Users,
		Ready:        cfg.Ready,
		Engine:       cfg.Engine,
		Logger:       log,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	// Order: Recover -> CORS -> RequestID -> RateLimit -> Trace -> Audit -> Handler
	api := []Middleware{Recover(log)}
	if len(cfg.CORSAllowedOrigins) > 0 {
		api = append(api, CORS(cfg.CORSAllowedOrigins))
	}
	api = append(api, RequestID())
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		api = append(api, RateLimit(cfg.RateLimitRPS, burst, cfg.Metrics))
	}
	api = append(api, Trace())
	if cfg.EnableAudit {
		api = append(api, Audit(log, cfg.Metrics))
	}

	mux := http.NewServeMux()

	// Probes skip CORS, rate limiting and auditing.
	probes := Chain(h, Recover(log), RequestID())
	mux.Handle("GET /health", probes)
	mux.Handle("GET /ready", probes)

	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, Chain(cfg.Metrics.Handler(), Recover(log)))
	}

	mux.Handle("/", Chain(h, api...))
	return mux
}
