package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/telemetry/logger"
	"github.com/yndnr/snapback/internal/telemetry/metric"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// UserService is the user use-case API the handlers call.
type UserService interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	RollbackUser(ctx context.Context, email string) error
	Stats(ctx context.Context) (metric.StoreStats, error)
}

// Config holds handler dependencies.
type Config struct {
	Users UserService

	// Ready reports whether storage can serve requests. Nil means always ready.
	Ready func(ctx context.Context) error

	// Engine names the storage engine for the status endpoint.
	Engine string

	Logger       *slog.Logger
	MaxBodyBytes int64
}

// Handler routes API requests.
type Handler struct {
	users        UserService
	ready        func(ctx context.Context) error
	engine       string
	logger       *slog.Logger
	maxBodyBytes int64
	started      time.Time
	mux          *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		users:        cfg.Users,
		ready:        cfg.Ready,
		engine:       cfg.Engine,
		logger:       cfg.Logger,
		maxBodyBytes: cfg.MaxBodyBytes,
		started:      time.Now(),
		mux:          http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /users", h.handleListUsers)
	h.mux.HandleFunc("POST /users", h.handleCreateUser)
	h.mux.HandleFunc("PUT /users/{email}", h.handleUpdateUser)
	h.mux.HandleFunc("POST /users/{email}/rollback", h.handleRollbackUser)

	h.mux.HandleFunc("GET /admin/v1/status", h.handleAdminStatus)
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := writeEnvelope(w, status, NewResponse(getRequestID(r), data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	if err := writeEnvelope(w, status, NewErrorResponse(getRequestID(r), code, message, details)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error envelope outside a Handler, for middleware.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	_ = writeEnvelope(w, status, NewErrorResponse(getRequestID(r), code, message, nil))
}

func writeEnvelope(w http.ResponseWriter, status int, resp *Response) error {
	w.Header().Set("Content-Type", "application/json")
	if resp.RequestID != "" {
		w.Header().Set("X-Request-ID", resp.RequestID)
	}
	if resp.Code != CodeOK {
		w.Header().Set("X-Error-Code", resp.Code)
	}
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(resp)
}

// getRequestID prefers the ID assigned by middleware over the raw header.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// decodeBody decodes a bounded JSON body into v.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, domain.ErrBadRequest.Code, "request body too large", nil)
			return false
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", err.Error())
		return false
	}
	return true
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "error", err)
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "SB-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
