package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/telemetry/logger"
	"github.com/yndnr/snapback/internal/telemetry/metric"
)

// UserService is the user API served over RESP.
type UserService interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	RollbackUser(ctx context.Context, email string) error
	Stats(ctx context.Context) (metric.StoreStats, error)
}

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string

	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config

	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration

	// IdleTimeout closes connections with no command for this long.
	IdleTimeout time.Duration

	// RateLimit is the per-IP command rate (0 = unlimited).
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6380",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server is the RESP protocol server.
type Server struct {
	cfg     Config
	users   UserService
	logger  *slog.Logger
	metrics *metric.Registry
	cmds    map[string]command

	limiterMu sync.Mutex
	limiters  map[string]*visitor
	lastSweep time.Time

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	closing atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records per-command counts on r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// New creates a RESP server for users.
func New(cfg *Config, users UserService, log *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:       *cfg,
		users:     users,
		logger:    log,
		limiters:  make(map[string]*visitor),
		lastSweep: time.Now(),
		conns:     make(map[net.Conn]struct{}),
	}
	s.applyDefaults()
	for _, opt := range opts {
		opt(s)
	}
	s.cmds = s.commands()
	return s
}

func (s *Server) applyDefaults() {
	d := DefaultConfig()
	if s.cfg.ReadTimeout <= 0 {
		s.cfg.ReadTimeout = d.ReadTimeout
	}
	if s.cfg.WriteTimeout <= 0 {
		s.cfg.WriteTimeout = d.WriteTimeout
	}
	if s.cfg.IdleTimeout <= 0 {
		s.cfg.IdleTimeout = d.IdleTimeout
	}
	if s.cfg.RateLimit > 0 && s.cfg.RateBurst < 1 {
		s.cfg.RateBurst = 1
	}
}

// ListenAndServe listens on the configured address and serves until
// Shutdown, which makes it return nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("RESP server listening", "addr", ln.Addr().String(), "tls", s.cfg.TLSConfig != nil)

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		if !s.track(c) {
			_ = c.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(c)
		}()
	}
}

// Addr returns the listener address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections, lets in-flight commands finish and
// closes idle connections. It waits for connections to drain or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	// Wake connections blocked waiting for their next command.
	for c := range s.conns {
		_ = c.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
}

func (s *Server) serveConn(c net.Conn) {
	remote := c.RemoteAddr().String()
	log := s.logger.With("remote", remote)
	br := bufio.NewReader(c)
	w := NewWriter(c)

	for !s.closing.Load() {
		// Idle connections may wait for the next command; once it starts
		// the whole command must arrive within ReadTimeout.
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		// Shutdown may have expired the deadline just before it was reset.
		if s.closing.Load() {
			return
		}
		if _, err := br.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !s.closing.Load() {
				log.Debug("connection closed", "error", err)
			}
			return
		}
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrProtocol) {
				log.Warn("protocol error", "error", err)
				w.Error("ERR protocol error: " + err.Error())
				_ = c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				_ = w.Flush()
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		var quit bool
		if !s.allow(remote) {
			w.Error(formatError(domain.ErrRateLimited))
			s.record(normalizeCommandName(args[0]), "rate_limited")
			if s.metrics != nil {
				s.metrics.IncRateLimited()
			}
		} else {
			ctx := logger.WithRequestID(context.Background(), ulid.Make().String())
			ctx = logger.WithLogger(ctx, logger.Default().With("transport", "resp", "remote", remote))
			quit = errors.Is(s.dispatch(ctx, w, args), errQuit)
		}

		if err := c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := w.Flush(); err != nil || quit {
			return
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// allow applies the per-IP rate limit. Clients quiet for longer than
// IdleTimeout are forgotten.
func (s *Server) allow(remote string) bool {
	if s.cfg.RateLimit <= 0 {
		return true
	}
	ip, _, err := net.SplitHostPort(remote)
	if err != nil {
		ip = remote
	}
	now := time.Now()

	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	if now.Sub(s.lastSweep) > s.cfg.IdleTimeout {
		for k, v := range s.limiters {
			if now.Sub(v.lastSeen) > s.cfg.IdleTimeout {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)}
		s.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
