package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/yndnr/snapback/internal/storage"
	"github.com/yndnr/snapback/pkg/crypto/adaptive"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
		verifyMetrics(&cfg.Metrics),
		verifyTracing(&cfg.Tracing),
		verifyRateLimit(&cfg.RateLimit),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must be positive"))
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.http.max_body_bytes must be positive"))
	}
	if cfg.Redis.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Redis.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.redis.addr: %w", err))
		}
		if (cfg.Redis.TLSCertFile == "") != (cfg.Redis.TLSKeyFile == "") {
			errs = append(errs, errors.New("server.redis.tls_cert_file and tls_key_file must be set together"))
		}
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	return errors.Join(verifyEngine(cfg), verifyEncryption(&cfg.Encryption))
}

func verifyEncryption(cfg *EncryptionConfig) error {
	var errs []error
	if _, err := adaptive.ParseType(cfg.Cipher); err != nil {
		errs = append(errs, fmt.Errorf("storage.encryption.cipher: %w", err))
	}
	if cfg.Key != "" {
		if _, err := adaptive.ParseKey(cfg.Key); err != nil {
			errs = append(errs, fmt.Errorf("storage.encryption.key: %w", err))
		}
	}
	return errors.Join(errs...)
}

func verifyEngine(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineMemory:
		if cfg.Shards <= 0 {
			return errors.New("storage.shards must be positive")
		}
		return nil
	case storage.EngineBadger:
		if err := cfg.BadgerStoreConfig().Validate(); err != nil {
			return fmt.Errorf("storage.badger: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("storage.engine must be %q or %q, got %q", storage.EngineMemory, storage.EngineBadger, cfg.Engine)
	}
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Format))
	}
	return errors.Join(errs...)
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

func verifyTracing(cfg *TracingSection) error {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
	}
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("tracing.endpoint: invalid URL %q", cfg.Endpoint)
	}
	return nil
}

func verifyRateLimit(cfg *RateLimitSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RPS <= 0 {
		return errors.New("rate_limit.rps must be positive")
	}
	if cfg.Burst < 1 {
		return errors.New("rate_limit.burst must be at least 1")
	}
	return nil
}
