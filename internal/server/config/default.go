package config

import (
	"time"

	"github.com/yndnr/snapback/internal/storage"
	"github.com/yndnr/snapback/internal/storage/badgerstore"
	"github.com/yndnr/snapback/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = 1 << 20

	DefaultRedisAddr         = "127.0.0.1:6380"
	DefaultRedisReadTimeout  = 30 * time.Second
	DefaultRedisWriteTimeout = 30 * time.Second
	DefaultRedisIdleTimeout  = 5 * time.Minute

	DefaultEngine     = storage.EngineMemory
	DefaultShards     = 32
	DefaultBadgerDir  = "/var/lib/snapback/data"
	DefaultGCInterval = 10 * time.Minute
	DefaultGCRatio    = 0.5
	DefaultCacheMB    = 64
	DefaultCipher     = string(adaptive.CipherAuto)

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"

	DefaultServiceName = "snapback-server"
	DefaultSampleRatio = 1.0

	DefaultRPS   = 100
	DefaultBurst = 200
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				IdleTimeout:     DefaultIdleTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
				MaxBodyBytes:    DefaultMaxBodyBytes,
			},
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				ReadTimeout:  DefaultRedisReadTimeout,
				WriteTimeout: DefaultRedisWriteTimeout,
				IdleTimeout:  DefaultRedisIdleTimeout,
			},
		},
		Storage: StorageSection{
			Engine: DefaultEngine,
			Shards: DefaultShards,
			Badger: BadgerConfig{
				InMemory:    true,
				Dir:         DefaultBadgerDir,
				GCInterval:  DefaultGCInterval,
				GCThreshold: DefaultGCRatio,
				CacheSizeMB: DefaultCacheMB,
			},
			Encryption: EncryptionConfig{
				Cipher: DefaultCipher,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingSection{
			ServiceName: DefaultServiceName,
			SampleRatio: DefaultSampleRatio,
		},
		RateLimit: RateLimitSection{
			Enabled: true,
			RPS:     DefaultRPS,
			Burst:   DefaultBurst,
		},
	}
}

// DefaultMap flattens Default into dotted koanf keys. The loader resolves
// environment variable names against these keys.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":             d.Server.HTTP.Addr,
		"server.http.tls_cert_file":    d.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":     d.Server.HTTP.TLSKeyFile,
		"server.http.read_timeout":     d.Server.HTTP.ReadTimeout.String(),
		"server.http.write_timeout":    d.Server.HTTP.WriteTimeout.String(),
		"server.http.idle_timeout":     d.Server.HTTP.IdleTimeout.String(),
		"server.http.shutdown_timeout": d.Server.HTTP.ShutdownTimeout.String(),
		"server.http.max_body_bytes":   d.Server.HTTP.MaxBodyBytes,

		"server.redis.enabled":       d.Server.Redis.Enabled,
		"server.redis.addr":          d.Server.Redis.Addr,
		"server.redis.tls_cert_file": d.Server.Redis.TLSCertFile,
		"server.redis.tls_key_file":  d.Server.Redis.TLSKeyFile,
		"server.redis.read_timeout":  d.Server.Redis.ReadTimeout.String(),
		"server.redis.write_timeout": d.Server.Redis.WriteTimeout.String(),
		"server.redis.idle_timeout":  d.Server.Redis.IdleTimeout.String(),

		"storage.engine":               d.Storage.Engine,
		"storage.shards":               d.Storage.Shards,
		"storage.badger.in_memory":     d.Storage.Badger.InMemory,
		"storage.badger.dir":           d.Storage.Badger.Dir,
		"storage.badger.gc_interval":   d.Storage.Badger.GCInterval.String(),
		"storage.badger.gc_threshold":  d.Storage.Badger.GCThreshold,
		"storage.badger.cache_size_mb": d.Storage.Badger.CacheSizeMB,
		"storage.badger.sync_writes":   d.Storage.Badger.SyncWrites,
		"storage.encryption.key":       d.Storage.Encryption.Key,
		"storage.encryption.cipher":    d.Storage.Encryption.Cipher,

		"log.level":         d.Log.Level,
		"log.format":        d.Log.Format,
		"log.add_source":    d.Log.AddSource,
		"log.mask_identity": d.Log.MaskIdentity,

		"metrics.enabled": d.Metrics.Enabled,
		"metrics.path":    d.Metrics.Path,

		"tracing.enabled":      d.Tracing.Enabled,
		"tracing.endpoint":     d.Tracing.Endpoint,
		"tracing.service_name": d.Tracing.ServiceName,
		"tracing.sample_ratio": d.Tracing.SampleRatio,

		"rate_limit.enabled": d.RateLimit.Enabled,
		"rate_limit.rps":     d.RateLimit.RPS,
		"rate_limit.burst":   d.RateLimit.Burst,
	}
}

// BadgerStoreConfig maps the badger section onto the engine configuration.
func (s StorageSection) BadgerStoreConfig() badgerstore.Config {
	c := badgerstore.DefaultConfig()
	c.InMemory = s.Badger.InMemory
	c.Dir = s.Badger.Dir
	if s.Badger.GCInterval > 0 {
		c.GCInterval = s.Badger.GCInterval
	}
	if s.Badger.GCThreshold > 0 {
		c.GCThreshold = s.Badger.GCThreshold
	}
	if s.Badger.CacheSizeMB > 0 {
		c.CacheSize = s.Badger.CacheSizeMB << 20
	}
	c.SyncWrites = s.Badger.SyncWrites
	return c
}

// SnapshotCipher builds the snapshot cipher, or returns nil when no key is
// configured.
func (s StorageSection) SnapshotCipher() (adaptive.Cipher, error) {
	if s.Encryption.Key == "" {
		return nil, nil
	}
	key, err := adaptive.ParseKey(s.Encryption.Key)
	if err != nil {
		return nil, err
	}
	typ, err := adaptive.ParseType(s.Encryption.Cipher)
	if err != nil {
		return nil, err
	}
	return adaptive.New(key, typ)
}
