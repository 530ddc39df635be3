package config

import "time"

// ServerConfig is the root configuration for snapback-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Log       LogSection       `koanf:"log"`
	Metrics   MetricsSection   `koanf:"metrics"`
	Tracing   TracingSection   `koanf:"tracing"`
	RateLimit RateLimitSection `koanf:"rate_limit"`
	CORS      CORSSection      `koanf:"cors"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig configures the RESP protocol endpoint.
type RedisConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Addr         string        `koanf:"addr"`
	TLSCertFile  string        `koanf:"tls_cert_file"`
	TLSKeyFile   string        `koanf:"tls_key_file"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// StorageSection selects and tunes the storage engine.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine string `koanf:"engine"`

	// Shards is the memory engine shard count.
	Shards int `koanf:"shards"`

	Badger BadgerConfig `koanf:"badger"`

	// Encryption seals snapshot data when a key is set.
	Encryption EncryptionConfig `koanf:"encryption"`
}

// EncryptionConfig configures snapshot sealing.
type EncryptionConfig struct {
	// Key is a 32-byte key, hex or base64 encoded. Empty disables sealing.
	Key string `koanf:"key"`

	// Cipher is "auto", "aes-gcm" or "chacha20-poly1305".
	Cipher string `koanf:"cipher"`
}

// BadgerConfig tunes the badger engine.
type BadgerConfig struct {
	InMemory    bool          `koanf:"in_memory"`
	Dir         string        `koanf:"dir"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSizeMB int64         `koanf:"cache_size_mb"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// LogSection configures logging.
type LogSection struct {
	Level        string `koanf:"level"`
	Format       string `koanf:"format"`
	AddSource    bool   `koanf:"add_source"`
	MaskIdentity bool   `koanf:"mask_identity"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// TracingSection configures OTLP trace export.
type TracingSection struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// RateLimitSection configures per-client request limiting.
type RateLimitSection struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// CORSSection configures cross-origin access for browser clients.
type CORSSection struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}
