package config

import (
	"net/url"
	"slices"
	"strings"
)

// Sanitize returns a copy of the config with credentials masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.CORS.AllowedOrigins = slices.Clone(cfg.CORS.AllowedOrigins)
	sanitized.Tracing.Endpoint = maskURLPassword(cfg.Tracing.Endpoint)
	if cfg.Storage.Encryption.Key != "" {
		sanitized.Storage.Encryption.Key = maskSecret(cfg.Storage.Encryption.Key)
	}
	return &sanitized
}

// maskURLPassword hides the password part of URL user info. The masked
// password is spliced in unescaped so the asterisks stay readable.
func maskURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil || u.Scheme == "" {
		return raw
	}
	pw, ok := u.User.Password()
	if !ok {
		return raw
	}

	userinfo := url.User(u.User.Username()).String() + ":" + maskSecret(pw)
	u.User = nil
	prefix := u.Scheme + "://"
	return prefix + userinfo + "@" + strings.TrimPrefix(u.String(), prefix)
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
