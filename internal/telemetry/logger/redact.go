package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are always fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"credential",
	"authorization",
	"bearer",
}

// Keys carrying entity identities. Masked only when MaskIdentity is set.
var identityKeys = map[string]struct{}{
	"email":     {},
	"identity":  {},
	"entity_id": {},
}

const redactedValue = "***REDACTED***"

func redactAttr(a slog.Attr, maskIdentity bool) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		val := a.Value.String()
		if val == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if maskIdentity {
			if _, ok := identityKeys[strings.ToLower(a.Key)]; ok {
				return slog.String(a.Key, MaskIdentity(val))
			}
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactAttr(attr, maskIdentity)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	return a
}

// MaskIdentity partially masks an identity value. Emails keep their first
// local character and the domain ("a***@example.com"); other values keep
// only their first and last characters.
func MaskIdentity(value string) string {
	if at := strings.LastIndexByte(value, '@'); at > 0 {
		return value[:1] + "***" + value[at:]
	}
	if len(value) <= 2 {
		return "***"
	}
	return value[:1] + "***" + value[len(value)-1:]
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
