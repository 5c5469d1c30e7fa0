package httpx

import (
	"time"

	"deepcheck/internal/config"
)

// ParseTimeout resolves a client timeout: per-provider override first, then
// the global HTTP setting, then the adapter's default.
func ParseTimeout(providerOverride *string, globalTimeout string, defaultVal time.Duration) time.Duration {
	return parseDuration(providerOverride, globalTimeout, defaultVal)
}

// BuildRetryConfig resolves the retry settings for one provider, layering
// provider overrides over the global HTTP configuration.
func BuildRetryConfig(provider config.ProviderConfig, httpCfg config.HTTPConfig) RetryConfig {
	maxRetries := httpCfg.MaxRetries
	if provider.MaxRetries != nil {
		maxRetries = *provider.MaxRetries
	}

	multiplier := httpCfg.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: parseDuration(provider.InitialBackoff, httpCfg.InitialBackoff, 2*time.Second),
		MaxBackoff:     parseDuration(provider.MaxBackoff, httpCfg.MaxBackoff, 30*time.Second),
		Multiplier:     multiplier,
	}
}

// parseDuration walks the override > global > default chain, skipping values
// that do not parse or are negative.
func parseDuration(override *string, global string, defaultVal time.Duration) time.Duration {
	for _, candidate := range []string{stringValue(override), global} {
		if candidate == "" {
			continue
		}
		if d, err := time.ParseDuration(candidate); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
