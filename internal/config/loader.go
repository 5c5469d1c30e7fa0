package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "deepcheck"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "DEEPCHECK"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars applies ${VAR} / $VAR substitution to every string field a
// deployment plausibly sets from the environment (keys, paths, addresses).
func expandEnvVars(cfg Config) Config {
	for name, provider := range cfg.Providers {
		provider.APIKey = expandEnvString(provider.APIKey)
		provider.Model = expandEnvString(provider.Model)
		for _, field := range []**string{&provider.Timeout, &provider.InitialBackoff, &provider.MaxBackoff} {
			if *field != nil {
				expanded := expandEnvString(**field)
				*field = &expanded
			}
		}
		cfg.Providers[name] = provider
	}

	for _, field := range []*string{
		&cfg.HTTP.Timeout, &cfg.HTTP.InitialBackoff, &cfg.HTTP.MaxBackoff,
		&cfg.Evaluation.Primary, &cfg.Evaluation.Secondary, &cfg.Evaluation.CallTimeout,
		&cfg.Storage.UploadDir,
		&cfg.Store.Path,
		&cfg.API.Addr,
		&cfg.Observability.Logging.Level, &cfg.Observability.Logging.Format,
	} {
		*field = expandEnvString(*field)
	}

	return cfg
}

// expandEnvString substitutes environment variables into s. Unset variables
// are left as written so a missing key surfaces verbatim instead of turning
// into an empty string nobody can debug.
func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		if value := os.Getenv(name); value != "" {
			return value
		}
		return "${" + name + "}"
	})
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "30s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Evaluation defaults
	v.SetDefault("evaluation.primary", "gemini")
	v.SetDefault("evaluation.secondary", "openai")
	v.SetDefault("evaluation.callTimeout", "45s")

	// Consensus defaults
	v.SetDefault("consensus.agreementBonus", 0.05)
	v.SetDefault("consensus.disagreementPenalty", 0.15)
	v.SetDefault("consensus.partialPenalty", 0.10)
	v.SetDefault("consensus.degradedFactor", 0.75)

	// Frame sampling defaults
	v.SetDefault("frames.count", 5)
	v.SetDefault("frames.fanOut", 5)

	// Storage defaults
	v.SetDefault("storage.uploadDir", "uploads")

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// API defaults
	v.SetDefault("api.addr", ":8080")

	// Observability defaults
	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "human")
	v.SetDefault("observability.logging.redactAPIKeys", true)

	// Provider defaults
	v.SetDefault("providers.openai.enabled", false)
	v.SetDefault("providers.openai.model", "gpt-4o")
	v.SetDefault("providers.gemini.enabled", false)
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.anthropic.enabled", false)
	v.SetDefault("providers.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("providers.static.enabled", true)
	v.SetDefault("providers.static.model", "static-v1")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./deepcheck.db"
	}
	return filepath.Join(home, ".config", "deepcheck", "deepcheck.db")
}
