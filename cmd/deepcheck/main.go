package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"deepcheck/internal/adapter/api"
	"deepcheck/internal/adapter/classifier/anthropic"
	"deepcheck/internal/adapter/classifier/gemini"
	"deepcheck/internal/adapter/classifier/httpx"
	"deepcheck/internal/adapter/classifier/openai"
	"deepcheck/internal/adapter/classifier/static"
	"deepcheck/internal/adapter/cli"
	"deepcheck/internal/adapter/media"
	"deepcheck/internal/adapter/media/ffmpeg"
	"deepcheck/internal/adapter/store/sqlite"
	"deepcheck/internal/config"
	"deepcheck/internal/usecase/consensus"
	"deepcheck/internal/usecase/frames"
	"deepcheck/internal/usecase/metadata"
	"deepcheck/internal/usecase/verify"
	"deepcheck/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(httpx.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "deepcheck",
		EnvPrefix:   "DEEPCHECK",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability)

	primary, secondary, err := buildProviderPair(cfg, logger)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	callTimeout := 45 * time.Second
	if cfg.Evaluation.CallTimeout != "" {
		if parsed, parseErr := time.ParseDuration(cfg.Evaluation.CallTimeout); parseErr == nil {
			callTimeout = parsed
		} else {
			log.Printf("warning: invalid evaluation callTimeout %q, using default 45s", cfg.Evaluation.CallTimeout)
		}
	}

	orchestrator, err := verify.NewOrchestrator(verify.Deps{
		Primary:   primary,
		Secondary: secondary,
		Resolver: consensus.NewResolver(consensus.Config{
			AgreementBonus:      cfg.Consensus.AgreementBonus,
			DisagreementPenalty: cfg.Consensus.DisagreementPenalty,
			PartialPenalty:      cfg.Consensus.PartialPenalty,
			DegradedFactor:      cfg.Consensus.DegradedFactor,
		}),
		Scorer:       metadata.NewScorer(),
		FrameSource:  ffmpeg.NewExtractor(),
		Prober:       media.NewProber(),
		FramesConfig: frames.Config{Count: cfg.Frames.Count, FanOut: cfg.Frames.FanOut},
		MediaStore:   store,
		ClaimStore:   store,
		CallTimeout:  callTimeout,
	})
	if err != nil {
		return err
	}

	uploadDir := cfg.Storage.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	server := api.NewServer(orchestrator, store, store, uploadDir)

	root := cli.NewRootCommand(cli.Dependencies{
		Verifier:    orchestrator,
		MediaStore:  store,
		ClaimStore:  store,
		Serve:       server.Run,
		DefaultAddr: cfg.API.Addr,
		Version:     version.Version(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deepcheck"))
	}
	return paths
}

// buildLogger creates the classifier call logger based on configuration.
func buildLogger(cfg config.ObservabilityConfig) httpx.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	logLevel := httpx.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = httpx.LogLevelDebug
	case "error":
		logLevel = httpx.LogLevelError
	}

	logFormat := httpx.LogFormatHuman
	if cfg.Logging.Format == "json" {
		logFormat = httpx.LogFormatJSON
	}

	return httpx.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
}

// buildProviderPair resolves the primary and secondary classifier adapters
// named by the evaluation configuration. Consensus requires two distinct
// services.
func buildProviderPair(cfg config.Config, logger httpx.Logger) (verify.Provider, verify.Provider, error) {
	primaryName := cfg.Evaluation.Primary
	if primaryName == "" {
		primaryName = "gemini"
	}
	secondaryName := cfg.Evaluation.Secondary
	if secondaryName == "" {
		secondaryName = "openai"
	}
	if primaryName == secondaryName {
		return nil, nil, fmt.Errorf("evaluation.primary and evaluation.secondary must name different providers, both are %q", primaryName)
	}

	primary, err := buildProvider(primaryName, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := buildProvider(secondaryName, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

func buildProvider(name string, cfg config.Config, logger httpx.Logger) (verify.Provider, error) {
	providerCfg, ok := cfg.Providers[name]
	if !ok || !providerCfg.Enabled {
		return nil, fmt.Errorf("provider %q is not configured or not enabled", name)
	}

	switch name {
	case "openai":
		model := providerCfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		if providerCfg.APIKey == "" {
			return nil, fmt.Errorf("provider openai missing API key (set OPENAI_API_KEY or providers.openai.apiKey)")
		}
		client := openai.NewHTTPClient(providerCfg.APIKey, model, providerCfg, cfg.HTTP)
		if logger != nil {
			client.SetLogger(logger)
		}
		return openai.NewProvider(client), nil

	case "gemini":
		model := providerCfg.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		if providerCfg.APIKey == "" {
			return nil, fmt.Errorf("provider gemini missing API key (set GEMINI_API_KEY or providers.gemini.apiKey)")
		}
		client := gemini.NewHTTPClient(providerCfg.APIKey, model, providerCfg, cfg.HTTP)
		if logger != nil {
			client.SetLogger(logger)
		}
		return gemini.NewProvider(client), nil

	case "anthropic":
		model := providerCfg.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		if providerCfg.APIKey == "" {
			return nil, fmt.Errorf("provider anthropic missing API key (set ANTHROPIC_API_KEY or providers.anthropic.apiKey)")
		}
		provider := anthropic.NewProvider(providerCfg.APIKey, model)
		if logger != nil {
			provider.SetLogger(logger)
		}
		return provider, nil

	case "static":
		model := providerCfg.Model
		if model == "" {
			model = "static-v1"
		}
		return static.NewProvider(model), nil

	default:
		return nil, fmt.Errorf("unsupported provider %q; supported providers: openai, gemini, anthropic, static", name)
	}
}

// openStore initialises the SQLite store, creating its directory on first
// run.
func openStore(cfg config.StoreConfig) (*sqlite.Store, error) {
	path := cfg.Path
	if path == "" || !cfg.Enabled {
		path = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return sqlite.NewStore(path)
}

// Compile-time interface compliance checks
var _ verify.Provider = (*openai.Provider)(nil)
var _ verify.Provider = (*gemini.Provider)(nil)
var _ verify.Provider = (*anthropic.Provider)(nil)
var _ verify.Provider = (*static.Provider)(nil)
var _ verify.FrameSource = (*ffmpeg.Extractor)(nil)
var _ verify.MetadataProber = (*media.Prober)(nil)
var _ verify.MediaStore = (*sqlite.Store)(nil)
var _ verify.ClaimStore = (*sqlite.Store)(nil)
var _ cli.Verifier = (*verify.Orchestrator)(nil)
