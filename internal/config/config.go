package config

// Config represents the full application configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	HTTP          HTTPConfig                `yaml:"http"`
	Evaluation    EvaluationConfig          `yaml:"evaluation"`
	Consensus     ConsensusConfig           `yaml:"consensus"`
	Frames        FramesConfig              `yaml:"frames"`
	Storage       StorageConfig             `yaml:"storage"`
	Store         StoreConfig               `yaml:"store"`
	API           APIConfig                 `yaml:"api"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single classifier provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// EvaluationConfig selects the adapter pair and bounds each classifier call.
// Primary and Secondary name entries of the providers map; the two must be
// independently configured services for consensus to mean anything.
type EvaluationConfig struct {
	Primary     string `yaml:"primary"`
	Secondary   string `yaml:"secondary"`
	CallTimeout string `yaml:"callTimeout"`
}

// ConsensusConfig holds the tunable constants of the consensus arithmetic.
// These are policy knobs, not implementation details: deployments calibrate
// them against observed model behavior.
type ConsensusConfig struct {
	AgreementBonus      float64 `yaml:"agreementBonus"`
	DisagreementPenalty float64 `yaml:"disagreementPenalty"`
	PartialPenalty      float64 `yaml:"partialPenalty"`
	DegradedFactor      float64 `yaml:"degradedFactor"`
}

// FramesConfig configures the video frame aggregation pass.
type FramesConfig struct {
	Count  int `yaml:"count"`  // frames sampled per video
	FanOut int `yaml:"fanOut"` // max concurrent per-frame classifier calls
}

// StorageConfig configures where uploaded media artifacts are kept.
type StorageConfig struct {
	UploadDir string `yaml:"uploadDir"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Evaluation = chooseEvaluation(base.Evaluation, overlay.Evaluation)
	result.Consensus = chooseConsensus(base.Consensus, overlay.Consensus)
	result.Frames = chooseFrames(base.Frames, overlay.Frames)
	result.Storage = chooseStorage(base.Storage, overlay.Storage)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.API = chooseAPI(base.API, overlay.API)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseEvaluation(base, overlay EvaluationConfig) EvaluationConfig {
	if overlay.Primary != "" || overlay.Secondary != "" || overlay.CallTimeout != "" {
		return overlay
	}
	return base
}

func chooseConsensus(base, overlay ConsensusConfig) ConsensusConfig {
	if overlay.AgreementBonus != 0 || overlay.DisagreementPenalty != 0 || overlay.PartialPenalty != 0 || overlay.DegradedFactor != 0 {
		return overlay
	}
	return base
}

func chooseFrames(base, overlay FramesConfig) FramesConfig {
	if overlay.Count != 0 || overlay.FanOut != 0 {
		return overlay
	}
	return base
}

func chooseStorage(base, overlay StorageConfig) StorageConfig {
	if overlay.UploadDir != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseAPI(base, overlay APIConfig) APIConfig {
	if overlay.Addr != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
