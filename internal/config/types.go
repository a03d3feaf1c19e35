// Package config resolves, parses, validates, and defaults segno configuration.
package config

// Config is the fully materialized runtime configuration used by segno.
type Config struct {
	API        APIConfig
	Camera     CameraConfig
	Sampling   SamplingConfig
	Transcript TranscriptConfig
	Indicator  IndicatorConfig
	History    HistoryConfig
	Clipboard  CommandConfig
}

// APIConfig controls the vision recognition endpoint and per-request knobs.
type APIConfig struct {
	BaseURL     string
	KeyEnv      string
	Model       string
	Instruction string
	MaxTokens   int
	Detail      string
	Fast        bool
	TimeoutMS   int
}

// CameraConfig controls capture device selection and frame encoding.
type CameraConfig struct {
	Device      string
	InputFormat string
	Quality     float64
}

// SamplingConfig controls the frame sampling cadence.
type SamplingConfig struct {
	IntervalMS int
}

// TranscriptConfig controls transcript rendering.
type TranscriptConfig struct {
	Separator string
}

// IndicatorConfig controls desktop notification behavior.
type IndicatorConfig struct {
	Enable         bool
	AppName        string
	ErrorTimeoutMS int
}

// HistoryConfig controls the session history store.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
