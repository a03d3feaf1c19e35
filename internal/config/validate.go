package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	if strings.TrimSpace(cfg.API.KeyEnv) == "" {
		return nil, fmt.Errorf("api.key_env must not be empty")
	}
	if strings.TrimSpace(cfg.API.Model) == "" {
		return nil, fmt.Errorf("api.model must not be empty")
	}
	if cfg.API.MaxTokens <= 0 {
		return nil, fmt.Errorf("api.max_tokens must be > 0")
	}
	if cfg.API.TimeoutMS <= 0 {
		return nil, fmt.Errorf("api.timeout_ms must be > 0")
	}
	detail := strings.ToLower(strings.TrimSpace(cfg.API.Detail))
	if detail != "low" && detail != "high" && detail != "auto" {
		return nil, fmt.Errorf("api.detail must be one of: low, high, auto")
	}

	if strings.TrimSpace(cfg.Camera.Device) == "" {
		return nil, fmt.Errorf("camera.device must not be empty")
	}
	if strings.TrimSpace(cfg.Camera.InputFormat) == "" {
		return nil, fmt.Errorf("camera.input_format must not be empty")
	}
	if cfg.Camera.Quality <= 0 || cfg.Camera.Quality > 1 {
		return nil, fmt.Errorf("camera.quality must be in (0, 1]")
	}

	if cfg.Sampling.IntervalMS <= 0 {
		return nil, fmt.Errorf("sampling.interval_ms must be > 0")
	}
	if cfg.Sampling.IntervalMS < 250 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("sampling.interval_ms=%d is aggressive; recognition calls may be skipped on most ticks", cfg.Sampling.IntervalMS),
		})
	}

	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.AppName) == "" {
		return nil, fmt.Errorf("indicator.app_name must not be empty when indicator.enable=true")
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	return warnings, nil
}
