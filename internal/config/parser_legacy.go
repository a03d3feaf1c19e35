package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLegacy reads flat `key = value` lines. Unknown keys are warnings,
// malformed values are errors.
func parseLegacy(content string, base Config) (Config, []Warning, error) {
	cfg := base
	warnings := make([]Warning, 0)

	for lineNo, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			warnings = append(warnings, Warning{Line: lineNo + 1, Message: fmt.Sprintf("ignoring line without '=': %q", line)})
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := applyLegacyKey(&cfg, key, value); err != nil {
			if _, unknown := err.(unknownKeyError); unknown {
				warnings = append(warnings, Warning{Line: lineNo + 1, Message: err.Error()})
				continue
			}
			return Config{}, nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

type unknownKeyError string

func (e unknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key %q", string(e))
}

func applyLegacyKey(cfg *Config, key string, value string) error {
	switch key {
	case "api.base_url":
		cfg.API.BaseURL = value
	case "api.key_env":
		cfg.API.KeyEnv = value
	case "api.model":
		cfg.API.Model = value
	case "api.instruction":
		cfg.API.Instruction = value
	case "api.detail":
		cfg.API.Detail = value
	case "api.max_tokens":
		return assignInt(&cfg.API.MaxTokens, key, value)
	case "api.timeout_ms":
		return assignInt(&cfg.API.TimeoutMS, key, value)
	case "api.fast":
		return assignBool(&cfg.API.Fast, key, value)
	case "camera.device":
		cfg.Camera.Device = value
	case "camera.input_format":
		cfg.Camera.InputFormat = value
	case "camera.quality":
		quality, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", key, value)
		}
		cfg.Camera.Quality = quality
	case "sampling.interval_ms":
		return assignInt(&cfg.Sampling.IntervalMS, key, value)
	case "transcript.separator":
		cfg.Transcript.Separator = value
	case "indicator.enable":
		return assignBool(&cfg.Indicator.Enable, key, value)
	case "indicator.app_name":
		cfg.Indicator.AppName = value
	case "indicator.error_timeout_ms":
		return assignInt(&cfg.Indicator.ErrorTimeoutMS, key, value)
	case "history.enable":
		return assignBool(&cfg.History.Enable, key, value)
	case "history.path":
		cfg.History.Path = value
	case "clipboard_cmd":
		argv, err := parseArgv(value)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: value, Argv: argv}
	default:
		return unknownKeyError(key)
	}
	return nil
}

func assignInt(target *int, key string, value string) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q", key, value)
	}
	*target = parsed
	return nil
}

func assignBool(target *bool, key string, value string) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q", key, value)
	}
	*target = parsed
	return nil
}
