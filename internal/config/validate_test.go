package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsAreClean(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = " " }, wantErr: "api.base_url"},
		{name: "empty key env", mutate: func(c *Config) { c.API.KeyEnv = "" }, wantErr: "api.key_env"},
		{name: "empty model", mutate: func(c *Config) { c.API.Model = "" }, wantErr: "api.model"},
		{name: "zero max tokens", mutate: func(c *Config) { c.API.MaxTokens = 0 }, wantErr: "api.max_tokens"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.TimeoutMS = 0 }, wantErr: "api.timeout_ms"},
		{name: "bad detail", mutate: func(c *Config) { c.API.Detail = "medium" }, wantErr: "api.detail"},
		{name: "empty device", mutate: func(c *Config) { c.Camera.Device = "" }, wantErr: "camera.device"},
		{name: "empty input format", mutate: func(c *Config) { c.Camera.InputFormat = "" }, wantErr: "camera.input_format"},
		{name: "zero quality", mutate: func(c *Config) { c.Camera.Quality = 0 }, wantErr: "camera.quality"},
		{name: "quality above one", mutate: func(c *Config) { c.Camera.Quality = 1.01 }, wantErr: "camera.quality"},
		{name: "zero interval", mutate: func(c *Config) { c.Sampling.IntervalMS = 0 }, wantErr: "sampling.interval_ms"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "indicator.error_timeout_ms"},
		{name: "indicator without app name", mutate: func(c *Config) { c.Indicator.AppName = "" }, wantErr: "indicator.app_name"},
		{name: "empty clipboard", mutate: func(c *Config) { c.Clipboard = CommandConfig{} }, wantErr: "clipboard_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateDetailIsCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.API.Detail = " High "

	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateAggressiveIntervalWarns(t *testing.T) {
	cfg := Default()
	cfg.Sampling.IntervalMS = 100

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "sampling.interval_ms=100")
}

func TestValidateDisabledIndicatorAllowsEmptyAppName(t *testing.T) {
	cfg := Default()
	cfg.Indicator.Enable = false
	cfg.Indicator.AppName = ""

	_, err := Validate(cfg)
	require.NoError(t, err)
}
