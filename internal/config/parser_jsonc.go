package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	API        *jsoncAPI        `json:"api"`
	Camera     *jsoncCamera     `json:"camera"`
	Sampling   *jsoncSampling   `json:"sampling"`
	Transcript *jsoncTranscript `json:"transcript"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	History    *jsoncHistory    `json:"history"`

	ClipboardCmd *string `json:"clipboard_cmd"`
}

type jsoncAPI struct {
	BaseURL     *string `json:"base_url"`
	KeyEnv      *string `json:"key_env"`
	Model       *string `json:"model"`
	Instruction *string `json:"instruction"`
	MaxTokens   *int    `json:"max_tokens"`
	Detail      *string `json:"detail"`
	Fast        *bool   `json:"fast"`
	TimeoutMS   *int    `json:"timeout_ms"`
}

type jsoncCamera struct {
	Device      *string  `json:"device"`
	InputFormat *string  `json:"input_format"`
	Quality     *float64 `json:"quality"`
}

type jsoncSampling struct {
	IntervalMS *int `json:"interval_ms"`
}

type jsoncTranscript struct {
	Separator *string `json:"separator"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	AppName        *string `json:"app_name"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.API != nil {
		if payload.API.BaseURL != nil {
			cfg.API.BaseURL = strings.TrimSpace(*payload.API.BaseURL)
		}
		if payload.API.KeyEnv != nil {
			cfg.API.KeyEnv = strings.TrimSpace(*payload.API.KeyEnv)
		}
		if payload.API.Model != nil {
			cfg.API.Model = strings.TrimSpace(*payload.API.Model)
		}
		if payload.API.Instruction != nil {
			cfg.API.Instruction = *payload.API.Instruction
		}
		if payload.API.MaxTokens != nil {
			cfg.API.MaxTokens = *payload.API.MaxTokens
		}
		if payload.API.Detail != nil {
			cfg.API.Detail = strings.TrimSpace(*payload.API.Detail)
		}
		if payload.API.Fast != nil {
			cfg.API.Fast = *payload.API.Fast
		}
		if payload.API.TimeoutMS != nil {
			cfg.API.TimeoutMS = *payload.API.TimeoutMS
		}
	}

	if payload.Camera != nil {
		if payload.Camera.Device != nil {
			cfg.Camera.Device = strings.TrimSpace(*payload.Camera.Device)
		}
		if payload.Camera.InputFormat != nil {
			cfg.Camera.InputFormat = strings.TrimSpace(*payload.Camera.InputFormat)
		}
		if payload.Camera.Quality != nil {
			cfg.Camera.Quality = *payload.Camera.Quality
		}
	}

	if payload.Sampling != nil && payload.Sampling.IntervalMS != nil {
		cfg.Sampling.IntervalMS = *payload.Sampling.IntervalMS
	}

	if payload.Transcript != nil && payload.Transcript.Separator != nil {
		cfg.Transcript.Separator = *payload.Transcript.Separator
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.AppName != nil {
			cfg.Indicator.AppName = strings.TrimSpace(*payload.Indicator.AppName)
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.History != nil {
		if payload.History.Enable != nil {
			cfg.History.Enable = *payload.History.Enable
		}
		if payload.History.Path != nil {
			cfg.History.Path = strings.TrimSpace(*payload.History.Path)
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	return nil
}

// normalizeJSONC blanks out comments and drops trailing commas so the result
// parses as strict JSON with byte offsets preserved for error reporting.
func normalizeJSONC(content string) (string, error) {
	withoutComments, err := blankJSONCComments(content)
	if err != nil {
		return "", err
	}
	return dropTrailingCommas(withoutComments), nil
}

func blankJSONCComments(content string) (string, error) {
	out := []byte(content)

	const (
		stateCode = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	escape := false

	for i := 0; i < len(out); i++ {
		ch := out[i]

		switch state {
		case stateString:
			if escape {
				escape = false
				continue
			}
			switch ch {
			case '\\':
				escape = true
			case '"':
				state = stateCode
			}
		case stateLineComment:
			if ch == '\n' || ch == '\r' {
				state = stateCode
				continue
			}
			out[i] = ' '
		case stateBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		default:
			switch {
			case ch == '"':
				state = stateString
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateBlockComment
			}
		}
	}

	if state == stateBlockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return string(out), nil
}

func dropTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
