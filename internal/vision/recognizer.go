// Package vision sends captured frames to an OpenAI-compatible image
// understanding endpoint and reduces responses to transcript tokens.
package vision

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Config selects the recognition endpoint, model, and per-request behavior.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Instruction string
	MaxTokens   int
	Detail      string
	Fast        bool
	Timeout     time.Duration
}

// Client recognizes gestures in JPEG frames. Recognition failures never
// surface as errors; they yield the empty token so the capture loop keeps
// running, and are counted for diagnostics.
type Client struct {
	cfg    Config
	client openai.Client
	logger *slog.Logger

	failures atomic.Int64
}

// New builds a recognition client for one configured endpoint.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Detail == "" {
		cfg.Detail = "low"
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)

	return &Client{cfg: cfg, client: client, logger: logger}
}

// Recognize submits one frame and returns the normalized gesture token.
// Transport failures, API errors, and refusal responses all return "".
func (c *Client) Recognize(ctx context.Context, frame []byte) string {
	if len(frame) == 0 {
		return ""
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame)

	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(c.cfg.Instruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: strings.ToLower(c.cfg.Detail),
				}),
			}),
		},
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Fast && supportsReasoningEffort(c.cfg.Model) {
		params.ReasoningEffort = shared.ReasoningEffortLow
	}

	started := time.Now()
	resp, err := c.client.Chat.Completions.New(reqCtx, params)
	if err != nil {
		c.failures.Add(1)
		c.logWarn("recognition request failed", "error", err, "elapsed", time.Since(started))
		return ""
	}
	if len(resp.Choices) == 0 {
		c.failures.Add(1)
		c.logWarn("recognition response had no choices", "elapsed", time.Since(started))
		return ""
	}

	return normalizeToken(resp.Choices[0].Message.Content)
}

// Failures reports how many recognition calls have failed since construction.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}

// supportsReasoningEffort reports whether a model accepts reasoning_effort.
func supportsReasoningEffort(model string) bool {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}
