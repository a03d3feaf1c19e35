package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	return `{"id":"cmpl-1","object":"chat.completion","model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop",` +
		`"message":{"role":"assistant","content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Instruction: "name the gesture",
		MaxTokens:   20,
		Detail:      "low",
		Timeout:     2 * time.Second,
	}
}

func TestRecognizeReturnsNormalizedToken(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(` "A." `)))
	}))
	defer server.Close()

	client := New(testConfig(server.URL), nil)
	token := client.Recognize(context.Background(), []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9})

	require.Equal(t, "A", token)
	require.Zero(t, client.Failures())

	body := string(gotBody)
	require.Contains(t, body, "gpt-4o-mini")
	require.Contains(t, body, "name the gesture")
	require.Contains(t, body, "data:image/jpeg;base64,")
	require.Contains(t, body, `"detail":"low"`)
	require.Contains(t, body, `"max_tokens":20`)
	require.NotContains(t, body, "reasoning_effort")
}

func TestRecognizeRefusalBecomesEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("I'm sorry, I can't identify the gesture.")))
	}))
	defer server.Close()

	client := New(testConfig(server.URL), nil)
	token := client.Recognize(context.Background(), []byte{0x01})

	require.Equal(t, "", token)
	require.Zero(t, client.Failures(), "refusals are empty tokens, not failures")
}

func TestRecognizeServerErrorCountsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(testConfig(server.URL), nil)
	token := client.Recognize(context.Background(), []byte{0x01})

	require.Equal(t, "", token)
	require.Equal(t, int64(1), client.Failures())
}

func TestRecognizeUnreachableEndpointCountsFailure(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/v1")
	cfg.Timeout = 500 * time.Millisecond

	client := New(cfg, nil)
	token := client.Recognize(context.Background(), []byte{0x01})

	require.Equal(t, "", token)
	require.Equal(t, int64(1), client.Failures())
}

func TestRecognizeEmptyFrameSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(testConfig(server.URL), nil)
	require.Equal(t, "", client.Recognize(context.Background(), nil))
	require.False(t, called)
	require.Zero(t, client.Failures())
}

func TestRecognizeFastSetsReasoningEffortForReasoningModels(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("B")))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Model = "gpt-5-mini"
	cfg.Fast = true

	client := New(cfg, nil)
	require.Equal(t, "B", client.Recognize(context.Background(), []byte{0x01}))
	require.Contains(t, string(gotBody), `"reasoning_effort":"low"`)
}

func TestSupportsReasoningEffort(t *testing.T) {
	require.True(t, supportsReasoningEffort("o3-mini"))
	require.True(t, supportsReasoningEffort(" GPT-5 "))
	require.False(t, supportsReasoningEffort("gpt-4o-mini"))
	require.False(t, supportsReasoningEffort("llava"))
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain letter", input: "A", want: "A"},
		{name: "trailing period", input: "A.", want: "A"},
		{name: "quoted word", input: `"hello"`, want: "hello"},
		{name: "surrounding whitespace", input: "  yes \n", want: "yes"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "punctuation only", input: `"."`, want: ""},
		{name: "refusal", input: "I cannot determine the gesture", want: ""},
		{name: "bare cannot", input: "Cannot tell", want: ""},
		{name: "bare contraction", input: "Can't see a gesture", want: ""},
		{name: "apology", input: "Sorry, the image is blurry", want: ""},
		{name: "ai disclaimer", input: "As an AI I cannot see hands", want: ""},
		{name: "too many words", input: "the letter A held sideways", want: ""},
		{name: "short phrase", input: "thumbs up", want: "thumbs up"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, normalizeToken(tc.input))
		})
	}
}
