package config

// DefaultInstruction is the fixed recognition prompt sent with every frame.
// The response shape contract (single letter or short word, empty when
// nothing is recognized) is what the controller's dedup logic relies on.
const DefaultInstruction = "Look at the hand gesture in this image and respond with the single letter " +
	"or short common word it represents. Respond with only that letter or word, " +
	"no punctuation or extra formatting. If no gesture is clearly visible, respond " +
	"with an empty string."

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		API: APIConfig{
			BaseURL:     "https://api.openai.com/v1",
			KeyEnv:      "OPENAI_API_KEY",
			Model:       "gpt-4o-mini",
			Instruction: DefaultInstruction,
			MaxTokens:   20,
			Detail:      "low",
			Fast:        true,
			TimeoutMS:   10000,
		},
		Camera: CameraConfig{
			Device:      "/dev/video0",
			InputFormat: "v4l2",
			Quality:     0.8,
		},
		Sampling: SamplingConfig{
			IntervalMS: 1500,
		},
		Transcript: TranscriptConfig{
			Separator: " ",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			AppName:        "segno-indicator",
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{
			Enable: true,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
