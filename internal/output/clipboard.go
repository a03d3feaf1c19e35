// Package output applies transcript commit side effects.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/segno/internal/config"
)

// Committer copies the final transcript to the clipboard on session end.
type Committer struct {
	clipboard config.CommandConfig
	logger    *slog.Logger
}

// NewCommitter constructs a transcript committer from runtime config.
func NewCommitter(clipboard config.CommandConfig, logger *slog.Logger) *Committer {
	return &Committer{clipboard: clipboard, logger: logger}
}

// Commit writes transcript text to the clipboard. Empty transcripts are a
// no-op so an uneventful session never clobbers clipboard contents.
func (c *Committer) Commit(ctx context.Context, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, c.clipboard.Argv, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("transcript committed to clipboard", "chars", len(transcript))
	}
	return nil
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
