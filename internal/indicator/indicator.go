// Package indicator surfaces capture state through desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/segno/internal/config"
	"github.com/rbright/segno/internal/fsm"
)

const persistentTimeoutMS = 300000

// DesktopNotify renders session state as a single replaceable freedesktop
// notification. All dispatch failures are logged and swallowed; the capture
// loop never depends on the notification daemon.
type DesktopNotify struct {
	cfg     config.IndicatorConfig
	logger  *slog.Logger
	command string

	mu             sync.Mutex
	notificationID uint32
}

// New creates an indicator from config. command overrides the busctl binary
// for tests; empty means busctl from PATH.
func New(cfg config.IndicatorConfig, logger *slog.Logger, command string) *DesktopNotify {
	if command == "" {
		command = "busctl"
	}
	return &DesktopNotify{cfg: cfg, logger: logger, command: command}
}

// StateChanged updates the persistent indicator to match the session state.
func (d *DesktopNotify) StateChanged(ctx context.Context, state fsm.State) {
	if !d.cfg.Enable {
		return
	}
	switch state {
	case fsm.StateAcquiring:
		d.run(ctx, func(ctx context.Context) error {
			return d.notify(ctx, "Opening camera", persistentTimeoutMS)
		})
	case fsm.StateActive:
		d.run(ctx, func(ctx context.Context) error {
			return d.notify(ctx, "Watching for gestures", persistentTimeoutMS)
		})
	case fsm.StateIdle:
		d.run(ctx, d.dismiss)
	case fsm.StateFailed:
		d.run(ctx, func(ctx context.Context) error {
			return d.notify(ctx, "Capture failed", d.errorTimeout())
		})
	}
}

// TranscriptChanged mirrors the running transcript into the indicator.
func (d *DesktopNotify) TranscriptChanged(ctx context.Context, transcript string) {
	if !d.cfg.Enable {
		return
	}
	text := strings.TrimSpace(transcript)
	if text == "" {
		text = "Transcript cleared"
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, text, persistentTimeoutMS)
	})
}

// ShowError displays a transient error message.
func (d *DesktopNotify) ShowError(ctx context.Context, message string) {
	if !d.cfg.Enable {
		return
	}
	if message == "" {
		message = "Capture error"
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, message, d.errorTimeout())
	})
}

// notify sends a replaceable desktop notification and stores its ID.
func (d *DesktopNotify) notify(ctx context.Context, text string, timeoutMS int) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.AppName)
	if appName == "" {
		appName = "segno-indicator"
	}

	id, err := desktopNotify(ctx, d.command, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (d *DesktopNotify) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, d.command, id)
}

// run executes an indicator operation with a bounded timeout.
func (d *DesktopNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("indicator dispatch failed", err)
	}
}

func (d *DesktopNotify) errorTimeout() int {
	if d.cfg.ErrorTimeoutMS > 0 {
		return d.cfg.ErrorTimeoutMS
	}
	return 1600
}

// log emits debug-only indicator failures to the runtime logger.
func (d *DesktopNotify) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
