package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rbright/segno/internal/camera"
	"github.com/rbright/segno/internal/cli"
	"github.com/rbright/segno/internal/config"
	"github.com/rbright/segno/internal/doctor"
	"github.com/rbright/segno/internal/fsm"
	"github.com/rbright/segno/internal/history"
	"github.com/rbright/segno/internal/indicator"
	"github.com/rbright/segno/internal/ipc"
	"github.com/rbright/segno/internal/logging"
	"github.com/rbright/segno/internal/output"
	"github.com/rbright/segno/internal/session"
	"github.com/rbright/segno/internal/version"
	"github.com/rbright/segno/internal/vision"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("segno"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("segno"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices()
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandClear:
		return r.forwardOrFail(ctx, ipc.CommandClear)
	case cli.CommandTranscript:
		return r.commandTranscript(ctx)
	case cli.CommandStart:
		return r.commandOwner(ctx, cfgLoaded.Config, logger, ipc.CommandStart)
	case cli.CommandToggle:
		return r.commandOwner(ctx, cfgLoaded.Config, logger, ipc.CommandToggle)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices() int {
	devices, err := camera.ListDevices()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no camera devices found")
		return 1
	}

	for _, device := range devices {
		readable := "yes"
		if !device.Readable {
			readable = "no"
		}
		fmt.Fprintf(r.Stdout, "%s | name=%q | readable=%s\n", device.Path, device.Name, readable)
	}

	return 0
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if !cfg.History.Enable {
		fmt.Fprintln(r.Stdout, "history is disabled")
		return 0
	}

	path, err := config.ResolveHistoryPath(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := history.Open(ctx, path, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, 0)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Fprintln(r.Stdout, "no capture history")
		return 0
	}

	for _, rec := range records {
		fmt.Fprintf(
			r.Stdout,
			"%s | session=%s | tokens=%d | failures=%d | %q\n",
			rec.EndedAt.Format(time.RFC3339),
			rec.SessionID,
			rec.Tokens,
			rec.Failures,
			rec.Transcript,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		if resp.Message != "" {
			fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Message)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) commandTranscript(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandTranscript)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active segno session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(resp.Transcript) != "" {
		fmt.Fprintln(r.Stdout, strings.TrimSpace(resp.Transcript))
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active segno session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandOwner forwards start/toggle to a running owner, or becomes the
// owner process itself when none is listening.
func (r Runner) commandOwner(ctx context.Context, cfg config.Config, logger *slog.Logger, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, command)
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	return r.runOwner(ctx, cfg, logger, listener)
}

// runOwner wires the capture stack and serves IPC until the session is
// stopped over the socket or the process context is cancelled.
func (r Runner) runOwner(ctx context.Context, cfg config.Config, logger *slog.Logger, listener net.Listener) int {
	camAdapter := camera.NewAdapter("")
	camCfg := camera.Config{
		Device:      cfg.Camera.Device,
		InputFormat: cfg.Camera.InputFormat,
		Quality:     cfg.Camera.Quality,
	}
	adapter := session.AdapterFunc(func(acquireCtx context.Context) (session.DeviceHandle, error) {
		return camAdapter.Acquire(acquireCtx, camCfg)
	})

	recognizer := vision.New(vision.Config{
		BaseURL:     cfg.API.BaseURL,
		APIKey:      os.Getenv(cfg.API.KeyEnv),
		Model:       cfg.API.Model,
		Instruction: cfg.API.Instruction,
		MaxTokens:   cfg.API.MaxTokens,
		Detail:      cfg.API.Detail,
		Fast:        cfg.API.Fast,
		Timeout:     time.Duration(cfg.API.TimeoutMS) * time.Millisecond,
	}, logger)

	notifier := indicator.New(cfg.Indicator, logger, "")
	controller := session.NewController(
		logger,
		adapter,
		recognizer,
		notifier,
		time.Duration(cfg.Sampling.IntervalMS)*time.Millisecond,
		cfg.Transcript.Separator,
	)

	handler := &ownerHandler{controller: controller, done: make(chan struct{})}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, handler)
	}()

	startedAt := time.Now()
	exitCode := 0
	if err := controller.Start(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		exitCode = 1
	} else {
		select {
		case <-ctx.Done():
			if stopErr := controller.Stop(context.Background()); stopErr != nil {
				logger.Warn("stop on shutdown", "error", stopErr.Error())
			}
		case <-handler.done:
		}
	}
	endedAt := time.Now()

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	transcriptText := controller.Transcript()
	r.finishSession(cfg, logger, sessionSummary{
		SessionID:  controller.SessionID(),
		Transcript: transcriptText,
		Tokens:     controller.TokenCount(),
		Failures:   recognizer.Failures(),
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	})

	if exitCode == 0 && strings.TrimSpace(transcriptText) != "" {
		fmt.Fprintln(r.Stdout, strings.TrimSpace(transcriptText))
	}
	return exitCode
}

type sessionSummary struct {
	SessionID  string
	Transcript string
	Tokens     int
	Failures   int64
	StartedAt  time.Time
	EndedAt    time.Time
}

// finishSession commits the transcript to the clipboard and records the
// session in history. Both steps are best-effort on shutdown.
func (r Runner) finishSession(cfg config.Config, logger *slog.Logger, summary sessionSummary) {
	committer := output.NewCommitter(cfg.Clipboard, logger)
	if err := committer.Commit(context.Background(), summary.Transcript); err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		logger.Warn("commit transcript", "error", err.Error())
	}

	logger.Info("session complete",
		"session_id", summary.SessionID,
		"started_at", summary.StartedAt.Format(time.RFC3339Nano),
		"ended_at", summary.EndedAt.Format(time.RFC3339Nano),
		"duration_ms", summary.EndedAt.Sub(summary.StartedAt).Milliseconds(),
		"tokens", summary.Tokens,
		"failures", summary.Failures,
		"transcript_length", len(summary.Transcript),
	)

	if !cfg.History.Enable {
		return
	}

	path, err := config.ResolveHistoryPath(cfg.History.Path)
	if err != nil {
		logger.Warn("resolve history path", "error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	store, err := history.Open(ctx, path, logger)
	if err != nil {
		logger.Warn("open history store", "error", err.Error())
		return
	}
	defer func() { _ = store.Close() }()

	err = store.Append(ctx, history.Record{
		SessionID:  summary.SessionID,
		Transcript: summary.Transcript,
		Tokens:     summary.Tokens,
		Failures:   summary.Failures,
		StartedAt:  summary.StartedAt,
		EndedAt:    summary.EndedAt,
	})
	if err != nil {
		logger.Warn("append history", "error", err.Error())
	}
}

// ownerHandler serves controller commands and signals completion once a
// stop or toggle lands the controller back in idle.
type ownerHandler struct {
	controller *session.Controller
	done       chan struct{}
	once       sync.Once
}

func (h *ownerHandler) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	resp := h.controller.Handle(ctx, req)

	switch req.Command {
	case ipc.CommandStop, ipc.CommandToggle:
		if resp.OK && h.controller.State() == fsm.StateIdle {
			h.once.Do(func() { close(h.done) })
		}
	}

	return resp
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
