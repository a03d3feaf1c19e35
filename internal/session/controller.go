package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/segno/internal/fsm"
	"github.com/rbright/segno/internal/ipc"
	"github.com/rbright/segno/internal/transcript"
)

// Controller orchestrates the periodic capture loop: acquire a device,
// sample a frame on every tick, recognize it, and fold the token into the
// running transcript. At most one recognition request is in flight; ticks
// that land while one is pending are skipped and counted.
type Controller struct {
	logger    *slog.Logger
	adapter   DeviceAdapter
	recognize Recognizer
	notifier  Notifier
	interval  time.Duration

	mu         sync.Mutex
	state      fsm.State
	builder    *transcript.Builder
	handle     DeviceHandle
	generation uint64
	inFlight   bool
	sessionID  string
	lastErr    error
	cancelLoop context.CancelFunc

	skippedTicks atomic.Int64
	emptyTokens  atomic.Int64
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	adapter DeviceAdapter,
	recognizer Recognizer,
	notifier Notifier,
	interval time.Duration,
	separator string,
) *Controller {
	if recognizer == nil {
		recognizer = RecognizerFunc(func(context.Context, []byte) string { return "" })
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}

	return &Controller{
		logger:    logger,
		adapter:   adapter,
		recognize: recognizer,
		notifier:  notifier,
		interval:  interval,
		state:     fsm.StateIdle,
		builder:   transcript.NewBuilder(separator),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the assembled transcript text.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.String()
}

// TokenCount reports how many tokens the transcript holds.
func (c *Controller) TokenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.Len()
}

// SessionID returns the id of the current or most recent capture session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// LastError returns the most recent acquisition failure, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SkippedTicks reports ticks dropped because recognition was still pending.
func (c *Controller) SkippedTicks() int64 {
	return c.skippedTicks.Load()
}

// EmptyTokens reports recognition completions that produced no token.
func (c *Controller) EmptyTokens() int64 {
	return c.emptyTokens.Load()
}

// Start acquires the capture device and begins the tick loop. Restarting
// after a stop or failure keeps the accumulated transcript; only the
// consecutive-duplicate guard is reset so the first recognized gesture of
// the new run is always recorded.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.generation++
	gen := c.generation
	c.inFlight = false
	c.sessionID = uuid.NewString()
	c.lastErr = nil
	c.builder.ResetLast()
	c.mu.Unlock()

	c.notifier.StateChanged(ctx, fsm.StateAcquiring)
	c.logInfo("acquiring capture device", "session_id", c.SessionID())

	handle, err := c.adapter.Acquire(ctx)
	if err != nil {
		c.mu.Lock()
		c.state, _ = fsm.Transition(c.state, fsm.EventFail)
		c.lastErr = err
		c.mu.Unlock()

		c.notifier.ShowError(ctx, "Unable to open camera")
		c.notifier.StateChanged(ctx, fsm.StateFailed)
		c.logWarn("capture device acquisition failed", "error", err)
		return err
	}

	c.mu.Lock()
	if c.generation != gen || c.state != fsm.StateAcquiring {
		// A concurrent stop or failure superseded this start.
		c.mu.Unlock()
		_ = handle.Release()
		return fmt.Errorf("start superseded before device was ready")
	}
	c.state, _ = fsm.Transition(c.state, fsm.EventAcquired)
	c.handle = handle

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancelLoop = cancel
	c.mu.Unlock()

	go c.run(loopCtx, gen, handle)

	c.notifier.StateChanged(ctx, fsm.StateActive)
	c.logInfo("capture session active", "session_id", c.SessionID(), "interval", c.interval)
	return nil
}

// Stop halts the tick loop and releases the device. The transcript is kept.
// Stopping from the failed state just resets it to idle.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == fsm.StateFailed {
		c.state, _ = fsm.Transition(c.state, fsm.EventReset)
		c.mu.Unlock()
		c.notifier.StateChanged(ctx, fsm.StateIdle)
		return nil
	}

	next, err := fsm.Transition(c.state, fsm.EventStop)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.generation++
	c.inFlight = false

	handle := c.handle
	c.handle = nil
	cancel := c.cancelLoop
	c.cancelLoop = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		_ = handle.Release()
	}

	c.notifier.StateChanged(ctx, fsm.StateIdle)
	c.logInfo("capture session stopped", "session_id", c.SessionID(),
		"tokens", c.TokenCount(), "skipped_ticks", c.SkippedTicks(), "empty_tokens", c.EmptyTokens())
	return nil
}

// Toggle starts when idle or failed and stops when active.
func (c *Controller) Toggle(ctx context.Context) error {
	switch c.State() {
	case fsm.StateActive:
		return c.Stop(ctx)
	case fsm.StateAcquiring:
		return fmt.Errorf("capture is still starting")
	default:
		return c.Start(ctx)
	}
}

// Clear empties the transcript. The capture loop, if running, is unaffected.
func (c *Controller) Clear(ctx context.Context) {
	c.mu.Lock()
	c.builder.Reset()
	c.mu.Unlock()
	c.notifier.TranscriptChanged(ctx, "")
}

// run drives ticks until its context is cancelled.
func (c *Controller) run(ctx context.Context, gen uint64, handle DeviceHandle) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx, gen, handle)
		}
	}
}

// tick samples one frame and dispatches recognition unless one is pending.
func (c *Controller) tick(ctx context.Context, gen uint64, handle DeviceHandle) {
	c.mu.Lock()
	if c.generation != gen || c.state != fsm.StateActive {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		c.mu.Unlock()
		c.skippedTicks.Add(1)
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	frame, err := handle.Sample()
	if err != nil {
		// No frame yet; free the slot and wait for the next tick.
		c.mu.Lock()
		if c.generation == gen {
			c.inFlight = false
		}
		c.mu.Unlock()
		c.skippedTicks.Add(1)
		return
	}

	go func() {
		token := c.recognize.Recognize(ctx, frame)
		c.applyToken(ctx, gen, token)
	}()
}

// applyToken folds one recognition result into the transcript. Results from
// superseded sessions are discarded.
func (c *Controller) applyToken(ctx context.Context, gen uint64, token string) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	if c.state != fsm.StateActive {
		c.mu.Unlock()
		return
	}

	appended := c.builder.Append(token)
	text := c.builder.String()
	c.mu.Unlock()

	if token == "" {
		c.emptyTokens.Add(1)
		return
	}
	if appended {
		c.notifier.TranscriptChanged(ctx, text)
	}
}

// Handle serves IPC commands for the owner process.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Message: c.statusMessage()}
	case ipc.CommandStart:
		if err := c.Start(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "capture started"}
	case ipc.CommandStop:
		if err := c.Stop(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "capture stopped"}
	case ipc.CommandToggle:
		if err := c.Toggle(ctx); err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: "toggled"}
	case ipc.CommandTranscript:
		return ipc.Response{OK: true, State: string(c.State()), Transcript: c.Transcript()}
	case ipc.CommandClear:
		c.Clear(ctx)
		return ipc.Response{OK: true, State: string(c.State()), Message: "transcript cleared"}
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// statusMessage summarizes loop counters for the status command.
func (c *Controller) statusMessage() string {
	return fmt.Sprintf("tokens=%d skipped_ticks=%d empty_tokens=%d",
		c.TokenCount(), c.SkippedTicks(), c.EmptyTokens())
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Controller) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}
