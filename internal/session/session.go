// Package session drives the flow simulator on a fixed cadence while a focus
// session is active and broadcasts what each tick produces.
package session

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/metrics"
	"github.com/huangsam/flowtrack/internal/summary"
	"github.com/huangsam/flowtrack/schema"
)

const (
	startBattery         = 87
	batteryDrainPeriodMs = 30_000
	minutesPerBatteryPct = 3
	deviceName           = "Flow Simulator"
)

// Option configures a Runner.
type Option func(*Runner)

// WithSummary sends throttled flow summary requests after ticks.
func WithSummary(c *summary.Client) Option {
	return func(r *Runner) { r.summary = c }
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics records scores on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithTarget sets the initial target mode.
func WithTarget(target schema.FlowState) Option {
	return func(r *Runner) { r.target = target }
}

// Runner owns the simulator. At most one ticker goroutine runs at a time.
type Runner struct {
	sim         *core.Simulator
	broadcaster contract.Broadcaster
	summary     *summary.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
	interval    time.Duration
	now         func() time.Time

	simMu     sync.Mutex // serializes simulator ticks
	lifecycle sync.Mutex // serializes Start and Stop

	mu      sync.Mutex
	active  bool
	target  schema.FlowState
	battery int
	cancel  context.CancelFunc
	done    chan struct{}

	pending sync.WaitGroup // in-flight summary requests
}

// NewRunner returns a stopped runner ticking every interval.
func NewRunner(sim *core.Simulator, broadcaster contract.Broadcaster, interval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		sim:         sim,
		broadcaster: broadcaster,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval:    interval,
		now:         time.Now,
		target:      schema.FocusState,
		battery:     startBattery,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins ticking. Calling Start on a running runner does nothing.
func (r *Runner) Start(ctx context.Context) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return
	}
	r.active = true
	r.battery = startBattery

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(runCtx, r.done)
	r.logger.Info("session started", "interval", r.interval, "target", r.target)
}

// Stop halts ticking and waits for in-flight work. It is safe to call
// on a stopped runner. A Start racing with Stop waits until the old ticker
// has exited.
func (r *Runner) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	r.pending.Wait()

	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
	r.logger.Info("session stopped")
}

// Active reports whether the runner is ticking.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetTarget changes the target mode used from the next tick on.
func (r *Runner) SetTarget(target schema.FlowState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

// Target returns the current target mode.
func (r *Runner) Target() schema.FlowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Battery returns the simulated battery percentage.
func (r *Runner) Battery() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.battery
}

// DeviceStatus describes the simulated device.
func (r *Runner) DeviceStatus() schema.DeviceStatus {
	return schema.DeviceStatus{Connected: true, Name: deviceName}
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			r.Tick(ctx, t)
		}
	}
}

// Tick runs one simulator step at now and broadcasts its results.
// Broadcast failures are logged and do not stop the session.
func (r *Runner) Tick(ctx context.Context, now time.Time) schema.SimulatorOutput {
	nowMs := now.UnixMilli()
	target := r.Target()

	r.simMu.Lock()
	out := r.sim.Tick(nowMs, target)
	r.simMu.Unlock()

	r.metrics.FlowScore(out.Score, out.Trend)
	r.publish(ctx, schema.FlowScoreUpdateMessage, schema.ScoreUpdate{
		Score: int(math.Round(out.Score)),
		Trend: math.Round(out.Trend),
	})
	r.publish(ctx, schema.TimelineUpdateMessage, schema.TimelinePayload{Point: out.TimelinePoint})
	if out.EntryStart != nil {
		r.publish(ctx, schema.FlowEntryAddMessage, *out.EntryStart)
	}

	if r.summary != nil && r.summary.Allow(nowMs) {
		req := schema.SummaryRequest{
			SessionActive:     r.Active(),
			TargetMode:        target,
			ObservedState:     out.Metrics.ObservedState,
			Score:             math.Round(out.Score),
			Direction:         out.Anchor.BrainStateDirection,
			Insight:           out.Anchor.Insight,
			SuggestedNextTask: out.Anchor.SuggestedNextTask,
			Activity:          out.Activity,
		}
		r.pending.Go(func() { r.requestSummary(ctx, req) })
	}

	if pct, ok := r.drainBattery(nowMs); ok {
		r.publish(ctx, schema.DeviceBatteryUpdateMessage, schema.BatteryPayload{Battery: schema.BatteryStatus{
			Percentage:       pct,
			IsCharging:       false,
			EstimatedMinutes: pct * minutesPerBatteryPct,
		}})
	}
	return out
}

// drainBattery drops one percent about every 30s of wall time.
func (r *Runner) drainBattery(nowMs int64) (int, bool) {
	if nowMs%batteryDrainPeriodMs >= r.interval.Milliseconds() {
		return 0, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.battery = max(0, r.battery-1)
	return r.battery, true
}

func (r *Runner) requestSummary(ctx context.Context, req schema.SummaryRequest) {
	resp, err := r.summary.Request(ctx, req)
	if err != nil {
		r.logger.Warn("flow summary request failed", "error", err)
		return
	}
	r.publish(ctx, schema.FlowSummaryUpdateMessage, schema.SummaryPayload{Summary: resp.FlowSummary})
}

func (r *Runner) publish(ctx context.Context, msgType schema.MessageType, payload any) {
	if err := r.broadcaster.Publish(ctx, msgType, payload); err != nil {
		r.logger.Warn("broadcast failed", "type", msgType, "error", err)
	}
}
