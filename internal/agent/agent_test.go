package agent

import (
	"bytes"
	"context"
	"image"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/argonpanel/internal/config"
	"github.com/vesaa/argonpanel/internal/errors"
	"github.com/vesaa/argonpanel/internal/models"
	"github.com/vesaa/argonpanel/internal/screen"
)

var start = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

type stubSampler struct {
	calls   int
	panicOn map[int]bool
}

func (s *stubSampler) Collect(now time.Time) models.Snapshot {
	call := s.calls
	s.calls++
	if s.panicOn[call] {
		panic("boom")
	}
	return models.Snapshot{
		CPUTemp: models.Available(47.0),
		CPULoad: 12,
		Memory:  models.Usage{Percent: 40, Label: "800/2000MB"},
		Disk:    models.Usage{Percent: 55, Label: "12GB"},
		Uptime:  "1h 2m",
		IP:      "10.0.0.7",
		TakenAt: now,
	}
}

type recordingSink struct {
	frames []image.Image
	err    error
	closed bool
}

func (r *recordingSink) Commit(frame image.Image) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

type harness struct {
	agent   *Agent
	sampler *stubSampler
	sink    *recordingSink
	logs    *bytes.Buffer
	clock   time.Time
	sleeps  []time.Duration
}

// newHarness builds an Agent on a fake clock whose sleep advances the clock
// and stops the loop after maxTicks sleeps.
func newHarness(t *testing.T, cfg *config.Config, maxTicks int) *harness {
	t.Helper()
	h := &harness{
		sampler: &stubSampler{panicOn: map[int]bool{}},
		sink:    &recordingSink{},
		logs:    &bytes.Buffer{},
		clock:   start,
	}
	cfg.Timezone = "UTC"
	h.agent = New(cfg, h.sampler, h.sink, log.New(h.logs, "", 0))
	h.agent.now = func() time.Time { return h.clock }
	h.agent.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		h.clock = h.clock.Add(d)
		if len(h.sleeps) >= maxTicks {
			return context.Canceled
		}
		return nil
	}
	h.agent.jitter = func(limit time.Duration) time.Duration { return limit / 2 }
	return h
}

func (h *harness) lines(substr string) []string {
	var out []string
	for _, l := range strings.Split(h.logs.String(), "\n") {
		if strings.Contains(l, substr) {
			out = append(out, l)
		}
	}
	return out
}

func TestRotationState_Advance(t *testing.T) {
	dwell := 10 * time.Second
	s := NewRotationState(start)

	s = s.Advance(start.Add(9*time.Second), dwell, 3)
	assert.Equal(t, 0, s.Index)

	s = s.Advance(start.Add(10*time.Second), dwell, 3)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, start.Add(10*time.Second), s.EnteredAt)

	// a long stall still moves one screen only
	s = s.Advance(start.Add(95*time.Second), dwell, 3)
	assert.Equal(t, 2, s.Index)

	s = s.Advance(start.Add(105*time.Second), dwell, 3)
	assert.Equal(t, 0, s.Index, "wraps around")

	assert.Equal(t, s, s.Advance(start.Add(time.Hour), dwell, 0))
}

func TestTick_TwoAdvancesAfter25Seconds(t *testing.T) {
	h := newHarness(t, config.Default(), 0)
	state := NewRotationState(start)

	for sec := 0; sec <= 25; sec++ {
		h.clock = start.Add(time.Duration(sec) * time.Second)
		state = h.agent.tick(state)
	}

	assert.Equal(t, 2, state.Index)
	assert.Equal(t, uint64(26), state.Tick)
	assert.Equal(t, start.Add(20*time.Second), state.EnteredAt)
	assert.Len(t, h.sink.frames, 26)
}

func TestRun_StatusLineEverySixtyTicks(t *testing.T) {
	h := newHarness(t, config.Default(), 121)

	require.NoError(t, h.agent.Run(context.Background()))

	assert.Len(t, h.sink.frames, 121)
	status := h.lines("RAM:")
	require.Len(t, status, 3, "ticks 0, 60 and 120")
	assert.Equal(t, "[09:00] 10.0.0.7 - CPU: 47.0°C 12%, RAM: 40%, Disk: 55%", status[0])
	assert.Equal(t, "[09:01] 10.0.0.7 - CPU: 47.0°C 12%, RAM: 40%, Disk: 55%", status[1])
	assert.Equal(t, "[09:02] 10.0.0.7 - CPU: 47.0°C 12%, RAM: 40%, Disk: 55%", status[2])
	assert.Len(t, h.lines("Starting display loop..."), 1)
	for _, d := range h.sleeps {
		assert.Equal(t, time.Second, d)
	}
}

func TestRun_StatusPeriodIsConfigurable(t *testing.T) {
	cfg := config.Default()
	cfg.StatusEveryTicks = 5
	h := newHarness(t, cfg, 12)

	require.NoError(t, h.agent.Run(context.Background()))
	assert.Len(t, h.lines("RAM:"), 3, "ticks 0, 5 and 10")
}

func TestRun_ZeroConfigIsSanitized(t *testing.T) {
	h := newHarness(t, &config.Config{}, 3)

	require.NoError(t, h.agent.Run(context.Background()))

	assert.Empty(t, h.lines("Error in main loop"))
	assert.Len(t, h.lines("RAM:"), 1)
	assert.Len(t, h.sink.frames, 3)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, h.sleeps)
}

func TestRun_PanicBacksOffAndRetries(t *testing.T) {
	h := newHarness(t, config.Default(), 3)
	h.sampler.panicOn[0] = true

	require.NoError(t, h.agent.Run(context.Background()))

	assert.Equal(t, []time.Duration{5 * time.Second, time.Second, time.Second}, h.sleeps)
	errs := h.lines("Error in main loop")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "tick 0: boom")
	// the failed tick is retried as tick 0, so the status line still appears once
	assert.Len(t, h.lines("RAM:"), 1)
	assert.Len(t, h.sink.frames, 2)
}

func TestRun_BackoffJitter(t *testing.T) {
	cfg := config.Default()
	cfg.RetryBackoffSeconds = 2
	cfg.RetryJitterMS = 300
	h := newHarness(t, cfg, 1)
	h.sampler.panicOn[0] = true

	require.NoError(t, h.agent.Run(context.Background()))
	assert.Equal(t, []time.Duration{2*time.Second + 150*time.Millisecond}, h.sleeps)
}

func TestRun_CommitFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, config.Default(), 3)
	h.sink.err = errors.Wrap(io.ErrClosedPipe, errors.ErrSink, "write frame")

	require.NoError(t, h.agent.Run(context.Background()))

	assert.Len(t, h.lines("display commit failed: write frame"), 3)
	assert.Empty(t, h.lines("Error in main loop"))
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, h.sleeps)
}

func TestRun_RenderFailureSkipsFrame(t *testing.T) {
	h := newHarness(t, config.Default(), 2)
	h.agent.screens = []screen.Screen{screen.Screen(9)}

	require.NoError(t, h.agent.Run(context.Background()))

	assert.Empty(t, h.sink.frames)
	assert.Len(t, h.lines("screen(9) screen error"), 2)
	assert.Empty(t, h.lines("Error in main loop"))
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	cfg := config.Default()
	cfg.Timezone = "UTC"
	sink := &recordingSink{}
	a := New(cfg, &stubSampler{}, sink, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Len(t, sink.frames, 1)
}

func TestStatusLine_UnavailableMetrics(t *testing.T) {
	snap := models.Snapshot{Memory: models.UnavailableUsage, Disk: models.UnavailableUsage, IP: models.NoIP}
	assert.Equal(t, "[09:00] No IP - CPU: N/A 0%, RAM: 0%, Disk: 0%", StatusLine(snap, start))
}
