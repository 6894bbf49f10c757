package agent

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/vesaa/argonpanel/internal/config"
	"github.com/vesaa/argonpanel/internal/display"
	"github.com/vesaa/argonpanel/internal/errors"
	"github.com/vesaa/argonpanel/internal/models"
	"github.com/vesaa/argonpanel/internal/screen"
)

// Sampler produces the metrics for one tick.
type Sampler interface {
	Collect(now time.Time) models.Snapshot
}

// RotationState is the loop's only mutable state, threaded from tick to tick.
type RotationState struct {
	Index     int       // position in the screen rotation
	EnteredAt time.Time // when the current screen was first shown
	Tick      uint64    // completed ticks since start
}

// NewRotationState starts on the first screen at now.
func NewRotationState(now time.Time) RotationState {
	return RotationState{EnteredAt: now}
}

// Advance moves to the next screen once dwell has elapsed on the current one.
// It moves at most one screen per call.
func (s RotationState) Advance(now time.Time, dwell time.Duration, screens int) RotationState {
	if screens <= 0 {
		return s
	}
	if now.Sub(s.EnteredAt) >= dwell {
		s.Index = (s.Index + 1) % screens
		s.EnteredAt = now
	}
	return s
}

// Agent runs the sample → render → commit loop.
type Agent struct {
	cfg     *config.Config
	sampler Sampler
	sink    display.Sink
	screens []screen.Screen
	loc     *time.Location
	logger  *log.Logger

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// New wires an Agent. logger receives every status and error line. cfg is
// copied and sanitized, so a zero Config is usable.
func New(cfg *config.Config, sampler Sampler, sink display.Sink, logger *log.Logger) *Agent {
	c := *cfg
	c.Sanitize()
	return &Agent{
		cfg:     &c,
		sampler: sampler,
		sink:    sink,
		screens: screen.Rotation,
		loc:     c.Location(),
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
		jitter:  randomJitter,
	}
}

// Run loops until ctx is cancelled. It never gives up on its own: a tick
// that fails is logged and retried after the configured backoff.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Println("Starting display loop...")

	state := NewRotationState(a.now())
	for {
		next, err := a.safeTick(state)
		wait := a.cfg.TickInterval()
		if err != nil {
			a.logger.Printf("Error in main loop: %v", err)
			wait = a.backoff()
		} else {
			state = next
		}

		if err := a.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// backoff is the retry delay plus up to RetryJitter of random spread.
func (a *Agent) backoff() time.Duration {
	d := a.cfg.RetryBackoff()
	if j := a.cfg.RetryJitter(); j > 0 {
		d += a.jitter(j)
	}
	return d
}

// safeTick runs one tick, turning a panic into a LOOP error.
func (a *Agent) safeTick(state RotationState) (next RotationState, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = state
			err = errors.Newf(errors.ErrLoop, "tick %d: %v", state.Tick, r)
		}
	}()
	return a.tick(state), nil
}

// tick advances the rotation, samples, draws the current screen and, every
// StatusEveryTicks ticks, logs a status line.
func (a *Agent) tick(state RotationState) RotationState {
	now := a.now().In(a.loc)
	state = state.Advance(now, a.cfg.ScreenDwell(), len(a.screens))

	snap := a.sampler.Collect(now)
	a.show(a.screens[state.Index], snap, now)

	if state.Tick%uint64(a.cfg.StatusEveryTicks) == 0 {
		a.logger.Println(StatusLine(snap, now))
	}
	state.Tick++
	return state
}

// show renders and commits one frame. Failures skip the frame only; the
// panel keeps its last good image.
func (a *Agent) show(s screen.Screen, snap models.Snapshot, now time.Time) {
	frame, err := screen.Render(s, snap, now)
	if err != nil {
		a.logger.Printf("%s screen error: %v", s, err)
		return
	}
	if err := a.sink.Commit(frame); err != nil {
		a.logger.Printf("display commit failed: %v", err)
	}
}

// StatusLine is the condensed periodic log entry.
func StatusLine(snap models.Snapshot, now time.Time) string {
	return fmt.Sprintf("[%s] %s - CPU: %s %d%%, RAM: %d%%, Disk: %d%%",
		now.Format("15:04"), snap.IP, snap.TempText(), snap.CPULoad, snap.Memory.Percent, snap.Disk.Percent)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	return rand.N(limit)
}
