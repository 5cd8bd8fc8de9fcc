package pacer

import "time"

const (
	// DefaultTargetFPS is the frame rate the pacer sleeps towards when no option overrides it.
	DefaultTargetFPS = 60

	// DefaultWaitTimeout bounds the blocking event wait while unfocused, matching a 60Hz cadence.
	DefaultWaitTimeout = 16 * time.Millisecond
)

// EventSource is the part of the window the pacer drives.
type EventSource interface {
	// PollEvents processes pending events without blocking.
	PollEvents()

	// WaitEventsTimeout blocks until an event arrives or the timeout elapses.
	//
	// Parameters:
	//   - timeout: the longest time to block
	WaitEventsTimeout(timeout time.Duration)

	// ConsumeRedrawRequest reports and clears a pending OS repaint request.
	//
	// Returns:
	//   - bool: true if a redraw was requested since the last call
	ConsumeRedrawRequest() bool
}

// FramePacer decides between polling and waiting for events and sleeps off the remainder of each frame.
// Pacing is best-effort: frames that overrun the budget are absorbed, never compensated.
type FramePacer interface {
	// PollOrWait processes window events. A focused window is polled to keep input latency minimal.
	// An unfocused window waits for at most the configured timeout, unless a redraw is already
	// pending, in which case it polls so the repaint is not delayed.
	//
	// Parameters:
	//   - focused: whether the window currently has input focus
	PollOrWait(focused bool)

	// PaceFrame sleeps for whatever remains of the target frame duration since frameStart.
	// If the frame already overran its budget it returns immediately.
	//
	// Parameters:
	//   - frameStart: the time the current frame began
	//
	// Returns:
	//   - time.Duration: the sleep that was requested, or 0 if none
	PaceFrame(frameStart time.Time) time.Duration

	// TargetFrameDuration returns the per-frame time budget.
	//
	// Returns:
	//   - time.Duration: 1/targetFPS
	TargetFrameDuration() time.Duration

	// Now returns the current time from the pacer's clock.
	//
	// Returns:
	//   - time.Time: the current time
	Now() time.Time
}

// framePacer is the implementation of the FramePacer interface.
type framePacer struct {
	events EventSource

	targetFrameDuration time.Duration
	waitTimeout         time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

var _ FramePacer = &framePacer{}

// NewFramePacer creates a FramePacer driving the given event source.
//
// Parameters:
//   - events: the window events are polled or waited on
//   - options: functional options for target rate, wait timeout and clock
//
// Returns:
//   - FramePacer: the configured pacer
func NewFramePacer(events EventSource, options ...FramePacerBuilderOption) FramePacer {
	p := &framePacer{
		events:              events,
		targetFrameDuration: time.Second / DefaultTargetFPS,
		waitTimeout:         DefaultWaitTimeout,
		now:                 time.Now,
		sleep:               time.Sleep,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *framePacer) PollOrWait(focused bool) {
	if focused || p.events.ConsumeRedrawRequest() {
		p.events.PollEvents()
		return
	}
	p.events.WaitEventsTimeout(p.waitTimeout)
}

func (p *framePacer) PaceFrame(frameStart time.Time) time.Duration {
	remaining := p.targetFrameDuration - p.now().Sub(frameStart)
	if remaining <= 0 {
		return 0
	}
	p.sleep(remaining)
	return remaining
}

func (p *framePacer) TargetFrameDuration() time.Duration {
	return p.targetFrameDuration
}

func (p *framePacer) Now() time.Time {
	return p.now()
}
