package pacer

import "time"

// FramePacerBuilderOption is a functional option for configuring a FramePacer.
type FramePacerBuilderOption func(p *framePacer)

// WithTargetFPS sets the frame rate the pacer sleeps towards.
// Values <= 0 are treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - FramePacerBuilderOption: option function to apply
func WithTargetFPS(fps float64) FramePacerBuilderOption {
	return func(p *framePacer) {
		if fps <= 0 {
			fps = DefaultTargetFPS
		}
		p.targetFrameDuration = time.Duration(float64(time.Second) / fps)
	}
}

// WithWaitTimeout sets the longest blocking event wait used while the window is unfocused.
// Values <= 0 are treated as the default (16ms).
//
// Parameters:
//   - timeout: the blocking wait bound
//
// Returns:
//   - FramePacerBuilderOption: option function to apply
func WithWaitTimeout(timeout time.Duration) FramePacerBuilderOption {
	return func(p *framePacer) {
		if timeout <= 0 {
			timeout = DefaultWaitTimeout
		}
		p.waitTimeout = timeout
	}
}

// WithClock replaces the time source and the sleep function used for pacing.
// Nil arguments keep time.Now and time.Sleep respectively.
//
// Parameters:
//   - now: returns the current time
//   - sleep: blocks for the given duration
//
// Returns:
//   - FramePacerBuilderOption: option function to apply
func WithClock(now func() time.Time, sleep func(time.Duration)) FramePacerBuilderOption {
	return func(p *framePacer) {
		if now != nil {
			p.now = now
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}
