package pacer

import "time"

// FrameClock tracks a monotonically increasing frame counter and the one-second window used for
// FPS accounting. It is mutated once per loop iteration by the engine and feeds the profiler.
type FrameClock struct {
	frame        uint64
	windowFrames int
	lastFPSTime  time.Time
}

// NewFrameClock creates a FrameClock whose first FPS window begins at start.
//
// Parameters:
//   - start: the time the first FPS window opens
//
// Returns:
//   - *FrameClock: the new clock
func NewFrameClock(start time.Time) *FrameClock {
	return &FrameClock{
		lastFPSTime: start,
	}
}

// Tick advances the frame counter. When at least one second has passed since the last report
// it returns the number of frames counted in that window and advances the report time by exactly
// one second, so the reported rate does not drift with loop jitter.
//
// Parameters:
//   - now: the current time
//
// Returns:
//   - int: frames counted in the completed one-second window
//   - bool: true if a window completed on this tick
func (c *FrameClock) Tick(now time.Time) (int, bool) {
	c.frame++
	c.windowFrames++

	if now.Sub(c.lastFPSTime) < time.Second {
		return 0, false
	}

	fps := c.windowFrames
	c.windowFrames = 0
	c.lastFPSTime = c.lastFPSTime.Add(time.Second)
	// A long stall would otherwise produce a burst of back-to-back reports.
	if now.Sub(c.lastFPSTime) >= time.Second {
		c.lastFPSTime = now
	}
	return fps, true
}

// Frame returns the number of frames ticked so far.
func (c *FrameClock) Frame() uint64 {
	return c.frame
}

// LastFPSTime returns the start of the current FPS accounting window.
func (c *FrameClock) LastFPSTime() time.Time {
	return c.lastFPSTime
}
