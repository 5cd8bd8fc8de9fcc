package pacer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	polls    int
	waits    []time.Duration
	redrawOn bool
}

func (f *fakeEvents) PollEvents() { f.polls++ }

func (f *fakeEvents) WaitEventsTimeout(timeout time.Duration) { f.waits = append(f.waits, timeout) }

func (f *fakeEvents) ConsumeRedrawRequest() bool {
	r := f.redrawOn
	f.redrawOn = false
	return r
}

func TestPollOrWaitFocusedPolls(t *testing.T) {
	ev := &fakeEvents{}
	p := NewFramePacer(ev)

	p.PollOrWait(true)

	assert.Equal(t, 1, ev.polls)
	assert.Empty(t, ev.waits)
}

func TestPollOrWaitUnfocusedWaitsWithTimeout(t *testing.T) {
	ev := &fakeEvents{}
	p := NewFramePacer(ev)

	p.PollOrWait(false)

	assert.Equal(t, 0, ev.polls)
	require.Len(t, ev.waits, 1)
	assert.Equal(t, 16*time.Millisecond, ev.waits[0])
}

func TestPollOrWaitRedrawShortCircuitsWait(t *testing.T) {
	ev := &fakeEvents{redrawOn: true}
	p := NewFramePacer(ev, WithWaitTimeout(50*time.Millisecond))

	p.PollOrWait(false)
	assert.Equal(t, 1, ev.polls)
	assert.Empty(t, ev.waits)

	p.PollOrWait(false)
	require.Len(t, ev.waits, 1)
	assert.Equal(t, 50*time.Millisecond, ev.waits[0])
}

func TestPaceFrameSleepsRemainder(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base.Add(4 * time.Millisecond)
	var slept []time.Duration

	p := NewFramePacer(&fakeEvents{},
		WithTargetFPS(50),
		WithClock(func() time.Time { return now }, func(d time.Duration) { slept = append(slept, d) }),
	)

	got := p.PaceFrame(base)

	assert.Equal(t, 20*time.Millisecond, p.TargetFrameDuration())
	assert.Equal(t, 16*time.Millisecond, got)
	assert.Equal(t, []time.Duration{16 * time.Millisecond}, slept)
}

func TestPaceFrameOverrunDoesNotSleep(t *testing.T) {
	base := time.Unix(1000, 0)
	var slept []time.Duration

	for _, elapsed := range []time.Duration{time.Second / 60, 40 * time.Millisecond, time.Second} {
		now := base.Add(elapsed)
		p := NewFramePacer(&fakeEvents{},
			WithClock(func() time.Time { return now }, func(d time.Duration) { slept = append(slept, d) }),
		)
		assert.Zero(t, p.PaceFrame(base), "elapsed %v", elapsed)
	}
	assert.Empty(t, slept)
}

func TestPaceFrameRealClockBound(t *testing.T) {
	p := NewFramePacer(&fakeEvents{})
	target := p.TargetFrameDuration()

	frameStart := time.Now().Add(-5 * time.Millisecond)
	slept := p.PaceFrame(frameStart)

	assert.GreaterOrEqual(t, time.Since(frameStart), target)
	assert.Greater(t, slept, time.Duration(0))
	assert.LessOrEqual(t, slept, target-5*time.Millisecond)

	overrun := time.Now().Add(-2 * target)
	before := time.Now()
	assert.Zero(t, p.PaceFrame(overrun))
	assert.Less(t, time.Since(before), target/2, "overrun frames return without sleeping")
}

func TestWithTargetFPSDefaults(t *testing.T) {
	p := NewFramePacer(&fakeEvents{}, WithTargetFPS(0), WithWaitTimeout(-1))
	assert.Equal(t, time.Second/60, p.TargetFrameDuration())
	assert.Equal(t, NewFramePacer(&fakeEvents{}).TargetFrameDuration(), p.TargetFrameDuration(),
		"an invalid rate falls back to the built-in budget")
	assert.Equal(t, DefaultWaitTimeout, p.(*framePacer).waitTimeout)
}
