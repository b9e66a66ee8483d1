package game

import (
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopHarness(mode GameMode) (*harness, *Loop, *fakeRenderer) {
	h := newHarness(mode)
	r := &fakeRenderer{}
	var channel Channel
	if h.channel != nil {
		channel = h.channel
	}
	l := NewLoop(h.cfg, slog.Disabled, h.sched, h.physics, h.match, h.sync, h.paddle, r, channel)
	return h, l, r
}

// tick advances the loop by fixed steps; the first call only establishes
// the time base.
func tick(l *Loop, n int, step time.Duration) time.Time {
	now := time.Unix(0, 0)
	l.Tick(now)
	for i := 0; i < n; i++ {
		now = now.Add(step)
		l.Tick(now)
	}
	return now
}

func TestMoveSendStride(t *testing.T) {
	h, l, _ := newLoopHarness(ModeMultiplayer)

	tick(l, 20, 16*time.Millisecond)

	// Every 5th frame of 20 produces a pose send.
	assert.Len(t, h.channel.moves, 4)
}

func TestSingleplayerNeverSendsMoves(t *testing.T) {
	_, l, _ := newLoopHarness(ModeSingleplayer)

	assert.NotPanics(t, func() {
		tick(l, 20, 16*time.Millisecond)
	})
}

func TestPhysicsSteppedOnlyWhilePlaying(t *testing.T) {
	h, l, _ := newLoopHarness(ModeSingleplayer)

	tick(l, 3, 16*time.Millisecond)
	assert.Empty(t, h.physics.steps)

	h.match.state = StatePlaying
	now := time.Unix(1, 0)
	l.Tick(now)
	l.Tick(now.Add(16 * time.Millisecond))
	assert.Len(t, h.physics.steps, 2)
}

func TestFrameDeltaClamp(t *testing.T) {
	h, l, _ := newLoopHarness(ModeSingleplayer)
	h.match.state = StatePlaying

	now := time.Unix(0, 0)
	l.Tick(now)
	// A five second stall (backgrounded tab) steps physics by at most the
	// clamp, not the wall-clock gap.
	l.Tick(now.Add(5 * time.Second))

	require.Len(t, h.physics.steps, 1)
	assert.InDelta(t, h.cfg.MaxFrameDelta.Seconds(), h.physics.steps[0], tolerance)
}

func TestPhysicsStepUsesSpeedScale(t *testing.T) {
	h, l, _ := newLoopHarness(ModeSingleplayer)
	h.match.state = StatePlaying
	h.sync.speedScale = 2

	now := time.Unix(0, 0)
	l.Tick(now)
	l.Tick(now.Add(16 * time.Millisecond))

	require.Len(t, h.physics.steps, 1)
	assert.InDelta(t, 0.016/2, h.physics.steps[0], tolerance)
}

func TestRemoteMoveMirrorsPose(t *testing.T) {
	h, l, _ := newLoopHarness(ModeMultiplayer)

	l.HandleRemoteMove(Vec3{0.5, 1, 2.5}, Vec3{0.2, 0.3, 0.4})

	// Enough frames for the tween to finish.
	tick(l, 5, 50*time.Millisecond)

	pos := h.paddle.OpponentPosition()
	assert.InDelta(t, -0.5, pos.X, tolerance)
	assert.InDelta(t, 2*h.cfg.TablePositionZ-2.5-opponentZLag, pos.Z, tolerance)

	rot := h.paddle.OpponentRotation()
	assert.InDelta(t, 0.2, rot.X, tolerance)
	assert.InDelta(t, -0.3, rot.Y, tolerance)
	assert.InDelta(t, -0.4, rot.Z, tolerance)
}

func TestDegradeFiresOnce(t *testing.T) {
	h, l, r := newLoopHarness(ModeSingleplayer)
	h.cfg.WarmupFrames = 0
	h.cfg.DegradeWindow = 5
	l.sampler.reset(h.cfg)

	// 30fps frames against a 45fps threshold.
	tick(l, 30, 33*time.Millisecond)

	assert.Equal(t, 1, r.degrades)
}

func TestHealthyFrameRateNeverDegrades(t *testing.T) {
	h, l, r := newLoopHarness(ModeSingleplayer)
	h.cfg.WarmupFrames = 0
	h.cfg.DegradeWindow = 5
	l.sampler.reset(h.cfg)

	tick(l, 30, 16*time.Millisecond)

	assert.Zero(t, r.degrades)
}

func TestWarmupSuppressesDegrade(t *testing.T) {
	h, l, r := newLoopHarness(ModeSingleplayer)
	h.cfg.WarmupFrames = 100
	h.cfg.DegradeWindow = 5
	l.sampler.reset(h.cfg)

	tick(l, 50, 33*time.Millisecond)
	assert.Zero(t, r.degrades)

	// Refocusing restarts the warm-up even after it had expired.
	h.cfg.WarmupFrames = 30
	l.NoteFocus()
	tick(l, 20, 33*time.Millisecond)
	assert.Zero(t, r.degrades)
}

func TestTickDrawsBallAndPaddles(t *testing.T) {
	h, l, r := newLoopHarness(ModeMultiplayer)
	h.physics.AddBall()
	h.physics.ball.SetPosition(Vec3{0.1, 1.2, 2.2})

	in := &stubInput{target: Vec3{0.3, 1, 2.4}, ok: true}
	h.paddle.SetInput(in)

	tick(l, 1, 16*time.Millisecond)

	assert.Equal(t, Vec3{0.1, 1.2, 2.2}, r.ball.pos)
	assert.Equal(t, Vec3{0.3, 1, 2.4}, r.paddle.pos)
	assert.Equal(t, r.paddle.pos, h.physics.paddle.pos)
	assert.Equal(t, h.paddle.OpponentPosition(), r.opponent.pos)
	assert.Equal(t, 1, h.physics.predicts)
}

func TestTickDrainsScheduledWork(t *testing.T) {
	h, l, _ := newLoopHarness(ModeSingleplayer)

	ran := false
	h.sched.Post(func() { ran = true })
	assert.False(t, ran)

	tick(l, 1, 16*time.Millisecond)
	assert.True(t, ran)
}
