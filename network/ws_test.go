package network

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RafasTavares/konterball/game"
)

func TestDispatchRoutesCallbacks(t *testing.T) {
	c := newChannel(nil, false, slog.Disabled, nil)

	var gotHitPoint, gotHitVel game.Vec3
	var missFault, missInit bool
	restarts, countdowns := 0, 0
	c.OnHit = func(point, vel game.Vec3) { gotHitPoint, gotHitVel = point, vel }
	c.OnMiss = func(_, _ game.Vec3, fault, isInit bool) { missFault, missInit = fault, isInit }
	c.OnRestartGame = func() { restarts++ }
	c.OnRequestCountdown = func() { countdowns++ }

	c.dispatch(&Envelope{Type: TypeHit, Seq: 1, Hit: &HitMessage{
		Point:    [3]float64{0.5, 1, 2.1},
		Velocity: [3]float64{0, 0, -2},
	}})
	assert.Equal(t, game.Vec3{X: 0.5, Y: 1, Z: 2.1}, gotHitPoint)
	assert.Equal(t, game.Vec3{Z: -2}, gotHitVel)

	c.dispatch(&Envelope{Type: TypeMiss, Seq: 1, Miss: &MissMessage{Fault: true, IsInit: true}})
	assert.True(t, missFault)
	assert.True(t, missInit)

	c.dispatch(&Envelope{Type: TypeRestartGame, Seq: 1})
	c.dispatch(&Envelope{Type: TypeRequestCountdown, Seq: 1})
	assert.Equal(t, 1, restarts)
	assert.Equal(t, 1, countdowns)
}

func TestDispatchDropsStaleMessages(t *testing.T) {
	c := newChannel(nil, false, slog.Disabled, nil)

	var moves []game.Vec3
	c.OnMove = func(pos, _ game.Vec3) { moves = append(moves, pos) }

	c.dispatch(&Envelope{Type: TypeMove, Seq: 2, Move: &MoveMessage{Position: [3]float64{2, 0, 0}}})
	c.dispatch(&Envelope{Type: TypeMove, Seq: 1, Move: &MoveMessage{Position: [3]float64{1, 0, 0}}})
	c.dispatch(&Envelope{Type: TypeMove, Seq: 3, Move: &MoveMessage{Position: [3]float64{3, 0, 0}}})

	// The reordered seq 1 pose never regresses the opponent paddle.
	require.Len(t, moves, 2)
	assert.Equal(t, 2.0, moves[0].X)
	assert.Equal(t, 3.0, moves[1].X)
}

func TestDispatchRunsCallbacksThroughPost(t *testing.T) {
	var queued []func()
	c := newChannel(nil, false, slog.Disabled, func(f func()) { queued = append(queued, f) })

	called := false
	c.OnRestartGame = func() { called = true }
	c.dispatch(&Envelope{Type: TypeRestartGame, Seq: 1})

	// Nothing runs until the loop drains the queue.
	assert.False(t, called)
	require.Len(t, queued, 1)
	queued[0]()
	assert.True(t, called)
}

func TestDispatchIgnoresMissingPayloads(t *testing.T) {
	c := newChannel(nil, false, slog.Disabled, nil)
	c.OnHit = func(_, _ game.Vec3) { t.Fatal("hit without payload") }

	assert.NotPanics(t, func() {
		c.dispatch(&Envelope{Type: TypeHit, Seq: 1})
		c.dispatch(&Envelope{Type: TypeMove, Seq: 1})
	})
}

func TestRecordRTTSmoothing(t *testing.T) {
	c := newChannel(nil, false, slog.Disabled, nil)
	assert.Zero(t, c.Latency())

	// The first sample seeds the estimate.
	c.recordRTT(100 * time.Millisecond)
	assert.InDelta(t, 100, c.Latency(), 1e-9)

	// Subsequent samples blend in at the smoothing weight.
	c.recordRTT(200 * time.Millisecond)
	assert.InDelta(t, 100*0.8+200*0.2, c.Latency(), 1e-9)

	// A single outlier cannot swing the estimate to itself.
	c.recordRTT(1000 * time.Millisecond)
	assert.Less(t, c.Latency(), 400.0)
}

func TestLoopbackRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type hostResult struct {
		ch  *WSChannel
		err error
	}
	hostCh := make(chan hostResult, 1)
	go func() {
		ch, err := HostListener(ctx, ln, slog.Disabled, nil)
		hostCh <- hostResult{ch, err}
	}()

	url := fmt.Sprintf("ws://%s/ws", ln.Addr())
	joiner, err := Dial(ctx, url, slog.Disabled, nil)
	require.NoError(t, err)
	defer joiner.Close()

	res := <-hostCh
	require.NoError(t, res.err)
	host := res.ch
	defer host.Close()
	assert.True(t, host.IsHost())
	assert.False(t, joiner.IsHost())

	gotHit := make(chan game.Vec3, 1)
	gotMiss := make(chan bool, 1)
	host.OnHit = func(point, _ game.Vec3) { gotHit <- point }
	host.OnMiss = func(_, _ game.Vec3, fault, _ bool) { gotMiss <- fault }
	go host.Run(ctx)
	go joiner.Run(ctx)

	joiner.SendHit(game.Vec3{X: 0.5, Y: 1, Z: 2.1}, game.Vec3{Z: -2})
	joiner.SendMiss(game.Vec3{Y: 1.26, Z: 2.4}, game.Vec3{Y: 1.5, Z: -3}, true, false)

	select {
	case point := <-gotHit:
		assert.Equal(t, game.Vec3{X: 0.5, Y: 1, Z: 2.1}, point)
	case <-time.After(5 * time.Second):
		t.Fatal("hit never arrived")
	}
	select {
	case fault := <-gotMiss:
		assert.True(t, fault)
	case <-time.After(5 * time.Second):
		t.Fatal("miss never arrived")
	}

	// Drive one latency probe by hand instead of waiting out the ping
	// interval: the host pump answers with a pong and the joiner pump
	// records the round trip.
	joiner.send(&Envelope{Type: TypePing, Ping: &PingMessage{SentAt: time.Now().UnixNano()}})
	require.Eventually(t, func() bool { return joiner.Latency() > 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestVecArrRoundTrip(t *testing.T) {
	v := game.Vec3{X: -0.5, Y: 1.26, Z: 2.8}
	assert.Equal(t, v, vec(arr(v)))
}
