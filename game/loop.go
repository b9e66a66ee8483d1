package game

import (
	"context"
	"time"

	"github.com/decred/slog"
)

// Loop drives the per-frame order: drain scheduled callbacks, input and
// paddle update, pose transmission, physics step, ball sync, draw. It is
// the module's single logical thread of control.
type Loop struct {
	cfg      *MatchConfig
	log      slog.Logger
	sched    *Scheduler
	physics  PhysicsWorld
	match    *Match
	sync     *BallSynchronizer
	paddle   *PaddleController
	renderer Renderer
	channel  Channel

	frame    uint64
	last     time.Time
	started  bool
	sampler  frameSampler
	degraded bool
}

func NewLoop(cfg *MatchConfig, log slog.Logger, sched *Scheduler, physics PhysicsWorld, match *Match, sync *BallSynchronizer, paddle *PaddleController, renderer Renderer, channel Channel) *Loop {
	l := &Loop{
		cfg:      cfg,
		log:      log,
		sched:    sched,
		physics:  physics,
		match:    match,
		sync:     sync,
		paddle:   paddle,
		renderer: renderer,
		channel:  channel,
	}
	l.sampler.reset(cfg)
	return l
}

// Run ticks at the configured refresh cadence until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

// NoteFocus restarts the frame-rate warm-up window after a tab refocus so
// background throttling does not read as sustained low performance.
func (l *Loop) NoteFocus() {
	l.sampler.reset(l.cfg)
}

// HandleRemoteMove applies a peer paddle pose, translated into the local
// frame.
func (l *Loop) HandleRemoteMove(pos, rot Vec3) {
	l.paddle.SetOpponentTarget(
		MirrorPosition(pos, l.cfg.TablePositionZ),
		Vec3{X: rot.X, Y: -rot.Y, Z: -rot.Z},
	)
}

// Tick runs one frame for the elapsed time since the previous one.
func (l *Loop) Tick(now time.Time) {
	if !l.started {
		l.started = true
		l.last = now
		return
	}
	elapsed := now.Sub(l.last)
	l.last = now
	// Clamp so a backgrounded tab does not explode the physics step.
	if elapsed > l.cfg.MaxFrameDelta {
		elapsed = l.cfg.MaxFrameDelta
	}
	dt := elapsed.Seconds()
	l.frame++

	l.sched.Drain()
	l.renderer.UpdateEffects(dt)
	l.paddle.Update(dt)
	if pb := l.physics.Paddle(); pb != nil {
		pb.SetPosition(l.paddle.Position())
	}

	if l.cfg.Mode == ModeMultiplayer && l.channel != nil && l.frame%l.cfg.MoveSendStride == 0 {
		l.channel.SendMove(l.paddle.Position(), l.paddle.Rotation())
	}

	if l.match.State() == StatePlaying {
		l.physics.Step(dt / l.sync.TimeStepDivisor())
	}
	l.sync.Update(dt)

	if pos, quat, ok := l.sync.VisualBallPose(); ok {
		ball := l.renderer.BallEntity()
		ball.SetPosition(pos)
		ball.SetQuaternion(quat)
	}
	self := l.renderer.PaddleEntity()
	self.SetPosition(l.paddle.Position())
	self.SetRotation(l.paddle.Rotation())
	if l.cfg.Mode == ModeMultiplayer {
		opp := l.renderer.OpponentPaddleEntity()
		opp.SetPosition(l.paddle.OpponentPosition())
		opp.SetRotation(l.paddle.OpponentRotation())
	}

	l.physics.PredictCollisions(dt)

	if !l.degraded && l.sampler.observe(elapsed) {
		l.degraded = true
		l.log.Infof("sustained low frame rate, degrading render quality")
		l.renderer.DegradeQuality()
	}
}

// frameSampler watches recent frame intervals and reports a sustained low
// measured rate once the post-focus warm-up has passed.
type frameSampler struct {
	warmup    int
	threshold float64
	intervals []float64
	idx       int
	filled    bool
}

func (f *frameSampler) reset(cfg *MatchConfig) {
	f.warmup = cfg.WarmupFrames
	f.threshold = cfg.DegradeFPS
	f.intervals = make([]float64, cfg.DegradeWindow)
	f.idx = 0
	f.filled = false
}

// observe records a frame interval and reports whether the average rate
// over the window is below the threshold.
func (f *frameSampler) observe(elapsed time.Duration) bool {
	if f.warmup > 0 {
		f.warmup--
		return false
	}
	if len(f.intervals) == 0 {
		return false
	}
	f.intervals[f.idx] = elapsed.Seconds()
	f.idx++
	if f.idx == len(f.intervals) {
		f.idx = 0
		f.filled = true
	}
	if !f.filled {
		return false
	}
	var sum float64
	for _, iv := range f.intervals {
		sum += iv
	}
	mean := sum / float64(len(f.intervals))
	return mean > 0 && 1/mean < f.threshold
}
