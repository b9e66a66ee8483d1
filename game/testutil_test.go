package game

import "github.com/decred/slog"

// Shared fakes for the runtime's external collaborators.

var testInitPos = Vec3{X: 0, Y: 1.26, Z: 2.4}
var testInitVel = Vec3{X: 0, Y: 1.5, Z: -3}

type fakeBody struct {
	pos, vel, ang Vec3
	quat          Quat
}

func (b *fakeBody) Position() Vec3 { return b.pos }
func (b *fakeBody) SetPosition(p Vec3) { b.pos = p }
func (b *fakeBody) Velocity() Vec3 { return b.vel }
func (b *fakeBody) SetVelocity(v Vec3) { b.vel = v }
func (b *fakeBody) AngularVelocity() Vec3 { return b.ang }
func (b *fakeBody) SetAngularVelocity(v Vec3) { b.ang = v }
func (b *fakeBody) Quaternion() Quat { return b.quat }
func (b *fakeBody) SetQuaternion(q Quat) { b.quat = q }

type fakePhysics struct {
	ball       *fakeBody
	paddle     *fakeBody
	steps      []float64
	speedBumps []float64
	initCount  int
	predicts   int

	paddleHit  func(Vec3)
	tableTouch func(TableHalf)
}

func newFakePhysics() *fakePhysics {
	return &fakePhysics{paddle: &fakeBody{quat: IdentityQuat}}
}

func (f *fakePhysics) Step(dt float64) { f.steps = append(f.steps, dt) }

func (f *fakePhysics) AddBall() Body {
	if f.ball == nil {
		f.ball = &fakeBody{pos: testInitPos, vel: testInitVel, quat: IdentityQuat}
	}
	return f.ball
}

func (f *fakePhysics) Ball() Body {
	if f.ball == nil {
		return nil
	}
	return f.ball
}

func (f *fakePhysics) Paddle() Body { return f.paddle }

func (f *fakePhysics) InitBallPosition(b Body) {
	b.SetPosition(testInitPos)
	b.SetVelocity(testInitVel)
	b.SetAngularVelocity(Vec3{})
	b.SetQuaternion(IdentityQuat)
	f.initCount++
}

func (f *fakePhysics) IncreaseSpeed(factor float64) {
	f.speedBumps = append(f.speedBumps, factor)
}

func (f *fakePhysics) OnBallPaddleCollision(fn func(Vec3)) { f.paddleHit = fn }

func (f *fakePhysics) OnBallTableCollision(fn func(TableHalf)) { f.tableTouch = fn }

func (f *fakePhysics) PredictCollisions(float64) { f.predicts++ }

type sentMove struct {
	pos, rot Vec3
}

type sentHit struct {
	point, vel Vec3
}

type sentMiss struct {
	pos, vel      Vec3
	fault, isInit bool
}

type fakeChannel struct {
	host      bool
	latencyMs float64

	moves      []sentMove
	hits       []sentHit
	misses     []sentMiss
	restarts   int
	countdowns int
}

func (c *fakeChannel) SendMove(pos, rot Vec3) { c.moves = append(c.moves, sentMove{pos, rot}) }
func (c *fakeChannel) SendHit(point, vel Vec3) {
	c.hits = append(c.hits, sentHit{point, vel})
}
func (c *fakeChannel) SendMiss(pos, vel Vec3, fault, isInit bool) {
	c.misses = append(c.misses, sentMiss{pos, vel, fault, isInit})
}
func (c *fakeChannel) SendRestartGame() { c.restarts++ }

func (c *fakeChannel) SendRequestCountdown() { c.countdowns++ }

func (c *fakeChannel) Latency() float64 { return c.latencyMs }

func (c *fakeChannel) IsHost() bool { return c.host }

type fakeHUD struct {
	self, opponent int
	lives          int
	messages       []string
}

func (h *fakeHUD) SetScore(self, opponent int) { h.self, h.opponent = self, opponent }
func (h *fakeHUD) SetLives(lives int) { h.lives = lives }
func (h *fakeHUD) ShowMessage(msg string) { h.messages = append(h.messages, msg) }

type fakeSound struct {
	played []string
}

func (s *fakeSound) PlayUI(name string) { s.played = append(s.played, name) }

type fakeEntity struct {
	pos, rot Vec3
	quat     Quat
	visible  bool
}

func (e *fakeEntity) SetPosition(p Vec3) { e.pos = p }
func (e *fakeEntity) SetRotation(r Vec3) { e.rot = r }
func (e *fakeEntity) SetQuaternion(q Quat) { e.quat = q }
func (e *fakeEntity) SetVisible(v bool) { e.visible = v }

type fakeRenderer struct {
	ball, paddle, opponent fakeEntity
	effects                int
	degrades               int
}

func (r *fakeRenderer) BallEntity() Entity { return &r.ball }
func (r *fakeRenderer) PaddleEntity() Entity { return &r.paddle }
func (r *fakeRenderer) OpponentPaddleEntity() Entity { return &r.opponent }
func (r *fakeRenderer) UpdateEffects(float64) { r.effects++ }
func (r *fakeRenderer) DegradeQuality() { r.degrades++ }

// stubInput always yields the same target.
type stubInput struct {
	target Vec3
	ok     bool
}

func (s *stubInput) TargetPosition(prev Vec3) (Vec3, bool) {
	if !s.ok {
		return prev, false
	}
	return s.target, true
}

type harness struct {
	cfg     *MatchConfig
	sched   *Scheduler
	physics *fakePhysics
	channel *fakeChannel
	hud     *fakeHUD
	sound   *fakeSound
	paddle  *PaddleController
	match   *Match
	sync    *BallSynchronizer
}

// newHarness wires a full runtime against fakes. channel is nil for
// singleplayer.
func newHarness(mode GameMode) *harness {
	cfg := DefaultConfig(mode)
	h := &harness{
		cfg:     cfg,
		sched:   NewScheduler(),
		physics: newFakePhysics(),
		hud:     &fakeHUD{},
		sound:   &fakeSound{},
	}
	var channel Channel
	if mode == ModeMultiplayer {
		h.channel = &fakeChannel{}
		channel = h.channel
	}
	h.paddle = NewPaddleController(cfg, &stubInput{ok: false})
	h.match = NewMatch(cfg, slog.Disabled, h.sched, channel, h.hud, h.sound)
	h.sync = NewBallSynchronizer(cfg, slog.Disabled, h.physics, channel, h.sched, h.match, h.paddle, h.sound)
	h.match.OnServe = h.sync.Serve
	return h
}
