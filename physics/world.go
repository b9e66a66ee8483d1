// Package physics is a reference rigid-body world for the runtime: ball
// flight, table/floor/net rebounds and paddle contact. The runtime only
// depends on the game.PhysicsWorld surface, so a heavier engine can be
// swapped in behind it.
package physics

import (
	"math"

	"github.com/decred/slog"

	"github.com/RafasTavares/konterball/game"
)

const (
	gravity          = 9.81
	ballRadius       = 0.02
	paddleRadius     = 0.25
	tableRestitution = 0.92
	floorRestitution = 0.3
	netDamping       = 0.4
)

// Body is a plain rigid-body handle.
type Body struct {
	pos    game.Vec3
	vel    game.Vec3
	angVel game.Vec3
	quat   game.Quat
}

func (b *Body) Position() game.Vec3 { return b.pos }
func (b *Body) SetPosition(p game.Vec3) { b.pos = p }
func (b *Body) Velocity() game.Vec3 { return b.vel }
func (b *Body) SetVelocity(v game.Vec3) { b.vel = v }
func (b *Body) AngularVelocity() game.Vec3 { return b.angVel }
func (b *Body) SetAngularVelocity(v game.Vec3) { b.angVel = v }
func (b *Body) Quaternion() game.Quat { return b.quat }
func (b *Body) SetQuaternion(q game.Quat) { b.quat = q }

// World steps the ball against table, net, floor and paddle.
type World struct {
	cfg *game.MatchConfig
	log slog.Logger

	ball   *Body
	paddle *Body

	onPaddleHit  func(game.Vec3)
	onTableTouch func(game.TableHalf)
}

var _ game.PhysicsWorld = (*World)(nil)

func NewWorld(cfg *game.MatchConfig, log slog.Logger) *World {
	return &World{
		cfg: cfg,
		log: log,
		paddle: &Body{
			pos:  game.Vec3{Y: cfg.PaddlePlaneY, Z: cfg.TablePositionZ + 0.5},
			quat: game.IdentityQuat,
		},
	}
}

func (w *World) Ball() game.Body {
	if w.ball == nil {
		return nil
	}
	return w.ball
}

func (w *World) Paddle() game.Body { return w.paddle }

func (w *World) AddBall() game.Body {
	if w.ball == nil {
		w.ball = &Body{quat: game.IdentityQuat}
		w.InitBallPosition(w.ball)
	}
	return w.ball
}

// InitBallPosition respawns the ball at the serve position above the
// local half, flying toward the opponent side.
func (w *World) InitBallPosition(b game.Body) {
	b.SetPosition(game.Vec3{
		X: 0,
		Y: w.cfg.TableHeight + 0.5,
		Z: w.cfg.TablePositionZ + 0.4,
	})
	b.SetVelocity(game.Vec3{X: 0, Y: 1.5, Z: -3})
	b.SetAngularVelocity(game.Vec3{})
	b.SetQuaternion(game.IdentityQuat)
}

// IncreaseSpeed ramps the current ball velocity by factor.
func (w *World) IncreaseSpeed(factor float64) {
	if w.ball == nil {
		return
	}
	w.ball.vel = w.ball.vel.Scale(1 + factor)
}

func (w *World) OnBallPaddleCollision(f func(point game.Vec3)) { w.onPaddleHit = f }
func (w *World) OnBallTableCollision(f func(half game.TableHalf)) { w.onTableTouch = f }

// Step integrates the ball by dt seconds and resolves contacts.
func (w *World) Step(dt float64) {
	if w.ball == nil || dt <= 0 {
		return
	}
	b := w.ball
	prev := b.pos

	b.vel.Y -= gravity * dt
	b.pos = b.pos.Add(b.vel.Scale(dt))
	b.quat = integrateSpin(b.quat, b.angVel, dt)

	w.resolveTable(prev)
	w.resolveNet(prev)
	w.resolveFloor()
	w.resolvePaddle(prev)
}

// PredictCollisions resolves an imminent net contact that a discrete step
// of dt would tunnel through.
func (w *World) PredictCollisions(dt float64) {
	if w.ball == nil || dt <= 0 {
		return
	}
	b := w.ball
	next := b.pos.Add(b.vel.Scale(dt))
	if crossedNet(w.cfg, b.pos, next) && next.Y < w.cfg.TableHeight+w.cfg.NetHeight {
		w.reflectAtNet()
	}
}

func (w *World) resolveTable(prev game.Vec3) {
	cfg := w.cfg
	b := w.ball
	top := cfg.TableHeight + ballRadius
	if b.vel.Y >= 0 || b.pos.Y > top || prev.Y < top {
		return
	}
	if math.Abs(b.pos.X) > cfg.TableWidth/2 {
		return
	}
	halfDepth := cfg.TableDepth / 2
	if b.pos.Z < cfg.TablePositionZ-halfDepth || b.pos.Z > cfg.TablePositionZ+halfDepth {
		return
	}
	b.pos.Y = top
	b.vel.Y = -b.vel.Y * tableRestitution
	half := game.HalfOpponent
	if b.pos.Z > cfg.TablePositionZ {
		half = game.HalfSelf
	}
	if w.onTableTouch != nil {
		w.onTableTouch(half)
	}
}

func crossedNet(cfg *game.MatchConfig, prev, next game.Vec3) bool {
	z0 := cfg.TablePositionZ
	if (prev.Z-z0)*(next.Z-z0) > 0 {
		return false
	}
	return math.Abs(next.X) <= cfg.TableWidth/2
}

func (w *World) resolveNet(prev game.Vec3) {
	cfg := w.cfg
	b := w.ball
	if !crossedNet(cfg, prev, b.pos) {
		return
	}
	if cfg.Mode == game.ModeSingleplayer {
		// No opponent: the net plane acts as a solid wall so the rally
		// returns.
		w.reflectAtNet()
		return
	}
	if b.pos.Y < cfg.TableHeight+cfg.NetHeight {
		w.reflectAtNet()
	}
}

func (w *World) reflectAtNet() {
	b := w.ball
	z0 := w.cfg.TablePositionZ
	b.vel.Z = -b.vel.Z
	// Push out on the side the ball now travels toward, so the next step
	// does not re-trigger the contact.
	b.pos.Z = z0 + math.Copysign(ballRadius, b.vel.Z)
	if w.cfg.Mode == game.ModeMultiplayer {
		b.vel = b.vel.Scale(netDamping)
	}
}

func (w *World) resolveFloor() {
	b := w.ball
	if b.pos.Y < ballRadius && b.vel.Y < 0 {
		b.pos.Y = ballRadius
		b.vel.Y = -b.vel.Y * floorRestitution
	}
}

// resolvePaddle sweeps the ball against the paddle plane: a ball moving
// toward the player that passes the paddle z within reach rebounds toward
// the far side, steered by where it struck the face.
func (w *World) resolvePaddle(prev game.Vec3) {
	b := w.ball
	p := w.paddle
	if b.vel.Z <= 0 {
		return
	}
	if prev.Z > p.pos.Z || b.pos.Z < p.pos.Z {
		return
	}
	dx := b.pos.X - p.pos.X
	dy := b.pos.Y - p.pos.Y
	if dx*dx+dy*dy > paddleRadius*paddleRadius {
		return
	}
	contact := game.Vec3{X: b.pos.X, Y: b.pos.Y, Z: p.pos.Z}
	b.pos.Z = p.pos.Z - ballRadius
	b.vel.Z = -math.Abs(b.vel.Z)
	b.vel.X += dx * 4
	b.vel.Y = math.Max(b.vel.Y, 0) + 1.5
	b.angVel = game.Vec3{X: -dy * 10, Y: dx * 10}
	if w.onPaddleHit != nil {
		w.onPaddleHit(contact)
	}
}

// integrateSpin advances q by the angular velocity over dt.
func integrateSpin(q game.Quat, omega game.Vec3, dt float64) game.Quat {
	half := 0.5 * dt
	dq := game.Quat{
		X: half * (omega.X*q.W + omega.Y*q.Z - omega.Z*q.Y),
		Y: half * (omega.Y*q.W + omega.Z*q.X - omega.X*q.Z),
		Z: half * (omega.Z*q.W + omega.X*q.Y - omega.Y*q.X),
		W: half * (-omega.X*q.X - omega.Y*q.Y - omega.Z*q.Z),
	}
	q = game.Quat{X: q.X + dq.X, Y: q.Y + dq.Y, Z: q.Z + dq.Z, W: q.W + dq.W}
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return game.IdentityQuat
	}
	return game.Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}
