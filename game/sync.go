package game

import (
	"github.com/decred/slog"
)

// MirrorPosition reflects p across the table's center plane at z = tableZ,
// translating between the two players' symmetric coordinate frames.
func MirrorPosition(p Vec3, tableZ float64) Vec3 {
	return Vec3{-p.X, p.Y, 2*tableZ - p.Z}
}

// MirrorVelocity inverts the components that MirrorPosition reflects.
func MirrorVelocity(v Vec3) Vec3 {
	return Vec3{-v.X, v.Y, -v.Z}
}

// BallSynchronizer reconciles the locally simulated ball against the
// peer's authoritative reports and keeps apparent flight time plausible
// despite latency. All methods run on the loop goroutine.
type BallSynchronizer struct {
	cfg     *MatchConfig
	log     slog.Logger
	physics PhysicsWorld
	channel Channel
	sched   *Scheduler
	match   *Match
	paddle  *PaddleController
	sound   Sound

	// positionDifference is the gap between the locally predicted and the
	// peer-reported ball position. Non-nil only during the interpolation
	// window after a remote hit.
	positionDifference *Vec3
	interpolationAlpha float64

	// speedScale multiplies the physics time-step divisor, implementing
	// the send-side latency compensation.
	speedScale float64

	resetTask     *Task
	lastTableHalf TableHalf
	lastHitter    Side
	served        bool
}

// NewBallSynchronizer wires the synchronizer into the physics world's
// collision callbacks. channel is nil in singleplayer.
func NewBallSynchronizer(cfg *MatchConfig, log slog.Logger, physics PhysicsWorld, channel Channel, sched *Scheduler, match *Match, paddle *PaddleController, sound Sound) *BallSynchronizer {
	s := &BallSynchronizer{
		cfg:        cfg,
		log:        log,
		physics:    physics,
		channel:    channel,
		sched:      sched,
		match:      match,
		paddle:     paddle,
		sound:      sound,
		speedScale: 1,
	}
	physics.OnBallPaddleCollision(s.handleLocalHit)
	physics.OnBallTableCollision(func(half TableHalf) {
		s.lastTableHalf = half
	})
	return s
}

// TimeStepDivisor is the adjustable divisor the loop steps physics by.
func (s *BallSynchronizer) TimeStepDivisor() float64 {
	return s.cfg.PhysicsTimeStep * s.speedScale
}

// Serve begins or resumes play. The first multiplayer serve is sent by
// the non-host as an isInit miss; the host only arms the watchdog and
// waits for it.
func (s *BallSynchronizer) Serve() {
	ball := s.physics.Ball()
	if ball == nil {
		ball = s.physics.AddBall()
	}
	if !s.served {
		s.served = true
		if s.cfg.Mode == ModeMultiplayer && s.channel.IsHost() {
			s.ScheduleReset()
			return
		}
		s.physics.InitBallPosition(ball)
		if s.cfg.Mode == ModeMultiplayer {
			st := CaptureBallState(ball)
			s.channel.SendMiss(st.Position, st.Velocity, false, true)
		}
	}
	s.ScheduleReset()
}

// ScheduleReset restarts the watchdog that forces a round end after a
// bounded silence. The previous timer is always cancelled first.
func (s *BallSynchronizer) ScheduleReset() {
	s.resetTask.Stop()
	s.resetTask = s.sched.After(s.cfg.ResetTimeout, s.handleResetTimeout)
}

// handleLocalHit is the paddle-ball collision response: roles invert, the
// watchdog restarts, and in multiplayer the hit is transmitted with the
// send-side speed compensation applied.
func (s *BallSynchronizer) handleLocalHit(point Vec3) {
	if s.match.State() != StatePlaying {
		return
	}
	ball := s.physics.Ball()
	if ball == nil {
		return
	}
	s.ScheduleReset()
	s.lastTableHalf = HalfNone
	s.lastHitter = SideSelf
	s.paddle.StartHitAnimation(point)
	s.sound.PlayUI("paddle")

	if s.cfg.Mode == ModeSingleplayer {
		s.match.AddReturnPoint()
		return
	}

	v := ball.Velocity()
	if v.Z < 0 {
		// Ball is travelling toward the opponent: stretch the local
		// simulation so the apparent arrival accounts for transport
		// delay.
		speed := v.Length()
		if speed > 0 {
			eta := ball.Position().DistanceTo(s.paddle.OpponentPosition()) / speed
			desirableEta := eta + s.channel.Latency()/1000
			if eta > 0 {
				s.speedScale = desirableEta / eta
			}
		}
	}
	s.channel.SendHit(point, v)
}

// HandleRemoteHit applies a peer-reported return: the reported state is
// mirrored into the local frame and the visual ball converges onto it
// over the interpolation window instead of snapping.
func (s *BallSynchronizer) HandleRemoteHit(point, velocity Vec3) {
	s.ScheduleReset()
	ball := s.physics.Ball()
	if ball == nil {
		ball = s.physics.AddBall()
	}
	predicted := ball.Position()
	ball.SetPosition(MirrorPosition(point, s.cfg.TablePositionZ))
	ball.SetVelocity(MirrorVelocity(velocity))

	diff := predicted.Sub(ball.Position())
	s.positionDifference = &diff
	s.interpolationAlpha = 1

	s.speedScale = 1
	s.lastTableHalf = HalfNone
	s.lastHitter = SideOpponent
	s.physics.IncreaseSpeed(s.cfg.SpeedIncrease)
}

// HandleRemoteMiss applies the peer's authoritative respawn state. An
// isInit miss is the very first serve and scores nothing; otherwise the
// fault flag assigns the point. A round already scored by the local
// watchdog is not scored again (the state machine gates on PLAYING).
func (s *BallSynchronizer) HandleRemoteMiss(pos, velocity Vec3, fault, isInit bool) {
	s.resetTask.Stop()
	s.resetTask = nil
	ball := s.physics.Ball()
	if ball == nil {
		ball = s.physics.AddBall()
	}
	ball.SetPosition(MirrorPosition(pos, s.cfg.TablePositionZ))
	ball.SetVelocity(MirrorVelocity(velocity))
	ball.SetAngularVelocity(Vec3{})
	ball.SetQuaternion(IdentityQuat)

	s.positionDifference = nil
	s.interpolationAlpha = 0
	s.speedScale = 1
	s.lastTableHalf = HalfNone
	s.lastHitter = SideNone

	if isInit {
		s.served = true
		s.ScheduleReset()
		return
	}
	if fault {
		s.match.PointFor(SideSelf)
	} else {
		s.match.PointFor(SideOpponent)
	}
}

// handleResetTimeout fires when no hit or remote update arrived within
// the watchdog window: the round is scored, the ball respawns, and the
// peer is told so it can reconcile identically.
func (s *BallSynchronizer) handleResetTimeout() {
	if s.match.State() != StatePlaying {
		return
	}
	fault := s.faultSide()
	s.log.Debugf("reset timeout, fault=%d lastHalf=%d", fault, s.lastTableHalf)

	if s.cfg.Mode == ModeSingleplayer {
		s.match.BallLost()
	} else if fault == SideSelf {
		s.match.PointFor(SideOpponent)
	} else {
		s.match.PointFor(SideSelf)
	}

	s.respawn()

	if s.cfg.Mode == ModeMultiplayer {
		if ball := s.physics.Ball(); ball != nil {
			st := CaptureBallState(ball)
			s.channel.SendMiss(st.Position, st.Velocity, fault == SideSelf, false)
		}
	}
}

// faultSide derives who lost the round from the half of the table the
// ball last touched. A ball that never touched a half (straight into the
// net) faults the side that last hit it.
func (s *BallSynchronizer) faultSide() Side {
	switch s.lastTableHalf {
	case HalfSelf:
		return SideSelf
	case HalfOpponent:
		return SideOpponent
	}
	if s.lastHitter != SideNone {
		return s.lastHitter
	}
	return SideSelf
}

func (s *BallSynchronizer) respawn() {
	ball := s.physics.Ball()
	if ball == nil {
		ball = s.physics.AddBall()
	}
	s.physics.InitBallPosition(ball)
	s.positionDifference = nil
	s.interpolationAlpha = 0
	s.speedScale = 1
	s.lastTableHalf = HalfNone
	s.lastHitter = SideNone
}

// Update advances the interpolation alpha. The difference never outlives
// its decay window; once the alpha reaches zero it is cleared.
func (s *BallSynchronizer) Update(delta float64) {
	if s.positionDifference == nil {
		return
	}
	s.interpolationAlpha -= delta / s.cfg.InterpolationWindow.Seconds()
	if s.interpolationAlpha <= 0 {
		s.interpolationAlpha = 0
		s.positionDifference = nil
	}
}

// VisualBallPose is the render position and orientation for this frame.
// While a position difference is live the render position blends from the
// corrected simulation back toward the stale prediction by alpha.
func (s *BallSynchronizer) VisualBallPose() (Vec3, Quat, bool) {
	ball := s.physics.Ball()
	if ball == nil {
		return Vec3{}, IdentityQuat, false
	}
	pos := ball.Position()
	if s.positionDifference != nil {
		pos = Lerp(pos, pos.Add(*s.positionDifference), s.interpolationAlpha)
	}
	return pos, ball.Quaternion(), true
}
