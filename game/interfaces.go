package game

// Side distinguishes the two players from the local point of view.
type Side int

const (
	SideNone Side = iota
	SideSelf
	SideOpponent
)

func (s Side) Other() Side {
	switch s {
	case SideSelf:
		return SideOpponent
	case SideOpponent:
		return SideSelf
	}
	return SideNone
}

// TableHalf names which half of the table the ball last touched.
type TableHalf int

const (
	HalfNone TableHalf = iota
	HalfSelf
	HalfOpponent
)

// Body is a rigid-body handle exposed by the physics world.
type Body interface {
	Position() Vec3
	SetPosition(Vec3)
	Velocity() Vec3
	SetVelocity(Vec3)
	AngularVelocity() Vec3
	SetAngularVelocity(Vec3)
	Quaternion() Quat
	SetQuaternion(Quat)
}

// PhysicsWorld steps the rigid-body simulation. The integrator itself is
// an external collaborator; the runtime only drives it through this
// surface.
type PhysicsWorld interface {
	Step(dt float64)

	// AddBall creates the ball body if absent and returns it.
	AddBall() Body
	// Ball returns the ball body or nil if none has been added.
	Ball() Body
	Paddle() Body

	// InitBallPosition respawns the ball at the serve position with the
	// serve velocity.
	InitBallPosition(Body)
	// IncreaseSpeed ramps the ball speed by the given factor.
	IncreaseSpeed(factor float64)

	// OnBallPaddleCollision registers the local hit callback, invoked
	// with the contact point.
	OnBallPaddleCollision(func(point Vec3))
	// OnBallTableCollision reports which half the ball touched.
	OnBallTableCollision(func(half TableHalf))

	// PredictCollisions resolves imminent net/table contacts that a
	// discrete step of the given delta would tunnel through.
	PredictCollisions(dt float64)
}

// Channel is the established peer-to-peer message transport. Sends are
// fire-and-forget; incoming messages are delivered through callbacks
// scheduled onto the loop.
type Channel interface {
	SendMove(pos, rot Vec3)
	SendHit(point, velocity Vec3)
	SendMiss(pos, velocity Vec3, fault, isInit bool)
	SendRestartGame()
	SendRequestCountdown()

	// Latency is the smoothed round-trip estimate in milliseconds.
	Latency() float64
	// IsHost breaks symmetry: the host assigns colors, the non-host
	// sends the initial serve.
	IsHost() bool
}

// Entity is the narrow visual-object surface the runtime drives.
type Entity interface {
	SetPosition(Vec3)
	SetRotation(Vec3)
	SetQuaternion(Quat)
	SetVisible(bool)
}

// Renderer owns the scene graph. The runtime never reaches past these
// handles.
type Renderer interface {
	BallEntity() Entity
	PaddleEntity() Entity
	OpponentPaddleEntity() Entity
	// UpdateEffects advances trailing-path geometry and other per-frame
	// cosmetics.
	UpdateEffects(dt float64)
	// DegradeQuality lowers shadow resolution and pixel density. Called
	// at most once per session.
	DegradeQuality()
}

// HUD receives score and status updates.
type HUD interface {
	SetScore(self, opponent int)
	SetLives(lives int)
	ShowMessage(msg string)
}

// Sound plays fire-and-forget UI and gameplay cues.
type Sound interface {
	PlayUI(name string)
}
