package game

import "time"

// GameMode selects table geometry, scoring rules and timeout durations.
type GameMode int

const (
	ModeSingleplayer GameMode = iota
	ModeMultiplayer
)

func (m GameMode) String() string {
	if m == ModeMultiplayer {
		return "multiplayer"
	}
	return "singleplayer"
}

// MatchConfig holds the per-match tunables. It is immutable for the
// lifetime of a match and replaced wholesale on a mode switch.
type MatchConfig struct {
	Mode GameMode

	// Table geometry. The net sits on the plane z = TablePositionZ; the
	// local player stands on the positive-z side.
	TableWidth     float64
	TableDepth     float64
	TableHeight    float64
	TablePositionZ float64
	NetHeight      float64

	// Paddle plane height used for controller/gaze raycasts.
	PaddlePlaneY float64

	// Scoring.
	PointsForWin int
	StartLives   int

	// Host-assigned colors, 0xRRGGBB.
	TableColor uint32
	ClearColor uint32

	// ResetTimeout is the watchdog window after which an unreturned ball
	// ends the round. Multiplayer gets a longer window for the longer
	// travel distance.
	ResetTimeout time.Duration

	// ServeDelay is the pause between a point and the next serve.
	ServeDelay time.Duration

	// InterpolationWindow is how long the visual ball blends from the
	// locally predicted position to a peer-reported one.
	InterpolationWindow time.Duration

	// HitAnimationDuration is the full out-and-back paddle swing.
	HitAnimationDuration time.Duration

	// MoveSendStride sends the paddle pose every Nth frame.
	MoveSendStride uint64

	// PhysicsTimeStep is the base divisor applied to the frame delta
	// before stepping the physics world.
	PhysicsTimeStep float64

	// MaxFrameDelta clamps the per-tick elapsed time so physics does not
	// explode after tab backgrounding.
	MaxFrameDelta time.Duration

	// GazeXScale widens the effective gaze cone to cover the table.
	GazeXScale float64

	// SpeedIncrease is the difficulty ramp applied on each remote hit.
	SpeedIncrease float64

	// Frame-rate degradation thresholds.
	DegradeFPS    float64
	DegradeWindow int
	WarmupFrames  int

	FrameInterval time.Duration
}

// DefaultConfig returns the tunables for the given mode.
func DefaultConfig(mode GameMode) *MatchConfig {
	cfg := &MatchConfig{
		Mode:                 mode,
		TableWidth:           1.52,
		TableDepth:           2.74,
		TableHeight:          0.76,
		TablePositionZ:       2,
		NetHeight:            0.15,
		PaddlePlaneY:         1,
		PointsForWin:         11,
		StartLives:           3,
		TableColor:           0x325D79,
		ClearColor:           0x50A9B1,
		ResetTimeout:         1500 * time.Millisecond,
		ServeDelay:           time.Second,
		InterpolationWindow:  500 * time.Millisecond,
		HitAnimationDuration: 450 * time.Millisecond,
		MoveSendStride:       5,
		PhysicsTimeStep:      1,
		MaxFrameDelta:        50 * time.Millisecond,
		GazeXScale:           1.5,
		SpeedIncrease:        0.05,
		DegradeFPS:           45,
		DegradeWindow:        60,
		WarmupFrames:         120,
		FrameInterval:        16 * time.Millisecond,
	}
	if mode == ModeMultiplayer {
		// Longer travel distance before the ball reaches the far paddle.
		cfg.ResetTimeout = 3000 * time.Millisecond
	}
	return cfg
}
