package game

// Score is the match bookkeeping owned by the state machine. Self and
// Opponent count points in multiplayer; Lives and Highest drive the
// singleplayer survival rules.
type Score struct {
	Self     int
	Opponent int
	Lives    int
	Highest  int
}

// Reset clears the per-match fields. Highest survives as the session high
// score.
func (s *Score) Reset(startLives int) {
	if s.Self > s.Highest {
		s.Highest = s.Self
	}
	s.Self = 0
	s.Opponent = 0
	s.Lives = startLives
}

// BallState is a snapshot of the authoritative physics ball.
type BallState struct {
	Position        Vec3
	Velocity        Vec3
	AngularVelocity Vec3
	Quaternion      Quat
}

// CaptureBallState reads a snapshot from the given body.
func CaptureBallState(b Body) BallState {
	return BallState{
		Position:        b.Position(),
		Velocity:        b.Velocity(),
		AngularVelocity: b.AngularVelocity(),
		Quaternion:      b.Quaternion(),
	}
}
