package game

import "math"

// InputSource produces one paddle target position per frame. prev is the
// previous ghost position, used by incremental sources. ok is false when
// the source has nothing this frame (missing viewport or ray references
// are silent no-ops).
type InputSource interface {
	TargetPosition(prev Vec3) (Vec3, bool)
}

// intersectPlaneY casts a ray onto the horizontal plane y = planeY.
func intersectPlaneY(origin, dir Vec3, planeY float64) (Vec3, bool) {
	if math.Abs(dir.Y) < 1e-9 {
		return Vec3{}, false
	}
	t := (planeY - origin.Y) / dir.Y
	if t <= 0 {
		return Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}

// PointerLockSource integrates raw mouse-movement deltas into an
// incremental offset from the previous paddle position, giving
// infinite-range dragging while the pointer is locked.
type PointerLockSource struct {
	Sensitivity float64

	dx, dy float64
}

func NewPointerLockSource() *PointerLockSource {
	return &PointerLockSource{Sensitivity: 0.005}
}

// AddDelta accumulates a movement event since the last frame.
func (s *PointerLockSource) AddDelta(dx, dy float64) {
	s.dx += dx
	s.dy += dy
}

func (s *PointerLockSource) TargetPosition(prev Vec3) (Vec3, bool) {
	if s.dx == 0 && s.dy == 0 {
		return prev, true
	}
	target := Vec3{
		X: prev.X + s.dx*s.Sensitivity,
		Y: prev.Y,
		Z: prev.Z + s.dy*s.Sensitivity,
	}
	s.dx, s.dy = 0, 0
	return target, true
}

// PointerSource maps normalized viewport-relative mouse coordinates
// directly onto the table area (bounded, absolute positioning for the
// unlocked pointer).
type PointerSource struct {
	cfg *MatchConfig

	hasPointer bool
	nx, ny     float64
}

func NewPointerSource(cfg *MatchConfig) *PointerSource {
	return &PointerSource{cfg: cfg}
}

// SetPointer records the pointer position normalized to [0, 1] in both
// axes.
func (s *PointerSource) SetPointer(nx, ny float64) {
	s.nx, s.ny = nx, ny
	s.hasPointer = true
}

func (s *PointerSource) TargetPosition(prev Vec3) (Vec3, bool) {
	if !s.hasPointer {
		return prev, false
	}
	return Vec3{
		X: (s.nx*2 - 1) * s.cfg.TableWidth,
		Y: prev.Y,
		Z: s.ny * (s.cfg.TablePositionZ + 0.5),
	}, true
}

// ControllerSource ray-casts the tracked VR controller's forward vector
// onto the invisible paddle plane.
type ControllerSource struct {
	cfg *MatchConfig

	hasRay      bool
	origin, dir Vec3
}

func NewControllerSource(cfg *MatchConfig) *ControllerSource {
	return &ControllerSource{cfg: cfg}
}

// SetRay records the controller pose for this frame.
func (s *ControllerSource) SetRay(origin, dir Vec3) {
	s.origin, s.dir = origin, dir
	s.hasRay = true
}

func (s *ControllerSource) TargetPosition(prev Vec3) (Vec3, bool) {
	if !s.hasRay {
		return prev, false
	}
	return intersectPlaneY(s.origin, s.dir, s.cfg.PaddlePlaneY)
}

// Gaze offsets push the neutral gaze down onto the paddle plane; the
// simple viewer gets a larger offset than a headset.
const (
	gazeOffsetVR     = 0.2
	gazeOffsetViewer = 0.3
)

// GazeSource is the cardboard fallback: no tracked controller, so the
// paddle follows a fixed downward-offset gaze ray. X is widened to cover
// the full table given the narrower effective gaze cone.
type GazeSource struct {
	cfg *MatchConfig

	// Viewer selects the simple-viewer offset instead of the headset one.
	Viewer bool

	hasRay      bool
	origin, dir Vec3
}

func NewGazeSource(cfg *MatchConfig, viewer bool) *GazeSource {
	return &GazeSource{cfg: cfg, Viewer: viewer}
}

// SetRay records the head pose for this frame.
func (s *GazeSource) SetRay(origin, dir Vec3) {
	s.origin, s.dir = origin, dir
	s.hasRay = true
}

func (s *GazeSource) TargetPosition(prev Vec3) (Vec3, bool) {
	if !s.hasRay {
		return prev, false
	}
	dir := s.dir
	if s.Viewer {
		dir.Y -= gazeOffsetViewer
	} else {
		dir.Y -= gazeOffsetVR
	}
	p, ok := intersectPlaneY(s.origin, dir, s.cfg.PaddlePlaneY)
	if !ok {
		return prev, false
	}
	p.X *= s.cfg.GazeXScale
	return p, true
}
