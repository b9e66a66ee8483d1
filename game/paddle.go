package game

import "math"

// opponentZLag keeps the shown opponent paddle slightly behind the true
// received z so the paddle never appears to pass through the ball.
const opponentZLag = 0.1

// opponentTweenSeconds is the fixed duration opponent poses are blended
// over to mask network jitter.
const opponentTweenSeconds = 0.12

// ClampToTable bounds a paddle target to the reachable play area.
func ClampToTable(cfg *MatchConfig, p Vec3) Vec3 {
	p.X = clamp(p.X, -cfg.TableWidth, cfg.TableWidth)
	p.Z = clamp(p.Z, 0, cfg.TablePositionZ+0.5)
	return p
}

// PaddleController converts the per-frame input target into a capped,
// physically plausible paddle pose, with a short hit-animation override.
type PaddleController struct {
	cfg   *MatchConfig
	input InputSource

	// ghost is the raw input-derived target, independent of any hit
	// animation. It anchors the swing interpolation.
	ghost    Vec3
	position Vec3
	rotation Vec3

	hitActive  bool
	hitElapsed float64
	hitPoint   Vec3

	opponentFrom      Vec3
	opponentFromRot   Vec3
	opponentTarget    Vec3
	opponentTargetRot Vec3
	opponentTween     float64
	opponentPos       Vec3
	opponentRot       Vec3
}

func NewPaddleController(cfg *MatchConfig, input InputSource) *PaddleController {
	start := Vec3{Y: cfg.PaddlePlaneY, Z: cfg.TablePositionZ + 0.5}
	far := MirrorPosition(start, cfg.TablePositionZ)
	return &PaddleController{
		cfg:            cfg,
		input:          input,
		ghost:          start,
		position:       start,
		opponentFrom:   far,
		opponentTarget: far,
		opponentPos:    far,
		opponentTween:  1,
	}
}

func (p *PaddleController) Position() Vec3 { return p.position }
func (p *PaddleController) Rotation() Vec3 { return p.rotation }
func (p *PaddleController) Ghost() Vec3 { return p.ghost }

func (p *PaddleController) OpponentPosition() Vec3 { return p.opponentPos }
func (p *PaddleController) OpponentRotation() Vec3 { return p.opponentRot }

// SetInput swaps the input source, e.g. on pointer lock changes or VR
// display activation.
func (p *PaddleController) SetInput(input InputSource) {
	p.input = input
}

// StartHitAnimation begins the out-and-back swing toward the contact
// point. A swing already in flight is not re-triggered.
func (p *PaddleController) StartHitAnimation(point Vec3) {
	if p.hitActive {
		return
	}
	p.hitActive = true
	p.hitElapsed = 0
	p.hitPoint = point
}

// HitAnimating reports whether a swing is in flight.
func (p *PaddleController) HitAnimating() bool { return p.hitActive }

// SetOpponentTarget starts a tween toward a newly received opponent pose,
// already translated into the local frame.
func (p *PaddleController) SetOpponentTarget(pos, rot Vec3) {
	pos.Z -= opponentZLag
	p.opponentFrom = p.opponentPos
	p.opponentFromRot = p.opponentRot
	p.opponentTarget = pos
	p.opponentTargetRot = rot
	p.opponentTween = 0
}

// Update samples the input and advances the hit animation and opponent
// tween by delta seconds.
func (p *PaddleController) Update(delta float64) {
	if target, ok := p.input.TargetPosition(p.ghost); ok {
		p.ghost = ClampToTable(p.cfg, target)
	}

	if p.hitActive {
		p.hitElapsed += delta
		t := p.hitElapsed / p.cfg.HitAnimationDuration.Seconds()
		if t >= 1 {
			p.hitActive = false
			p.position = p.ghost
		} else {
			// Out to the contact point and back, eased at both ends.
			amount := easeInOut(1 - math.Abs(2*t-1))
			p.position = Lerp(p.ghost, p.hitPoint, amount)
		}
	} else {
		p.position = p.ghost
	}
	p.rotation = paddleRotation(p.cfg, p.position)

	if p.opponentTween < 1 {
		p.opponentTween += delta / opponentTweenSeconds
		if p.opponentTween > 1 {
			p.opponentTween = 1
		}
		p.opponentPos = Lerp(p.opponentFrom, p.opponentTarget, p.opponentTween)
		p.opponentRot = Lerp(p.opponentFromRot, p.opponentTargetRot, p.opponentTween)
	}
}

// paddleRotation derives the pose purely from position: tilt toward the
// table center, yaw fixed at zero, capped at a quarter turn.
func paddleRotation(cfg *MatchConfig, pos Vec3) Vec3 {
	halfPi := math.Pi / 2
	tiltX := clamp((pos.Z-cfg.TablePositionZ)/cfg.TableDepth, -1, 1) * halfPi
	tiltZ := clamp(-pos.X/cfg.TableWidth, -1, 1) * halfPi
	return Vec3{X: tiltX, Y: 0, Z: tiltZ}
}

func easeInOut(t float64) float64 {
	t = clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}
