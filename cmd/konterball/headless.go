package main

import (
	"github.com/decred/slog"

	"github.com/RafasTavares/konterball/game"
)

// headless collaborators so the runtime can run without a browser scene
// attached.

type poseEntity struct {
	pos     game.Vec3
	rot     game.Vec3
	quat    game.Quat
	visible bool
}

func (e *poseEntity) SetPosition(p game.Vec3) { e.pos = p }
func (e *poseEntity) SetRotation(r game.Vec3) { e.rot = r }
func (e *poseEntity) SetQuaternion(q game.Quat) { e.quat = q }
func (e *poseEntity) SetVisible(v bool) { e.visible = v }

type headlessRenderer struct {
	ball, paddle, opponent poseEntity
	degraded               bool
}

func newHeadlessRenderer() *headlessRenderer {
	return &headlessRenderer{}
}

func (r *headlessRenderer) BallEntity() game.Entity { return &r.ball }
func (r *headlessRenderer) PaddleEntity() game.Entity { return &r.paddle }
func (r *headlessRenderer) OpponentPaddleEntity() game.Entity { return &r.opponent }
func (r *headlessRenderer) UpdateEffects(float64) {}
func (r *headlessRenderer) DegradeQuality() { r.degraded = true }

type logHUD struct {
	log slog.Logger
}

func (h *logHUD) SetScore(self, opponent int) {
	h.log.Infof("score %d:%d", self, opponent)
}

func (h *logHUD) SetLives(lives int) {
	h.log.Infof("lives %d", lives)
}

func (h *logHUD) ShowMessage(msg string) {
	if msg != "" {
		h.log.Infof("hud: %s", msg)
	}
}

type logSound struct {
	log slog.Logger
}

func (s *logSound) PlayUI(name string) {
	s.log.Debugf("play %s", name)
}
