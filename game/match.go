package game

import (
	"fmt"
	"time"

	"github.com/decred/slog"
)

// MatchState is the top-level game state.
type MatchState int

const (
	StateMenu MatchState = iota
	StateCountdown
	StatePlaying
	StateGameOver
)

func (s MatchState) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateCountdown:
		return "countdown"
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "gameover"
	}
	return "unknown"
}

const countdownStart = 3

// Match tracks game state, score and the two-sided restart/countdown
// handshakes. All mutation happens on the loop goroutine.
type Match struct {
	cfg     *MatchConfig
	log     slog.Logger
	sched   *Scheduler
	channel Channel
	hud     HUD
	sound   Sound

	state MatchState
	score Score

	playerRequestedRestart     bool
	opponentRequestedRestart   bool
	playerRequestedCountdown   bool
	opponentRequestedCountdown bool

	countdownTask  *Task
	serveTask      *Task
	countdownValue int

	// OnServe fires when play (re)starts and the ball must respawn.
	OnServe func()
	// OnGameOver fires exactly once per game end with the winning side.
	OnGameOver func(winner Side)
}

// NewMatch creates the state machine in the menu state. channel is nil in
// singleplayer.
func NewMatch(cfg *MatchConfig, log slog.Logger, sched *Scheduler, channel Channel, hud HUD, sound Sound) *Match {
	m := &Match{
		cfg:     cfg,
		log:     log,
		sched:   sched,
		channel: channel,
		hud:     hud,
		sound:   sound,
		state:   StateMenu,
	}
	m.score.Lives = cfg.StartLives
	return m
}

func (m *Match) State() MatchState { return m.state }
func (m *Match) Score() Score { return m.score }

// StartGame leaves the menu. Singleplayer counts down immediately;
// multiplayer waits for the two-sided countdown handshake.
func (m *Match) StartGame() error {
	if m.state != StateMenu {
		return fmt.Errorf("start game in state %v", m.state)
	}
	if m.cfg.Mode == ModeSingleplayer {
		m.startCountdown()
		return nil
	}
	return m.RequestCountdown()
}

// RequestCountdown records the local readiness signal and, in
// multiplayer, forwards it to the peer. The countdown starts only once
// both sides have requested it.
func (m *Match) RequestCountdown() error {
	if m.state != StateMenu {
		return fmt.Errorf("request countdown in state %v", m.state)
	}
	m.playerRequestedCountdown = true
	if m.channel != nil {
		m.channel.SendRequestCountdown()
	}
	m.maybeStartCountdown()
	return nil
}

// HandleOpponentCountdownRequest processes the peer's readiness signal.
func (m *Match) HandleOpponentCountdownRequest() {
	if m.state != StateMenu {
		return
	}
	m.opponentRequestedCountdown = true
	m.maybeStartCountdown()
}

func (m *Match) maybeStartCountdown() {
	if m.cfg.Mode == ModeMultiplayer {
		if !m.playerRequestedCountdown || !m.opponentRequestedCountdown {
			return
		}
	}
	m.playerRequestedCountdown = false
	m.opponentRequestedCountdown = false
	m.startCountdown()
}

func (m *Match) startCountdown() {
	m.state = StateCountdown
	m.countdownValue = countdownStart
	m.countdownTask.Stop()
	m.countdownTask = m.sched.Every(time.Second, m.countdownTick)
	m.hud.ShowMessage(fmt.Sprintf("%d", m.countdownValue))
	m.sound.PlayUI("transition")
}

func (m *Match) countdownTick() {
	m.countdownValue--
	if m.countdownValue > 0 {
		m.hud.ShowMessage(fmt.Sprintf("%d", m.countdownValue))
		return
	}
	m.countdownTask.Stop()
	m.countdownTask = nil
	m.hud.ShowMessage("")
	m.beginPlay()
}

func (m *Match) beginPlay() {
	m.state = StatePlaying
	m.log.Debugf("entering play, mode=%v", m.cfg.Mode)
	if m.OnServe != nil {
		m.OnServe()
	}
}

// AddReturnPoint scores a successful singleplayer return.
func (m *Match) AddReturnPoint() {
	if m.cfg.Mode != ModeSingleplayer || m.state != StatePlaying {
		return
	}
	m.score.Self++
	if m.score.Self > m.score.Highest {
		m.score.Highest = m.score.Self
	}
	m.hud.SetScore(m.score.Self, m.score.Opponent)
}

// BallLost handles a singleplayer round end: one life gone, game over
// when none remain.
func (m *Match) BallLost() {
	if m.cfg.Mode != ModeSingleplayer || m.state != StatePlaying {
		return
	}
	m.score.Lives--
	m.hud.SetLives(m.score.Lives)
	m.sound.PlayUI("miss")
	if m.score.Lives < 1 {
		m.gameOver(SideNone)
		return
	}
	m.scheduleServe()
}

// PointFor scores a multiplayer round for the given side and either ends
// the game or re-enters the countdown toward the next serve.
func (m *Match) PointFor(winner Side) {
	if m.cfg.Mode != ModeMultiplayer || m.state != StatePlaying {
		return
	}
	switch winner {
	case SideSelf:
		m.score.Self++
	case SideOpponent:
		m.score.Opponent++
	default:
		return
	}
	m.hud.SetScore(m.score.Self, m.score.Opponent)
	m.sound.PlayUI("point")
	if m.score.Self >= m.cfg.PointsForWin {
		m.gameOver(SideSelf)
		return
	}
	if m.score.Opponent >= m.cfg.PointsForWin {
		m.gameOver(SideOpponent)
		return
	}
	m.scheduleServe()
}

// scheduleServe re-enters the countdown sub-state and respawns the ball
// after the serve delay.
func (m *Match) scheduleServe() {
	m.state = StateCountdown
	m.serveTask.Stop()
	m.serveTask = m.sched.After(m.cfg.ServeDelay, m.beginPlay)
}

func (m *Match) gameOver(winner Side) {
	if m.state == StateGameOver {
		return
	}
	m.state = StateGameOver
	m.serveTask.Stop()
	m.serveTask = nil
	m.countdownTask.Stop()
	m.countdownTask = nil
	if m.score.Self > m.score.Highest {
		m.score.Highest = m.score.Self
	}
	m.log.Infof("game over, winner=%d score=%d:%d", winner, m.score.Self, m.score.Opponent)
	m.sound.PlayUI("gameover")
	m.hud.ShowMessage("game over")
	if m.OnGameOver != nil {
		m.OnGameOver(winner)
	}
}

// RequestRestart asks for a rematch. Singleplayer restarts
// unconditionally; multiplayer is a no-op until both sides have
// requested it.
func (m *Match) RequestRestart() {
	if m.state != StateGameOver {
		return
	}
	if m.cfg.Mode == ModeSingleplayer {
		m.restartGame()
		return
	}
	m.playerRequestedRestart = true
	if m.channel != nil {
		m.channel.SendRestartGame()
	}
	m.maybeRestart()
}

// HandleOpponentRestartRequest processes the peer's rematch request.
func (m *Match) HandleOpponentRestartRequest() {
	if m.state != StateGameOver {
		return
	}
	m.opponentRequestedRestart = true
	m.maybeRestart()
}

func (m *Match) maybeRestart() {
	if !m.playerRequestedRestart || !m.opponentRequestedRestart {
		return
	}
	m.restartGame()
}

func (m *Match) restartGame() {
	m.playerRequestedRestart = false
	m.opponentRequestedRestart = false
	m.score.Reset(m.cfg.StartLives)
	m.hud.SetScore(0, 0)
	m.hud.SetLives(m.score.Lives)
	m.startCountdown()
}
