package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RafasTavares/konterball/game"
	"github.com/RafasTavares/konterball/network"
	"github.com/RafasTavares/konterball/physics"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "konterball: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		modeFlag = flag.String("mode", "single", "game mode: single or multi")
		listen   = flag.String("listen", "", "host a multiplayer match on this address")
		connect  = flag.String("connect", "", "join a multiplayer match at this ws:// url")
		points   = flag.Int("points", 0, "override points to win")
		lives    = flag.Int("lives", 0, "override singleplayer start lives")
		debug    = flag.String("debug", "info", "log level")
	)
	flag.Parse()

	backend := slog.NewBackend(os.Stdout)
	level, _ := slog.LevelFromString(*debug)
	newLogger := func(subsys string) slog.Logger {
		l := backend.Logger(subsys)
		l.SetLevel(level)
		return l
	}
	log := newLogger("KNTR")

	mode := game.ModeSingleplayer
	if *modeFlag == "multi" {
		mode = game.ModeMultiplayer
	}
	if mode == game.ModeMultiplayer && *listen == "" && *connect == "" {
		return fmt.Errorf("multiplayer needs -listen or -connect")
	}

	cfg := game.DefaultConfig(mode)
	if *points > 0 {
		cfg.PointsForWin = *points
	}
	if *lives > 0 {
		cfg.StartLives = *lives
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("session %s starting, mode=%v", uuid.New(), mode)

	sched := game.NewScheduler()

	var ws *network.WSChannel
	var channel game.Channel
	if mode == game.ModeMultiplayer {
		var err error
		if *listen != "" {
			ws, err = network.Host(ctx, *listen, newLogger("NET"), sched.Post)
		} else {
			ws, err = network.Dial(ctx, *connect, newLogger("NET"), sched.Post)
		}
		if err != nil {
			return fmt.Errorf("channel setup: %w", err)
		}
		channel = ws
		if !ws.IsHost() {
			// The host picks the palette; the joiner takes the
			// complementary one.
			cfg.TableColor, cfg.ClearColor = cfg.ClearColor, cfg.TableColor
		}
	}

	world := physics.NewWorld(cfg, newLogger("PHYS"))
	renderer := newHeadlessRenderer()
	hud := &logHUD{log: log}
	sound := &logSound{log: newLogger("SND")}

	input := game.NewPointerSource(cfg)
	input.SetPointer(0.5, 0.9)
	paddle := game.NewPaddleController(cfg, input)

	match := game.NewMatch(cfg, newLogger("MTCH"), sched, channel, hud, sound)
	syncr := game.NewBallSynchronizer(cfg, newLogger("SYNC"), world, channel, sched, match, paddle, sound)
	match.OnServe = syncr.Serve
	match.OnGameOver = func(winner game.Side) {
		log.Infof("match over, winner=%d", winner)
	}

	loop := game.NewLoop(cfg, newLogger("LOOP"), sched, world, match, syncr, paddle, renderer, channel)

	if ws != nil {
		ws.OnMove = loop.HandleRemoteMove
		ws.OnHit = syncr.HandleRemoteHit
		ws.OnMiss = syncr.HandleRemoteMiss
		ws.OnRestartGame = match.HandleOpponentRestartRequest
		ws.OnRequestCountdown = match.HandleOpponentCountdownRequest
	}

	g, ctx := errgroup.WithContext(ctx)
	if ws != nil {
		g.Go(func() error { return ws.Run(ctx) })
	}
	g.Go(func() error { return loop.Run(ctx) })

	sched.Post(func() {
		if err := match.StartGame(); err != nil {
			log.Errorf("start game: %v", err)
		}
	})

	return g.Wait()
}
