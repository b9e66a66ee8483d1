package network

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/RafasTavares/konterball/game"
)

const (
	pingInterval = 2 * time.Second
	// rttSmoothing is the weight of a new sample in the running estimate.
	rttSmoothing = 0.2
)

// WSChannel is the peer-to-peer message transport over a single websocket
// connection. Sends are fire-and-forget; received messages are decoded,
// seq-filtered and handed to the On* callbacks through the post function
// so they run on the loop, never concurrently with a tick.
type WSChannel struct {
	log    slog.Logger
	conn   *websocket.Conn
	isHost bool
	post   func(func())

	writeMu sync.Mutex
	seq     atomic.Uint32
	filter  *seqFilter

	// latencyBits holds the smoothed round-trip estimate in ms as
	// math.Float64bits.
	latencyBits atomic.Uint64

	srv       *http.Server
	closeOnce sync.Once
	done      chan struct{}

	OnMove             func(pos, rot game.Vec3)
	OnHit              func(point, velocity game.Vec3)
	OnMiss             func(pos, velocity game.Vec3, fault, isInit bool)
	OnRestartGame      func()
	OnRequestCountdown func()
}

var _ game.Channel = (*WSChannel)(nil)

func newChannel(conn *websocket.Conn, isHost bool, log slog.Logger, post func(func())) *WSChannel {
	if post == nil {
		post = func(f func()) { f() }
	}
	return &WSChannel{
		log:    log,
		conn:   conn,
		isHost: isHost,
		post:   post,
		filter: newSeqFilter(),
		done:   make(chan struct{}),
	}
}

// Host listens on addr and blocks until one peer connects. The returned
// channel has the host role.
func Host(ctx context.Context, addr string, log slog.Logger, post func(func())) (*WSChannel, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return HostListener(ctx, ln, log, post)
}

// HostListener serves the upgrade endpoint on an existing listener and
// blocks until one peer connects. The listener is owned by the returned
// channel and closed with it.
func HostListener(ctx context.Context, ln net.Listener, log slog.Logger, post func(func())) (*WSChannel, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	connCh := make(chan *websocket.Conn, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("upgrade failed: %v", err)
			return
		}
		select {
		case connCh <- conn:
		default:
			// Already paired with a peer.
			conn.Close()
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("listener failed: %v", err)
		}
	}()
	log.Infof("waiting for peer on ws://%s/ws", ln.Addr())

	select {
	case <-ctx.Done():
		srv.Close()
		return nil, ctx.Err()
	case conn := <-connCh:
		ch := newChannel(conn, true, log, post)
		ch.srv = srv
		log.Infof("peer connected from %s", conn.RemoteAddr())
		return ch, nil
	}
}

// Dial connects to a hosting peer at url (ws://host:port/ws). The
// returned channel has the non-host role.
func Dial(ctx context.Context, url string, log slog.Logger, post func(func())) (*WSChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	log.Infof("connected to host at %s", url)
	return newChannel(conn, false, log, post), nil
}

// IsHost reports the symmetry-breaking role: the host assigns colors, the
// non-host sends the initial serve.
func (c *WSChannel) IsHost() bool { return c.isHost }

// Latency is the smoothed round-trip estimate in milliseconds.
func (c *WSChannel) Latency() float64 {
	return math.Float64frombits(c.latencyBits.Load())
}

// Run pumps incoming messages and drives the latency probe until ctx is
// done or the connection fails.
func (c *WSChannel) Run(ctx context.Context) error {
	go c.pingLoop(ctx)
	defer c.Close()
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		c.dispatch(&env)
	}
}

func (c *WSChannel) dispatch(env *Envelope) {
	if !c.filter.accept(env) {
		c.log.Debugf("dropping stale %v seq=%d", env.Type, env.Seq)
		return
	}
	switch env.Type {
	case TypeMove:
		if env.Move != nil && c.OnMove != nil {
			move := *env.Move
			c.post(func() { c.OnMove(vec(move.Position), vec(move.Rotation)) })
		}
	case TypeHit:
		if env.Hit != nil && c.OnHit != nil {
			hit := *env.Hit
			c.post(func() { c.OnHit(vec(hit.Point), vec(hit.Velocity)) })
		}
	case TypeMiss:
		if env.Miss != nil && c.OnMiss != nil {
			miss := *env.Miss
			c.post(func() {
				c.OnMiss(vec(miss.Position), vec(miss.Velocity), miss.Fault, miss.IsInit)
			})
		}
	case TypeRestartGame:
		if c.OnRestartGame != nil {
			c.post(c.OnRestartGame)
		}
	case TypeRequestCountdown:
		if c.OnRequestCountdown != nil {
			c.post(c.OnRequestCountdown)
		}
	case TypePing:
		if env.Ping != nil {
			c.send(&Envelope{Type: TypePong, Ping: env.Ping})
		}
	case TypePong:
		if env.Ping != nil {
			c.recordRTT(time.Since(time.Unix(0, env.Ping.SentAt)))
		}
	default:
		c.log.Warnf("unknown message type %d", env.Type)
	}
}

func (c *WSChannel) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.send(&Envelope{Type: TypePing, Ping: &PingMessage{SentAt: time.Now().UnixNano()}})
		}
	}
}

func (c *WSChannel) recordRTT(rtt time.Duration) {
	sample := float64(rtt) / float64(time.Millisecond)
	prev := c.Latency()
	if prev == 0 {
		prev = sample
	}
	smoothed := prev*(1-rttSmoothing) + sample*rttSmoothing
	c.latencyBits.Store(math.Float64bits(smoothed))
}

// send serializes writes on the shared connection. Errors are logged and
// dropped; message loss is the channel's declared failure mode.
func (c *WSChannel) send(env *Envelope) {
	env.Seq = c.seq.Add(1)
	c.writeMu.Lock()
	err := c.conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Debugf("send %v failed: %v", env.Type, err)
	}
}

func (c *WSChannel) SendMove(pos, rot game.Vec3) {
	c.send(&Envelope{Type: TypeMove, Move: &MoveMessage{Position: arr(pos), Rotation: arr(rot)}})
}

func (c *WSChannel) SendHit(point, velocity game.Vec3) {
	c.send(&Envelope{Type: TypeHit, Hit: &HitMessage{Point: arr(point), Velocity: arr(velocity)}})
}

func (c *WSChannel) SendMiss(pos, velocity game.Vec3, fault, isInit bool) {
	c.send(&Envelope{Type: TypeMiss, Miss: &MissMessage{
		Position: arr(pos),
		Velocity: arr(velocity),
		Fault:    fault,
		IsInit:   isInit,
	}})
}

func (c *WSChannel) SendRestartGame() {
	c.send(&Envelope{Type: TypeRestartGame})
}

func (c *WSChannel) SendRequestCountdown() {
	c.send(&Envelope{Type: TypeRequestCountdown})
}

// Close tears down the connection and, on the host side, the listener.
func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
		if c.srv != nil {
			c.srv.Close()
		}
	})
	return err
}

func vec(a [3]float64) game.Vec3 {
	return game.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func arr(v game.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
