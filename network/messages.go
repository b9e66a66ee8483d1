package network

import "fmt"

// MessageType identifies the payload carried by an envelope.
type MessageType uint8

const (
	TypeMove MessageType = iota + 1
	TypeHit
	TypeMiss
	TypeRestartGame
	TypeRequestCountdown
	TypePing
	TypePong
)

func (t MessageType) String() string {
	switch t {
	case TypeMove:
		return "move"
	case TypeHit:
		return "hit"
	case TypeMiss:
		return "miss"
	case TypeRestartGame:
		return "restartGame"
	case TypeRequestCountdown:
		return "requestCountdown"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Envelope is the wire frame. Seq is monotonic per sender; receivers keep
// the highest seq seen per message type and drop anything stale, so a
// reordered hit or miss never regresses state (last-write-wins).
type Envelope struct {
	Type MessageType `json:"type"`
	Seq  uint32      `json:"seq"`

	Move *MoveMessage `json:"move,omitempty"`
	Hit  *HitMessage  `json:"hit,omitempty"`
	Miss *MissMessage `json:"miss,omitempty"`
	Ping *PingMessage `json:"ping,omitempty"`
}

// MoveMessage is the opponent paddle pose, sent at most every Nth local
// frame.
type MoveMessage struct {
	Position [3]float64 `json:"pos"`
	Rotation [3]float64 `json:"rot"`
}

// HitMessage reports a local return: contact point and resulting ball
// velocity, in the sender's frame.
type HitMessage struct {
	Point    [3]float64 `json:"point"`
	Velocity [3]float64 `json:"vel"`
}

// MissMessage ends a round with the authoritative respawn state. Fault is
// true when the sender lost the round. IsInit marks the very first serve,
// which scores nothing.
type MissMessage struct {
	Position [3]float64 `json:"pos"`
	Velocity [3]float64 `json:"vel"`
	Fault    bool       `json:"fault"`
	IsInit   bool       `json:"isInit"`
}

// PingMessage carries the sender's send time in unix nanoseconds; it is
// echoed back in a pong for the round-trip estimate.
type PingMessage struct {
	SentAt int64 `json:"sentAt"`
}

// seqFilter implements the per-type last-write-wins ordering policy.
type seqFilter struct {
	last map[MessageType]uint32
}

func newSeqFilter() *seqFilter {
	return &seqFilter{last: make(map[MessageType]uint32)}
}

// accept reports whether the envelope is newer than everything seen for
// its type. Pings and pongs are never filtered.
func (f *seqFilter) accept(env *Envelope) bool {
	if env.Type == TypePing || env.Type == TypePong {
		return true
	}
	if prev, ok := f.last[env.Type]; ok && env.Seq <= prev {
		return false
	}
	f.last[env.Type] = env.Seq
	return true
}
