package wire

import "strings"

// Class is advisory metadata describing what a frame is about.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassBidPhase
	ClassCardPlayed
	ClassTrickBoundary
	ClassRoundResult
	ClassStateSnapshot
	ClassConnection
	ClassChat
	ClassInternal
)

func (c Class) String() string {
	switch c {
	case ClassBidPhase:
		return "bid_phase"
	case ClassCardPlayed:
		return "card_played"
	case ClassTrickBoundary:
		return "trick_boundary"
	case ClassRoundResult:
		return "round_result"
	case ClassStateSnapshot:
		return "state_snapshot"
	case ClassConnection:
		return "connection"
	case ClassChat:
		return "chat"
	case ClassInternal:
		return "internal"
	}
	return "unknown"
}

// keywords is checked in order; the first substring match wins, so the more
// specific words come first.
var keywords = []struct {
	word  string
	class Class
}{
	{"trick_end", ClassTrickBoundary},
	{"trick", ClassTrickBoundary},
	{"round_result", ClassRoundResult},
	{"round_end", ClassRoundResult},
	{"result", ClassRoundResult},
	{"score", ClassRoundResult},
	{"play_card", ClassCardPlayed},
	{"card", ClassCardPlayed},
	{"bid", ClassBidPhase},
	{"pass", ClassBidPhase},
	{"hokum", ClassBidPhase},
	{"sun", ClassBidPhase},
	{"double", ClassBidPhase},
	{"ashkal", ClassBidPhase},
	{"gahwa", ClassBidPhase},
	{"redeal", ClassBidPhase},
	{"game_state", ClassStateSnapshot},
	{"sync", ClassStateSnapshot},
	{"state", ClassStateSnapshot},
	{"deal", ClassStateSnapshot},
	{"login", ClassConnection},
	{"handshake", ClassConnection},
	{"join", ClassConnection},
	{"disconnect", ClassConnection},
	{"reconnect", ClassConnection},
	{"chat", ClassChat},
	{"msg", ClassChat},
	{"ping", ClassInternal},
	{"keep_alive", ClassInternal},
	{"internal", ClassInternal},
}

// Classify maps a cmd/last_action string onto a Class.
func Classify(cmd string) Class {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if cmd == "" {
		return ClassUnknown
	}
	for _, k := range keywords {
		if strings.Contains(cmd, k.word) {
			return k.class
		}
	}
	return ClassUnknown
}
