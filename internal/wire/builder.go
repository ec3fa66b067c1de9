package wire

import (
	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
)

// Payload builders. They produce the p.p objects ToEvents understands and
// are the inverse of its field mapping; captures and fixtures are written
// with them.

// UsersPayload binds names to 1-indexed seats, in seat order.
func UsersPayload(names [engine.MaxPlayers]string) *Object {
	users := make(Array, 0, len(names))
	for i, n := range names {
		users = append(users, NewObject().Set("n", n).Set("s", int8(i+1)))
	}
	return NewObject().Set("cmd", "game_state").Set(keyUsers, users)
}

// RoundPayload opens a round with dealer and the observer's hand.
func RoundPayload(dealer engine.Seat, hand []engine.Card) *Object {
	return NewObject().
		Set("cmd", "deal").
		Set(keyRound, NewObject().Set("dealer", int8(dealer.OneBased()))).
		Set(keyHand, int64(engine.EncodeBitmaskHand(hand)))
}

// BidPayload encodes one bid action.
func BidPayload(b event.Bid) *Object {
	obj := NewObject().Set("s", int8(b.Seat.OneBased())).Set("a", int8(b.Action))
	if b.HasTrump {
		obj.Set("t", int8(SuitToWireTrump(b.Trump)))
	}
	if b.Variant == engine.VariantClosed {
		obj.Set("v", int8(1))
	}
	return NewObject().Set("cmd", "bid_"+b.Action.String()).Set(keyBid, obj)
}

// DeclarePayload encodes a declaration.
func DeclarePayload(d event.Declared) *Object {
	idx := make([]int32, len(d.Cards))
	for i, c := range d.Cards {
		idx[i] = int32(engine.CardToIndex(c))
	}
	return NewObject().Set("cmd", "declare").Set(keyDeclare,
		NewObject().Set("s", int8(d.Seat.OneBased())).Set("d", int8(d.Kind)).Set("cards", idx))
}

// PlayPayload encodes one card played and, optionally, the next turn.
func PlayPayload(seat engine.Seat, c engine.Card, next engine.Seat) *Object {
	obj := NewObject().Set("cmd", "play_card").Set(keyPlay,
		NewObject().Set("s", int8(seat.OneBased())).Set("c", int8(engine.CardToIndex(c))))
	if next.Valid() {
		obj.Set(keyTurn, int8(next.OneBased()))
	}
	return obj
}

// TrickPayload reports a trick winner.
func TrickPayload(winner engine.Seat) *Object {
	return NewObject().Set("cmd", "trick_end").Set(keyWinner, int8(winner.OneBased()))
}

// ResultPayload encodes a round result.
func ResultPayload(r event.Result) *Object {
	m := r.Multiplier
	if m == 0 {
		m = engine.MultNone
	}
	res := NewObject().
		Set("a1", int16(r.Team1Abnat)).Set("a2", int16(r.Team2Abnat)).
		Set("g1", int16(r.Team1Points)).Set("g2", int16(r.Team2Points)).
		Set("c1", int16(r.Team1Cumulative)).Set("c2", int16(r.Team2Cumulative)).
		Set("kb", r.Kaboot).
		Set("m", int8(m))
	if r.BidderTeam == engine.Team1 || r.BidderTeam == engine.Team2 {
		res.Set("bt", int8(r.BidderTeam+1))
	}
	if len(r.Declarations) > 0 {
		dl := make(Array, len(r.Declarations))
		for i, d := range r.Declarations {
			dl[i] = NewObject().Set("t", int8(d.Team+1)).Set("d", int8(d.Kind))
		}
		res.Set("dl", dl)
	}
	return NewObject().Set("cmd", "round_result").Set(keyResult, res)
}

// ChatPayload encodes a chat line.
func ChatPayload(seat engine.Seat, text string) *Object {
	return NewObject().Set("cmd", "chat").Set(keyChat, NewObject().Set("s", int8(seat.OneBased())).Set("t", text))
}

// ConnectionPayload encodes a disconnect or reconnect.
func ConnectionPayload(seat engine.Seat, connected bool) *Object {
	cmd := "disconnect"
	if connected {
		cmd = "reconnect"
	}
	return NewObject().Set("cmd", cmd).Set(keyConn, NewObject().Set("s", int8(seat.OneBased())).Set("on", connected))
}

// LoginFrame builds a control frame (no p.p) carrying the user list at p.
func LoginFrame(names [engine.MaxPlayers]string) *Object {
	p := UsersPayload(names)
	p.Set("cmd", "login")
	return NewObject().Set("c", int8(0)).Set("a", int16(1)).Set("p", p)
}

// TurnPayload names the seat the table is waiting for.
func TurnPayload(seat engine.Seat) *Object {
	return NewObject().Set("cmd", "turn").Set(keyTurn, int8(seat.OneBased()))
}

// ForfeitPayload records team conceding the round.
func ForfeitPayload(team engine.Team) *Object {
	return NewObject().Set("cmd", "forfeit").Set(keyForfeit, int8(team+1))
}

// RedealPayload closes a round nobody bid on.
func RedealPayload() *Object {
	return NewObject().Set("cmd", "redeal").Set(keyRedeal, true)
}

// Payloads renders a canonical event stream as the sequence of payloads a
// capture taken from observer's seat would contain. Other seats' hands are
// never sent to a client and are dropped, as are Abandoned markers, which
// have no wire form.
func Payloads(evs []event.Event, observer engine.Seat) []*Object {
	var (
		out     []*Object
		names   [engine.MaxPlayers]string
		named   bool
		dealer  = engine.NoSeat
		opening bool
	)
	flushUsers := func() {
		if named {
			out = append(out, UsersPayload(names))
			named = false
		}
	}
	flushRound := func(hand []engine.Card) {
		if !opening {
			return
		}
		opening = false
		if hand != nil {
			out = append(out, RoundPayload(dealer, hand))
			return
		}
		nr := NewObject()
		if dealer.Valid() {
			nr.Set("dealer", int8(dealer.OneBased()))
		}
		out = append(out, NewObject().Set("cmd", "deal").Set(keyRound, nr))
	}

	for _, ev := range evs {
		if id, ok := ev.(event.Identity); ok {
			if id.Seat.Valid() {
				names[id.Seat] = id.Name
				named = true
			}
			continue
		}
		flushUsers()
		if h, ok := ev.(event.HandDealt); ok {
			if h.Observer || h.Seat == observer {
				flushRound(h.Cards)
			}
			continue
		}
		if rs, ok := ev.(event.RoundStart); ok {
			flushRound(nil)
			dealer, opening = rs.Dealer, true
			continue
		}
		flushRound(nil)

		switch e := ev.(type) {
		case event.Bid:
			out = append(out, BidPayload(e))
		case event.Declared:
			out = append(out, DeclarePayload(e))
		case event.CardPlayed:
			out = append(out, PlayPayload(e.Seat, e.Card, engine.NoSeat))
		case event.TrickBoundary:
			out = append(out, TrickPayload(e.Winner))
		case event.Turn:
			out = append(out, TurnPayload(e.Seat))
		case event.Forfeit:
			out = append(out, ForfeitPayload(e.Team))
		case event.Chat:
			out = append(out, ChatPayload(e.Seat, e.Text))
		case event.Connection:
			out = append(out, ConnectionPayload(e.Seat, e.Connected))
		case event.RoundResult:
			out = append(out, ResultPayload(e.Result))
		case event.Redeal:
			out = append(out, RedealPayload())
		}
	}
	flushUsers()
	flushRound(nil)
	return out
}
