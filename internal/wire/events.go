package wire

import (
	"errors"
	"fmt"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
)

// Payload keys. Seats are 1-indexed absolute positions, cards are
// CardIndex values, trump uses the wire ordinals of WireTrumpToSuit.
//
//	users  ARRAY of {n: name, s: seat}      identity
//	nr     OBJECT {dealer}                  new round
//	mc     LONG bitmask                     the observer's hand
//	b      OBJECT {s, a, t, v}              bid action (a uses bid codes)
//	dc     OBJECT {s, d, cards}             declaration
//	pc     OBJECT {s, c}                    card played
//	tw     seat                             trick winner
//	ap     seat                             active player
//	ff     team (1/2)                       forfeit
//	rd     BOOL                             all-pass redeal
//	msg    OBJECT {s, t}                    chat
//	cn     OBJECT {s, on}                   connection change
//	res    OBJECT {a1,a2,g1,g2,c1,c2,kb,m,bt,dl}  round result
const (
	keyUsers   = "users"
	keyRound   = "nr"
	keyHand    = "mc"
	keyBid     = "b"
	keyDeclare = "dc"
	keyPlay    = "pc"
	keyWinner  = "tw"
	keyTurn    = "ap"
	keyForfeit = "ff"
	keyRedeal  = "rd"
	keyChat    = "msg"
	keyConn    = "cn"
	keyResult  = "res"
)

// wireTrump is the protocol's trump numbering (1-based): hearts, spades,
// diamonds, clubs. It differs from the codec's suit ordinals.
var wireTrump = [engine.NumSuits]engine.Suit{engine.Hearts, engine.Spades, engine.Diamonds, engine.Clubs}

// WireTrumpToSuit translates a wire trump ordinal into a codec suit.
func WireTrumpToSuit(n int) (engine.Suit, error) {
	if n < 1 || n > engine.NumSuits {
		return 0, fmt.Errorf("wire trump ordinal %d outside 1..%d", n, engine.NumSuits)
	}
	return wireTrump[n-1], nil
}

// SuitToWireTrump is the inverse of WireTrumpToSuit.
func SuitToWireTrump(s engine.Suit) int {
	for i, w := range wireTrump {
		if w == s {
			return i + 1
		}
	}
	return 0
}

// ToEvents converts a decoded frame into canonical events. Dispatch is by
// field presence; Frame.Class is never consulted. A malformed field fails
// the whole frame with a DecodeError so no partial event list escapes.
func ToEvents(f *Frame) ([]event.Event, error) {
	var out []event.Event
	for _, obj := range []*Object{f.Params(), f.Payload} {
		if obj == nil {
			continue
		}
		evs, err := identityEvents(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	p := f.Payload
	if p == nil {
		return out, nil
	}

	var conv converter
	if nr, ok := p.Object(keyRound); ok {
		dealer := engine.NoSeat
		if _, present := nr.Get("dealer"); present {
			dealer = conv.seat(nr, "dealer")
		}
		out = append(out, event.RoundStart{Dealer: dealer})
	}
	if mask, ok := p.Int(keyHand); ok {
		cards, err := engine.HandFromBitmask(uint64(mask))
		if err != nil {
			conv.fail(keyHand, err)
		}
		out = append(out, event.HandDealt{Seat: engine.NoSeat, Observer: true, Cards: cards})
	}
	if b, ok := p.Object(keyBid); ok {
		out = append(out, conv.bid(b))
	}
	if dc, ok := p.Object(keyDeclare); ok {
		out = append(out, conv.declared(dc))
	}
	if pc, ok := p.Object(keyPlay); ok {
		out = append(out, event.CardPlayed{Seat: conv.seat(pc, "s"), Card: conv.card(pc, "c")})
	}
	if p.Has(keyWinner) {
		out = append(out, event.TrickBoundary{Winner: conv.seat(p, keyWinner)})
	}
	if p.Has(keyTurn) {
		out = append(out, event.Turn{Seat: conv.seat(p, keyTurn)})
	}
	if p.Has(keyForfeit) {
		out = append(out, event.Forfeit{Team: conv.team(p, keyForfeit)})
	}
	if rd, ok := p.Bool(keyRedeal); ok && rd {
		out = append(out, event.Redeal{})
	}
	if m, ok := p.Object(keyChat); ok {
		text, _ := m.String("t")
		out = append(out, event.Chat{Seat: conv.seat(m, "s"), Text: text})
	}
	if c, ok := p.Object(keyConn); ok {
		on, _ := c.Bool("on")
		out = append(out, event.Connection{Seat: conv.seat(c, "s"), Connected: on})
	}
	if r, ok := p.Object(keyResult); ok {
		out = append(out, event.RoundResult{Result: conv.result(r)})
	}
	if conv.err != nil {
		return nil, conv.err
	}
	return out, nil
}

func identityEvents(obj *Object) ([]event.Event, error) {
	users, ok := obj.Array(keyUsers)
	if !ok {
		return nil, nil
	}
	var conv converter
	out := make([]event.Event, 0, len(users))
	for _, u := range users {
		uo, ok := u.(*Object)
		if !ok {
			return nil, &DecodeError{Frame: -1, Reason: "users entry is not an object"}
		}
		name, _ := uo.String("n")
		out = append(out, event.Identity{Name: name, Seat: conv.seat(uo, "s")})
	}
	return out, conv.err
}

// converter accumulates the first field error so the happy path reads
// straight through.
type converter struct {
	err error
}

func (c *converter) fail(key string, err error) {
	if c.err == nil {
		c.err = &DecodeError{Frame: -1, Reason: fmt.Sprintf("field %q", key), Err: err}
	}
}

func (c *converter) num(o *Object, key string) int {
	n, ok := o.Int(key)
	if !ok {
		c.fail(key, fmt.Errorf("missing or not an integer"))
		return 0
	}
	return int(n)
}

func (c *converter) seat(o *Object, key string) engine.Seat {
	s, err := engine.SeatFromOneBased(c.num(o, key))
	if err != nil {
		c.fail(key, err)
	}
	return s
}

func (c *converter) team(o *Object, key string) engine.Team {
	t, err := engine.TeamFromOneBased(c.num(o, key))
	if err != nil {
		c.fail(key, err)
	}
	return t
}

func (c *converter) card(o *Object, key string) engine.Card {
	card, err := engine.IndexToCard(engine.CardIndex(c.num(o, key)))
	if err != nil {
		c.fail(key, err)
	}
	return card
}

func (c *converter) bid(o *Object) event.Event {
	a := c.num(o, "a")
	if a < int(event.BidPass) || a > int(event.BidAshkal) {
		c.fail("a", fmt.Errorf("bid code %d", a))
	}
	b := event.Bid{Seat: c.seat(o, "s"), Action: event.BidAction(a)}
	if o.Has("t") {
		suit, err := WireTrumpToSuit(c.num(o, "t"))
		if err != nil {
			c.fail("t", err)
		}
		b.Trump, b.HasTrump = suit, true
	} else if b.Action == event.BidHokum {
		c.fail("t", errors.New("hokum bid without trump"))
	}
	if v, ok := o.Int("v"); ok && v == 1 {
		b.Variant = engine.VariantClosed
	}
	return b
}

func (c *converter) declared(o *Object) event.Event {
	d := event.Declared{Seat: c.seat(o, "s"), Kind: engine.DeclKind(c.num(o, "d"))}
	if d.Kind < engine.DeclSira || d.Kind > engine.DeclBaloot {
		c.fail("d", fmt.Errorf("declaration kind %d", d.Kind))
	}
	if idx, ok := o.Ints("cards"); ok {
		for _, i := range idx {
			card, err := engine.IndexToCard(engine.CardIndex(i))
			if err != nil {
				c.fail("cards", err)
				break
			}
			d.Cards = append(d.Cards, card)
		}
	}
	return d
}

func (c *converter) result(o *Object) event.Result {
	r := event.Result{
		Team1Abnat:      c.num(o, "a1"),
		Team2Abnat:      c.num(o, "a2"),
		Team1Points:     c.num(o, "g1"),
		Team2Points:     c.num(o, "g2"),
		Team1Cumulative: c.num(o, "c1"),
		Team2Cumulative: c.num(o, "c2"),
		Multiplier:      engine.MultNone,
		BidderTeam:      engine.NoTeam,
	}
	r.Kaboot, _ = o.Bool("kb")
	if m, ok := o.Int("m"); ok {
		if m < int64(engine.MultNone) || m > int64(engine.MultGahwa) {
			c.fail("m", fmt.Errorf("multiplier %d", m))
		}
		r.Multiplier = engine.Multiplier(m)
	}
	if o.Has("bt") {
		r.BidderTeam = c.team(o, "bt")
	}
	if dl, ok := o.Array("dl"); ok {
		for _, e := range dl {
			eo, ok := e.(*Object)
			if !ok {
				c.fail("dl", fmt.Errorf("entry is not an object"))
				break
			}
			r.Declarations = append(r.Declarations, event.ResultDeclaration{
				Team: c.team(eo, "t"),
				Kind: engine.DeclKind(c.num(eo, "d")),
			})
		}
	}
	return r
}
