package archive

import (
	"encoding/json"

	engine "github.com/jason-s-yu/baloot/engine"
)

// Builder assembles archive files record by record. Fixtures, the sample
// generator and round-trip checks use it.
type Builder struct {
	f      File
	cur    int
	leader engine.Seat
	mode   engine.Mode
	trump  engine.Suit
}

// NewBuilder starts an archive with names in seat order.
func NewBuilder(id string, names [engine.MaxPlayers]string) *Builder {
	b := &Builder{f: File{ID: id}, cur: -1}
	for i, n := range names {
		b.f.Players = append(b.f.Players, Player{Seat: i + 1, Name: n})
	}
	return b
}

func (b *Builder) add(r Record) *Builder {
	if b.cur < 0 {
		b.f.Rounds = append(b.f.Rounds, nil)
		b.cur = 0
	}
	b.f.Rounds[b.cur] = append(b.f.Rounds[b.cur], r)
	return b
}

func intPtr(n int) *int { return &n }

// Round opens a new round dealt by dealer. The first leader is the seat
// after the dealer.
func (b *Builder) Round(dealer engine.Seat) *Builder {
	b.f.Rounds = append(b.f.Rounds, nil)
	b.cur = len(b.f.Rounds) - 1
	b.leader = engine.NextSeat(dealer)
	b.mode = engine.ModeNone
	return b.add(Record{Actor: dealer.OneBased(), Kind: KindRoundStart, Dealer: intPtr(dealer.OneBased())})
}

// Hand records the hand dealt to seat.
func (b *Builder) Hand(seat engine.Seat, cards []engine.Card) *Builder {
	mask := engine.EncodeBitmaskHand(cards)
	return b.add(Record{Actor: seat.OneBased(), Kind: KindHandDealt, Hand: &mask})
}

// Hands records four hands in seat order.
func (b *Builder) Hands(hands [engine.MaxPlayers]string) *Builder {
	for s, h := range hands {
		b.Hand(engine.Seat(s), engine.MustParseCards(h))
	}
	return b
}

// Pass records a pass by seat.
func (b *Builder) Pass(seat engine.Seat) *Builder {
	return b.add(Record{Actor: seat.OneBased(), Kind: KindBid, Bid: intPtr(bidPass)})
}

// Sun records a Sun bid.
func (b *Builder) Sun(seat engine.Seat) *Builder {
	b.mode = engine.ModeSun
	return b.add(Record{Actor: seat.OneBased(), Kind: KindBid, Bid: intPtr(bidSun)})
}

// Ashkal records an Ashkal bid (Sun played by the partner).
func (b *Builder) Ashkal(seat engine.Seat) *Builder {
	b.mode = engine.ModeSun
	return b.add(Record{Actor: seat.OneBased(), Kind: KindBid, Bid: intPtr(bidAshkal)})
}

// Hokum records a Hokum bid naming trump.
func (b *Builder) Hokum(seat engine.Seat, trump engine.Suit) *Builder {
	b.mode, b.trump = engine.ModeHokum, trump
	return b.add(Record{Actor: seat.OneBased(), Kind: KindBid, Bid: intPtr(bidHokum), Trump: intPtr(SuitToArchiveTrump(trump))})
}

// Double records an escalation by seat: m is MultDouble through MultGahwa.
func (b *Builder) Double(seat engine.Seat, m engine.Multiplier, closed bool) *Builder {
	code := bidDouble + int(m) - int(engine.MultDouble)
	r := Record{Actor: seat.OneBased(), Kind: KindBid, Bid: intPtr(code)}
	if closed {
		r.Closed = 1
	}
	return b.add(r)
}

// Declare records a declaration.
func (b *Builder) Declare(seat engine.Seat, kind engine.DeclKind, cards string) *Builder {
	r := Record{Actor: seat.OneBased(), Kind: KindDeclaration, Decl: int(kind)}
	for _, c := range engine.MustParseCards(cards) {
		r.Cards = append(r.Cards, int(engine.CardToIndex(c)))
	}
	return b.add(r)
}

// Play records a single card.
func (b *Builder) Play(seat engine.Seat, c engine.Card) *Builder {
	return b.add(Record{Actor: seat.OneBased(), Kind: KindCardPlayed, Card: intPtr(int(engine.CardToIndex(c)))})
}

// Trick plays cards in order starting from the current leader, then records
// the trick boundary with the computed winner, who leads next.
func (b *Builder) Trick(cards string) *Builder {
	cs := engine.MustParseCards(cards)
	seat := b.leader
	for _, c := range cs {
		b.Play(seat, c)
		seat = engine.NextSeat(seat)
	}
	w, err := engine.TrickWinner(cs, b.mode, b.trump)
	if err != nil {
		return b
	}
	winner := engine.ToAbsolute(engine.RelSeat(w), b.leader)
	b.leader = winner
	return b.TrickEnd(winner)
}

// TrickEnd records a trick boundary naming winner.
func (b *Builder) TrickEnd(winner engine.Seat) *Builder {
	b.leader = winner
	return b.add(Record{Actor: winner.OneBased(), Kind: KindTrickBoundary})
}

// Forfeit records a team conceding.
func (b *Builder) Forfeit(team engine.Team) *Builder {
	return b.add(Record{Actor: 1, Kind: KindForfeit, Team: int(team) + 1})
}

// Chat records a table message.
func (b *Builder) Chat(seat engine.Seat, text string) *Builder {
	return b.add(Record{Actor: seat.OneBased(), Kind: KindChat, Text: text})
}

// Disconnect records a seat dropping and coming back.
func (b *Builder) Disconnect(seat engine.Seat, reconnect bool) *Builder {
	k := KindDisconnect
	if reconnect {
		k = KindReconnect
	}
	return b.add(Record{Actor: seat.OneBased(), Kind: k})
}

// Result records the authoritative round summary.
func (b *Builder) Result(rs Result) *Builder {
	return b.add(Record{Actor: 1, Kind: KindRoundResult, Result: &rs})
}

// File returns the assembled archive.
func (b *Builder) File() *File { return &b.f }

// JSON encodes the assembled archive.
func (b *Builder) JSON() ([]byte, error) { return json.Marshal(b.f) }
