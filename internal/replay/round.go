package replay

import (
	"github.com/google/uuid"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
)

// Status is the lifecycle state of a round record.
type Status uint8

const (
	StatusOpen      Status = iota
	StatusClosed           // closed by an authoritative result
	StatusRedeal           // nobody bid; no tricks
	StatusAbandoned        // ended without a result
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusRedeal:
		return "redeal"
	case StatusAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Contract is the resolved bid of a round.
type Contract struct {
	Mode       engine.Mode
	Trump      engine.Suit // meaningful only in Hokum
	Bidder     engine.Seat
	Multiplier engine.Multiplier
	Variant    engine.Variant
}

// BidderTeam returns the team that owns the contract, or NoTeam.
func (c Contract) BidderTeam() engine.Team {
	if !c.Bidder.Valid() {
		return engine.NoTeam
	}
	return c.Bidder.Team()
}

// Play is one card on the table, with its absolute seat.
type Play struct {
	Seat engine.Seat
	Card engine.Card
}

// Trick holds up to four plays in play order. SourceWinner is the winner the
// source reported, or NoSeat.
type Trick struct {
	Plays        []Play
	SourceWinner engine.Seat
}

// Complete reports whether all four seats have played.
func (t *Trick) Complete() bool { return len(t.Plays) == engine.MaxPlayers }

// Leader returns the seat that led the trick, or NoSeat when empty.
func (t *Trick) Leader() engine.Seat {
	if len(t.Plays) == 0 {
		return engine.NoSeat
	}
	return t.Plays[0].Seat
}

// Cards returns the played cards in order.
func (t *Trick) Cards() []engine.Card {
	out := make([]engine.Card, len(t.Plays))
	for i, p := range t.Plays {
		out[i] = p.Card
	}
	return out
}

// BiddingStats counts bidding activity in a round.
type BiddingStats struct {
	Bids        int
	Passes      int
	Escalations int
	// SubPhases counts bidding rounds: the first, one more after every
	// four consecutive passes, and one for the doubling exchange.
	SubPhases int
}

// RoundRecord is one round as reconstructed from a source. Once its status
// leaves Open it is owned by the GameSession and never mutated again.
type RoundRecord struct {
	Ref    uuid.UUID
	Index  int
	Status Status
	Reason string // why a round was abandoned

	Dealer   engine.Seat
	Contract Contract
	// Hands are the dealt hands by absolute seat; nil when unknown.
	Hands        [engine.MaxPlayers][]engine.Card
	Tricks       []Trick
	Declarations []engine.Declaration
	Forfeit      engine.Team
	Bidding      BiddingStats
	Chat         int

	// Result holds the source's figures verbatim; nil unless Closed.
	Result *event.Result
}

func newRound(index int) *RoundRecord {
	return &RoundRecord{
		Ref:     uuid.New(),
		Index:   index,
		Dealer:  engine.NoSeat,
		Forfeit: engine.NoTeam,
		Contract: Contract{
			Bidder:     engine.NoSeat,
			Multiplier: engine.MultNone,
		},
	}
}

// Plays returns the number of cards played so far.
func (r *RoundRecord) Plays() int {
	n := 0
	for i := range r.Tricks {
		n += len(r.Tricks[i].Plays)
	}
	return n
}

// CompleteTricks counts tricks with four plays.
func (r *RoundRecord) CompleteTricks() int {
	n := 0
	for i := range r.Tricks {
		if r.Tricks[i].Complete() {
			n++
		}
	}
	return n
}

// HandsKnown reports whether all four dealt hands are known.
func (r *RoundRecord) HandsKnown() bool {
	for _, h := range r.Hands {
		if h == nil {
			return false
		}
	}
	return true
}

// PlayedBy returns the cards seat has played this round.
func (r *RoundRecord) PlayedBy(seat engine.Seat) []engine.Card {
	var out []engine.Card
	for _, t := range r.Tricks {
		for _, p := range t.Plays {
			if p.Seat == seat {
				out = append(out, p.Card)
			}
		}
	}
	return out
}

// Remaining returns the dealt hand of seat minus the cards it has played,
// or nil when the hand is unknown.
func (r *RoundRecord) Remaining(seat engine.Seat) []engine.Card {
	if !seat.Valid() || r.Hands[seat] == nil {
		return nil
	}
	played := engine.EncodeBitmaskHand(r.PlayedBy(seat))
	out := make([]engine.Card, 0, len(r.Hands[seat]))
	for _, c := range r.Hands[seat] {
		if played&(1<<engine.CardToIndex(c)) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy.
func (r *RoundRecord) Clone() *RoundRecord {
	if r == nil {
		return nil
	}
	c := *r
	for s, h := range r.Hands {
		if h != nil {
			c.Hands[s] = append([]engine.Card{}, h...)
		}
	}
	c.Tricks = make([]Trick, len(r.Tricks))
	for i, t := range r.Tricks {
		c.Tricks[i] = Trick{Plays: append([]Play(nil), t.Plays...), SourceWinner: t.SourceWinner}
	}
	c.Declarations = make([]engine.Declaration, len(r.Declarations))
	for i, d := range r.Declarations {
		d.Cards = append([]engine.Card(nil), d.Cards...)
		c.Declarations[i] = d
	}
	if r.Result != nil {
		res := *r.Result
		res.Declarations = append([]event.ResultDeclaration(nil), r.Result.Declarations...)
		c.Result = &res
	}
	return &c
}
