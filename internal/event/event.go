// Package event defines the canonical event vocabulary shared by the wire
// decoder and the archive adapter. Every downstream component consumes these
// typed variants and never the raw source trees.
package event

import (
	engine "github.com/jason-s-yu/baloot/engine"
)

// Type names an event variant.
type Type string

// Event types.
const (
	TypeIdentity      Type = "identity"       // a name is bound to an absolute seat
	TypeRoundStart    Type = "round_start"    // new deal, carries the dealer
	TypeHandDealt     Type = "hand_dealt"     // a full hand for one seat
	TypeBid           Type = "bid"            // one bidding or doubling action
	TypeDeclared      Type = "declared"       // a declaration by a seat
	TypeCardPlayed    Type = "card_played"    // one card onto the table
	TypeTrickBoundary Type = "trick_boundary" // source-reported trick winner
	TypeTurn          Type = "turn"           // whose action the source awaits
	TypeForfeit       Type = "forfeit"        // a team conceded the round
	TypeChat          Type = "chat"
	TypeConnection    Type = "connection" // disconnect or reconnect
	TypeRoundResult   Type = "round_result"
	TypeRedeal        Type = "redeal"    // every player passed twice
	TypeAbandoned     Type = "abandoned" // round ended without a result
)

// Event is the closed set of canonical variants. The unexported method keeps
// the set closed to this package.
type Event interface {
	Type() Type
	isEvent()
}

// Identity binds a player name to an absolute seat.
type Identity struct {
	Name string
	Seat engine.Seat
}

// RoundStart opens a new deal.
type RoundStart struct {
	Dealer engine.Seat // NoSeat if the source did not say
}

// HandDealt carries a dealt hand. Observer is set when the source only
// knows that the hand belongs to the observing player (live capture); Seat is
// then NoSeat until identity resolves it.
type HandDealt struct {
	Seat     engine.Seat
	Observer bool
	Cards    []engine.Card
}

// BidAction is one bidding or doubling move.
type BidAction uint8

const (
	BidPass BidAction = iota
	BidSun
	BidHokum
	BidDouble
	BidTriple
	BidFour
	BidGahwa
	BidAshkal
)

func (b BidAction) String() string {
	switch b {
	case BidPass:
		return "pass"
	case BidSun:
		return "sun"
	case BidHokum:
		return "hokum"
	case BidDouble:
		return "double"
	case BidTriple:
		return "triple"
	case BidFour:
		return "four"
	case BidGahwa:
		return "gahwa"
	case BidAshkal:
		return "ashkal"
	}
	return "unknown"
}

// Bid is a single bidding action.
type Bid struct {
	Seat     engine.Seat
	Action   BidAction
	Trump    engine.Suit // codec ordinal; valid only when HasTrump
	HasTrump bool
	Variant  engine.Variant
}

// Declared is a declaration announced by a seat.
type Declared struct {
	Seat  engine.Seat
	Kind  engine.DeclKind
	Cards []engine.Card
}

// CardPlayed is one card put on the table.
type CardPlayed struct {
	Seat engine.Seat
	Card engine.Card
}

// TrickBoundary reports the source's trick winner, who also leads next.
type TrickBoundary struct {
	Winner engine.Seat
}

// Turn reports whose action the source is waiting for.
type Turn struct {
	Seat engine.Seat
}

// Forfeit records a team conceding the round.
type Forfeit struct {
	Team engine.Team
}

// Chat is a table message. Carried for completeness; never scored.
type Chat struct {
	Seat engine.Seat
	Text string
}

// Connection records a disconnect or reconnect.
type Connection struct {
	Seat      engine.Seat
	Connected bool
}

// ResultDeclaration is a declaration credited by the source's result.
type ResultDeclaration struct {
	Team engine.Team
	Kind engine.DeclKind
}

// Result holds the authoritative figures a source reports for a round.
// They are copied verbatim and never recomputed by the reconstructor.
type Result struct {
	Team1Abnat      int
	Team2Abnat      int
	Team1Points     int
	Team2Points     int
	Team1Cumulative int
	Team2Cumulative int
	Kaboot          bool
	Multiplier      engine.Multiplier
	BidderTeam      engine.Team
	Declarations    []ResultDeclaration
}

// Points returns the per-team game points as an array indexed by Team.
func (r Result) Points() [2]int { return [2]int{r.Team1Points, r.Team2Points} }

// Abnat returns the per-team raw points as an array indexed by Team.
func (r Result) Abnat() [2]int { return [2]int{r.Team1Abnat, r.Team2Abnat} }

// RoundResult closes the round with the source's figures.
type RoundResult struct {
	Result Result
}

// Redeal closes a round in which nobody bid.
type Redeal struct{}

// Abandoned closes a round that ended without a result.
type Abandoned struct {
	Reason string
}

func (Identity) Type() Type      { return TypeIdentity }
func (RoundStart) Type() Type    { return TypeRoundStart }
func (HandDealt) Type() Type     { return TypeHandDealt }
func (Bid) Type() Type           { return TypeBid }
func (Declared) Type() Type      { return TypeDeclared }
func (CardPlayed) Type() Type    { return TypeCardPlayed }
func (TrickBoundary) Type() Type { return TypeTrickBoundary }
func (Turn) Type() Type          { return TypeTurn }
func (Forfeit) Type() Type       { return TypeForfeit }
func (Chat) Type() Type          { return TypeChat }
func (Connection) Type() Type    { return TypeConnection }
func (RoundResult) Type() Type   { return TypeRoundResult }
func (Redeal) Type() Type        { return TypeRedeal }
func (Abandoned) Type() Type     { return TypeAbandoned }

func (Identity) isEvent()      {}
func (RoundStart) isEvent()    {}
func (HandDealt) isEvent()     {}
func (Bid) isEvent()           {}
func (Declared) isEvent()      {}
func (CardPlayed) isEvent()    {}
func (TrickBoundary) isEvent() {}
func (Turn) isEvent()          {}
func (Forfeit) isEvent()       {}
func (Chat) isEvent()          {}
func (Connection) isEvent()    {}
func (RoundResult) isEvent()   {}
func (Redeal) isEvent()        {}
func (Abandoned) isEvent()     {}
