package agent

import (
	engine "github.com/jason-s-yu/baloot/engine"
)

// ViewCard is a card as exposed to a decision-maker.
type ViewCard struct {
	Index engine.CardIndex `json:"idx"`
	Text  string           `json:"card"`
}

// NewViewCard builds the exposed form of c.
func NewViewCard(c engine.Card) ViewCard {
	return ViewCard{Index: engine.CardToIndex(c), Text: c.String()}
}

// TablePlay is one card on the table in the current trick.
type TablePlay struct {
	Seat engine.RelSeat `json:"seat"`
	Card ViewCard       `json:"card"`
}

// ContractView is the resolved bid, relative to the observer.
type ContractView struct {
	Mode       string         `json:"mode"`
	Trump      string         `json:"trump,omitempty"`
	Bidder     engine.RelSeat `json:"bidder"`
	Multiplier string         `json:"multiplier"`
	Variant    string         `json:"variant"`
}

// DeclarationView is one declaration, relative to the observer.
type DeclarationView struct {
	Seat  engine.RelSeat `json:"seat"`
	Kind  string         `json:"kind"`
	Cards []ViewCard     `json:"cards,omitempty"`
}

// View is the current game state for the observing player. Seats are
// relative: 0 is the observer, then clockwise.
type View struct {
	Round              int               `json:"round"`
	WaitingForIdentity bool              `json:"waitingForIdentity"`
	Contract           *ContractView     `json:"contract,omitempty"`
	Hand               []ViewCard        `json:"hand"`
	HandCounts         [4]int            `json:"handCounts"`
	Table              []TablePlay       `json:"table"`
	TrickNumber        int               `json:"trickNumber"`
	Dealer             *engine.RelSeat   `json:"dealer,omitempty"`
	Turn               *engine.RelSeat   `json:"turn,omitempty"`
	MyTurn             bool              `json:"myTurn"`
	LegalPlays         []ViewCard        `json:"legalPlays,omitempty"`
	Declarations       []DeclarationView `json:"declarations,omitempty"`
	ScoreUs            int               `json:"scoreUs"`
	ScoreThem          int               `json:"scoreThem"`
	Unseen             []ViewCard        `json:"unseen,omitempty"`
}

// CardsFromMask expands a CardIndex mask into exposed cards.
func CardsFromMask(mask uint64) []ViewCard {
	cards := engine.LegalPlaysList(mask)
	out := make([]ViewCard, len(cards))
	for i, c := range cards {
		out[i] = NewViewCard(c)
	}
	return out
}
