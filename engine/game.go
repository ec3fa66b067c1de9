// Package engine implements the Baloot card and scoring rules.
//
// It is a pure, dependency-free package: card codec, seat arithmetic,
// trick resolution, point tables, declarations and the abnat to game-point
// conversion. Everything that reconstructs or validates recorded games
// builds on these functions and never re-implements them.
package engine

const (
	MaxPlayers     = 4
	HandSize       = 8
	TricksPerRound = 8
	DeckSize       = 32
)

// Mode is the contract type of a round.
type Mode uint8

const (
	ModeNone  Mode = iota // bidding unresolved
	ModeSun               // no trump
	ModeHokum             // trump suit named by the bidder
)

func (m Mode) String() string {
	switch m {
	case ModeSun:
		return "sun"
	case ModeHokum:
		return "hokum"
	}
	return "none"
}

// Multiplier is the doubling level of a contract. Values 1..4 are literal
// factors; Gahwa is the terminal level.
type Multiplier uint8

const (
	MultNone      Multiplier = 1
	MultDouble    Multiplier = 2
	MultTriple    Multiplier = 3
	MultQuadruple Multiplier = 4
	MultGahwa     Multiplier = 5
)

// Factor returns the arithmetic factor for non-terminal levels and 1 for Gahwa.
func (m Multiplier) Factor() int {
	if m >= MultNone && m <= MultQuadruple {
		return int(m)
	}
	return 1
}

func (m Multiplier) String() string {
	switch m {
	case MultNone:
		return "x1"
	case MultDouble:
		return "x2"
	case MultTriple:
		return "x3"
	case MultQuadruple:
		return "x4"
	case MultGahwa:
		return "gahwa"
	}
	return "x?"
}

// Variant records whether a doubled Hokum was played open or closed.
type Variant uint8

const (
	VariantOpen Variant = iota
	VariantClosed
)

func (v Variant) String() string {
	if v == VariantClosed {
		return "closed"
	}
	return "open"
}
