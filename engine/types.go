package engine

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Suit is a codec suit ordinal. The numbering is fixed and never inferred:
// foreign numberings are translated by an explicit function per source.
type Suit uint8

// Suit constants, in CardIndex order.
const (
	Spades   Suit = 0
	Hearts   Suit = 1
	Clubs    Suit = 2
	Diamonds Suit = 3
)

// NumSuits is the number of suits in both the full and the Baloot deck.
const NumSuits = 4

// Rank is an ordinal in the full 52-card ordering (Two=0 .. Ace=12).
type Rank uint8

// Rank constants. Only Seven through Ace are legal in Baloot.
const (
	RankTwo   Rank = 0
	RankThree Rank = 1
	RankFour  Rank = 2
	RankFive  Rank = 3
	RankSix   Rank = 4
	RankSeven Rank = 5
	RankEight Rank = 6
	RankNine  Rank = 7
	RankTen   Rank = 8
	RankJack  Rank = 9
	RankQueen Rank = 10
	RankKing  Rank = 11
	RankAce   Rank = 12
)

// RanksPerSuit is the stride of the CardIndex formula.
const RanksPerSuit = 13

// ErrInvalidIndex is returned when a card index is out of range or names a
// rank that does not exist in the 32-card deck.
var ErrInvalidIndex = errors.New("invalid card index")

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card((uint8(suit) << 4) | (uint8(rank) & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() Suit { return Suit(uint8(c) >> 4) }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() Rank { return Rank(uint8(c) & 0x0F) }

// Legal reports whether c is one of the 32 Baloot cards.
func (c Card) Legal() bool {
	return c != EmptyCard && c.Suit() < NumSuits && c.Rank() >= RankSeven && c.Rank() <= RankAce
}

// CardIndex is the compact integer form used by both data sources:
// suit*13 + rank, in [0,52).
type CardIndex uint8

// IndexToCard converts a card index into a Card.
func IndexToCard(i CardIndex) (Card, error) {
	if i >= NumSuits*RanksPerSuit {
		return EmptyCard, fmt.Errorf("%w: %d out of range", ErrInvalidIndex, i)
	}
	r := Rank(i % RanksPerSuit)
	if r < RankSeven {
		return EmptyCard, fmt.Errorf("%w: %d has rank outside 7..A", ErrInvalidIndex, i)
	}
	return NewCard(Suit(i/RanksPerSuit), r), nil
}

// CardToIndex is the exact inverse of IndexToCard for legal cards.
func CardToIndex(c Card) CardIndex {
	return CardIndex(uint8(c.Suit())*RanksPerSuit + uint8(c.Rank()))
}

// DecodeBitmaskHand returns every index whose bit is set in mask, ascending.
// Bits above 51 are ignored.
func DecodeBitmaskHand(mask uint64) []CardIndex {
	mask &= (1 << (NumSuits * RanksPerSuit)) - 1
	out := make([]CardIndex, 0, bits.OnesCount64(mask))
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		out = append(out, CardIndex(i))
		mask &^= 1 << i
	}
	return out
}

// EncodeBitmaskHand is the inverse of DecodeBitmaskHand.
func EncodeBitmaskHand(cards []Card) uint64 {
	var mask uint64
	for _, c := range cards {
		mask |= 1 << CardToIndex(c)
	}
	return mask
}

// HandFromBitmask decodes mask into cards, failing on the first illegal index.
func HandFromBitmask(mask uint64) ([]Card, error) {
	idx := DecodeBitmaskHand(mask)
	hand := make([]Card, 0, len(idx))
	for _, i := range idx {
		c, err := IndexToCard(i)
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}

// ---------------------------------------------------------------------------
// Text form is "7S", "10H", "AD".
// ---------------------------------------------------------------------------

var suitLetters = [NumSuits]string{"S", "H", "C", "D"}

var rankNames = [RanksPerSuit]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// String returns the short text form of a suit.
func (s Suit) String() string {
	if s < NumSuits {
		return suitLetters[s]
	}
	return "?"
}

// String returns the short text form of a rank.
func (r Rank) String() string {
	if r < RanksPerSuit {
		return rankNames[r]
	}
	return "?"
}

func (c Card) String() string {
	if c == EmptyCard {
		return "--"
	}
	return c.Rank().String() + c.Suit().String()
}

// ParseCard parses the text form produced by Card.String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return EmptyCard, fmt.Errorf("parse card %q: too short", s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]
	suit := Suit(NumSuits)
	for i, l := range suitLetters {
		if l == suitPart {
			suit = Suit(i)
		}
	}
	if suit == NumSuits {
		return EmptyCard, fmt.Errorf("parse card %q: unknown suit", s)
	}
	if rankPart == "T" {
		rankPart = "10"
	}
	for i, n := range rankNames {
		if n == rankPart {
			c := NewCard(suit, Rank(i))
			if !c.Legal() {
				return EmptyCard, fmt.Errorf("parse card %q: rank not in the 32-card deck", s)
			}
			return c, nil
		}
	}
	return EmptyCard, fmt.Errorf("parse card %q: unknown rank", s)
}

// MustParseCards parses a space separated card list and panics on error.
// Intended for tests and fixtures.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// Deck returns the 32 legal cards in CardIndex order.
func Deck() []Card {
	deck := make([]Card, 0, DeckSize)
	for s := Suit(0); s < NumSuits; s++ {
		for r := RankSeven; r <= RankAce; r++ {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}
