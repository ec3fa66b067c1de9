package engine

import "errors"

// ErrEmptyTrick is returned when a winner is requested for a trick with no plays.
var ErrEmptyTrick = errors.New("trick has no plays")

// Strength tables, indexed by Rank. Higher wins; ranks outside 7..A are 0.
//
//	plain: A > 10 > K > Q > J > 9 > 8 > 7
//	trump: J > 9 > A > 10 > K > Q > 8 > 7
var (
	plainStrength = [RanksPerSuit]uint8{
		RankSeven: 1, RankEight: 2, RankNine: 3, RankJack: 4,
		RankQueen: 5, RankKing: 6, RankTen: 7, RankAce: 8,
	}
	trumpStrength = [RanksPerSuit]uint8{
		RankSeven: 1, RankEight: 2, RankQueen: 3, RankKing: 4,
		RankTen: 5, RankAce: 6, RankNine: 7, RankJack: 8,
	}
)

// PlainStrength returns the non-trump ordering value of r.
func PlainStrength(r Rank) uint8 { return plainStrength[r%RanksPerSuit] }

// TrumpStrength returns the trump ordering value of r.
func TrumpStrength(r Rank) uint8 { return trumpStrength[r%RanksPerSuit] }

// Beats reports whether a beats the current best b, given the lead suit.
// trump is ignored unless mode is Hokum.
func Beats(a, b Card, lead Suit, mode Mode, trump Suit) bool {
	if mode == ModeHokum {
		aT, bT := a.Suit() == trump, b.Suit() == trump
		switch {
		case aT && !bT:
			return true
		case bT && !aT:
			return false
		case aT && bT:
			return TrumpStrength(a.Rank()) > TrumpStrength(b.Rank())
		}
	}
	aL, bL := a.Suit() == lead, b.Suit() == lead
	switch {
	case aL && !bL:
		return true
	case bL && !aL:
		return false
	case aL && bL:
		return PlainStrength(a.Rank()) > PlainStrength(b.Rank())
	}
	return false
}

// TrickWinner returns the index into cards of the winning play. cards are in
// play order, so cards[0] is the lead.
func TrickWinner(cards []Card, mode Mode, trump Suit) (int, error) {
	if len(cards) == 0 {
		return -1, ErrEmptyTrick
	}
	lead := cards[0].Suit()
	best := 0
	for i := 1; i < len(cards); i++ {
		if Beats(cards[i], cards[best], lead, mode, trump) {
			best = i
		}
	}
	return best, nil
}
