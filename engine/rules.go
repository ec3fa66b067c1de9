package engine

// Rules holds the numeric constants of the scoring rules. Sources that play
// a house variant can be validated by adjusting these instead of the code.
type Rules struct {
	LastTrickBonus   int // abnat added to the winner of the eighth trick
	SunDeckAbnat     int // card points of the full deck in Sun
	HokumDeckAbnat   int // card points of the full deck in Hokum
	SunGameTotal     int // game points from cards in a Sun round
	HokumGameTotal   int // game points from cards in a Hokum round
	SunKaboot        int // flat game points for a Sun sweep
	HokumKaboot      int // flat game points for a Hokum sweep
	MatchTarget      int // cumulative game points that end a match; also the Gahwa award
	BalootGamePoints int // K+Q of trump, added after the multiplier
}

// DefaultRules returns the standard Saudi Baloot constants.
func DefaultRules() Rules {
	return Rules{
		LastTrickBonus:   10,
		SunDeckAbnat:     120,
		HokumDeckAbnat:   152,
		SunGameTotal:     26,
		HokumGameTotal:   16,
		SunKaboot:        44,
		HokumKaboot:      25,
		MatchTarget:      152,
		BalootGamePoints: 2,
	}
}

// DeckAbnat returns the card-point sum of the deck for mode, excluding the
// last-trick bonus.
func (r *Rules) DeckAbnat(m Mode) int {
	if m == ModeHokum {
		return r.HokumDeckAbnat
	}
	return r.SunDeckAbnat
}

// GameTotal returns the game points a round's cards are worth in mode.
func (r *Rules) GameTotal(m Mode) int {
	if m == ModeHokum {
		return r.HokumGameTotal
	}
	return r.SunGameTotal
}

// Kaboot returns the flat award for a sweep in mode.
func (r *Rules) Kaboot(m Mode) int {
	if m == ModeHokum {
		return r.HokumKaboot
	}
	return r.SunKaboot
}
