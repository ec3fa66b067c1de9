package engine

// Point value tables, indexed by Rank.
var (
	plainPoints = [RanksPerSuit]uint8{
		RankJack: 2, RankQueen: 3, RankKing: 4, RankTen: 10, RankAce: 11,
	}
	trumpPoints = [RanksPerSuit]uint8{
		RankQueen: 3, RankKing: 4, RankTen: 10, RankAce: 11, RankNine: 14, RankJack: 20,
	}
)

// CardPoints returns the abnat value of c.
//   - Sun, and non-trump suits in Hokum: A 11, 10 10, K 4, Q 3, J 2, else 0
//   - Trump suit in Hokum: J 20, 9 14, A 11, 10 10, K 4, Q 3, else 0
func CardPoints(c Card, mode Mode, trump Suit) int {
	if mode == ModeHokum && c.Suit() == trump {
		return int(trumpPoints[c.Rank()%RanksPerSuit])
	}
	return int(plainPoints[c.Rank()%RanksPerSuit])
}

// TrickPoints sums the abnat of every card in a trick.
func TrickPoints(cards []Card, mode Mode, trump Suit) int {
	total := 0
	for _, c := range cards {
		total += CardPoints(c, mode, trump)
	}
	return total
}

// AbnatToGamePoints converts raw points into game points.
//
// Hokum divides by ten and rounds up only when the remainder exceeds five
// (85 -> 8, 86 -> 9). Sun doubles first and rounds an exact half up
// (63 -> 13, 62 -> 12). Negative input is clamped to zero.
func AbnatToGamePoints(abnat int, mode Mode) int {
	if abnat <= 0 {
		return 0
	}
	if mode == ModeHokum {
		return (abnat + 4) / 10
	}
	return (2*abnat + 5) / 10
}

// SplitGamePoints converts both teams' card abnat (last-trick bonus already
// included) and forces the pair to sum to the mode total. The difference
// created by rounding is absorbed by the non-bidding team.
func (r *Rules) SplitGamePoints(abnat [2]int, mode Mode, bidder Team) (gp [2]int, adjust int) {
	gp[Team1] = AbnatToGamePoints(abnat[Team1], mode)
	gp[Team2] = AbnatToGamePoints(abnat[Team2], mode)
	if bidder != Team1 && bidder != Team2 {
		return gp, 0
	}
	adjust = r.GameTotal(mode) - (gp[Team1] + gp[Team2])
	gp[bidder.Other()] += adjust
	if gp[bidder.Other()] < 0 {
		gp[bidder.Other()] = 0
	}
	return gp, adjust
}
