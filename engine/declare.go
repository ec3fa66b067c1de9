package engine

import "sort"

// DeclKind is a declared hand feature.
type DeclKind uint8

const (
	DeclNone        DeclKind = iota
	DeclSira                 // three-card sequence
	DeclFifty                // four-card sequence
	DeclHundred              // five+ sequence, or four of 10/K/Q/J (and aces in Hokum)
	DeclFourHundred          // four aces, Sun only
	DeclBaloot               // king and queen of trump, Hokum only
)

func (k DeclKind) String() string {
	switch k {
	case DeclSira:
		return "sira"
	case DeclFifty:
		return "fifty"
	case DeclHundred:
		return "hundred"
	case DeclFourHundred:
		return "four-hundred"
	case DeclBaloot:
		return "baloot"
	}
	return "none"
}

// Declaration is one announced (or detected) hand feature.
type Declaration struct {
	Seat  Seat
	Kind  DeclKind
	Cards []Card
}

type declValue struct {
	abnat int
	gp    int
}

// declTable[mode][kind]. A zero entry means the kind does not score in mode.
var declTable = [3][6]declValue{
	ModeSun: {
		DeclSira:        {20, 4},
		DeclFifty:       {50, 10},
		DeclHundred:     {100, 20},
		DeclFourHundred: {200, 40},
	},
	ModeHokum: {
		DeclSira:        {20, 2},
		DeclFifty:       {50, 5},
		DeclHundred:     {100, 10},
		DeclFourHundred: {100, 10}, // four aces count as a hundred in Hokum
		DeclBaloot:      {20, 2},
	},
}

// DeclarationAbnat returns the raw value of k in mode.
func DeclarationAbnat(k DeclKind, mode Mode) int {
	if int(mode) >= len(declTable) || int(k) >= len(declTable[0]) {
		return 0
	}
	return declTable[mode][k].abnat
}

// DeclarationGamePoints returns the game-point value of k in mode.
func DeclarationGamePoints(k DeclKind, mode Mode) int {
	if int(mode) >= len(declTable) || int(k) >= len(declTable[0]) {
		return 0
	}
	return declTable[mode][k].gp
}

// DetectDeclarations lists every declaration a hand could legally announce.
// The returned declarations carry no seat; callers fill it in.
func DetectDeclarations(hand []Card, mode Mode, trump Suit) []Declaration {
	var out []Declaration

	var bySuit [NumSuits][]Card
	var byRank [RanksPerSuit][]Card
	for _, c := range hand {
		if !c.Legal() {
			continue
		}
		bySuit[c.Suit()] = append(bySuit[c.Suit()], c)
		byRank[c.Rank()] = append(byRank[c.Rank()], c)
	}

	// Sequences. Rank ordinals 7..A are contiguous, so runs are plain +1 steps.
	for s := Suit(0); s < NumSuits; s++ {
		cards := bySuit[s]
		sort.Slice(cards, func(i, j int) bool { return cards[i].Rank() < cards[j].Rank() })
		start := 0
		for i := 1; i <= len(cards); i++ {
			if i < len(cards) && cards[i].Rank() == cards[i-1].Rank()+1 {
				continue
			}
			if kind := sequenceKind(i - start); kind != DeclNone {
				out = append(out, Declaration{Kind: kind, Cards: append([]Card(nil), cards[start:i]...)})
			}
			start = i
		}
	}

	// Four of a kind.
	for _, r := range []Rank{RankAce, RankTen, RankKing, RankQueen, RankJack} {
		if len(byRank[r]) != NumSuits {
			continue
		}
		kind := DeclHundred
		if r == RankAce && mode == ModeSun {
			kind = DeclFourHundred
		}
		out = append(out, Declaration{Kind: kind, Cards: append([]Card(nil), byRank[r]...)})
	}

	if mode == ModeHokum && HasBaloot(hand, trump) {
		out = append(out, Declaration{Kind: DeclBaloot, Cards: []Card{NewCard(trump, RankKing), NewCard(trump, RankQueen)}})
	}
	return out
}

// HasBaloot reports whether hand holds both king and queen of trump.
func HasBaloot(hand []Card, trump Suit) bool {
	var k, q bool
	for _, c := range hand {
		if c.Suit() != trump {
			continue
		}
		k = k || c.Rank() == RankKing
		q = q || c.Rank() == RankQueen
	}
	return k && q
}

func sequenceKind(n int) DeclKind {
	switch {
	case n >= 5:
		return DeclHundred
	case n == 4:
		return DeclFifty
	case n == 3:
		return DeclSira
	}
	return DeclNone
}

// ClassifyDeclaration returns the kind the given cards form, or DeclNone
// when they form nothing announceable in mode.
func ClassifyDeclaration(cards []Card, mode Mode, trump Suit) DeclKind {
	if len(cards) < 2 {
		return DeclNone
	}
	for _, c := range cards {
		if !c.Legal() {
			return DeclNone
		}
	}
	if len(cards) == 2 {
		if mode == ModeHokum && HasBaloot(cards, trump) {
			return DeclBaloot
		}
		return DeclNone
	}

	sameRank, sameSuit := true, true
	for _, c := range cards[1:] {
		sameRank = sameRank && c.Rank() == cards[0].Rank()
		sameSuit = sameSuit && c.Suit() == cards[0].Suit()
	}
	if sameRank && len(cards) == NumSuits {
		switch cards[0].Rank() {
		case RankAce:
			if mode == ModeSun {
				return DeclFourHundred
			}
			return DeclHundred
		case RankTen, RankKing, RankQueen, RankJack:
			return DeclHundred
		}
		return DeclNone
	}
	if !sameSuit {
		return DeclNone
	}
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank())
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return DeclNone
		}
	}
	return sequenceKind(len(cards))
}
