package archive

import (
	engine "github.com/jason-s-yu/baloot/engine"
)

// SamplePlayers are the seat names used by the sample archive.
var SamplePlayers = [engine.MaxPlayers]string{"ali", "sara", "omar", "noor"}

// Sample deals. Each trick lists cards in play order from its leader.
var (
	sampleHokumHands = [engine.MaxPlayers]string{
		"10C 7D 7S 8C 9S AH AS QD",
		"7H 8D 8H 9C 9H JC JD QC",
		"7C 9D AD JS KC KD KS QH",
		"10D 10H 10S 8S AC JH KH QS",
	}
	sampleHokumTricks = []string{
		"9H QH JH AH",
		"10S 7S 7H KS",
		"JD AD 10D QD",
		"7C AC 8C JC",
		"8S 9S 8H JS",
		"9C KC KH 10C",
		"QS AS QC KD",
		"7D 8D 9D 10H",
	}

	sampleSunHands = [engine.MaxPlayers]string{
		"10D 7D 9C 9H 9S JD JH JS",
		"10C 7H 8C 8H AH KS QC QH",
		"10S 7S 8S AD AS KH QD QS",
		"10H 7C 8D 9D AC JC KC KD",
	}
	sampleSunTricks = []string{
		"9C 10C 8S KC",
		"8C 7S 7C JS",
		"7H KH 10H 9H",
		"9D 7D KS AD",
		"AS AC 9S QH",
		"QD 8D JD AH",
		"10S JC JH 8H",
		"QS KD 10D QC",
	}

	sampleKabootHands = [engine.MaxPlayers]string{
		"10D 10H 7C 7S 9S AH JD KS",
		"7H 8C 8D 8S AC KC KD QD",
		"10C 8H 9H AD AS JC JH JS",
		"10S 7D 9C 9D KH QC QH QS",
	}
	sampleKabootTricks = []string{
		"9S 8S JS QS",
		"AS 10S KS 7H",
		"AD 7D 10D 8D",
		"10C 9C 7C 8C",
		"JC QC 7S KC",
		"AH QD JH QH",
		"10H KD 9H KH",
		"JD AC 8H 9D",
	}

	sampleKhasaraHands = [engine.MaxPlayers]string{
		"10S 7C 7S 8C 8D 9H JC QS",
		"10D 10H 8H 9D AC JH JS KH",
		"10C 7D 7H 8S AS KD QC QD",
		"9C 9S AD AH JD KC KS QH",
	}
	sampleKhasaraTricks = []string{
		"JC AC 10C 9C",
		"JH 7H AH 9H",
		"AD 8D 9D KD",
		"KH 7D QH 8C",
		"QD JD 7S 10D",
		"KS QS JS AS",
		"8S 9S 10S 8H",
		"7C 10H QC KC",
	}
)

// SampleArchive builds a six-round game covering the scoring paths: a
// Hokum round with a declaration, a Sun round, a Hokum kaboot, a doubled
// khasara with baloot, an all-pass redeal and a Gahwa that ends the match.
// Raw points in the results exclude the last-trick bonus.
func SampleArchive(id string) *Builder {
	b := NewBuilder(id, SamplePlayers)

	// Hokum hearts by seat 1, who also declares a sira.
	b.Round(0).Hands(sampleHokumHands).
		Hokum(1, engine.Hearts).Pass(2).Pass(3).Pass(0).
		Declare(1, engine.DeclSira, "7H 8H 9H")
	for _, t := range sampleHokumTricks {
		b.Trick(t)
	}
	b.Result(Result{
		Abnat: [2]int{47, 105}, Points: [2]int{5, 13}, Cumulative: [2]int{5, 13},
		Multiplier: 1, BidderTeam: 2,
		Declarations: []ResultDecl{{Team: 2, Kind: int(engine.DeclSira)}},
	})

	// Sun by seat 0.
	b.Round(3).Hands(sampleSunHands).Sun(0).Pass(1).Pass(2).Pass(3)
	for _, t := range sampleSunTricks {
		b.Trick(t)
	}
	b.Result(Result{
		Abnat: [2]int{90, 30}, Points: [2]int{20, 6}, Cumulative: [2]int{25, 19},
		Multiplier: 1, BidderTeam: 1,
	})

	// Hokum spades by seat 0; team 1 takes every trick.
	b.Round(3).Hands(sampleKabootHands).Hokum(0, engine.Spades).Pass(1).Pass(2).Pass(3)
	for _, t := range sampleKabootTricks {
		b.Trick(t)
	}
	b.Result(Result{
		Abnat: [2]int{152, 0}, Points: [2]int{25, 0}, Cumulative: [2]int{50, 19},
		Kaboot: true, Multiplier: 1, BidderTeam: 1,
	})

	// Hokum diamonds by seat 0, doubled by seat 1. Team 1 fails the bid;
	// seat 2 holds king and queen of trump.
	b.Round(3).Hands(sampleKhasaraHands).
		Hokum(0, engine.Diamonds).Double(1, engine.MultDouble, false).Pass(2).Pass(3).
		Declare(2, engine.DeclBaloot, "KD QD")
	for _, t := range sampleKhasaraTricks {
		b.Trick(t)
	}
	b.Result(Result{
		Abnat: [2]int{37, 115}, Points: [2]int{2, 32}, Cumulative: [2]int{52, 51},
		Multiplier: 2, BidderTeam: 1,
		Declarations: []ResultDecl{{Team: 1, Kind: int(engine.DeclBaloot)}},
	})

	// Nobody bids.
	b.Round(0)
	for i := 0; i < 2*engine.MaxPlayers; i++ {
		b.Pass(engine.Seat((1 + i) % engine.MaxPlayers))
	}

	// Sun by seat 0 escalated to Gahwa.
	b.Round(3).Hands(sampleSunHands).
		Sun(0).Pass(1).Pass(2).Pass(3).
		Double(1, engine.MultDouble, false).Double(0, engine.MultTriple, false).
		Double(1, engine.MultQuadruple, false).Double(0, engine.MultGahwa, false)
	for _, t := range sampleSunTricks {
		b.Trick(t)
	}
	b.Result(Result{
		Abnat: [2]int{90, 30}, Points: [2]int{152, 0}, Cumulative: [2]int{204, 51},
		Multiplier: 5, BidderTeam: 1,
	})
	return b
}
