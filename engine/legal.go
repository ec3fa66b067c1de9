package engine

// setBit sets the CardIndex bit of c in mask.
func setBit(mask *uint64, c Card) {
	*mask |= 1 << CardToIndex(c)
}

// LegalPlays returns a CardIndex bitmask of the cards in hand that may be
// played onto table (the current trick, lead first).
//
// Rules:
//   - Leading: any card.
//   - Holding the lead suit: must follow. In Hokum with trump led, must
//     overtrump the best trump on the table when able.
//   - Void in the lead suit, Hokum: must trump (overtrumping when able)
//     unless the partner is currently winning the trick.
//   - Otherwise any card.
func LegalPlays(hand []Card, table []Card, mode Mode, trump Suit) uint64 {
	var mask uint64
	if len(table) == 0 || len(table) >= MaxPlayers {
		for _, c := range hand {
			setBit(&mask, c)
		}
		return mask
	}

	lead := table[0].Suit()
	best, _ := TrickWinner(table, mode, trump)
	bestCard := table[best]
	// The player about to act sits len(table) places after the leader, so the
	// partner played two positions before.
	partnerWinning := len(table) >= 2 && best == len(table)-2

	follow := cardsOfSuit(hand, lead)
	if len(follow) > 0 {
		if mode == ModeHokum && lead == trump {
			if over := overtrumps(follow, bestCard, trump); len(over) > 0 {
				return maskOf(over)
			}
		}
		return maskOf(follow)
	}

	if mode == ModeHokum && !partnerWinning {
		trumps := cardsOfSuit(hand, trump)
		if len(trumps) > 0 {
			if bestCard.Suit() == trump {
				if over := overtrumps(trumps, bestCard, trump); len(over) > 0 {
					return maskOf(over)
				}
			}
			return maskOf(trumps)
		}
	}

	for _, c := range hand {
		setBit(&mask, c)
	}
	return mask
}

// IsLegalPlay reports whether c may be played from hand onto table.
func IsLegalPlay(c Card, hand []Card, table []Card, mode Mode, trump Suit) bool {
	return LegalPlays(hand, table, mode, trump)&(1<<CardToIndex(c)) != 0
}

// LegalPlaysList expands a LegalPlays mask into cards (allocates).
func LegalPlaysList(mask uint64) []Card {
	idx := DecodeBitmaskHand(mask)
	out := make([]Card, 0, len(idx))
	for _, i := range idx {
		if c, err := IndexToCard(i); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func cardsOfSuit(hand []Card, s Suit) []Card {
	var out []Card
	for _, c := range hand {
		if c.Suit() == s {
			out = append(out, c)
		}
	}
	return out
}

// overtrumps returns the trumps in cards that beat best. If best is not a
// trump every trump qualifies.
func overtrumps(cards []Card, best Card, trump Suit) []Card {
	var out []Card
	for _, c := range cards {
		if c.Suit() != trump {
			continue
		}
		if best.Suit() != trump || TrumpStrength(c.Rank()) > TrumpStrength(best.Rank()) {
			out = append(out, c)
		}
	}
	return out
}

func maskOf(cards []Card) uint64 {
	var mask uint64
	for _, c := range cards {
		setBit(&mask, c)
	}
	return mask
}
