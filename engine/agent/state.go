// Package agent defines what a decision-maker sees of a round and the
// interface it answers through. Nothing here interprets a decision.
package agent

import (
	engine "github.com/jason-s-yu/baloot/engine"
)

// Tracker holds public card knowledge for one observer across a round.
// It is a flat value type, so it can be copied with = and stored inside
// snapshots without aliasing.
type Tracker struct {
	// Played is a CardIndex bitmask of every card seen on the table.
	Played uint64
	// Void[rel][suit] is set once the seat at rel failed to follow suit.
	Void [engine.MaxPlayers][engine.NumSuits]bool
	// TrumpsSeen counts trump cards played in Hokum.
	TrumpsSeen uint8

	mode  engine.Mode
	trump engine.Suit
}

// Reset clears the tracker for a new round.
func (t *Tracker) Reset(mode engine.Mode, trump engine.Suit) {
	*t = Tracker{mode: mode, trump: trump}
}

// ObservePlay records card played by rel onto a trick led with lead.
func (t *Tracker) ObservePlay(rel engine.RelSeat, card engine.Card, lead engine.Suit, leading bool) {
	t.Played |= 1 << engine.CardToIndex(card)
	if !leading && card.Suit() != lead && rel < engine.MaxPlayers {
		t.Void[rel][lead] = true
		if t.mode == engine.ModeHokum && card.Suit() != t.trump {
			t.Void[rel][t.trump] = true
		}
	}
	if t.mode == engine.ModeHokum && card.Suit() == t.trump {
		t.TrumpsSeen++
	}
}

// Unseen returns the cards neither played nor in hand, as a CardIndex mask.
func (t *Tracker) Unseen(hand []engine.Card) uint64 {
	deck := engine.EncodeBitmaskHand(engine.Deck())
	return deck &^ t.Played &^ engine.EncodeBitmaskHand(hand)
}

// Clone returns a copy of the tracker.
func (t *Tracker) Clone() Tracker { return *t }
