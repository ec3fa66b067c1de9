package agent

import (
	"context"
	"math/bits"
	"testing"

	engine "github.com/jason-s-yu/baloot/engine"
)

// TestTrackerVoids: failing to follow marks the seat void in the lead suit
// and, in Hokum when not trumping, void in trump as well.
func TestTrackerVoids(t *testing.T) {
	var tr Tracker
	tr.Reset(engine.ModeHokum, engine.Spades)

	trick := engine.MustParseCards("AH 7D 7S KH")
	lead := trick[0].Suit()
	for i, c := range trick {
		tr.ObservePlay(engine.RelSeat(i), c, lead, i == 0)
	}

	if !tr.Void[1][engine.Hearts] || !tr.Void[1][engine.Spades] {
		t.Errorf("seat 1 discarded a diamond: want void in hearts and spades, got %v", tr.Void[1])
	}
	if !tr.Void[2][engine.Hearts] || tr.Void[2][engine.Spades] {
		t.Errorf("seat 2 ruffed: want void in hearts only, got %v", tr.Void[2])
	}
	if tr.Void[0][engine.Hearts] || tr.Void[3][engine.Hearts] {
		t.Error("leader and follower must not be void")
	}
	if tr.TrumpsSeen != 1 {
		t.Errorf("TrumpsSeen = %d, want 1", tr.TrumpsSeen)
	}
	if bits.OnesCount64(tr.Played) != 4 {
		t.Errorf("Played has %d bits", bits.OnesCount64(tr.Played))
	}
}

// TestTrackerUnseen: 32 = played + hand + unseen.
func TestTrackerUnseen(t *testing.T) {
	var tr Tracker
	tr.Reset(engine.ModeSun, engine.Spades)
	for i, c := range engine.MustParseCards("AH 10H KH QH") {
		tr.ObservePlay(engine.RelSeat(i), c, engine.Hearts, i == 0)
	}
	hand := engine.MustParseCards("7S 8S 9S 10S JS QS KS")
	unseen := tr.Unseen(hand)
	if got := bits.OnesCount64(unseen); got != engine.DeckSize-4-7 {
		t.Errorf("unseen = %d cards, want %d", got, engine.DeckSize-11)
	}
	if unseen&engine.EncodeBitmaskHand(hand) != 0 {
		t.Error("unseen overlaps hand")
	}
}

// TestTrackerCloneIsIndependent: clones do not alias.
func TestTrackerCloneIsIndependent(t *testing.T) {
	var tr Tracker
	tr.Reset(engine.ModeSun, engine.Spades)
	c := tr.Clone()
	tr.ObservePlay(1, engine.NewCard(engine.Clubs, engine.RankAce), engine.Hearts, false)
	if c.Void[1][engine.Hearts] || c.Played != 0 {
		t.Error("clone changed with original")
	}
}

func TestFirstLegal(t *testing.T) {
	v := View{MyTurn: true, LegalPlays: CardsFromMask(engine.EncodeBitmaskHand(engine.MustParseCards("KH 7S")))}
	d, err := FirstLegal.Decide(context.Background(), v)
	if err != nil {
		t.Fatal(err)
	}
	// 7S has index 5, KH has index 24.
	if d.Action != ActionPlay || d.Card != "7S" {
		t.Errorf("got %+v", d)
	}

	d, _ = FirstLegal.Decide(context.Background(), View{})
	if d.Action != ActionNone {
		t.Errorf("not my turn: got %+v", d)
	}
}
