package replay

import (
	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/engine/agent"
)

// View returns the observer's view of the open round. While the observer
// seat is unknown only seat-independent fields are filled and
// WaitingForIdentity is set.
func (r *Reconstructor) View() agent.View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v := agent.View{Round: len(r.session.Rounds)}
	if !r.self.Valid() {
		v.WaitingForIdentity = true
		for _, c := range r.pending {
			v.Hand = append(v.Hand, agent.NewViewCard(c))
		}
		if r.cur != nil {
			v.TrickNumber = trickNumber(r.cur)
		}
		return v
	}

	self := r.self
	us := self.Team()
	v.ScoreUs = r.session.Cumulative[us]
	v.ScoreThem = r.session.Cumulative[us.Other()]

	rd := r.cur
	if rd == nil {
		return v
	}
	v.TrickNumber = trickNumber(rd)

	if rd.Dealer.Valid() {
		d := engine.ToRelative(rd.Dealer, self)
		v.Dealer = &d
	}
	c := rd.Contract
	if c.Mode != engine.ModeNone && c.Bidder.Valid() {
		cv := &agent.ContractView{
			Mode:       c.Mode.String(),
			Bidder:     engine.ToRelative(c.Bidder, self),
			Multiplier: c.Multiplier.String(),
			Variant:    c.Variant.String(),
		}
		if c.Mode == engine.ModeHokum {
			cv.Trump = c.Trump.String()
		}
		v.Contract = cv
	}

	hand := rd.Remaining(self)
	for _, h := range hand {
		v.Hand = append(v.Hand, agent.NewViewCard(h))
	}
	dealt := false
	for _, h := range rd.Hands {
		dealt = dealt || h != nil
	}
	if dealt {
		for s := engine.Seat(0); s < engine.MaxPlayers; s++ {
			v.HandCounts[engine.ToRelative(s, self)] = engine.HandSize - len(rd.PlayedBy(s))
		}
	}

	var table []engine.Card
	if n := len(rd.Tricks); n > 0 && !rd.Tricks[n-1].Complete() {
		for _, p := range rd.Tricks[n-1].Plays {
			v.Table = append(v.Table, agent.TablePlay{Seat: engine.ToRelative(p.Seat, self), Card: agent.NewViewCard(p.Card)})
			table = append(table, p.Card)
		}
	}

	if r.turn.Valid() {
		t := engine.ToRelative(r.turn, self)
		v.Turn = &t
		v.MyTurn = r.turn == self
	}
	if v.MyTurn && c.Mode != engine.ModeNone && hand != nil {
		v.LegalPlays = agent.CardsFromMask(engine.LegalPlays(hand, table, c.Mode, c.Trump))
	}

	for _, d := range rd.Declarations {
		dv := agent.DeclarationView{Seat: engine.ToRelative(d.Seat, self), Kind: d.Kind.String()}
		for _, dc := range d.Cards {
			dv.Cards = append(dv.Cards, agent.NewViewCard(dc))
		}
		v.Declarations = append(v.Declarations, dv)
	}

	tr := tracker(rd, self)
	if hand != nil {
		v.Unseen = agent.CardsFromMask(tr.Unseen(hand))
	}
	return v
}

// trickNumber is the 1-based number of the trick in progress.
func trickNumber(rd *RoundRecord) int {
	n := len(rd.Tricks)
	if n == 0 {
		return 1
	}
	if rd.Tricks[n-1].Complete() && n < engine.TricksPerRound {
		return n + 1
	}
	return n
}

// tracker replays the round's plays into public card knowledge for self.
func tracker(rd *RoundRecord, self engine.Seat) agent.Tracker {
	var t agent.Tracker
	t.Reset(rd.Contract.Mode, rd.Contract.Trump)
	for _, tr := range rd.Tricks {
		if len(tr.Plays) == 0 {
			continue
		}
		lead := tr.Plays[0].Card.Suit()
		for i, p := range tr.Plays {
			t.ObservePlay(engine.ToRelative(p.Seat, self), p.Card, lead, i == 0)
		}
	}
	return t
}
