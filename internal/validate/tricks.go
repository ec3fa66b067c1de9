package validate

import (
	"fmt"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/replay"
)

// TrickResult is one trick as recomputed from its cards.
type TrickResult struct {
	Number       int // 1-based
	Leader       engine.Seat
	Winner       engine.Seat // computed, never taken from the source
	SourceWinner engine.Seat // NoSeat when the source gave none
	Points       int         // abnat of the cards, without the last-trick bonus
	Cards        []engine.Card
}

// Extraction is the result of recomputing a round's tricks.
type Extraction struct {
	Tricks []TrickResult
	// Complete is set when all eight tricks have four plays.
	Complete bool
	// Sweep is the team that won every trick of a complete round, or NoTeam.
	Sweep       engine.Team
	Divergences []Divergence
}

// Winners returns the computed winner of each trick.
func (x *Extraction) Winners() []engine.Seat {
	out := make([]engine.Seat, len(x.Tricks))
	for i, t := range x.Tricks {
		out[i] = t.Winner
	}
	return out
}

func divergence(rd *replay.RoundRecord, cat Category, step int, expected, computed any, invariant bool, format string, args ...any) Divergence {
	return Divergence{
		RoundRef:    rd.Ref,
		Round:       rd.Index,
		Category:    cat,
		Step:        step,
		Expected:    fmt.Sprint(expected),
		Computed:    fmt.Sprint(computed),
		Explanation: fmt.Sprintf(format, args...),
		Invariant:   invariant,
	}
}

// ExtractTricks recomputes the winner of every trick of rd and checks the
// structure of play: clockwise order, no repeated card, each leader being
// the previous winner, and legal plays when the hands are known.
func ExtractTricks(rd *replay.RoundRecord) Extraction {
	x := Extraction{Sweep: engine.NoTeam}
	add := func(d Divergence) { x.Divergences = append(x.Divergences, d) }

	mode, trump := rd.Contract.Mode, rd.Contract.Trump
	if mode == engine.ModeNone {
		if rd.Plays() > 0 {
			add(divergence(rd, CategoryIncomplete, 0, "contract", "none", true, "%d plays without a resolved contract", rd.Plays()))
		}
		return x
	}

	var remaining [engine.MaxPlayers][]engine.Card
	for s := range rd.Hands {
		if rd.Hands[s] != nil {
			remaining[s] = append([]engine.Card(nil), rd.Hands[s]...)
		}
	}

	var seen uint64
	prev := engine.NoSeat
	if rd.Dealer.Valid() {
		prev = engine.NextSeat(rd.Dealer)
	}
	for i := range rd.Tricks {
		t := &rd.Tricks[i]
		n := i + 1
		cards := t.Cards()

		for k, p := range t.Plays {
			bit := uint64(1) << engine.CardToIndex(p.Card)
			if seen&bit != 0 {
				add(divergence(rd, CategoryDuplicate, 0, "unique card", p.Card, true, "trick %d: %s played twice in the round", n, p.Card))
			}
			seen |= bit
			if k > 0 && p.Seat != engine.NextSeat(t.Plays[k-1].Seat) {
				add(divergence(rd, CategoryTurnOrder, 0, engine.NextSeat(t.Plays[k-1].Seat).OneBased(), p.Seat.OneBased(), true,
					"trick %d play %d out of clockwise order", n, k+1))
			}
			if hand := remaining[p.Seat%engine.MaxPlayers]; hand != nil {
				checkPlay(rd, &x, n, p, hand, cards[:k], mode, trump)
				remaining[p.Seat%engine.MaxPlayers] = removeCard(hand, p.Card)
			}
		}

		if !t.Complete() {
			if rd.Status == replay.StatusClosed || i < len(rd.Tricks)-1 {
				add(divergence(rd, CategoryIncomplete, 0, engine.MaxPlayers, len(t.Plays), true, "trick %d has %d plays", n, len(t.Plays)))
			}
			continue
		}

		w, _ := engine.TrickWinner(cards, mode, trump)
		res := TrickResult{
			Number:       n,
			Leader:       t.Leader(),
			Winner:       t.Plays[w].Seat,
			SourceWinner: t.SourceWinner,
			Points:       engine.TrickPoints(cards, mode, trump),
			Cards:        cards,
		}
		if prev.Valid() && res.Leader != prev {
			what := "previous trick's winner"
			if i == 0 {
				what = "seat after the dealer"
			}
			add(divergence(rd, CategoryChaining, 0, prev.OneBased(), res.Leader.OneBased(), true, "trick %d leader is not the %s", n, what))
		}
		if res.SourceWinner.Valid() && res.SourceWinner != res.Winner {
			add(divergence(rd, CategoryTrickWinner, 1, res.SourceWinner.OneBased(), res.Winner.OneBased(), false,
				"trick %d %s: source names seat %d", n, cardsText(cards), res.SourceWinner.OneBased()))
		}
		prev = res.Winner
		x.Tricks = append(x.Tricks, res)
	}

	x.Complete = len(x.Tricks) == engine.TricksPerRound
	if rd.Status == replay.StatusClosed && !x.Complete && rd.Forfeit == engine.NoTeam {
		add(divergence(rd, CategoryIncomplete, 0, engine.TricksPerRound, len(x.Tricks), true, "closed round has %d complete tricks", len(x.Tricks)))
	}
	if x.Complete {
		team := x.Tricks[0].Winner.Team()
		for _, t := range x.Tricks[1:] {
			if t.Winner.Team() != team {
				team = engine.NoTeam
				break
			}
		}
		x.Sweep = team
	}
	return x
}

func checkPlay(rd *replay.RoundRecord, x *Extraction, n int, p replay.Play, hand, table []engine.Card, mode engine.Mode, trump engine.Suit) {
	owned := false
	for _, c := range hand {
		owned = owned || c == p.Card
	}
	if !owned {
		x.Divergences = append(x.Divergences, divergence(rd, CategoryLegality, 0, "card in hand", p.Card, true,
			"trick %d: seat %d played %s not in its remaining hand", n, p.Seat.OneBased(), p.Card))
		return
	}
	if !engine.IsLegalPlay(p.Card, hand, table, mode, trump) {
		legal := engine.LegalPlaysList(engine.LegalPlays(hand, table, mode, trump))
		x.Divergences = append(x.Divergences, divergence(rd, CategoryLegality, 0, cardsText(legal), p.Card, true,
			"trick %d: seat %d played %s onto %s", n, p.Seat.OneBased(), p.Card, cardsText(table)))
	}
}

func removeCard(hand []engine.Card, c engine.Card) []engine.Card {
	out := hand[:0:0]
	for _, h := range hand {
		if h != c {
			out = append(out, h)
		}
	}
	return out
}

func cardsText(cards []engine.Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return "[" + s + "]"
}
