package archive

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
)

// Bid codes used by KindBid records.
const (
	bidPass = iota
	bidSun
	bidHokum
	bidDouble
	bidTriple
	bidFour
	bidGahwa
	bidAshkal
)

var bidActions = [...]event.BidAction{
	bidPass:   event.BidPass,
	bidSun:    event.BidSun,
	bidHokum:  event.BidHokum,
	bidDouble: event.BidDouble,
	bidTriple: event.BidTriple,
	bidFour:   event.BidFour,
	bidGahwa:  event.BidGahwa,
	bidAshkal: event.BidAshkal,
}

// RoundEvents is one archive round in canonical form.
type RoundEvents struct {
	Index  int
	Events []event.Event
	// Issues lists records that were skipped, with the reason.
	Issues []string
}

// Adapter converts archive records into canonical events.
type Adapter struct {
	log logrus.FieldLogger
}

// NewAdapter returns an adapter logging skipped records to log.
func NewAdapter(log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{log: log}
}

// Identity returns one Identity event per listed player.
func (a *Adapter) Identity(f *File) ([]event.Event, []string) {
	var out []event.Event
	var issues []string
	for _, p := range f.Players {
		s, err := engine.SeatFromOneBased(p.Seat)
		if err != nil {
			issues = append(issues, fmt.Sprintf("player %q: %v", p.Name, err))
			continue
		}
		out = append(out, event.Identity{Name: p.Name, Seat: s})
	}
	return out, issues
}

// Rounds adapts every round of f.
func (a *Adapter) Rounds(f *File) []RoundEvents {
	out := make([]RoundEvents, len(f.Rounds))
	for i, recs := range f.Rounds {
		out[i] = a.Round(i, recs)
		if len(out[i].Issues) > 0 {
			a.log.WithFields(logrus.Fields{"game": f.ID, "round": i, "issues": len(out[i].Issues)}).
				Debugf("skipped records: %s", strings.Join(out[i].Issues, "; "))
		}
	}
	return out
}

// Events flattens identity and all rounds into one ordered stream.
func (a *Adapter) Events(f *File) []event.Event {
	ids, _ := a.Identity(f)
	out := append([]event.Event(nil), ids...)
	for _, r := range a.Rounds(f) {
		out = append(out, r.Events...)
	}
	return out
}

// Round adapts one record array. The round always opens with a RoundStart
// and always closes with exactly one of RoundResult, Redeal or Abandoned.
func (a *Adapter) Round(index int, recs []Record) RoundEvents {
	re := RoundEvents{Index: index}
	issue := func(i int, r Record, format string, args ...any) {
		re.Issues = append(re.Issues, fmt.Sprintf("record %d (%s): %s", i, r.Kind, fmt.Sprintf(format, args...)))
	}

	if len(recs) == 0 || recs[0].Kind != KindRoundStart {
		re.Events = append(re.Events, event.RoundStart{Dealer: engine.NoSeat})
	}

	var bids, passes, plays int
	closed := false
	for i, r := range recs {
		if closed {
			issue(i, r, "after round result")
			continue
		}
		actor, seatErr := engine.SeatFromOneBased(r.Actor)
		needsActor := r.Kind != KindRoundStart && r.Kind != KindForfeit && r.Kind != KindRoundResult
		if needsActor && seatErr != nil {
			issue(i, r, "%v", seatErr)
			continue
		}

		switch r.Kind {
		case KindRoundStart:
			dealer := engine.NoSeat
			if r.Dealer != nil {
				d, err := engine.SeatFromOneBased(*r.Dealer)
				if err != nil {
					issue(i, r, "dealer: %v", err)
				} else {
					dealer = d
				}
			}
			re.Events = append(re.Events, event.RoundStart{Dealer: dealer})

		case KindHandDealt:
			if r.Hand == nil {
				issue(i, r, "missing hand")
				continue
			}
			cards, err := engine.HandFromBitmask(*r.Hand)
			if err != nil {
				issue(i, r, "%v", err)
				continue
			}
			re.Events = append(re.Events, event.HandDealt{Seat: actor, Cards: cards})

		case KindBid:
			ev, err := bidEvent(actor, r)
			if err != nil {
				issue(i, r, "%v", err)
				continue
			}
			bids++
			if ev.Action == event.BidPass {
				passes++
			}
			re.Events = append(re.Events, ev)

		case KindDeclaration:
			kind := engine.DeclKind(r.Decl)
			if kind < engine.DeclSira || kind > engine.DeclBaloot {
				issue(i, r, "declaration kind %d", r.Decl)
				continue
			}
			d := event.Declared{Seat: actor, Kind: kind}
			for _, idx := range r.Cards {
				c, err := engine.IndexToCard(engine.CardIndex(idx))
				if err != nil {
					issue(i, r, "%v", err)
					d.Cards = nil
					break
				}
				d.Cards = append(d.Cards, c)
			}
			re.Events = append(re.Events, d)

		case KindCardPlayed:
			if r.Card == nil || *r.Card < 0 {
				issue(i, r, "missing card")
				continue
			}
			c, err := engine.IndexToCard(engine.CardIndex(*r.Card))
			if err != nil {
				issue(i, r, "%v", err)
				continue
			}
			plays++
			re.Events = append(re.Events, event.CardPlayed{Seat: actor, Card: c})

		case KindForfeit:
			t, err := engine.TeamFromOneBased(r.Team)
			if err != nil {
				issue(i, r, "%v", err)
				continue
			}
			re.Events = append(re.Events, event.Forfeit{Team: t})

		case KindTrickBoundary:
			// The actor is the trick winner and the next leader; nothing else.
			re.Events = append(re.Events, event.TrickBoundary{Winner: actor})

		case KindChat:
			re.Events = append(re.Events, event.Chat{Seat: actor, Text: r.Text})

		case KindDisconnect, KindReconnect:
			re.Events = append(re.Events, event.Connection{Seat: actor, Connected: r.Kind == KindReconnect})

		case KindRoundResult:
			if r.Result == nil {
				issue(i, r, "missing rs")
				continue
			}
			res, err := convertResult(r.Result)
			if err != nil {
				issue(i, r, "%v", err)
				continue
			}
			re.Events = append(re.Events, event.RoundResult{Result: res})
			closed = true

		default:
			issue(i, r, "unknown kind")
		}
	}

	if !closed {
		switch {
		case plays == 0 && bids >= 2*engine.MaxPlayers && passes == bids:
			re.Events = append(re.Events, event.Redeal{})
		case plays > 0:
			re.Events = append(re.Events, event.Abandoned{Reason: fmt.Sprintf("no result after %d plays", plays)})
		default:
			re.Events = append(re.Events, event.Abandoned{Reason: fmt.Sprintf("no result, %d bids and no plays", bids)})
		}
	}
	return re
}

func bidEvent(actor engine.Seat, r Record) (event.Bid, error) {
	if r.Bid == nil || *r.Bid < 0 || *r.Bid >= len(bidActions) {
		return event.Bid{}, fmt.Errorf("bid code missing or unknown")
	}
	b := event.Bid{Seat: actor, Action: bidActions[*r.Bid]}
	if r.Trump != nil {
		s, err := ArchiveTrumpToSuit(*r.Trump)
		if err != nil {
			return event.Bid{}, err
		}
		b.Trump, b.HasTrump = s, true
	} else if b.Action == event.BidHokum {
		return event.Bid{}, fmt.Errorf("hokum bid without trump")
	}
	if r.Closed == 1 {
		b.Variant = engine.VariantClosed
	}
	return b, nil
}

func convertResult(rs *Result) (event.Result, error) {
	out := event.Result{
		Team1Abnat:      rs.Abnat[0],
		Team2Abnat:      rs.Abnat[1],
		Team1Points:     rs.Points[0],
		Team2Points:     rs.Points[1],
		Team1Cumulative: rs.Cumulative[0],
		Team2Cumulative: rs.Cumulative[1],
		Kaboot:          rs.Kaboot,
		Multiplier:      engine.MultNone,
		BidderTeam:      engine.NoTeam,
	}
	if rs.Multiplier != 0 {
		if rs.Multiplier < int(engine.MultNone) || rs.Multiplier > int(engine.MultGahwa) {
			return event.Result{}, fmt.Errorf("multiplier %d", rs.Multiplier)
		}
		out.Multiplier = engine.Multiplier(rs.Multiplier)
	}
	if rs.BidderTeam != 0 {
		t, err := engine.TeamFromOneBased(rs.BidderTeam)
		if err != nil {
			return event.Result{}, err
		}
		out.BidderTeam = t
	}
	for _, d := range rs.Declarations {
		t, err := engine.TeamFromOneBased(d.Team)
		if err != nil {
			return event.Result{}, fmt.Errorf("declaration: %w", err)
		}
		out.Declarations = append(out.Declarations, event.ResultDeclaration{Team: t, Kind: engine.DeclKind(d.Kind)})
	}
	return out, nil
}
