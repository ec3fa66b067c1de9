package validate

import (
	"fmt"
	"sort"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/replay"
)

// checkDeclarations verifies each declaration against the declaring hand
// when it is known, then compares the declared set with the one the source
// credited.
func checkDeclarations(rd *replay.RoundRecord) []Divergence {
	var out []Divergence
	mode, trump := rd.Contract.Mode, rd.Contract.Trump

	for _, d := range rd.Declarations {
		if d.Kind == engine.DeclBaloot && mode != engine.ModeHokum {
			out = append(out, divergence(rd, CategoryDeclaration, 2, "hokum", mode, true, "baloot declared by seat %d outside hokum", d.Seat.OneBased()))
			continue
		}
		if len(d.Cards) > 0 {
			if got := engine.ClassifyDeclaration(d.Cards, mode, trump); got != d.Kind {
				out = append(out, divergence(rd, CategoryDeclaration, 2, d.Kind, got, true,
					"seat %d declared %s with %s", d.Seat.OneBased(), d.Kind, cardsText(d.Cards)))
			}
		}
		if !d.Seat.Valid() || rd.Hands[d.Seat] == nil {
			continue
		}
		hand := rd.Hands[d.Seat]
		if len(d.Cards) > 0 {
			mask := engine.EncodeBitmaskHand(hand)
			for _, c := range d.Cards {
				if mask&(1<<engine.CardToIndex(c)) == 0 {
					out = append(out, divergence(rd, CategoryDeclaration, 2, "card in hand", c, true,
						"seat %d declared %s without holding %s", d.Seat.OneBased(), d.Kind, c))
				}
			}
			continue
		}
		if !canDeclare(hand, d.Kind, mode, trump) {
			out = append(out, divergence(rd, CategoryDeclaration, 2, d.Kind, "none", true,
				"seat %d hand %s cannot form %s", d.Seat.OneBased(), cardsText(hand), d.Kind))
		}
	}

	if rd.Result == nil {
		return out
	}
	want := make([]string, 0, len(rd.Result.Declarations))
	for _, d := range rd.Result.Declarations {
		want = append(want, fmt.Sprintf("%s:%s", d.Team, d.Kind))
	}
	got := make([]string, 0, len(rd.Declarations))
	for _, d := range rd.Declarations {
		if d.Seat.Valid() {
			got = append(got, fmt.Sprintf("%s:%s", d.Seat.Team(), d.Kind))
		}
	}
	sort.Strings(want)
	sort.Strings(got)
	if fmt.Sprint(want) != fmt.Sprint(got) {
		out = append(out, divergence(rd, CategoryDeclaration, 2, want, got, false, "credited declarations"))
	}
	return out
}

func canDeclare(hand []engine.Card, kind engine.DeclKind, mode engine.Mode, trump engine.Suit) bool {
	for _, d := range engine.DetectDeclarations(hand, mode, trump) {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
