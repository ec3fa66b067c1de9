package report

import (
	"github.com/jason-s-yu/baloot/internal/replay"
	"github.com/jason-s-yu/baloot/internal/validate"
)

var structural = map[validate.Category]bool{
	validate.CategoryIncomplete: true,
	validate.CategoryTurnOrder:  true,
	validate.CategoryDuplicate:  true,
	validate.CategoryLegality:   true,
	validate.CategoryChaining:   true,
}

// scoringCategories are only checked on rounds that could be scored.
var scoringCategories = []validate.Category{
	validate.CategoryTrickWinner,
	validate.CategoryConservation,
	validate.CategoryCardPoints,
	validate.CategoryDeclaration,
	validate.CategoryGamePoints,
	validate.CategoryKaboot,
	validate.CategoryBidder,
	validate.CategoryMultiplier,
	validate.CategoryCumulative,
}

// Classify assigns a root cause to each divergence of one round. The
// source's own consistency is checked before anything is blamed on the
// recomputation.
func Classify(divs []validate.Divergence) []RootCause {
	conserved, misattributed, cardsAgree := true, false, true
	for _, d := range divs {
		switch d.Category {
		case validate.CategoryConservation:
			conserved = false
		case validate.CategoryTrickWinner:
			misattributed = true
		case validate.CategoryCardPoints:
			cardsAgree = false
		}
	}

	out := make([]RootCause, len(divs))
	for i, d := range divs {
		out[i] = classifyOne(d, conserved, misattributed, cardsAgree)
	}
	return out
}

func classifyOne(d validate.Divergence, conserved, misattributed, cardsAgree bool) RootCause {
	switch {
	case d.Category == validate.CategoryConservation, d.Category == validate.CategoryCumulative:
		return SourceInconsistent
	case !conserved && d.Step > 0:
		return SourceInconsistent
	case d.Category == validate.CategoryTrickWinner:
		return TrickAttribution
	case misattributed && (d.Category == validate.CategoryCardPoints || d.Category == validate.CategoryGamePoints):
		return TrickAttribution
	case structural[d.Category], d.Category == validate.CategoryDeclaration && d.Invariant:
		return Reconstruction
	case d.Step >= 2 && cardsAgree:
		return RuleVariant
	}
	return Unexplained
}

// tallySession folds one validated session into a fresh scorecard.
func tallySession(name string, rep validate.SessionReport, maxFindings int) *Scorecard {
	sc := NewScorecard(maxFindings)
	sc.Games = 1
	stats := rep.Session.Stats()
	sc.Rounds = stats.Rounds
	sc.Scored = stats.Scored
	sc.Redeals = stats.Redeals
	sc.Abandoned = stats.Abandoned
	sc.Tricks = stats.Tricks
	sc.Bids = stats.Bids

	// Session-level divergences belong to the round they name.
	extra := map[int][]validate.Divergence{}
	for _, d := range rep.Divergences {
		extra[d.Round] = append(extra[d.Round], d)
	}

	for i := range rep.Rounds {
		r := &rep.Rounds[i]
		divs := append(append([]validate.Divergence(nil), r.Divergences...), extra[r.Round.Index]...)

		seen := map[validate.Category]bool{}
		for _, d := range divs {
			seen[d.Category] = true
		}
		check := func(c validate.Category) {
			st := sc.Categories[c]
			st.Checked++
			if !seen[c] {
				st.Agreed++
			}
			sc.Categories[c] = st
		}
		if r.Round.Plays() > 0 {
			for c := range structural {
				check(c)
			}
		}
		if r.Computation != nil {
			for _, c := range scoringCategories {
				check(c)
			}
			sc.Conventions[r.Convention.String()]++
			if len(divs) == 0 {
				sc.RoundsAgree++
			}
		} else if r.Skipped != "" && r.Round.Status == replay.StatusClosed {
			sc.Skipped++
		}

		for j, rc := range Classify(divs) {
			sc.RootCauses[rc]++
			sc.addFinding(Finding{Source: name, RootCause: rc, Detail: divs[j]})
		}
	}
	return sc
}
