package validate

import (
	"fmt"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/replay"
)

// Convention says whether a source's raw points include the last-trick
// bonus.
type Convention uint8

const (
	ConventionUnknown       Convention = iota // sum matches neither total
	ConventionExcludesBonus                   // 152 Hokum, 120 Sun
	ConventionIncludesBonus                   // 162 Hokum, 130 Sun
)

func (c Convention) String() string {
	switch c {
	case ConventionExcludesBonus:
		return "excludes-bonus"
	case ConventionIncludesBonus:
		return "includes-bonus"
	}
	return "unknown"
}

// InferConvention classifies a pair of source abnat by its sum. A kaboot
// round conserves like any other.
func InferConvention(abnat [2]int, mode engine.Mode, rules *engine.Rules) Convention {
	sum := abnat[0] + abnat[1]
	switch sum {
	case rules.DeckAbnat(mode):
		return ConventionExcludesBonus
	case rules.DeckAbnat(mode) + rules.LastTrickBonus:
		return ConventionIncludesBonus
	}
	return ConventionUnknown
}

// Computation holds every intermediate figure of a recomputed round. Pairs
// are indexed by team.
type Computation struct {
	Mode       engine.Mode
	BidderTeam engine.Team

	// Step 1
	CardAbnat     [2]int // card points only
	LastTrickTeam engine.Team
	Abnat         [2]int // with the last-trick bonus

	// Step 2
	DeclAbnat  [2]int
	DeclPoints [2]int // game points of declarations other than baloot
	Baloot     [2]int // game points of baloot, applied in step 7

	// Step 3
	CardPoints [2]int
	Adjustment int

	// Step 4
	Kaboot     bool
	KabootTeam engine.Team

	// Step 5
	Khasara     bool
	PreMultiply [2]int

	// Step 6
	Multiplier engine.Multiplier
	Multiplied [2]int

	// Step 7
	Final [2]int
}

// Report is the validation of one closed round.
type Report struct {
	Round       *replay.RoundRecord
	Tricks      Extraction
	Computation *Computation // nil when the round could not be scored
	Convention  Convention
	Skipped     string
	Divergences []Divergence
}

// Agreed reports whether the round produced no divergence.
func (r *Report) Agreed() bool { return len(r.Divergences) == 0 }

// Validator recomputes rounds against a fixed set of rules.
type Validator struct {
	rules engine.Rules
	log   logrus.FieldLogger
}

// NewValidator returns a Validator using rules.
func NewValidator(rules engine.Rules, log logrus.FieldLogger) *Validator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Validator{rules: rules, log: log}
}

// Rules returns the validator's rule constants.
func (v *Validator) Rules() engine.Rules { return v.rules }

// Validate recomputes rd without reading any of its source totals, then
// compares each step against them. Only closed rounds are scored.
func (v *Validator) Validate(rd *replay.RoundRecord) Report {
	rep := Report{Round: rd, Tricks: ExtractTricks(rd)}
	rep.Divergences = append(rep.Divergences, rep.Tricks.Divergences...)
	defer func() {
		for _, d := range rep.Divergences {
			v.log.WithFields(logrus.Fields{
				"round":    rd.Index,
				"category": string(d.Category),
				"step":     d.Step,
			}).Debug(d.Explanation)
		}
	}()

	switch {
	case rd.Status != replay.StatusClosed || rd.Result == nil:
		rep.Skipped = fmt.Sprintf("round %s", rd.Status)
		return rep
	case rd.Contract.Mode == engine.ModeNone:
		rep.Skipped = "no contract"
		return rep
	}

	rep.Convention = InferConvention(rd.Result.Abnat(), rd.Contract.Mode, &v.rules)
	if !rep.Tricks.Complete && rd.Forfeit == engine.NoTeam {
		// Nothing to recompute, but the source totals still have to hold.
		rep.Skipped = fmt.Sprintf("%d of %d tricks", len(rep.Tricks.Tricks), engine.TricksPerRound)
		rep.Divergences = append(rep.Divergences, v.checkSource(rd, rep.Convention)...)
		if rd.Result.Kaboot {
			rep.Divergences = append(rep.Divergences, divergence(rd, CategoryKaboot, 4, true, false, false,
				"sweep flag on a round with %d complete tricks", len(rep.Tricks.Tricks)))
		}
		return rep
	}

	c := v.compute(rd, &rep.Tricks)
	rep.Computation = c
	rep.Divergences = append(rep.Divergences, v.compare(rd, c, rep.Convention)...)
	rep.Divergences = append(rep.Divergences, checkDeclarations(rd)...)
	return rep
}

// checkSource checks what the source totals must satisfy on their own.
func (v *Validator) checkSource(rd *replay.RoundRecord, conv Convention) []Divergence {
	if conv != ConventionUnknown {
		return nil
	}
	mode, src := rd.Contract.Mode, rd.Result.Abnat()
	return []Divergence{divergence(rd, CategoryConservation, 1,
		fmt.Sprintf("%d or %d", v.rules.DeckAbnat(mode), v.rules.DeckAbnat(mode)+v.rules.LastTrickBonus),
		src[0]+src[1], true, "source abnat %v do not sum to a deck total", src)}
}

// compute runs steps 1 to 7 from the cards and declarations alone.
func (v *Validator) compute(rd *replay.RoundRecord, x *Extraction) *Computation {
	mode := rd.Contract.Mode
	c := &Computation{
		Mode:       mode,
		BidderTeam: rd.Contract.BidderTeam(),
		Multiplier: rd.Contract.Multiplier,
		KabootTeam: engine.NoTeam,
	}

	// 1. Card points, plus the last-trick bonus. A forfeited round only
	// counts the tricks it finished and has no eighth trick.
	for _, t := range x.Tricks {
		c.CardAbnat[t.Winner.Team()] += t.Points
	}
	c.Abnat = c.CardAbnat
	c.LastTrickTeam = engine.NoTeam
	if x.Complete {
		c.LastTrickTeam = x.Tricks[len(x.Tricks)-1].Winner.Team()
		c.Abnat[c.LastTrickTeam] += v.rules.LastTrickBonus
	}

	// 2. Declarations.
	for _, d := range rd.Declarations {
		if !d.Seat.Valid() {
			continue
		}
		team := d.Seat.Team()
		if d.Kind == engine.DeclBaloot {
			if mode == engine.ModeHokum {
				c.Baloot[team] += v.rules.BalootGamePoints
			}
			continue
		}
		c.DeclAbnat[team] += engine.DeclarationAbnat(d.Kind, mode)
		c.DeclPoints[team] += engine.DeclarationGamePoints(d.Kind, mode)
	}

	// 3. Conversion with the rounding correction to the non-bidder.
	c.CardPoints, c.Adjustment = v.rules.SplitGamePoints(c.Abnat, mode, c.BidderTeam)
	total := c.CardPoints

	// 4. Kaboot replaces card points. A forfeit hands the flat award to
	// the team that did not concede.
	switch {
	case rd.Forfeit == engine.Team1 || rd.Forfeit == engine.Team2:
		c.Kaboot, c.KabootTeam = true, rd.Forfeit.Other()
	case x.Sweep != engine.NoTeam:
		c.Kaboot, c.KabootTeam = true, x.Sweep
	}
	if c.Kaboot {
		total = [2]int{}
		total[c.KabootTeam] = v.rules.Kaboot(mode)
	}
	total[engine.Team1] += c.DeclPoints[engine.Team1]
	total[engine.Team2] += c.DeclPoints[engine.Team2]

	// 5. Khasara.
	if b := c.BidderTeam; b != engine.NoTeam && total[b] <= total[b.Other()] {
		c.Khasara = true
		total[b.Other()] += total[b]
		total[b] = 0
	}
	c.PreMultiply = total

	// 6. Multiplier; Gahwa fixes the outcome outright.
	if c.Multiplier == engine.MultGahwa {
		lead := gahwaWinner(total, c.BidderTeam)
		c.Multiplied = [2]int{}
		c.Multiplied[lead] = v.rules.MatchTarget
		c.Final = c.Multiplied
		return c
	}
	f := c.Multiplier.Factor()
	c.Multiplied = [2]int{total[0] * f, total[1] * f}

	// 7. Baloot after the multiplier.
	c.Final = [2]int{c.Multiplied[0] + c.Baloot[0], c.Multiplied[1] + c.Baloot[1]}
	return c
}

// gahwaWinner is the team ahead after khasara; a tie goes against the bidder.
func gahwaWinner(total [2]int, bidder engine.Team) engine.Team {
	switch {
	case total[engine.Team1] > total[engine.Team2]:
		return engine.Team1
	case total[engine.Team2] > total[engine.Team1]:
		return engine.Team2
	case bidder != engine.NoTeam:
		return bidder.Other()
	}
	return engine.Team1
}

// compare checks the computation against the source result.
func (v *Validator) compare(rd *replay.RoundRecord, c *Computation, conv Convention) []Divergence {
	var out []Divergence
	res := rd.Result
	add := func(d Divergence) { out = append(out, d) }

	// Step 1: raw points, in whichever convention the source conserves.
	// A forfeit's card points are partial, so only conservation applies.
	src := res.Abnat()
	out = append(out, v.checkSource(rd, conv)...)
	switch {
	case rd.Forfeit != engine.NoTeam:
	case conv == ConventionExcludesBonus:
		if src != c.CardAbnat {
			add(divergence(rd, CategoryCardPoints, 1, src, c.CardAbnat, false, "card points without last-trick bonus"))
		}
	case conv == ConventionIncludesBonus:
		if src != c.Abnat {
			add(divergence(rd, CategoryCardPoints, 1, src, c.Abnat, false, "card points with last-trick bonus"))
		}
	}

	// Invariant of step 3 on our side.
	if !c.Kaboot && c.LastTrickTeam != engine.NoTeam && c.BidderTeam != engine.NoTeam && c.CardPoints[0]+c.CardPoints[1] != v.rules.GameTotal(c.Mode) {
		add(divergence(rd, CategoryGamePoints, 3, v.rules.GameTotal(c.Mode), c.CardPoints[0]+c.CardPoints[1], true,
			"card game points do not sum to the mode total"))
	}

	if res.BidderTeam != engine.NoTeam && res.BidderTeam != c.BidderTeam {
		add(divergence(rd, CategoryBidder, 5, res.BidderTeam, c.BidderTeam, false, "bidding team"))
	}
	if res.Kaboot != c.Kaboot {
		add(divergence(rd, CategoryKaboot, 4, res.Kaboot, c.Kaboot, false, "sweep flag; computed sweep by %s", c.KabootTeam))
	}
	if res.Multiplier != c.Multiplier {
		add(divergence(rd, CategoryMultiplier, 6, res.Multiplier, c.Multiplier, false, "doubling level"))
	}

	if got := res.Points(); got != c.Final {
		step := attributeStep(c, got, res)
		add(divergence(rd, CategoryGamePoints, step, got, c.Final, false, "final game points (%s)", stepName(step)))
	}
	return out
}

// attributeStep picks the scoring step most likely to explain a final
// mismatch, checking the later, narrower steps first.
func attributeStep(c *Computation, src [2]int, res *event.Result) int {
	if res.Kaboot != c.Kaboot {
		return 4
	}
	if c.Baloot != [2]int{} && c.Multiplier != engine.MultGahwa {
		noBaloot := c.Multiplied
		scaled := [2]int{c.Multiplied[0] + c.Baloot[0]*c.Multiplier.Factor(), c.Multiplied[1] + c.Baloot[1]*c.Multiplier.Factor()}
		if src == noBaloot || src == scaled {
			return 7
		}
	}
	if b := c.BidderTeam; b != engine.NoTeam {
		bare := src
		if c.Multiplier != engine.MultGahwa {
			bare = [2]int{src[0] - c.Baloot[0], src[1] - c.Baloot[1]}
		}
		srcKhasara := bare[b] == 0 && bare[b.Other()] > 0
		if srcKhasara != c.Khasara {
			return 5
		}
	}
	if c.Multiplier != engine.MultNone {
		return 6
	}
	if c.DeclPoints != [2]int{} {
		return 2
	}
	return 3
}

func stepName(step int) string {
	switch step {
	case 1:
		return "card points"
	case 2:
		return "declarations"
	case 3:
		return "conversion"
	case 4:
		return "kaboot"
	case 5:
		return "khasara"
	case 6:
		return "multiplier"
	case 7:
		return "baloot"
	}
	return "structure"
}
