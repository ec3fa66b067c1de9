// Package report runs validation across a corpus of games and aggregates the
// results into a scorecard.
package report

import (
	"sort"

	"github.com/jason-s-yu/baloot/internal/validate"
)

// RootCause is the likely origin of a divergence.
type RootCause string

const (
	// SourceInconsistent: the source's own raw points do not conserve.
	SourceInconsistent RootCause = "source_inconsistent"
	// TrickAttribution: the source credited a trick to another seat.
	TrickAttribution RootCause = "trick_attribution"
	// Reconstruction: the round as rebuilt here is incomplete or invalid.
	Reconstruction RootCause = "reconstruction"
	// RuleVariant: card points agree but game points do not.
	RuleVariant RootCause = "rule_variant"
	Unexplained RootCause = "unexplained"
)

// RootCauses lists every root cause in report order.
var RootCauses = []RootCause{SourceInconsistent, TrickAttribution, Reconstruction, RuleVariant, Unexplained}

// CategoryStat counts rounds checked and agreed for one category.
type CategoryStat struct {
	Checked int `json:"checked" yaml:"checked"`
	Agreed  int `json:"agreed" yaml:"agreed"`
}

// Percent returns the agreement rate, or 100 when nothing was checked.
func (s CategoryStat) Percent() float64 {
	if s.Checked == 0 {
		return 100
	}
	return 100 * float64(s.Agreed) / float64(s.Checked)
}

// Failure is a game that could not be loaded.
type Failure struct {
	Source string `json:"source" yaml:"source"`
	Reason string `json:"reason" yaml:"reason"`
}

// Finding is a divergence with the game it came from and its root cause.
type Finding struct {
	Source    string              `json:"source" yaml:"source"`
	RootCause RootCause           `json:"rootCause" yaml:"rootCause"`
	Detail    validate.Divergence `json:"divergence" yaml:"divergence"`
}

// Scorecard aggregates a corpus run. All counters are plain sums, so two
// scorecards merge in any order.
type Scorecard struct {
	Games       int `json:"games" yaml:"games"`
	GamesFailed int `json:"gamesFailed" yaml:"gamesFailed"`
	Rounds      int `json:"rounds" yaml:"rounds"`
	Scored      int `json:"scored" yaml:"scored"`
	Redeals     int `json:"redeals" yaml:"redeals"`
	Abandoned   int `json:"abandoned" yaml:"abandoned"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Tricks      int `json:"tricks" yaml:"tricks"`
	Bids        int `json:"bids" yaml:"bids"`
	RoundsAgree int `json:"roundsAgreed" yaml:"roundsAgreed"`

	Categories  map[validate.Category]CategoryStat `json:"categories" yaml:"categories"`
	RootCauses  map[RootCause]int                  `json:"rootCauses" yaml:"rootCauses"`
	Conventions map[string]int                     `json:"conventions" yaml:"conventions"`

	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Findings []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`

	maxFindings int
}

// NewScorecard returns an empty scorecard keeping at most maxFindings
// findings; 0 keeps none and a negative value keeps all.
func NewScorecard(maxFindings int) *Scorecard {
	return &Scorecard{
		Categories:  map[validate.Category]CategoryStat{},
		RootCauses:  map[RootCause]int{},
		Conventions: map[string]int{},
		maxFindings: maxFindings,
	}
}

// Merge adds o into s.
func (s *Scorecard) Merge(o *Scorecard) {
	s.Games += o.Games
	s.GamesFailed += o.GamesFailed
	s.Rounds += o.Rounds
	s.Scored += o.Scored
	s.Redeals += o.Redeals
	s.Abandoned += o.Abandoned
	s.Skipped += o.Skipped
	s.Tricks += o.Tricks
	s.Bids += o.Bids
	s.RoundsAgree += o.RoundsAgree
	for k, v := range o.Categories {
		cur := s.Categories[k]
		cur.Checked += v.Checked
		cur.Agreed += v.Agreed
		s.Categories[k] = cur
	}
	for k, v := range o.RootCauses {
		s.RootCauses[k] += v
	}
	for k, v := range o.Conventions {
		s.Conventions[k] += v
	}
	s.Failures = append(s.Failures, o.Failures...)
	if len(o.Findings) == 0 {
		return
	}
	// Keep the first findings in report order, whatever order games merge in.
	s.Findings = append(s.Findings, o.Findings...)
	sort.SliceStable(s.Findings, func(i, j int) bool { return findingLess(s.Findings[i], s.Findings[j]) })
	if s.maxFindings >= 0 && len(s.Findings) > s.maxFindings {
		s.Findings = s.Findings[:s.maxFindings]
	}
}

func (s *Scorecard) addFinding(f Finding) {
	if s.maxFindings >= 0 && len(s.Findings) >= s.maxFindings {
		return
	}
	s.Findings = append(s.Findings, f)
}

// Divergences returns the total number of divergences by root cause.
func (s *Scorecard) Divergences() int {
	n := 0
	for _, v := range s.RootCauses {
		n += v
	}
	return n
}

// FailureRatio is the share of games that could not be loaded.
func (s *Scorecard) FailureRatio() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.GamesFailed) / float64(s.Games)
}

// Convention returns the last-trick-bonus convention seen most often in the
// sources' raw points, or "unknown".
func (s *Scorecard) Convention() string {
	best, n := "unknown", 0
	keys := make([]string, 0, len(s.Conventions))
	for k := range s.Conventions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != "unknown" && s.Conventions[k] > n {
			best, n = k, s.Conventions[k]
		}
	}
	return best
}

// sortFindings orders findings by source, round and step so output is
// stable across worker scheduling.
func (s *Scorecard) sortFindings() {
	sort.SliceStable(s.Findings, func(i, j int) bool { return findingLess(s.Findings[i], s.Findings[j]) })
	sort.SliceStable(s.Failures, func(i, j int) bool { return s.Failures[i].Source < s.Failures[j].Source })
}

func findingLess(a, b Finding) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Detail.Round != b.Detail.Round {
		return a.Detail.Round < b.Detail.Round
	}
	return a.Detail.Step < b.Detail.Step
}
