// Package validate recomputes every trick and score of a closed round from
// its cards and reports where the source's figures disagree.
package validate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvariantViolation marks a structural rule broken by the data,
	// such as a leader that did not win the previous trick.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrValidationMismatch marks a computed value that differs from the
	// source's authoritative one.
	ErrValidationMismatch = errors.New("validation mismatch")
)

// Category groups divergences for reporting.
type Category string

const (
	CategoryIncomplete   Category = "incomplete_round"
	CategoryTurnOrder    Category = "turn_order"
	CategoryDuplicate    Category = "duplicate_card"
	CategoryLegality     Category = "play_legality"
	CategoryChaining     Category = "trick_chaining"
	CategoryTrickWinner  Category = "trick_winner"
	CategoryConservation Category = "abnat_conservation"
	CategoryCardPoints   Category = "card_points"
	CategoryDeclaration  Category = "declarations"
	CategoryGamePoints   Category = "game_points"
	CategoryKaboot       Category = "kaboot"
	CategoryBidder       Category = "bidder_team"
	CategoryMultiplier   Category = "multiplier"
	CategoryCumulative   Category = "cumulative"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryIncomplete, CategoryTurnOrder, CategoryDuplicate, CategoryLegality,
	CategoryChaining, CategoryTrickWinner, CategoryConservation, CategoryCardPoints,
	CategoryDeclaration, CategoryGamePoints, CategoryKaboot, CategoryBidder,
	CategoryMultiplier, CategoryCumulative,
}

// Divergence is one disagreement found while validating a round. Step is
// the scoring step (1-7) that produced it, 8 for session-level checks and 0
// for structural checks made before scoring.
type Divergence struct {
	RoundRef    uuid.UUID `json:"round" yaml:"round"`
	Round       int       `json:"index" yaml:"index"`
	Category    Category  `json:"category" yaml:"category"`
	Step        int       `json:"step" yaml:"step"`
	Expected    string    `json:"expected" yaml:"expected"`
	Computed    string    `json:"computed" yaml:"computed"`
	Explanation string    `json:"explanation" yaml:"explanation"`
	Invariant   bool      `json:"invariant" yaml:"invariant"`
}

// Err returns the divergence as an error wrapping ErrInvariantViolation or
// ErrValidationMismatch.
func (d Divergence) Err() error {
	kind := ErrValidationMismatch
	if d.Invariant {
		kind = ErrInvariantViolation
	}
	return fmt.Errorf("%w: round %d step %d %s: expected %s, computed %s (%s)",
		kind, d.Round, d.Step, d.Category, d.Expected, d.Computed, d.Explanation)
}

func (d Divergence) String() string { return d.Err().Error() }
