package validate

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/archive"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/replay"
)

func sampleSession(t *testing.T) *replay.GameSession {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	evs := archive.NewAdapter(log).Events(archive.SampleArchive("sample").File())
	sess, err := replay.Replay(evs, replay.Options{Log: log, Source: "sample"})
	require.NoError(t, err)
	require.Len(t, sess.Rounds, 6)
	return sess
}

func newTestValidator() *Validator {
	log, _ := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewValidator(engine.DefaultRules(), log)
}

// roundFrom replays evs and returns the last round touched, open or closed.
func roundFrom(t *testing.T, evs ...event.Event) *replay.RoundRecord {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	r := replay.New(replay.Options{Log: log})
	_ = r.ApplyAll(evs)
	if snap := r.Snapshot(); snap != nil {
		return snap
	}
	rounds := r.Session().Rounds
	require.NotEmpty(t, rounds)
	return rounds[len(rounds)-1]
}

func plays(seat engine.Seat, cards string) []event.Event {
	var out []event.Event
	for _, c := range engine.MustParseCards(cards) {
		out = append(out, event.CardPlayed{Seat: seat, Card: c})
		seat = engine.NextSeat(seat)
	}
	return out
}

func categories(ds []Divergence) []Category {
	out := make([]Category, len(ds))
	for i, d := range ds {
		out[i] = d.Category
	}
	return out
}

func TestExtractTricksSample(t *testing.T) {
	sess := sampleSession(t)

	x := ExtractTricks(sess.Rounds[0])
	assert.Empty(t, x.Divergences)
	assert.True(t, x.Complete)
	assert.Equal(t, []engine.Seat{3, 1, 2, 3, 1, 3, 0, 3}, x.Winners())
	assert.Equal(t, engine.NoTeam, x.Sweep)

	kaboot := ExtractTricks(sess.Rounds[2])
	assert.Equal(t, engine.Team1, kaboot.Sweep)

	for _, rd := range sess.Scored() {
		x := ExtractTricks(rd)
		require.Empty(t, x.Divergences, "round %d: %v", rd.Index, x.Divergences)
		require.Len(t, x.Tricks, engine.TricksPerRound)
		for i := 1; i < len(x.Tricks); i++ {
			assert.Equal(t, x.Tricks[i-1].Winner, x.Tricks[i].Leader, "round %d trick %d", rd.Index, i+1)
		}
		for _, tr := range x.Tricks {
			assert.Equal(t, tr.SourceWinner, tr.Winner)
		}
	}
}

func TestExtractTricksEmptyRound(t *testing.T) {
	sess := sampleSession(t)
	x := ExtractTricks(sess.Rounds[4])
	assert.Empty(t, x.Tricks)
	assert.Empty(t, x.Divergences)
	assert.False(t, x.Complete)
}

func TestExtractTricksChainingBroken(t *testing.T) {
	evs := []event.Event{event.RoundStart{Dealer: 3}, event.Bid{Seat: 0, Action: event.BidSun}}
	evs = append(evs, plays(0, "9C 10C 8S KC")...)
	evs = append(evs, plays(2, "7S 7C JS 8C")...)
	x := ExtractTricks(roundFrom(t, evs...))

	require.Len(t, x.Divergences, 1)
	d := x.Divergences[0]
	assert.Equal(t, CategoryChaining, d.Category)
	assert.Equal(t, "2", d.Expected)
	assert.Equal(t, "3", d.Computed)
	assert.True(t, errors.Is(d.Err(), ErrInvariantViolation))
}

func TestExtractTricksFirstLeader(t *testing.T) {
	evs := []event.Event{event.RoundStart{Dealer: 0}, event.Bid{Seat: 0, Action: event.BidSun}}
	evs = append(evs, plays(0, "9C 10C 8S KC")...)
	x := ExtractTricks(roundFrom(t, evs...))
	require.Len(t, x.Divergences, 1)
	assert.Equal(t, CategoryChaining, x.Divergences[0].Category)
	assert.Contains(t, x.Divergences[0].Explanation, "dealer")
}

func TestExtractTricksTurnOrderAndDuplicates(t *testing.T) {
	evs := []event.Event{
		event.RoundStart{Dealer: 3},
		event.Bid{Seat: 0, Action: event.BidSun},
		event.CardPlayed{Seat: 0, Card: engine.MustParseCards("9C")[0]},
		event.CardPlayed{Seat: 2, Card: engine.MustParseCards("8S")[0]},
		event.CardPlayed{Seat: 1, Card: engine.MustParseCards("9C")[0]},
	}
	x := ExtractTricks(roundFrom(t, evs...))
	assert.Contains(t, categories(x.Divergences), CategoryTurnOrder)
	assert.Contains(t, categories(x.Divergences), CategoryDuplicate)
	assert.Empty(t, x.Tricks)
}

func TestExtractTricksLegality(t *testing.T) {
	hands := [engine.MaxPlayers]string{
		"10D 7D 9C 9H 9S JD JH JS",
		"10C 7H 8C 8H AH KS QC QH",
		"10S 7S 8S AD AS KH QD QS",
		"10H 7C 8D 9D AC JC KC KD",
	}
	evs := []event.Event{event.RoundStart{Dealer: 3}}
	for s, h := range hands {
		evs = append(evs, event.HandDealt{Seat: engine.Seat(s), Cards: engine.MustParseCards(h)})
	}
	evs = append(evs, event.Bid{Seat: 0, Action: event.BidSun})
	// Seat 1 holds clubs but plays a heart; seat 2 plays a card it does not hold.
	evs = append(evs, plays(0, "9C 7H AH 7C")...)
	x := ExtractTricks(roundFrom(t, evs...))

	var legality []Divergence
	for _, d := range x.Divergences {
		if d.Category == CategoryLegality {
			legality = append(legality, d)
		}
	}
	require.Len(t, legality, 2)
	assert.Contains(t, legality[0].Expected, "10C")
	assert.Equal(t, "7H", legality[0].Computed)
	assert.Contains(t, legality[1].Explanation, "not in its remaining hand")
}

func TestValidateSampleRounds(t *testing.T) {
	sess := sampleSession(t)
	v := newTestValidator()
	rules := v.Rules()

	cases := []struct {
		round      int
		cardAbnat  [2]int
		cardPoints [2]int
		kaboot     bool
		khasara    bool
		final      [2]int
	}{
		{round: 0, cardAbnat: [2]int{47, 105}, cardPoints: [2]int{5, 11}, final: [2]int{5, 13}},
		{round: 1, cardAbnat: [2]int{90, 30}, cardPoints: [2]int{20, 6}, final: [2]int{20, 6}},
		{round: 2, cardAbnat: [2]int{152, 0}, cardPoints: [2]int{16, 0}, kaboot: true, final: [2]int{25, 0}},
		{round: 3, cardAbnat: [2]int{37, 115}, cardPoints: [2]int{4, 12}, khasara: true, final: [2]int{2, 32}},
		{round: 5, cardAbnat: [2]int{90, 30}, cardPoints: [2]int{20, 6}, final: [2]int{152, 0}},
	}
	for _, tc := range cases {
		rep := v.Validate(sess.Rounds[tc.round])
		require.NotNil(t, rep.Computation, "round %d skipped: %s", tc.round, rep.Skipped)
		c := rep.Computation
		assert.True(t, rep.Agreed(), "round %d: %v", tc.round, rep.Divergences)
		assert.Equal(t, ConventionExcludesBonus, rep.Convention)
		assert.Equal(t, tc.cardAbnat, c.CardAbnat, "round %d", tc.round)
		assert.Equal(t, tc.cardPoints, c.CardPoints, "round %d", tc.round)
		assert.Equal(t, tc.kaboot, c.Kaboot, "round %d", tc.round)
		assert.Equal(t, tc.khasara, c.Khasara, "round %d", tc.round)
		assert.Equal(t, tc.final, c.Final, "round %d", tc.round)

		assert.Equal(t, rules.DeckAbnat(c.Mode), c.CardAbnat[0]+c.CardAbnat[1], "conservation round %d", tc.round)
		assert.Equal(t, rules.DeckAbnat(c.Mode)+rules.LastTrickBonus, c.Abnat[0]+c.Abnat[1])
		assert.Equal(t, rules.GameTotal(c.Mode), c.CardPoints[0]+c.CardPoints[1], "game total round %d", tc.round)
	}
}

func TestValidateHokumDeclarationScenario(t *testing.T) {
	c := newTestValidator().Validate(sampleSession(t).Rounds[0]).Computation
	require.NotNil(t, c)
	assert.Equal(t, [2]int{47, 115}, c.Abnat)
	assert.Equal(t, [2]int{0, 20}, c.DeclAbnat)
	assert.Equal(t, [2]int{0, 2}, c.DeclPoints)
	assert.Equal(t, 0, c.Adjustment)
	assert.Equal(t, engine.Team2, c.LastTrickTeam)
}

func TestValidateKhasaraWithBaloot(t *testing.T) {
	c := newTestValidator().Validate(sampleSession(t).Rounds[3]).Computation
	require.NotNil(t, c)
	assert.Equal(t, [2]int{2, 0}, c.Baloot)
	assert.Equal(t, [2]int{0, 16}, c.PreMultiply)
	assert.Equal(t, [2]int{0, 32}, c.Multiplied)
	assert.Equal(t, engine.MultDouble, c.Multiplier)
}

func TestValidateAcceptsBonusConvention(t *testing.T) {
	rd := sampleSession(t).Rounds[0].Clone()
	rd.Result.Team2Abnat = 115
	rep := newTestValidator().Validate(rd)
	assert.Equal(t, ConventionIncludesBonus, rep.Convention)
	assert.True(t, rep.Agreed(), "%v", rep.Divergences)
}

func TestValidateFlagsSourceInconsistency(t *testing.T) {
	rd := sampleSession(t).Rounds[0].Clone()
	rd.Result.Team1Abnat = 50
	rep := newTestValidator().Validate(rd)
	require.Len(t, rep.Divergences, 1)
	d := rep.Divergences[0]
	assert.Equal(t, CategoryConservation, d.Category)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, ConventionUnknown, rep.Convention)
	assert.True(t, errors.Is(d.Err(), ErrInvariantViolation))
}

func TestValidateAttributesSteps(t *testing.T) {
	sess := sampleSession(t)
	cases := []struct {
		name   string
		round  int
		mutate func(*event.Result)
		cat    Category
		step   int
	}{
		{"declaration left out", 0, func(r *event.Result) { r.Team2Points = 11 }, CategoryGamePoints, 2},
		{"conversion", 1, func(r *event.Result) { r.Team1Points, r.Team2Points = 21, 5 }, CategoryGamePoints, 3},
		{"baloot doubled", 3, func(r *event.Result) { r.Team1Points = 4 }, CategoryGamePoints, 7},
		{"baloot dropped", 3, func(r *event.Result) { r.Team1Points = 0 }, CategoryGamePoints, 7},
		{"no khasara", 3, func(r *event.Result) { r.Team1Points, r.Team2Points = 10, 24 }, CategoryGamePoints, 5},
		{"multiplier", 3, func(r *event.Result) { r.Team1Points, r.Team2Points = 2, 48 }, CategoryGamePoints, 6},
		{"kaboot flag", 2, func(r *event.Result) { r.Kaboot = false }, CategoryKaboot, 4},
		{"doubling level", 3, func(r *event.Result) { r.Multiplier = engine.MultTriple }, CategoryMultiplier, 6},
		{"bidder", 1, func(r *event.Result) { r.BidderTeam = engine.Team2 }, CategoryBidder, 5},
	}
	v := newTestValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rd := sess.Rounds[tc.round].Clone()
			tc.mutate(rd.Result)
			rep := v.Validate(rd)
			require.NotEmpty(t, rep.Divergences)
			d := rep.Divergences[0]
			assert.Equal(t, tc.cat, d.Category)
			assert.Equal(t, tc.step, d.Step)
			assert.False(t, d.Invariant)
			assert.True(t, errors.Is(d.Err(), ErrValidationMismatch))
		})
	}
}

func TestValidateSourceTrickWinner(t *testing.T) {
	rd := sampleSession(t).Rounds[0].Clone()
	rd.Tricks[0].SourceWinner = 0
	rep := newTestValidator().Validate(rd)
	require.Len(t, rep.Divergences, 1)
	d := rep.Divergences[0]
	assert.Equal(t, CategoryTrickWinner, d.Category)
	assert.Equal(t, "1", d.Expected)
	assert.Equal(t, "4", d.Computed)
}

func TestValidateDeclarations(t *testing.T) {
	sess := sampleSession(t)

	rd := sess.Rounds[0].Clone()
	rd.Declarations[0].Cards = engine.MustParseCards("7H 8H 10H")
	rep := newTestValidator().Validate(rd)
	require.NotEmpty(t, rep.Divergences)
	assert.Equal(t, CategoryDeclaration, rep.Divergences[0].Category)
	assert.True(t, rep.Divergences[0].Invariant)

	rd = sess.Rounds[0].Clone()
	rd.Declarations[0].Cards = nil
	rd.Declarations[0].Kind = engine.DeclFifty
	rep = newTestValidator().Validate(rd)
	assert.Contains(t, categories(rep.Divergences), CategoryDeclaration)

	rd = sess.Rounds[0].Clone()
	rd.Result.Declarations = nil
	rep = newTestValidator().Validate(rd)
	require.Len(t, rep.Divergences, 1)
	assert.Equal(t, "credited declarations", rep.Divergences[0].Explanation)
}

func TestValidateSkipsUnscoredRounds(t *testing.T) {
	sess := sampleSession(t)
	rep := newTestValidator().Validate(sess.Rounds[4])
	assert.Nil(t, rep.Computation)
	assert.Equal(t, "round redeal", rep.Skipped)
	assert.True(t, rep.Agreed())
}

func forfeitRound(t *testing.T, res event.Result) *replay.RoundRecord {
	t.Helper()
	evs := []event.Event{event.RoundStart{Dealer: 3}, event.Bid{Seat: 0, Action: event.BidSun}}
	evs = append(evs, plays(0, "9C 10C 8S KC")...)
	evs = append(evs, event.Forfeit{Team: engine.Team2}, event.RoundResult{Result: res})
	rd := roundFrom(t, evs...)
	require.Equal(t, replay.StatusClosed, rd.Status)
	return rd
}

func TestValidateForfeitScoresFlatAward(t *testing.T) {
	rd := forfeitRound(t, event.Result{Team1Abnat: 120, Team1Points: 44, Kaboot: true, Multiplier: engine.MultNone, BidderTeam: engine.Team1})
	rep := newTestValidator().Validate(rd)
	assert.Empty(t, rep.Skipped)
	require.NotNil(t, rep.Computation)
	assert.True(t, rep.Computation.Kaboot)
	assert.Equal(t, engine.Team1, rep.Computation.KabootTeam)
	assert.Equal(t, [2]int{44, 0}, rep.Computation.Final)
	assert.True(t, rep.Agreed(), "%v", rep.Divergences)
}

func TestValidateForfeitChecksSourceTotals(t *testing.T) {
	rd := forfeitRound(t, event.Result{Team1Abnat: 999, Team2Abnat: 7, Team1Points: 500, Team2Points: 3, Kaboot: true, Multiplier: engine.MultNone})
	rep := newTestValidator().Validate(rd)
	assert.Empty(t, rep.Skipped)
	cats := categories(rep.Divergences)
	assert.Contains(t, cats, CategoryConservation)
	assert.Contains(t, cats, CategoryGamePoints)
	assert.NotContains(t, cats, CategoryIncomplete)

	rd = forfeitRound(t, event.Result{Team1Abnat: 120, Team1Points: 44, Multiplier: engine.MultNone})
	rep = newTestValidator().Validate(rd)
	assert.Contains(t, categories(rep.Divergences), CategoryKaboot)
}

func TestValidateShortRoundStillChecksSource(t *testing.T) {
	evs := []event.Event{event.RoundStart{Dealer: 3}, event.Bid{Seat: 0, Action: event.BidSun}}
	evs = append(evs, plays(0, "9C 10C 8S KC")...)
	evs = append(evs, event.RoundResult{Result: event.Result{Team1Abnat: 999, Team1Points: 44, Kaboot: true}})
	rep := newTestValidator().Validate(roundFrom(t, evs...))
	assert.Equal(t, "1 of 8 tricks", rep.Skipped)
	assert.Nil(t, rep.Computation)
	cats := categories(rep.Divergences)
	assert.Contains(t, cats, CategoryIncomplete)
	assert.Contains(t, cats, CategoryConservation)
	assert.Contains(t, cats, CategoryKaboot)
}

func TestGahwaWinnerTie(t *testing.T) {
	assert.Equal(t, engine.Team1, gahwaWinner([2]int{10, 5}, engine.Team2))
	assert.Equal(t, engine.Team2, gahwaWinner([2]int{0, 16}, engine.Team1))
	assert.Equal(t, engine.Team1, gahwaWinner([2]int{8, 8}, engine.Team2))
	assert.Equal(t, engine.Team2, gahwaWinner([2]int{8, 8}, engine.Team1))
}

func TestInferConvention(t *testing.T) {
	rules := engine.DefaultRules()
	assert.Equal(t, ConventionExcludesBonus, InferConvention([2]int{60, 92}, engine.ModeHokum, &rules))
	assert.Equal(t, ConventionIncludesBonus, InferConvention([2]int{70, 92}, engine.ModeHokum, &rules))
	assert.Equal(t, ConventionExcludesBonus, InferConvention([2]int{60, 60}, engine.ModeSun, &rules))
	assert.Equal(t, ConventionIncludesBonus, InferConvention([2]int{0, 130}, engine.ModeSun, &rules))
	assert.Equal(t, ConventionUnknown, InferConvention([2]int{1, 2}, engine.ModeSun, &rules))
}

func TestValidateSession(t *testing.T) {
	sess := sampleSession(t)
	v := newTestValidator()

	rep := v.ValidateSession(sess)
	assert.Len(t, rep.Rounds, 6)
	assert.Empty(t, rep.All())

	sess.Rounds[1].Result.Team1Cumulative = 99
	rep = v.ValidateSession(sess)
	all := rep.All()
	require.Len(t, all, 2)
	assert.Equal(t, CategoryCumulative, all[0].Category)
	assert.Equal(t, 8, all[0].Step)
}
