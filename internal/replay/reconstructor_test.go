package replay

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
)

func sampleEvents(t *testing.T) []event.Event {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	return archive.NewAdapter(log).Events(archive.SampleArchive("sample").File())
}

func quietOptions() (Options, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return Options{Log: log, Source: "test"}, hook
}

func TestDiscoverSelfSeat(t *testing.T) {
	evs := []event.Event{
		event.Identity{Name: "Ali", Seat: 0},
		event.Identity{Name: "  Omar ", Seat: 2},
		event.HandDealt{Seat: 0, Cards: engine.MustParseCards("7S")},
		event.Identity{Name: "late", Seat: 3},
	}

	seat, err := DiscoverSelfSeat(evs, "omar")
	require.NoError(t, err)
	assert.Equal(t, engine.Seat(2), seat)

	seat, err = DiscoverSelfSeat(evs, "ALI ")
	require.NoError(t, err)
	assert.Equal(t, engine.Seat(0), seat)

	_, err = DiscoverSelfSeat(evs, "late")
	assert.True(t, errors.Is(err, ErrIdentityNotFound))

	_, err = DiscoverSelfSeat(evs[:2], "nobody")
	assert.True(t, errors.Is(err, ErrIdentityNotFound))

	_, err = DiscoverSelfSeat(evs, "  ")
	assert.True(t, errors.Is(err, ErrIdentityNotFound))
}

func TestReplaySampleArchive(t *testing.T) {
	opts, _ := quietOptions()
	opts.FixedSeat, opts.SelfSeat = true, 0
	sess, err := Replay(sampleEvents(t), opts)
	require.NoError(t, err)

	require.Len(t, sess.Rounds, 6)
	assert.Equal(t, archive.SamplePlayers, sess.Names)
	want := []Status{StatusClosed, StatusClosed, StatusClosed, StatusClosed, StatusRedeal, StatusClosed}
	for i, r := range sess.Rounds {
		assert.Equal(t, want[i], r.Status, "round %d", i)
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, [2]int{204, 51}, sess.Cumulative)
	assert.True(t, sess.Terminal())
	assert.Equal(t, engine.Team1, sess.Winner())
	assert.Len(t, sess.Scored(), 5)

	st := sess.Stats()
	assert.Equal(t, 6, st.Rounds)
	assert.Equal(t, 5, st.Scored)
	assert.Equal(t, 1, st.Redeals)
	assert.Equal(t, 40, st.Tricks)
	assert.Equal(t, 4+4+4+4+8+8, st.Bids)

	refs := map[string]bool{}
	for _, r := range sess.Rounds {
		refs[r.Ref.String()] = true
	}
	assert.Len(t, refs, 6)
}

func TestReplayHokumRound(t *testing.T) {
	opts, _ := quietOptions()
	sess, err := Replay(sampleEvents(t), opts)
	require.NoError(t, err)
	rd := sess.Rounds[0]

	assert.Equal(t, engine.Seat(0), rd.Dealer)
	assert.Equal(t, Contract{Mode: engine.ModeHokum, Trump: engine.Hearts, Bidder: 1, Multiplier: engine.MultNone}, rd.Contract)
	assert.Equal(t, engine.Team2, rd.Contract.BidderTeam())
	assert.Equal(t, BiddingStats{Bids: 4, Passes: 3, SubPhases: 1}, rd.Bidding)
	assert.True(t, rd.HandsKnown())

	require.Len(t, rd.Tricks, engine.TricksPerRound)
	winners := make([]engine.Seat, len(rd.Tricks))
	for i, tr := range rd.Tricks {
		require.True(t, tr.Complete())
		winners[i] = tr.SourceWinner
	}
	assert.Equal(t, []engine.Seat{3, 1, 2, 3, 1, 3, 0, 3}, winners)
	assert.Equal(t, engine.Seat(1), rd.Tricks[0].Leader())
	assert.Equal(t, engine.MustParseCards("9H QH JH AH"), rd.Tricks[0].Cards())

	require.Len(t, rd.Declarations, 1)
	assert.Equal(t, engine.DeclSira, rd.Declarations[0].Kind)
	assert.Equal(t, engine.Seat(1), rd.Declarations[0].Seat)

	require.NotNil(t, rd.Result)
	assert.Equal(t, [2]int{5, 13}, rd.Result.Points())
	assert.Equal(t, [2]int{47, 105}, rd.Result.Abnat())
	assert.Empty(t, rd.Remaining(0))
}

func TestReplayRedealAndEscalation(t *testing.T) {
	opts, _ := quietOptions()
	sess, err := Replay(sampleEvents(t), opts)
	require.NoError(t, err)

	redeal := sess.Rounds[4]
	assert.Equal(t, StatusRedeal, redeal.Status)
	assert.Empty(t, redeal.Tricks)
	assert.Nil(t, redeal.Result)
	assert.Equal(t, BiddingStats{Bids: 8, Passes: 8, SubPhases: 2}, redeal.Bidding)
	assert.Equal(t, engine.ModeNone, redeal.Contract.Mode)

	gahwa := sess.Rounds[5]
	assert.Equal(t, engine.ModeSun, gahwa.Contract.Mode)
	assert.Equal(t, engine.MultGahwa, gahwa.Contract.Multiplier)
	assert.Equal(t, 4, gahwa.Bidding.Escalations)
	assert.Equal(t, 2, gahwa.Bidding.SubPhases)

	khasara := sess.Rounds[3]
	assert.Equal(t, engine.MultDouble, khasara.Contract.Multiplier)
	assert.Equal(t, engine.Diamonds, khasara.Contract.Trump)
}

func TestContractUpgrades(t *testing.T) {
	cases := []struct {
		name string
		bids []event.Bid
		want Contract
	}{
		{
			name: "sun overrides hokum",
			bids: []event.Bid{
				{Seat: 1, Action: event.BidHokum, Trump: engine.Clubs, HasTrump: true},
				{Seat: 2, Action: event.BidSun},
				{Seat: 3, Action: event.BidHokum, Trump: engine.Spades, HasTrump: true},
			},
			want: Contract{Mode: engine.ModeSun, Bidder: 2, Multiplier: engine.MultNone},
		},
		{
			name: "first hokum holds",
			bids: []event.Bid{
				{Seat: 1, Action: event.BidHokum, Trump: engine.Clubs, HasTrump: true},
				{Seat: 2, Action: event.BidHokum, Trump: engine.Spades, HasTrump: true},
			},
			want: Contract{Mode: engine.ModeHokum, Trump: engine.Clubs, Bidder: 1, Multiplier: engine.MultNone},
		},
		{
			name: "hokum without trump ignored",
			bids: []event.Bid{
				{Seat: 1, Action: event.BidHokum},
				{Seat: 2, Action: event.BidHokum, Trump: engine.Diamonds, HasTrump: true},
			},
			want: Contract{Mode: engine.ModeHokum, Trump: engine.Diamonds, Bidder: 2, Multiplier: engine.MultNone},
		},
		{
			name: "ashkal hands sun to partner",
			bids: []event.Bid{
				{Seat: 1, Action: event.BidPass},
				{Seat: 3, Action: event.BidAshkal},
			},
			want: Contract{Mode: engine.ModeSun, Bidder: 1, Multiplier: engine.MultNone},
		},
		{
			name: "multiplier only escalates",
			bids: []event.Bid{
				{Seat: 1, Action: event.BidHokum, Trump: engine.Hearts, HasTrump: true},
				{Seat: 2, Action: event.BidDouble, Variant: engine.VariantClosed},
				{Seat: 1, Action: event.BidTriple},
				{Seat: 2, Action: event.BidDouble},
			},
			want: Contract{Mode: engine.ModeHokum, Trump: engine.Hearts, Bidder: 1, Multiplier: engine.MultTriple, Variant: engine.VariantClosed},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts, _ := quietOptions()
			r := New(opts)
			require.NoError(t, r.Apply(event.RoundStart{Dealer: 0}))
			for _, b := range tc.bids {
				require.NoError(t, r.Apply(b))
			}
			snap := r.Snapshot()
			require.NotNil(t, snap)
			assert.Equal(t, tc.want, snap.Contract)
		})
	}
}

func TestDeclarationOverwrite(t *testing.T) {
	opts, _ := quietOptions()
	r := New(opts)
	require.NoError(t, r.ApplyAll([]event.Event{
		event.RoundStart{Dealer: 0},
		event.Declared{Seat: 1, Kind: engine.DeclSira, Cards: engine.MustParseCards("7H 8H 9H")},
		event.Declared{Seat: 1, Kind: engine.DeclBaloot, Cards: engine.MustParseCards("KH QH")},
		event.Declared{Seat: 2, Kind: engine.DeclHundred},
		event.Declared{Seat: 1, Kind: engine.DeclFifty, Cards: engine.MustParseCards("7H 8H 9H 10H")},
	}))
	snap := r.Snapshot()
	require.Len(t, snap.Declarations, 3)
	assert.Equal(t, engine.DeclFifty, snap.Declarations[0].Kind)
	assert.Len(t, snap.Declarations[0].Cards, 4)
	assert.Equal(t, engine.DeclBaloot, snap.Declarations[1].Kind)
	assert.Equal(t, engine.Seat(2), snap.Declarations[2].Seat)
}

func TestInterruptedRoundIsAbandoned(t *testing.T) {
	opts, hook := quietOptions()
	var closed []*RoundRecord
	opts.OnRoundClosed = func(rd *RoundRecord) { closed = append(closed, rd) }
	r := New(opts)

	require.NoError(t, r.ApplyAll([]event.Event{
		event.RoundStart{Dealer: 0},
		event.Bid{Seat: 1, Action: event.BidSun},
		event.CardPlayed{Seat: 1, Card: engine.MustParseCards("AS")[0]},
		event.CardPlayed{Seat: 2, Card: engine.MustParseCards("7S")[0]},
	}))
	err := r.Apply(event.RoundStart{Dealer: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteRound))

	sess := r.Session()
	require.Len(t, sess.Rounds, 1)
	assert.Equal(t, StatusAbandoned, sess.Rounds[0].Status)
	assert.Nil(t, sess.Rounds[0].Result)
	assert.Equal(t, [2]int{0, 0}, sess.Cumulative)
	require.Len(t, closed, 1)
	assert.Same(t, sess.Rounds[0], closed[0])

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)

	// The new round is open and empty; an idle round is dropped, not abandoned.
	require.NoError(t, r.Apply(event.RoundStart{Dealer: 2}))
	require.NoError(t, r.Finish())
	assert.Len(t, r.Session().Rounds, 1)
}

func TestHandsBeforeRoundStartKept(t *testing.T) {
	hand := engine.MustParseCards("7S 8S 9S 10S JS")
	b := archive.NewBuilder("early-hand", archive.SamplePlayers).Round(3).Hand(0, hand)
	for i := 0; i < 2*engine.MaxPlayers; i++ {
		b.Pass(engine.Seat(i % engine.MaxPlayers))
	}
	f := b.File()
	recs := f.Rounds[0]
	recs[0], recs[1] = recs[1], recs[0]
	require.Equal(t, archive.KindHandDealt, recs[0].Kind)

	log, _ := logtest.NewNullLogger()
	evs := archive.NewAdapter(log).Events(f)
	opts, _ := quietOptions()
	sess, err := Replay(evs, opts)
	require.NoError(t, err)

	require.Len(t, sess.Rounds, 1)
	rd := sess.Rounds[0]
	assert.Equal(t, StatusRedeal, rd.Status)
	assert.Equal(t, engine.Seat(3), rd.Dealer)
	assert.ElementsMatch(t, hand, rd.Hands[0])
}

func TestAbandonedEventAndFinish(t *testing.T) {
	opts, _ := quietOptions()
	r := New(opts)
	err := r.ApplyAll([]event.Event{
		event.RoundStart{Dealer: 0},
		event.Bid{Seat: 1, Action: event.BidPass},
		event.Abandoned{Reason: "host left"},
		event.RoundStart{Dealer: 1},
		event.Bid{Seat: 2, Action: event.BidSun},
	})
	assert.True(t, errors.Is(err, ErrIncompleteRound))
	err = r.Finish()
	assert.True(t, errors.Is(err, ErrIncompleteRound))

	sess := r.Session()
	require.Len(t, sess.Rounds, 2)
	assert.Equal(t, "host left", sess.Rounds[0].Reason)
	assert.Equal(t, "stream ended", sess.Rounds[1].Reason)
	assert.Equal(t, 2, sess.Stats().Abandoned)
}

func TestObserverHandBufferedUntilIdentity(t *testing.T) {
	opts, _ := quietOptions()
	opts.Observer = "Omar"
	r := New(opts)
	hand := engine.MustParseCards("7C 9D AD JS KC KD KS QH")

	require.NoError(t, r.ApplyAll([]event.Event{
		event.RoundStart{Dealer: 0},
		event.HandDealt{Seat: engine.NoSeat, Observer: true, Cards: hand},
		event.Bid{Seat: 1, Action: event.BidHokum, Trump: engine.Hearts, HasTrump: true},
	}))
	_, known := r.SelfSeat()
	assert.False(t, known)

	v := r.View()
	assert.True(t, v.WaitingForIdentity)
	assert.Len(t, v.Hand, engine.HandSize)
	assert.Nil(t, v.Turn)
	assert.False(t, v.MyTurn)
	assert.Nil(t, v.Contract)
	assert.Nil(t, r.Snapshot().Hands[2])

	require.NoError(t, r.Apply(event.Identity{Name: " OMAR", Seat: 2}))
	seat, known := r.SelfSeat()
	require.True(t, known)
	assert.Equal(t, engine.Seat(2), seat)
	assert.Equal(t, hand, r.Snapshot().Hands[2])

	v = r.View()
	assert.False(t, v.WaitingForIdentity)
	require.NotNil(t, v.Contract)
	assert.Equal(t, engine.RelLeft, v.Contract.Bidder)
	assert.Equal(t, "H", v.Contract.Trump)
	require.NotNil(t, v.Turn)
	assert.Equal(t, engine.RelSelf, *v.Turn)
	assert.True(t, v.MyTurn)
}

func TestViewMidTrick(t *testing.T) {
	opts, _ := quietOptions()
	opts.FixedSeat, opts.SelfSeat = true, 3
	r := New(opts)

	evs := sampleEvents(t)
	// identity, start, hands, bids, declaration, then two plays of trick one
	var prefix []event.Event
	plays := 0
	for _, ev := range evs {
		if _, ok := ev.(event.CardPlayed); ok {
			if plays == 2 {
				break
			}
			plays++
		}
		prefix = append(prefix, ev)
	}
	require.NoError(t, r.ApplyAll(prefix))

	v := r.View()
	assert.False(t, v.WaitingForIdentity)
	assert.Equal(t, 1, v.TrickNumber)
	require.NotNil(t, v.Dealer)
	assert.Equal(t, engine.RelSeat(1), *v.Dealer)
	require.Len(t, v.Table, 2)
	assert.Equal(t, engine.RelSeat(2), v.Table[0].Seat)
	assert.Equal(t, "9H", v.Table[0].Card.Text)
	assert.True(t, v.MyTurn)
	require.Len(t, v.LegalPlays, 1)
	assert.Equal(t, "JH", v.LegalPlays[0].Text)
	assert.Len(t, v.Hand, engine.HandSize)
	assert.Equal(t, [4]int{8, 8, 7, 7}, v.HandCounts)
	require.Len(t, v.Declarations, 1)
	assert.Equal(t, engine.RelPartner, v.Declarations[0].Seat)
	assert.Len(t, v.Unseen, 32-8-2)

	// Snapshot is detached from later writes.
	snap := r.Snapshot()
	require.NoError(t, r.Apply(event.CardPlayed{Seat: 3, Card: engine.MustParseCards("JH")[0]}))
	assert.Len(t, snap.Tricks[0].Plays, 2)
	assert.Len(t, r.Snapshot().Tricks[0].Plays, 3)
}

func TestPlayOutsideRoundOpensOne(t *testing.T) {
	opts, _ := quietOptions()
	r := New(opts)
	require.NoError(t, r.Apply(event.CardPlayed{Seat: 0, Card: engine.MustParseCards("AS")[0]}))
	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Plays())
	assert.Equal(t, engine.NoSeat, snap.Dealer)
}

func TestRoundRecordClone(t *testing.T) {
	rd := newRound(0)
	rd.Hands[0] = engine.MustParseCards("7S 8S")
	rd.Tricks = []Trick{{Plays: []Play{{Seat: 0, Card: engine.MustParseCards("7S")[0]}}, SourceWinner: engine.NoSeat}}
	rd.Declarations = []engine.Declaration{{Seat: 0, Kind: engine.DeclSira, Cards: engine.MustParseCards("7S 8S 9S")}}
	rd.Result = &event.Result{Declarations: []event.ResultDeclaration{{Team: engine.Team1, Kind: engine.DeclSira}}}

	c := rd.Clone()
	c.Hands[0][0] = engine.MustParseCards("AS")[0]
	c.Tricks[0].Plays[0].Seat = 3
	c.Declarations[0].Cards[0] = engine.MustParseCards("AS")[0]
	c.Result.Declarations[0].Team = engine.Team2

	assert.Equal(t, engine.MustParseCards("7S 8S"), rd.Hands[0])
	assert.Equal(t, engine.Seat(0), rd.Tricks[0].Plays[0].Seat)
	assert.Equal(t, engine.MustParseCards("7S 8S 9S"), rd.Declarations[0].Cards)
	assert.Equal(t, engine.Team1, rd.Result.Declarations[0].Team)
	assert.Nil(t, (*RoundRecord)(nil).Clone())
}
