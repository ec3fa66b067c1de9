// Package replay rebuilds rounds from canonical events. A Reconstructor is
// fed one event at a time and hands each finished round to its GameSession.
package replay

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
)

var (
	// ErrIdentityNotFound is returned when the observer's seat cannot be
	// discovered before the first dealt hand.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIncompleteRound marks a round that ended without a result.
	ErrIncompleteRound = errors.New("incomplete round")
)

// DiscoverSelfSeat returns the seat bound to username by the Identity events
// that precede the first HandDealt. Names compare case-insensitively after
// trimming.
func DiscoverSelfSeat(events []event.Event, username string) (engine.Seat, error) {
	want := normalizeName(username)
	if want == "" {
		return engine.NoSeat, fmt.Errorf("%w: empty username", ErrIdentityNotFound)
	}
	for _, ev := range events {
		switch e := ev.(type) {
		case event.HandDealt:
			return engine.NoSeat, fmt.Errorf("%w: %q before first deal", ErrIdentityNotFound, username)
		case event.Identity:
			if e.Seat.Valid() && normalizeName(e.Name) == want {
				return e.Seat, nil
			}
		}
	}
	return engine.NoSeat, fmt.Errorf("%w: %q", ErrIdentityNotFound, username)
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Options configures a Reconstructor.
type Options struct {
	// Observer is the username whose seat anchors relative views.
	Observer string
	// FixedSeat pins the observer to SelfSeat up front (archives) instead
	// of discovering it from identity events.
	FixedSeat bool
	SelfSeat  engine.Seat
	// Source names the session, e.g. an archive id.
	Source string
	Rules  *engine.Rules
	Log    logrus.FieldLogger
	// OnRoundClosed is called with each round handed to the session. It
	// runs under the reconstructor's lock and must not call back into it.
	OnRoundClosed func(*RoundRecord)
}

// Reconstructor maintains the round currently in progress. Apply is meant for
// a single writer; Snapshot and View may be called concurrently with it.
type Reconstructor struct {
	mu sync.RWMutex

	opts    Options
	log     logrus.FieldLogger
	session *GameSession

	self    engine.Seat
	cur     *RoundRecord
	pending []engine.Card // observer hand seen before identity resolved
	turn    engine.Seat

	passRun  int // consecutive passes in the current bidding round
	doubling bool
}

// New returns a Reconstructor with an empty session.
func New(opts Options) *Reconstructor {
	rules := engine.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Reconstructor{
		opts:    opts,
		log:     log.WithField("source", opts.Source),
		session: NewGameSession(opts.Source, rules),
		self:    engine.NoSeat,
		turn:    engine.NoSeat,
	}
	if opts.FixedSeat && opts.SelfSeat.Valid() {
		r.self = opts.SelfSeat
	}
	return r
}

// Session returns the session receiving closed rounds.
func (r *Reconstructor) Session() *GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// SelfSeat returns the observer seat and whether it is known.
func (r *Reconstructor) SelfSeat() (engine.Seat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self, r.self.Valid()
}

// Snapshot returns a deep copy of the open round, or nil between rounds.
func (r *Reconstructor) Snapshot() *RoundRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur.Clone()
}

// ApplyAll applies events in order and returns every non-nil error joined.
func (r *Reconstructor) ApplyAll(events []event.Event) error {
	var errs []error
	for _, ev := range events {
		if err := r.Apply(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Apply folds one event into the current round. Errors are informational:
// the reconstructor stays usable after any of them.
func (r *Reconstructor) Apply(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case event.Identity:
		r.identity(e)
		return nil

	case event.RoundStart:
		// Hands may arrive before the start itself; a round with no bids
		// or plays yet is the same round.
		var err error
		if r.cur == nil || r.cur.Bidding.Bids > 0 || r.cur.Plays() > 0 {
			err = r.interrupt("new round started")
			r.open()
		}
		r.cur.Dealer = e.Dealer
		if e.Dealer.Valid() {
			r.turn = engine.NextSeat(e.Dealer)
		}
		return err

	case event.HandDealt:
		var err error
		if r.cur != nil && r.cur.Plays() > 0 {
			err = r.interrupt("new hand dealt")
		}
		if r.cur == nil {
			r.open()
		}
		r.deal(e)
		return err

	case event.Chat:
		if r.cur != nil {
			r.cur.Chat++
		}
		return nil

	case event.Connection:
		r.log.WithField("seat", e.Seat.OneBased()).Debugf("connected=%t", e.Connected)
		return nil

	case event.Turn:
		r.turn = e.Seat
		return nil
	}

	if r.cur == nil {
		r.log.Debugf("%s outside a round, opening one", ev.Type())
		r.open()
	}

	switch e := ev.(type) {
	case event.Bid:
		r.bid(e)
	case event.Declared:
		r.declare(e)
	case event.CardPlayed:
		r.play(e)
	case event.TrickBoundary:
		r.boundary(e)
	case event.Forfeit:
		r.cur.Forfeit = e.Team
	case event.RoundResult:
		res := e.Result
		res.Declarations = append([]event.ResultDeclaration(nil), e.Result.Declarations...)
		r.cur.Result = &res
		r.close(StatusClosed, "")
	case event.Redeal:
		r.close(StatusRedeal, "")
	case event.Abandoned:
		r.close(StatusAbandoned, e.Reason)
		return fmt.Errorf("%w: %s", ErrIncompleteRound, e.Reason)
	default:
		return fmt.Errorf("unhandled event %s", ev.Type())
	}
	return nil
}

// Finish closes a trailing open round that saw any bidding or play.
func (r *Reconstructor) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupt("stream ended")
}

func (r *Reconstructor) open() {
	r.cur = newRound(len(r.session.Rounds))
	r.turn = engine.NoSeat
	r.pending = nil
	r.passRun = 0
	r.doubling = false
}

// interrupt closes the open round as abandoned when it saw activity, and
// discards it otherwise.
func (r *Reconstructor) interrupt(reason string) error {
	if r.cur == nil {
		return nil
	}
	if r.cur.Bidding.Bids == 0 && r.cur.Plays() == 0 {
		r.cur = nil
		return nil
	}
	idx := r.cur.Index
	r.close(StatusAbandoned, reason)
	return fmt.Errorf("%w: round %d: %s", ErrIncompleteRound, idx, reason)
}

func (r *Reconstructor) close(status Status, reason string) {
	rec := r.cur
	rec.Status = status
	rec.Reason = reason
	r.cur = nil
	r.turn = engine.NoSeat
	r.session.add(rec)

	entry := r.log.WithFields(logrus.Fields{"round": rec.Index, "status": status.String()})
	if status == StatusAbandoned {
		entry.Warnf("round closed without result: %s", reason)
	} else {
		entry.Debug("round closed")
	}
	if r.opts.OnRoundClosed != nil {
		r.opts.OnRoundClosed(rec)
	}
}

func (r *Reconstructor) identity(e event.Identity) {
	if e.Seat.Valid() {
		r.session.Names[e.Seat] = e.Name
	}
	if r.self.Valid() || r.opts.Observer == "" || !e.Seat.Valid() {
		return
	}
	if normalizeName(e.Name) != normalizeName(r.opts.Observer) {
		return
	}
	r.self = e.Seat
	r.log.WithField("seat", e.Seat.OneBased()).Info("observer seat resolved")
	if r.pending != nil && r.cur != nil && r.cur.Hands[r.self] == nil {
		r.cur.Hands[r.self] = r.pending
	}
	r.pending = nil
}

func (r *Reconstructor) deal(e event.HandDealt) {
	cards := append([]engine.Card{}, e.Cards...)
	seat := e.Seat
	if e.Observer || !seat.Valid() {
		if !r.self.Valid() {
			r.pending = cards
			return
		}
		seat = r.self
	}
	r.cur.Hands[seat] = cards
}

func (r *Reconstructor) bid(e event.Bid) {
	st := &r.cur.Bidding
	c := &r.cur.Contract
	switch {
	case st.Bids == 0:
		st.SubPhases = 1
	case r.passRun == engine.MaxPlayers && c.Mode == engine.ModeNone:
		st.SubPhases++
		r.passRun = 0
	}
	st.Bids++
	r.turn = engine.NextSeat(e.Seat)

	if e.Action == event.BidPass {
		st.Passes++
		r.passRun++
		return
	}
	r.passRun = 0

	switch e.Action {
	case event.BidSun, event.BidAshkal:
		if c.Mode == engine.ModeSun {
			r.log.WithField("seat", e.Seat.OneBased()).Debug("sun already set, ignored")
			return
		}
		c.Mode = engine.ModeSun
		c.Bidder = e.Seat
		if e.Action == event.BidAshkal {
			c.Bidder = engine.Partner(e.Seat)
		}
	case event.BidHokum:
		if !e.HasTrump {
			r.log.WithField("seat", e.Seat.OneBased()).Warn("hokum bid without trump, ignored")
			return
		}
		if c.Mode != engine.ModeNone {
			r.log.WithField("seat", e.Seat.OneBased()).Debugf("hokum after %s, ignored", c.Mode)
			return
		}
		c.Mode = engine.ModeHokum
		c.Trump = e.Trump
		c.Bidder = e.Seat
	default:
		level := escalation(e.Action)
		if !r.doubling {
			r.doubling = true
			st.SubPhases++
		}
		st.Escalations++
		if level > c.Multiplier {
			c.Multiplier = level
			if e.Action == event.BidDouble {
				c.Variant = e.Variant
			}
		}
	}
}

func escalation(a event.BidAction) engine.Multiplier {
	switch a {
	case event.BidDouble:
		return engine.MultDouble
	case event.BidTriple:
		return engine.MultTriple
	case event.BidFour:
		return engine.MultQuadruple
	case event.BidGahwa:
		return engine.MultGahwa
	}
	return engine.MultNone
}

// declare records a declaration; a repeat from the same seat replaces the
// earlier one of the same family (baloot or not).
func (r *Reconstructor) declare(e event.Declared) {
	d := engine.Declaration{Seat: e.Seat, Kind: e.Kind, Cards: append([]engine.Card(nil), e.Cards...)}
	for i, prev := range r.cur.Declarations {
		if prev.Seat == d.Seat && (prev.Kind == engine.DeclBaloot) == (d.Kind == engine.DeclBaloot) {
			r.cur.Declarations[i] = d
			return
		}
	}
	r.cur.Declarations = append(r.cur.Declarations, d)
}

func (r *Reconstructor) play(e event.CardPlayed) {
	n := len(r.cur.Tricks)
	if n == 0 || r.cur.Tricks[n-1].Complete() {
		r.cur.Tricks = append(r.cur.Tricks, Trick{SourceWinner: engine.NoSeat})
		n++
	}
	t := &r.cur.Tricks[n-1]
	if r.turn.Valid() && r.turn != e.Seat {
		r.log.WithFields(logrus.Fields{"round": r.cur.Index, "seat": e.Seat.OneBased(), "turn": r.turn.OneBased()}).
			Debug("play out of turn order")
	}
	t.Plays = append(t.Plays, Play{Seat: e.Seat, Card: e.Card})
	if t.Complete() {
		r.turn = engine.NoSeat
	} else {
		r.turn = engine.NextSeat(e.Seat)
	}
}

// boundary attaches the source winner to the latest complete trick without
// one; the winner leads next.
func (r *Reconstructor) boundary(e event.TrickBoundary) {
	r.turn = e.Winner
	for i := len(r.cur.Tricks) - 1; i >= 0; i-- {
		t := &r.cur.Tricks[i]
		if t.Complete() && t.SourceWinner == engine.NoSeat {
			t.SourceWinner = e.Winner
			return
		}
	}
	r.log.WithField("round", r.cur.Index).Debug("trick boundary without a complete trick")
}

// Replay runs events through a fresh Reconstructor and returns its session.
// The joined error lists every incomplete round.
func Replay(events []event.Event, opts Options) (*GameSession, error) {
	r := New(opts)
	err := r.ApplyAll(events)
	if ferr := r.Finish(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	return r.Session(), err
}
