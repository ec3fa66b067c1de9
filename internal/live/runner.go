package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/engine/agent"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/replay"
	"github.com/jason-s-yu/baloot/internal/validate"
	"github.com/jason-s-yu/baloot/internal/wire"
)

// DefaultDecideTimeout bounds one call to the Decider.
const DefaultDecideTimeout = 2 * time.Second

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Observer      string // username whose seat anchors the view
	Source        string // session name
	Rules         *engine.Rules
	Decoder       wire.Decoder
	Publisher     Publisher     // optional
	Decider       agent.Decider // optional; consulted when it is the observer's turn
	DecideTimeout time.Duration
	Log           logrus.FieldLogger
}

// RunnerStats summarises a finished or running session.
type RunnerStats struct {
	Frames       int
	Stream       wire.StreamStats
	Rounds       int
	Divergences  int
	Decisions    int
	PublishFails int
	Cumulative   [2]int
}

// Runner follows one live game. It owns the decode loop; Latest may be
// called from other goroutines, Stats once Run has returned.
type Runner struct {
	opts      RunnerOptions
	log       logrus.FieldLogger
	stream    *wire.Stream
	recon     *replay.Reconstructor
	validator *validate.Validator

	mu           sync.Mutex
	frames       int                     // frames received
	divergences  int                     // found in rounds closed so far
	decisions    int                     // Decider calls that returned a move
	publishFails int                     // publish errors, logged and ignored
	disconnected [engine.MaxPlayers]bool // from connection events
	lastTurn     string                  // dedupes decisions for the same turn
	lastDecision *agent.Decision         // most recent move, echoed in snapshots
	latest       *Snapshot
}

// NewRunner prepares a Runner. Nothing is read until Run.
func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.DecideTimeout <= 0 {
		opts.DecideTimeout = DefaultDecideTimeout
	}
	rules := engine.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	r := &Runner{
		opts:      opts,
		log:       log.WithFields(logrus.Fields{"observer": opts.Observer, "source": opts.Source}),
		validator: validate.NewValidator(rules, log),
	}
	r.stream = wire.NewStream(opts.Decoder, r.log)
	r.recon = replay.New(replay.Options{
		Observer:      opts.Observer,
		Source:        opts.Source,
		Rules:         &rules,
		Log:           r.log,
		OnRoundClosed: r.roundClosed,
	})
	return r
}

// Session returns the session built so far.
func (r *Runner) Session() *replay.GameSession { return r.recon.Session() }

// Latest returns the most recently published snapshot, or nil.
func (r *Runner) Latest() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Stats returns counters for the session.
func (r *Runner) Stats() RunnerStats {
	sess := r.recon.Session()
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunnerStats{
		Frames:       r.frames,
		Stream:       r.stream.Stats(),
		Rounds:       len(sess.Rounds),
		Divergences:  r.divergences,
		Decisions:    r.decisions,
		PublishFails: r.publishFails,
		Cumulative:   sess.Cumulative,
	}
}

// Run reads src until it ends or ctx is cancelled. A clean end of stream
// returns nil after the trailing round is closed and a final snapshot is
// published.
func (r *Runner) Run(ctx context.Context, src Source) error {
	r.log.Info("live session started")
	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			if ferr := r.recon.Finish(); ferr != nil {
				r.log.WithError(ferr).Debug("trailing round interrupted")
			}
			r.publish(ctx, r.recon.View())
			st := r.Stats()
			r.log.WithFields(logrus.Fields{
				"frames":      st.Frames,
				"rounds":      st.Rounds,
				"divergences": st.Divergences,
				"score":       fmt.Sprintf("%d-%d", st.Cumulative[engine.Team1], st.Cumulative[engine.Team2]),
			}).Info("live session ended")
			return nil
		}
		if err != nil {
			return fmt.Errorf("live source: %w", err)
		}
		r.step(ctx, raw)
	}
}

// step folds one frame into the session, consults the Decider if it is the
// observer's turn, and publishes.
func (r *Runner) step(ctx context.Context, raw []byte) {
	r.mu.Lock()
	r.frames++
	evs := r.stream.Feed(raw)
	r.mu.Unlock()

	for _, ev := range evs {
		if c, ok := ev.(event.Connection); ok {
			r.markConnection(c.Seat, c.Connected)
		}
		if err := r.recon.Apply(ev); err != nil {
			r.log.WithError(err).Debug("apply")
		}
	}

	v := r.recon.View()
	if v.MyTurn && r.opts.Decider != nil {
		r.decide(ctx, v)
	}
	r.publish(ctx, v)
}

func (r *Runner) decide(ctx context.Context, v agent.View) {
	key := turnKey(v)
	r.mu.Lock()
	if key == r.lastTurn {
		r.mu.Unlock()
		return
	}
	r.lastTurn = key
	r.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, r.opts.DecideTimeout)
	defer cancel()
	d, err := r.opts.Decider.Decide(dctx, v)
	if err != nil {
		r.log.WithError(err).WithField("turn", key).Warn("decider failed")
		return
	}
	if d.Action == agent.ActionNone {
		return
	}
	r.mu.Lock()
	r.decisions++
	r.lastDecision = &d
	r.mu.Unlock()
	r.log.WithFields(logrus.Fields{"turn": key, "action": d.Action, "card": d.Card, "bid": d.Bid}).Info("decision")
}

func (r *Runner) publish(ctx context.Context, v agent.View) {
	sess := r.recon.Session()
	self, known := r.recon.SelfSeat()
	r.mu.Lock()
	s := r.buildSnapshot(v, sess, self, known)
	r.latest = s
	r.mu.Unlock()

	if r.opts.Publisher == nil {
		return
	}
	if err := r.opts.Publisher.Publish(ctx, s); err != nil {
		r.mu.Lock()
		r.publishFails++
		r.mu.Unlock()
		r.log.WithError(err).Warn("publish failed")
	}
}

// roundClosed validates each round as it closes. It runs inside the
// reconstructor's lock and only touches the record it is given.
func (r *Runner) roundClosed(rd *replay.RoundRecord) {
	if rd.Status != replay.StatusClosed {
		r.log.WithFields(logrus.Fields{"round": rd.Index, "status": rd.Status}).Info("round ended without result")
		return
	}
	rep := r.validator.Validate(rd)
	r.mu.Lock()
	r.divergences += len(rep.Divergences)
	r.mu.Unlock()
	for _, d := range rep.Divergences {
		r.log.WithFields(logrus.Fields{"round": rd.Index, "category": d.Category}).Warn(d.String())
	}
	r.log.WithFields(logrus.Fields{"round": rd.Index, "agreed": rep.Agreed(), "convention": rep.Convention}).Info("round closed")
}

func (r *Runner) markConnection(seat engine.Seat, connected bool) {
	if !seat.Valid() {
		return
	}
	r.mu.Lock()
	r.disconnected[seat] = !connected
	r.mu.Unlock()
	if !connected {
		r.log.WithField("seat", seat.OneBased()).Warn("player disconnected")
	}
}

func turnKey(v agent.View) string {
	phase := "bid"
	if v.Contract != nil {
		phase = "play"
	}
	return fmt.Sprintf("%d/%s/%d/%d", v.Round, phase, v.TrickNumber, len(v.Table))
}
