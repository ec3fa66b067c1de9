package report

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/replay"
	"github.com/jason-s-yu/baloot/internal/validate"
)

// ErrSystemic aborts a run when too many games fail to load, which usually
// means the whole corpus is in a format this build does not understand.
var ErrSystemic = errors.New("systemic failure")

// DefaultSystemicRatio is the share of failed games above which a run is
// reported as ErrSystemic.
const DefaultSystemicRatio = 0.5

// Source is one game's canonical event stream. Events is called once, from
// a worker goroutine.
type Source interface {
	Name() string
	Events() ([]event.Event, error)
}

// Options configures a Comparator.
type Options struct {
	Workers       int
	SystemicRatio float64
	// MaxFindings caps the divergences kept verbatim; counts are unaffected.
	// Negative keeps all.
	MaxFindings int
	Rules       *engine.Rules
	Observer    string
	Log         logrus.FieldLogger
}

// Comparator validates a corpus of games in parallel.
type Comparator struct {
	opts      Options
	log       logrus.FieldLogger
	validator *validate.Validator
}

// New returns a Comparator with defaults applied to opts.
func New(opts Options) *Comparator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.SystemicRatio <= 0 {
		opts.SystemicRatio = DefaultSystemicRatio
	}
	if opts.Rules == nil {
		r := engine.DefaultRules()
		opts.Rules = &r
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Comparator{
		opts:      opts,
		log:       opts.Log,
		validator: validate.NewValidator(*opts.Rules, opts.Log),
	}
}

// Run validates every source and merges the results. Games fail in
// isolation; the run itself fails only on cancellation or when the share of
// failed games exceeds the systemic ratio. The scorecard is returned in
// either case.
func (c *Comparator) Run(ctx context.Context, sources []Source) (*Scorecard, error) {
	start := time.Now()
	total := NewScorecard(c.opts.MaxFindings)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sc := c.Game(src)
			mu.Lock()
			total.Merge(sc)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	total.sortFindings()

	c.log.WithFields(logrus.Fields{
		"games":       total.Games,
		"failed":      total.GamesFailed,
		"rounds":      total.Rounds,
		"divergences": total.Divergences(),
		"elapsed":     time.Since(start).Round(time.Millisecond).String(),
	}).Info("corpus run complete")

	if err != nil {
		return total, err
	}
	if total.Games > 0 && total.FailureRatio() > c.opts.SystemicRatio {
		return total, fmt.Errorf("%w: %d of %d games failed to load", ErrSystemic, total.GamesFailed, total.Games)
	}
	return total, nil
}

// Game validates a single source and returns its own scorecard.
func (c *Comparator) Game(src Source) *Scorecard {
	log := c.log.WithField("game", src.Name())
	events, err := src.Events()
	if err != nil {
		log.WithError(err).Warn("skipping game")
		sc := NewScorecard(0)
		sc.Games, sc.GamesFailed = 1, 1
		sc.Failures = []Failure{{Source: src.Name(), Reason: err.Error()}}
		return sc
	}

	sess, err := replay.Replay(events, replay.Options{
		Observer: c.opts.Observer,
		Source:   src.Name(),
		Rules:    c.opts.Rules,
		Log:      log,
	})
	if err != nil {
		log.WithError(err).Debug("replay finished with incomplete rounds")
	}

	rep := c.validator.ValidateSession(sess)
	sc := tallySession(src.Name(), rep, c.opts.MaxFindings)
	log.WithFields(logrus.Fields{
		"rounds":      sc.Rounds,
		"divergences": sc.Divergences(),
	}).Debug("game validated")
	return sc
}
