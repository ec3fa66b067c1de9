package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/jason-s-yu/baloot/engine/agent"
	"github.com/jason-s-yu/baloot/internal/config"
	"github.com/jason-s-yu/baloot/internal/corpus"
	"github.com/jason-s-yu/baloot/internal/live"
	"github.com/jason-s-yu/baloot/internal/wire"
)

func liveCommand(fs *flag.FlagSet) (func(*config.Config), runFunc) {
	url := fs.String("url", "", "capture relay websocket URL")
	secret := fs.String("secret", "", "relay token secret")
	observer := fs.String("observer", "", "username to follow")
	redisURL := fs.String("redis", "", "publish snapshots to this redis URL")
	channel := fs.String("channel", "", "redis channel")
	file := fs.String("file", "", "replay a capture file instead of a relay")
	delay := fs.Duration("delay", 0, "pause between frames when replaying a file")
	play := fs.Bool("play", false, "ask the built-in first-legal decider for moves")
	apply := func(cfg *config.Config) {
		set := visited(fs)
		if set["url"] {
			cfg.CaptureURL = *url
		}
		if set["secret"] {
			cfg.CaptureSecret = *secret
		}
		if set["observer"] {
			cfg.Observer = *observer
		}
		if set["redis"] {
			cfg.RedisURL = *redisURL
		}
		if set["channel"] {
			cfg.RedisChannel = *channel
		}
	}
	return apply, func(e *env, _ []string) (int, error) {
		return runLive(e, *file, *delay, *play)
	}
}

func runLive(e *env, file string, delay time.Duration, play bool) (int, error) {
	cfg := e.cfg
	if cfg.Observer == "" {
		return exitUsage, errors.New("an observer username is required")
	}

	var (
		src  live.Source
		name string
	)
	switch {
	case file != "":
		fsrc, err := live.OpenFile(file, cfg.MaxRecord, delay)
		if err != nil {
			return exitFailure, err
		}
		defer fsrc.Close()
		src, name = fsrc, file
	case cfg.CaptureURL != "":
		ws, err := live.DialWS(e.ctx, live.WSOptions{
			URL:       cfg.CaptureURL,
			Secret:    []byte(cfg.CaptureSecret),
			Subject:   cfg.Observer,
			ReadLimit: int64(cfg.MaxRecord),
			Log:       e.log,
		})
		if err != nil {
			return exitFailure, err
		}
		defer ws.Close()
		src, name = ws, cfg.CaptureURL
	default:
		return exitUsage, errors.New("need -url or -file")
	}

	pub, closePub, err := livePublisher(e)
	if err != nil {
		return exitFailure, err
	}
	defer closePub()

	opts := live.RunnerOptions{
		Observer:      cfg.Observer,
		Source:        name,
		Decoder:       wire.Decoder{MaxSize: cfg.MaxFrameSize, MaxDepth: cfg.MaxDepth},
		Publisher:     pub,
		DecideTimeout: cfg.DecideTimeout,
		Log:           e.log,
	}
	if play {
		opts.Decider = agent.FirstLegal
	}
	r := live.NewRunner(opts)
	if err := r.Run(e.ctx, src); err != nil {
		return exitFailure, err
	}

	st := r.Stats()
	summary := pterm.Sprintfln("frames      %d (%d dropped)", st.Frames, st.Stream.Dropped) +
		pterm.Sprintfln("rounds      %d", st.Rounds) +
		pterm.Sprintfln("decisions   %d", st.Decisions) +
		pterm.Sprintfln("divergences %d", st.Divergences) +
		pterm.Sprintf("score       %d - %d", st.Cumulative[0], st.Cumulative[1])
	fmt.Fprintln(e.stdout, pterm.DefaultBox.WithTitle(pterm.LightCyan("|LIVE|")).WithTitleTopCenter().Sprint(summary))
	if st.Divergences > 0 {
		return exitMismatch, nil
	}
	return exitOK, nil
}

// livePublisher returns the Redis publisher when configured, otherwise one
// that prints a line each time a round closes.
func livePublisher(e *env) (live.Publisher, func(), error) {
	if e.cfg.RedisURL == "" {
		rounds := 0
		return live.PublisherFunc(func(_ context.Context, s *live.Snapshot) error {
			if s.Rounds == rounds {
				return nil
			}
			rounds = s.Rounds
			_, err := fmt.Fprintf(e.stdout, "round %d done, us %d them %d\n", s.Rounds, s.View.ScoreUs, s.View.ScoreThem)
			return err
		}), func() {}, nil
	}
	p, err := live.NewRedisPublisher(e.cfg.RedisURL, e.cfg.RedisChannel)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(e.ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	e.log.WithField("channel", p.Channel).Info("publishing snapshots to redis")
	return p, func() { p.Close() }, nil
}

func relayCommand(fs *flag.FlagSet) (func(*config.Config), runFunc) {
	addr := fs.String("addr", "", "listen address")
	interval := fs.Duration("interval", 0, "pause between frames")
	secret := fs.String("secret", "", "token secret")
	apply := func(cfg *config.Config) {
		set := visited(fs)
		if set["addr"] {
			cfg.RelayAddr = *addr
		}
		if set["interval"] {
			cfg.RelayInterval = *interval
		}
		if set["secret"] {
			cfg.CaptureSecret = *secret
		}
	}
	return apply, runRelay
}

func runRelay(e *env, args []string) (int, error) {
	if len(args) != 1 {
		return exitUsage, errors.New("relay takes exactly one capture file")
	}
	if e.cfg.CaptureSecret == "" {
		return exitUsage, errors.New("a token secret is required")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return exitFailure, err
	}
	frames, err := corpus.ReadFrames(f, e.cfg.MaxRecord)
	f.Close()
	if err != nil && (!errors.Is(err, corpus.ErrTruncated) || len(frames) == 0) {
		return exitFailure, err
	}

	srv := &http.Server{
		Addr: e.cfg.RelayAddr,
		Handler: &live.Relay{
			Frames:   frames,
			Secret:   []byte(e.cfg.CaptureSecret),
			Interval: e.cfg.RelayInterval,
			Log:      e.log,
		},
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintln(e.stdout, pterm.LightGreen(fmt.Sprintf("relaying %d frames on %s", len(frames), e.cfg.RelayAddr)))

	select {
	case err := <-errc:
		return exitFailure, err
	case <-e.ctx.Done():
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return exitFailure, err
	}
	return exitOK, nil
}

func sampleCommand(fs *flag.FlagSet) (func(*config.Config), runFunc) {
	id := fs.String("id", "sample", "game id and file name")
	return nil, func(e *env, args []string) (int, error) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exitFailure, err
		}
		archivePath, capturePath, err := corpus.WriteSample(dir, *id)
		if err != nil {
			return exitFailure, err
		}
		fmt.Fprintln(e.stdout, archivePath)
		fmt.Fprintln(e.stdout, capturePath)
		return exitOK, nil
	}
}
