package live

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/engine/agent"
	"github.com/jason-s-yu/baloot/internal/corpus"
)

// mockPublisher records every snapshot.
type mockPublisher struct {
	mu        sync.Mutex
	snapshots []*Snapshot
}

func (mp *mockPublisher) Publish(_ context.Context, s *Snapshot) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.snapshots = append(mp.snapshots, s)
	return nil
}

func (mp *mockPublisher) last() *Snapshot {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if len(mp.snapshots) == 0 {
		return nil
	}
	return mp.snapshots[len(mp.snapshots)-1]
}

func (mp *mockPublisher) count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.snapshots)
}

// sampleFrames writes the sample capture and returns its path and frames.
func sampleFrames(t *testing.T) (string, [][]byte) {
	t.Helper()
	_, path, err := corpus.WriteSample(t.TempDir(), "live")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	frames, err := corpus.ReadFrames(bytes.NewReader(raw), 0)
	require.NoError(t, err)
	require.NotEmpty(t, frames)
	return path, frames
}

func assertFinalSnapshot(t *testing.T, s *Snapshot) {
	t.Helper()
	require.NotNil(t, s)
	assert.True(t, s.Started)
	assert.True(t, s.GameOver)
	assert.Equal(t, 204, s.View.ScoreUs)
	assert.Equal(t, 51, s.View.ScoreThem)
	assert.Equal(t, 6, s.Rounds)
	assert.Zero(t, s.Divergences)
	require.Len(t, s.Players, engine.MaxPlayers)
	assert.Equal(t, "ali", s.Players[engine.RelSelf].Name)
	assert.Equal(t, "sara", s.Players[engine.RelRight].Name)
	assert.Equal(t, "omar", s.Players[engine.RelPartner].Name)
	assert.Equal(t, "noor", s.Players[engine.RelLeft].Name)
}

func TestRunnerFollowsCapture(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	path, frames := sampleFrames(t)
	src, err := OpenFile(path, 0, time.Millisecond)
	require.NoError(t, err)
	defer src.Close()

	pub := &mockPublisher{}
	var calls int
	r := NewRunner(RunnerOptions{
		Observer:  "Ali ",
		Source:    "live",
		Publisher: pub,
		Decider: agent.DeciderFunc(func(ctx context.Context, v agent.View) (agent.Decision, error) {
			calls++
			assert.True(t, v.MyTurn)
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return agent.FirstLegal(ctx, v)
		}),
		Log: log,
	})
	require.NoError(t, r.Run(context.Background(), src))

	assert.Equal(t, len(frames)+1, pub.count())
	assertFinalSnapshot(t, pub.last())
	assert.Same(t, pub.last(), r.Latest())

	st := r.Stats()
	assert.Equal(t, len(frames), st.Frames)
	assert.Zero(t, st.Stream.Dropped)
	assert.Equal(t, 6, st.Rounds)
	assert.Equal(t, [2]int{204, 51}, st.Cumulative)
	assert.Zero(t, st.Divergences)
	assert.Positive(t, calls)
	assert.Positive(t, st.Decisions)
	assert.LessOrEqual(t, st.Decisions, calls)
	assert.NotNil(t, pub.last().Decision)

	var closed int
	for _, e := range hook.AllEntries() {
		if e.Message == "round closed" {
			closed++
		}
	}
	assert.Equal(t, 5, closed)
}

func TestRunnerSnapshotHidesOtherHands(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, frames := sampleFrames(t)

	var seen []*Snapshot
	pub := PublisherFunc(func(_ context.Context, s *Snapshot) error {
		seen = append(seen, s)
		return nil
	})
	r := NewRunner(RunnerOptions{Observer: "ali", Publisher: pub, Log: log})
	require.NoError(t, r.Run(context.Background(), FromFrames(frames)))

	var sawHand bool
	for _, s := range seen {
		for _, p := range s.Players {
			if p.Seat != engine.RelSelf {
				assert.Nil(t, p.RevealedHand)
				continue
			}
			if len(p.RevealedHand) > 0 {
				sawHand = true
				assert.Equal(t, len(p.RevealedHand), p.HandSize)
			}
		}
	}
	assert.True(t, sawHand)
	assert.False(t, seen[0].GameOver)
}

func TestRunnerToleratesPublishAndDecideFailures(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, frames := sampleFrames(t)

	r := NewRunner(RunnerOptions{
		Observer: "ali",
		Publisher: PublisherFunc(func(context.Context, *Snapshot) error {
			return errors.New("broker down")
		}),
		Decider: agent.DeciderFunc(func(context.Context, agent.View) (agent.Decision, error) {
			return agent.Decision{}, errors.New("no model")
		}),
		Log: log,
	})
	require.NoError(t, r.Run(context.Background(), FromFrames(frames)))

	st := r.Stats()
	assert.Equal(t, len(frames)+1, st.PublishFails)
	assert.Zero(t, st.Decisions)
	assert.Equal(t, [2]int{204, 51}, st.Cumulative)
}

func TestRunnerCancelled(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	path, frames := sampleFrames(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(RunnerOptions{Observer: "ali", Log: log})
	err := r.Run(ctx, FromFrames(frames))
	assert.ErrorIs(t, err, context.Canceled)

	src, err := OpenFile(path, 0, time.Hour)
	require.NoError(t, err)
	defer src.Close()
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = NewRunner(RunnerOptions{Observer: "ali", Log: log}).Run(ctx, src)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelayRoundTrip(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, frames := sampleFrames(t)
	secret := []byte("relay-secret")

	srv := httptest.NewServer(&Relay{Frames: frames, Secret: secret, Log: log})
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("authorized", func(t *testing.T) {
		src, err := DialWS(ctx, WSOptions{URL: url, Secret: secret, Subject: "ali", ReadLimit: 1 << 20, Log: log})
		require.NoError(t, err)
		defer src.Close()

		pub := &mockPublisher{}
		r := NewRunner(RunnerOptions{Observer: "ali", Source: "relay", Publisher: pub, Log: log})
		require.NoError(t, r.Run(ctx, src))
		assert.Equal(t, len(frames), r.Stats().Frames)
		assertFinalSnapshot(t, pub.last())
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := DialWS(ctx, WSOptions{URL: url, Secret: []byte("nope"), Subject: "ali", Log: log})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestTokens(t *testing.T) {
	secret := []byte("s3cret")
	good, err := SignToken(secret, "ali", time.Minute)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ali",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString(secret)
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{Subject: "ali"}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		subject string
		wantErr bool
	}{
		{"valid", "Bearer " + good, "ali", false},
		{"missing prefix", good, "", true},
		{"empty", "", "", true},
		{"expired", "Bearer " + expired, "", true},
		{"wrong algorithm", "Bearer " + otherAlg, "", true},
		{"garbage", "Bearer abc.def.ghi", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := VerifyToken(secret, tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, sub)
		})
	}

	_, err = VerifyToken([]byte("other"), "Bearer "+good)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = SignToken(nil, "ali", 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewRedisPublisher(t *testing.T) {
	_, err := NewRedisPublisher("http://localhost:6379", "")
	assert.Error(t, err)

	p, err := NewRedisPublisher("redis://localhost:6379/0", "")
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "baloot:view", p.Channel)
	assert.Equal(t, "baloot:view:latest", p.Key)
}
