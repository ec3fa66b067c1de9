package corpus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/archive"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/replay"
	"github.com/jason-s-yu/baloot/internal/validate"
)

func countType(evs []event.Event, typ event.Type) int {
	n := 0
	for _, ev := range evs {
		if ev.Type() == typ {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestFramesRoundTrip(t *testing.T) {
	frames := [][]byte{{0x01}, bytes.Repeat([]byte{0xAB}, 300), {}}
	var buf bytes.Buffer
	require.NoError(t, WriteFrames(&buf, frames))
	assert.Equal(t, 4*3+1+300, buf.Len())

	got, err := ReadFrames(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, frames, got)

	t.Run("truncated body", func(t *testing.T) {
		got, err := ReadFrames(bytes.NewReader(buf.Bytes()[:buf.Len()-10]), 0)
		assert.True(t, errors.Is(err, ErrTruncated))
		assert.Len(t, got, 1)
	})
	t.Run("truncated header", func(t *testing.T) {
		got, err := ReadFrames(bytes.NewReader(append([]byte{0x00, 0x00, 0x00, 0x01, 0x7F}, 0x00, 0x00)), 0)
		assert.True(t, errors.Is(err, ErrTruncated))
		assert.Len(t, got, 1)
	})
	t.Run("oversized record", func(t *testing.T) {
		_, err := ReadFrames(bytes.NewReader(buf.Bytes()), 100)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrTruncated))
		assert.Contains(t, err.Error(), "exceeds limit")
	})
}

func TestLoadDeduplicates(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()

	one, err := archive.SampleArchive("one").JSON()
	require.NoError(t, err)
	two, err := archive.SampleArchive("two").JSON()
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "a.json"), one)
	writeFile(t, filepath.Join(dir, "nested", "b.json"), one)
	writeFile(t, filepath.Join(dir, "c.JSON"), two)
	writeFile(t, filepath.Join(dir, ".cache", "d.json"), two)
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	_, _, err = WriteSample(dir, "sample")
	require.NoError(t, err)

	c, err := Load(dir, Options{Log: log})
	require.NoError(t, err)

	var names []string
	for _, g := range c.Games {
		names = append(names, g.Name())
	}
	assert.Equal(t, []string{"a", "c", "sample", "sample"}, names)
	assert.IsType(t, &CaptureGame{}, c.Games[2])
	assert.IsType(t, &ArchiveGame{}, c.Games[3])
	assert.Equal(t, map[string]string{filepath.Join(dir, "nested", "b.json"): filepath.Join(dir, "a.json")}, c.Duplicates)
	assert.Equal(t, Fingerprint(one), Fingerprint(append([]byte(nil), one...)))
	assert.NotEqual(t, Fingerprint(one), Fingerprint(two))

	c, err = Load(dir, Options{Log: log, NoCaptures: true})
	require.NoError(t, err)
	assert.Len(t, c.Games, 3)

	c, err = Load(filepath.Join(dir, "a.json"), Options{Log: log})
	require.NoError(t, err)
	assert.Len(t, c.Games, 1)

	_, err = Load(filepath.Join(dir, "missing"), Options{Log: log})
	assert.Error(t, err)
}

func TestLoadKeepsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	log, hook := logtest.NewNullLogger()
	_, _, err := WriteSample(dir, "sample")
	require.NoError(t, err)
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.json"), filepath.Join(dir, "lost.json")))

	c, err := Load(dir, Options{Log: log, NoCaptures: true})
	require.NoError(t, err)
	require.Len(t, c.Games, 2)
	lost := c.Games[0]
	assert.Equal(t, "lost", lost.Name())
	assert.IsType(t, &UnreadableGame{}, lost)
	_, err = lost.Events()
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Message == "unreadable file"
	}
	assert.True(t, warned)
}

func TestArchiveGameEvents(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()
	path, _, err := WriteSample(dir, "g1")
	require.NoError(t, err)

	g := &ArchiveGame{Path: path, Log: log}
	assert.Equal(t, "g1", g.Name())
	evs, err := g.Events()
	require.NoError(t, err)
	assert.Equal(t, 6, countType(evs, event.TypeRoundStart))
	assert.Equal(t, 5, countType(evs, event.TypeRoundResult))

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, []byte("{not json"))
	_, err = (&ArchiveGame{Path: bad, Log: log}).Events()
	assert.True(t, errors.Is(err, archive.ErrFormat))
}

// A capture written from seat 0's point of view replays to the same scores
// as the archive it came from, knowing only that seat's hand.
func TestCaptureMatchesArchive(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()
	archivePath, capturePath, err := WriteSample(dir, "g1")
	require.NoError(t, err)

	fromArchive, err := (&ArchiveGame{Path: archivePath, Log: log}).Events()
	require.NoError(t, err)
	cg := &CaptureGame{Path: capturePath, Log: log}
	fromCapture, err := cg.Events()
	require.NoError(t, err)
	assert.Zero(t, cg.Stats().Dropped)
	assert.Equal(t, 1, countType(fromCapture, event.TypeRedeal))

	a, err := replay.Replay(fromArchive, replay.Options{Log: log, Observer: "ali"})
	require.NoError(t, err)
	c, err := replay.Replay(fromCapture, replay.Options{Log: log, Observer: "ali"})
	require.NoError(t, err)

	require.Len(t, c.Rounds, len(a.Rounds))
	assert.Equal(t, a.Cumulative, c.Cumulative)
	assert.Equal(t, a.Names, c.Names)
	for i := range a.Rounds {
		assert.Equal(t, a.Rounds[i].Status, c.Rounds[i].Status, "round %d", i)
		assert.Equal(t, a.Rounds[i].Contract, c.Rounds[i].Contract, "round %d", i)
		assert.ElementsMatch(t, a.Rounds[i].Hands[0], c.Rounds[i].Hands[0], "round %d", i)
		assert.Nil(t, c.Rounds[i].Hands[1])
	}

	v := validate.NewValidator(engine.DefaultRules(), log)
	sr := v.ValidateSession(c)
	assert.Empty(t, sr.All())
}

func TestCaptureSurvivesDamage(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()
	_, capturePath, err := WriteSample(dir, "g1")
	require.NoError(t, err)
	raw, err := os.ReadFile(capturePath)
	require.NoError(t, err)
	frames, err := ReadFrames(bytes.NewReader(raw), 0)
	require.NoError(t, err)

	t.Run("corrupt frame", func(t *testing.T) {
		damaged := append([][]byte(nil), frames...)
		damaged[3] = []byte{0xFF, 0x00}
		var buf bytes.Buffer
		require.NoError(t, WriteFrames(&buf, damaged))
		path := filepath.Join(dir, "corrupt.bcap")
		writeFile(t, path, buf.Bytes())

		cg := &CaptureGame{Path: path, Log: log}
		evs, err := cg.Events()
		require.NoError(t, err)
		assert.NotEmpty(t, evs)
		assert.Equal(t, 1, cg.Stats().Dropped)
		assert.Equal(t, len(frames), cg.Stats().Frames)
	})

	t.Run("truncated tail", func(t *testing.T) {
		path := filepath.Join(dir, "short.bcap")
		writeFile(t, path, raw[:len(raw)-3])
		evs, err := (&CaptureGame{Path: path, Log: log}).Events()
		require.NoError(t, err)
		assert.Equal(t, 4, countType(evs, event.TypeRoundResult))
	})

	t.Run("empty and unreadable", func(t *testing.T) {
		path := filepath.Join(dir, "empty.bcap")
		writeFile(t, path, []byte{0x00, 0x00})
		_, err := (&CaptureGame{Path: path, Log: log}).Events()
		assert.True(t, errors.Is(err, ErrTruncated))

		_, err = (&CaptureGame{Path: filepath.Join(dir, "nope.bcap"), Log: log}).Events()
		assert.Error(t, err)
	})
}
