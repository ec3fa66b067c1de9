package corpus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/wire"
)

// Capture files hold raw frames as they came off the socket, each prefixed
// with its length as a big-endian uint32.

// ErrTruncated is returned when a capture ends inside a record.
var ErrTruncated = errors.New("truncated capture")

// DefaultMaxRecord caps a single capture record.
const DefaultMaxRecord = 4 << 20

// FrameReader reads capture records one at a time.
type FrameReader struct {
	r     *bufio.Reader
	limit int
	n     int
}

// NewFrameReader reads from r, rejecting records longer than limit bytes
// (DefaultMaxRecord when limit <= 0).
func NewFrameReader(r io.Reader, limit int) *FrameReader {
	if limit <= 0 {
		limit = DefaultMaxRecord
	}
	return &FrameReader{r: bufio.NewReader(r), limit: limit}
}

// Next returns the next frame, or io.EOF at a clean end of input.
func (fr *FrameReader) Next() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: record %d header: %v", ErrTruncated, fr.n, err)
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if int64(size) > int64(fr.limit) {
		return nil, fmt.Errorf("record %d: %d bytes exceeds limit %d", fr.n, size, fr.limit)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		return nil, fmt.Errorf("%w: record %d body: %v", ErrTruncated, fr.n, err)
	}
	fr.n++
	return buf, nil
}

// ReadFrames reads every record. On error it also returns the frames read
// so far.
func ReadFrames(r io.Reader, limit int) ([][]byte, error) {
	fr := NewFrameReader(r, limit)
	var out [][]byte
	for {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

// WriteFrames appends each frame as one record.
func WriteFrames(w io.Writer, frames [][]byte) error {
	bw := bufio.NewWriter(w)
	var hdr [4]byte
	for _, f := range frames {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(f)))
		if _, err := bw.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := bw.Write(f); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeCapture renders events as the frames a client at observer's seat
// would have received.
func EncodeCapture(enc *wire.Encoder, evs []event.Event, observer engine.Seat) ([][]byte, error) {
	payloads := wire.Payloads(evs, observer)
	out := make([][]byte, 0, len(payloads))
	for i, p := range payloads {
		raw, err := enc.Message(p)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// CaptureGame is a capture file used as a game source.
type CaptureGame struct {
	Path    string
	Decoder wire.Decoder
	Log     logrus.FieldLogger

	stats wire.StreamStats
}

// Name is the file's base name without extension.
func (c *CaptureGame) Name() string {
	return strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
}

// Events decodes every frame. Bad frames are dropped and counted; only an
// unreadable file fails the game. A truncated tail keeps the frames before
// it.
func (c *CaptureGame) Events() ([]event.Event, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("game", c.Name())

	frames, err := ReadFrames(f, c.Decoder.MaxSize)
	if err != nil {
		if !errors.Is(err, ErrTruncated) || len(frames) == 0 {
			return nil, err
		}
		log.WithError(err).Warn("capture ends mid-record")
	}
	s := wire.NewStream(c.Decoder, log)
	evs := s.FeedAll(frames)
	c.stats = s.Stats()
	return evs, nil
}

// Stats returns the decode counters of the last Events call.
func (c *CaptureGame) Stats() wire.StreamStats { return c.stats }
