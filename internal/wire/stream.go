package wire

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/baloot/internal/event"
)

// StreamStats counts what a Stream has seen.
type StreamStats struct {
	Frames  int
	Decoded int
	Control int
	Events  int
	Dropped int
	ByClass map[Class]int
}

// Stream decodes a sequence of frames. A bad frame is recorded and skipped;
// the stream never stops on one.
type Stream struct {
	dec    Decoder
	log    logrus.FieldLogger
	errs   []*DecodeError
	stats  StreamStats
	frames int
}

// NewStream returns a stream using dec's limits.
func NewStream(dec Decoder, log logrus.FieldLogger) *Stream {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Stream{dec: dec, log: log, stats: StreamStats{ByClass: make(map[Class]int)}}
}

// Feed decodes one frame and returns its events. It returns nil events when
// the frame was dropped; the error is available from Errors.
func (s *Stream) Feed(raw []byte) []event.Event {
	n := s.frames
	s.frames++
	s.stats.Frames++

	f, err := s.dec.Decode(raw)
	if err == nil {
		var evs []event.Event
		evs, err = ToEvents(f)
		if err == nil {
			s.stats.Decoded++
			s.stats.ByClass[f.Class]++
			if f.Control {
				s.stats.Control++
			}
			s.stats.Events += len(evs)
			return evs
		}
	}

	var de *DecodeError
	if !errors.As(err, &de) {
		de = &DecodeError{Reason: "decode", Err: err}
	}
	de.Frame = n
	s.errs = append(s.errs, de)
	s.stats.Dropped++
	s.log.WithFields(logrus.Fields{"frame": n, "bytes": len(raw)}).WithError(de).Warn("dropping frame")
	return nil
}

// FeedAll decodes every frame in order and concatenates the events.
func (s *Stream) FeedAll(raws [][]byte) []event.Event {
	var out []event.Event
	for _, raw := range raws {
		out = append(out, s.Feed(raw)...)
	}
	return out
}

// Errors returns every recorded DecodeError in frame order.
func (s *Stream) Errors() []*DecodeError { return s.errs }

// Stats returns a copy of the counters.
func (s *Stream) Stats() StreamStats {
	st := s.stats
	st.ByClass = make(map[Class]int, len(s.stats.ByClass))
	for k, v := range s.stats.ByClass {
		st.ByClass[k] = v
	}
	return st
}
