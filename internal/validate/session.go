package validate

import (
	"github.com/jason-s-yu/baloot/internal/replay"
)

// SessionReport is the validation of every round of a session plus the
// checks that span rounds.
type SessionReport struct {
	Session     *replay.GameSession
	Rounds      []Report
	Divergences []Divergence
}

// All returns round and session divergences together.
func (s *SessionReport) All() []Divergence {
	var out []Divergence
	for i := range s.Rounds {
		out = append(out, s.Rounds[i].Divergences...)
	}
	return append(out, s.Divergences...)
}

// ValidateSession validates each round and checks that the source's
// running totals advance by exactly each round's game points.
func (v *Validator) ValidateSession(sess *replay.GameSession) SessionReport {
	rep := SessionReport{Session: sess}
	var running [2]int
	for _, rd := range sess.Rounds {
		rep.Rounds = append(rep.Rounds, v.Validate(rd))
		if rd.Status != replay.StatusClosed || rd.Result == nil {
			continue
		}
		res := rd.Result
		pts := res.Points()
		next := [2]int{running[0] + pts[0], running[1] + pts[1]}
		cum := [2]int{res.Team1Cumulative, res.Team2Cumulative}
		if cum == [2]int{} {
			running = next
			continue
		}
		if cum != next {
			rep.Divergences = append(rep.Divergences, divergence(rd, CategoryCumulative, 8, cum, next, false,
				"running total after round %d", rd.Index))
		}
		running = cum
	}
	return rep
}
