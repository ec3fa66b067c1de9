package replay

import (
	"github.com/google/uuid"

	engine "github.com/jason-s-yu/baloot/engine"
)

// GameSession is the ordered list of closed rounds of one match.
type GameSession struct {
	ID     uuid.UUID
	Source string // archive id or capture name
	Names  [engine.MaxPlayers]string

	Rounds     []*RoundRecord
	Cumulative [2]int

	rules engine.Rules
}

// NewGameSession returns an empty session scored against rules.
func NewGameSession(source string, rules engine.Rules) *GameSession {
	return &GameSession{ID: uuid.New(), Source: source, rules: rules}
}

// add takes ownership of a round that has left the Open state.
func (g *GameSession) add(r *RoundRecord) {
	g.Rounds = append(g.Rounds, r)
	if r.Status != StatusClosed || r.Result == nil {
		return
	}
	res := r.Result
	if res.Team1Cumulative != 0 || res.Team2Cumulative != 0 {
		g.Cumulative = [2]int{res.Team1Cumulative, res.Team2Cumulative}
		return
	}
	g.Cumulative[engine.Team1] += res.Team1Points
	g.Cumulative[engine.Team2] += res.Team2Points
}

// Terminal reports whether a team has reached the match target.
func (g *GameSession) Terminal() bool {
	return g.Cumulative[engine.Team1] >= g.rules.MatchTarget || g.Cumulative[engine.Team2] >= g.rules.MatchTarget
}

// Winner returns the leading team of a terminal session, or NoTeam.
func (g *GameSession) Winner() engine.Team {
	if !g.Terminal() {
		return engine.NoTeam
	}
	switch {
	case g.Cumulative[engine.Team1] > g.Cumulative[engine.Team2]:
		return engine.Team1
	case g.Cumulative[engine.Team2] > g.Cumulative[engine.Team1]:
		return engine.Team2
	}
	return engine.NoTeam
}

// Scored returns the rounds closed by a result.
func (g *GameSession) Scored() []*RoundRecord {
	var out []*RoundRecord
	for _, r := range g.Rounds {
		if r.Status == StatusClosed {
			out = append(out, r)
		}
	}
	return out
}

// SessionStats summarises a session. Redeals count toward bidding only.
type SessionStats struct {
	Rounds    int
	Scored    int
	Redeals   int
	Abandoned int
	Tricks    int
	Bids      int
	Passes    int
}

// Stats tallies the session's rounds.
func (g *GameSession) Stats() SessionStats {
	var s SessionStats
	for _, r := range g.Rounds {
		s.Rounds++
		s.Bids += r.Bidding.Bids
		s.Passes += r.Bidding.Passes
		switch r.Status {
		case StatusClosed:
			s.Scored++
			s.Tricks += r.CompleteTricks()
		case StatusRedeal:
			s.Redeals++
		case StatusAbandoned:
			s.Abandoned++
		}
	}
	return s
}
