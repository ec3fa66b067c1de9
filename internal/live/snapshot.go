package live

import (
	"time"

	"github.com/google/uuid"

	engine "github.com/jason-s-yu/baloot/engine"
	"github.com/jason-s-yu/baloot/engine/agent"
	"github.com/jason-s-yu/baloot/internal/replay"
)

// PlayerState is one seat as seen by the observer.
type PlayerState struct {
	Seat          engine.RelSeat `json:"seat"`
	Name          string         `json:"name"`
	HandSize      int            `json:"handSize"`
	Connected     bool           `json:"connected"`
	IsCurrentTurn bool           `json:"isCurrentTurn"`
	// RevealedHand is populated only for the observer.
	RevealedHand []agent.ViewCard `json:"revealedHand,omitempty"`
}

// Snapshot is what the Runner publishes after each frame: the decision
// interface's View plus the per-seat summary a display needs.
type Snapshot struct {
	SessionID   uuid.UUID       `json:"sessionId"`
	Source      string          `json:"source"`
	Frame       int             `json:"frame"`
	Started     bool            `json:"started"` // observer seat known
	GameOver    bool            `json:"gameOver"`
	Players     []PlayerState   `json:"players"`
	View        agent.View      `json:"view"`
	Decision    *agent.Decision `json:"decision,omitempty"`
	Rounds      int             `json:"rounds"`
	Divergences int             `json:"divergences"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// buildSnapshot assembles the published state. Called with r.mu held.
func (r *Runner) buildSnapshot(v agent.View, sess *replay.GameSession, self engine.Seat, known bool) *Snapshot {
	s := &Snapshot{
		SessionID:   sess.ID,
		Source:      sess.Source,
		Frame:       r.frames,
		GameOver:    sess.Terminal(),
		View:        v,
		Decision:    r.lastDecision,
		Rounds:      len(sess.Rounds),
		Divergences: r.divergences,
		UpdatedAt:   time.Now().UTC(),
	}

	if !known {
		return s
	}
	s.Started = true
	for rel := engine.RelSelf; rel <= engine.RelLeft; rel++ {
		abs := engine.ToAbsolute(rel, self)
		p := PlayerState{
			Seat:      rel,
			Name:      sess.Names[abs],
			HandSize:  v.HandCounts[rel],
			Connected: !r.disconnected[abs],
		}
		if v.Turn != nil && *v.Turn == rel {
			p.IsCurrentTurn = true
		}
		if rel == engine.RelSelf {
			p.HandSize = len(v.Hand)
			p.RevealedHand = v.Hand
		}
		s.Players = append(s.Players, p)
	}
	return s
}
