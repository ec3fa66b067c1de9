package agent

import "context"

// Action is the kind of move a Decider returns.
type Action string

const (
	ActionNone    Action = ""
	ActionPlay    Action = "play"
	ActionBid     Action = "bid"
	ActionDeclare Action = "declare"
)

// Decision is returned by a Decider. Card and Bid are opaque payloads that
// this module logs but never interprets.
type Decision struct {
	Action Action `json:"action"`
	Card   string `json:"card,omitempty"`
	Bid    string `json:"bid,omitempty"`
}

// Decider consumes a View and returns a move.
type Decider interface {
	Decide(ctx context.Context, v View) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, v View) (Decision, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, v View) (Decision, error) { return f(ctx, v) }

// FirstLegal is a trivial Decider that plays the lowest-index legal card.
// Useful for smoke-testing a live session end to end.
var FirstLegal = DeciderFunc(func(_ context.Context, v View) (Decision, error) {
	if !v.MyTurn || len(v.LegalPlays) == 0 {
		return Decision{}, nil
	}
	return Decision{Action: ActionPlay, Card: v.LegalPlays[0].Text}, nil
})
