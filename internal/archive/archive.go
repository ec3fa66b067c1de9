// Package archive reads offline game archives and adapts their per-round
// record arrays into canonical events.
//
// An archive is a JSON document:
//
//	{
//	  "id": "…",
//	  "players": [{"seat": 1, "name": "…"}, …],
//	  "rounds": [[{"p": 1, "e": 2, "dealer": 4}, …], …]
//	}
//
// Every record carries the 1-indexed actor seat "p" and the kind "e".
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrFormat marks an archive that cannot be read at all.
var ErrFormat = errors.New("archive format")

// Kind enumerates record types.
type Kind int

const (
	KindHandDealt     Kind = 1
	KindRoundStart    Kind = 2
	KindBid           Kind = 3
	KindDeclaration   Kind = 4
	KindCardPlayed    Kind = 5
	KindForfeit       Kind = 6
	KindTrickBoundary Kind = 7
	KindChat          Kind = 8
	KindDisconnect    Kind = 9
	KindReconnect     Kind = 10
	KindRoundResult   Kind = 11
)

func (k Kind) String() string {
	switch k {
	case KindHandDealt:
		return "hand"
	case KindRoundStart:
		return "round-start"
	case KindBid:
		return "bid"
	case KindDeclaration:
		return "declaration"
	case KindCardPlayed:
		return "card"
	case KindForfeit:
		return "forfeit"
	case KindTrickBoundary:
		return "trick-boundary"
	case KindChat:
		return "chat"
	case KindDisconnect:
		return "disconnect"
	case KindReconnect:
		return "reconnect"
	case KindRoundResult:
		return "result"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Player is one entry of the players list.
type Player struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

// Record is one tagged entry of a round. Only the fields of its Kind are set.
type Record struct {
	Actor int  `json:"p"`
	Kind  Kind `json:"e"`

	Hand   *uint64 `json:"hand,omitempty"`
	Dealer *int    `json:"dealer,omitempty"`
	Bid    *int    `json:"b,omitempty"`
	Trump  *int    `json:"ts,omitempty"`
	Closed int     `json:"v,omitempty"`
	Decl   int     `json:"d,omitempty"`
	Cards  []int   `json:"cards,omitempty"`
	Card   *int    `json:"c,omitempty"`
	Team   int     `json:"team,omitempty"`
	Text   string  `json:"msg,omitempty"`
	Result *Result `json:"rs,omitempty"`
}

// Result is the authoritative round summary. Pairs are [team1, team2].
type Result struct {
	Abnat        [2]int       `json:"abnat"`
	Points       [2]int       `json:"gp"`
	Cumulative   [2]int       `json:"total"`
	Kaboot       bool         `json:"kaboot"`
	Multiplier   int          `json:"mult"`
	BidderTeam   int          `json:"bidder"`
	Declarations []ResultDecl `json:"decl,omitempty"`
}

// ResultDecl is a credited declaration; Team is 1 or 2.
type ResultDecl struct {
	Team int `json:"team"`
	Kind int `json:"d"`
}

// File is a parsed archive.
type File struct {
	ID      string     `json:"id"`
	Players []Player   `json:"players"`
	Rounds  [][]Record `json:"rounds"`
}

// Parse decodes an archive. A document that is not JSON, or that holds no
// rounds, fails with ErrFormat.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(f.Rounds) == 0 {
		return nil, fmt.Errorf("%w: no rounds", ErrFormat)
	}
	return &f, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(f.Rounds) == 0 {
		return nil, fmt.Errorf("%w: no rounds", ErrFormat)
	}
	return &f, nil
}
