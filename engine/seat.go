package engine

import "fmt"

// Seat is an absolute, 0-indexed table position as emitted by the data
// source after its own numbering has been normalised.
type Seat uint8

// RelSeat is a seat relative to the observing player: 0 is the observer and
// numbers increase clockwise (1 right, 2 partner, 3 left).
type RelSeat uint8

// Relative seat names.
const (
	RelSelf    RelSeat = 0
	RelRight   RelSeat = 1
	RelPartner RelSeat = 2
	RelLeft    RelSeat = 3
)

// NoSeat marks an unset seat in records that carry an optional seat.
const NoSeat Seat = 0xFF

// SeatFromOneBased converts a 1-indexed source seat into a Seat.
func SeatFromOneBased(n int) (Seat, error) {
	if n < 1 || n > MaxPlayers {
		return NoSeat, fmt.Errorf("seat %d outside 1..%d", n, MaxPlayers)
	}
	return Seat(n - 1), nil
}

// OneBased returns the 1-indexed form used by archives and the wire protocol.
func (s Seat) OneBased() int { return int(s) + 1 }

// Valid reports whether s is a real table position.
func (s Seat) Valid() bool { return s < MaxPlayers }

// ToRelative maps an absolute seat into the observer's frame.
func ToRelative(abs, self Seat) RelSeat {
	return RelSeat((int(abs) - int(self) + 2*MaxPlayers) % MaxPlayers)
}

// ToAbsolute is the inverse of ToRelative.
func ToAbsolute(rel RelSeat, self Seat) Seat {
	return Seat((int(rel) + int(self)) % MaxPlayers)
}

// NextSeat returns the seat that plays after s (clockwise).
func NextSeat(s Seat) Seat { return (s + 1) % MaxPlayers }

// Partner returns the seat across the table.
func Partner(s Seat) Seat { return (s + 2) % MaxPlayers }

// Team identifies one of the two partnerships.
type Team uint8

// Team1 holds absolute seats 0 and 2 (source seats 1 and 3); Team2 holds 1 and 3.
const (
	Team1 Team = 0
	Team2 Team = 1
)

// NoTeam marks an unset team.
const NoTeam Team = 0xFF

// Team returns the partnership s belongs to.
func (s Seat) Team() Team { return Team(s % 2) }

// Other returns the opposing team.
func (t Team) Other() Team { return 1 - t }

func (t Team) String() string {
	switch t {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	}
	return "none"
}

// TeamFromOneBased converts a 1/2 team number used by the sources.
func TeamFromOneBased(n int) (Team, error) {
	if n != 1 && n != 2 {
		return NoTeam, fmt.Errorf("team %d outside 1..2", n)
	}
	return Team(n - 1), nil
}
