package archive

import (
	"fmt"

	engine "github.com/jason-s-yu/baloot/engine"
)

// archiveTrump is the archive's trump numbering: clubs, diamonds, hearts,
// spades. It is not the codec's suit order.
var archiveTrump = [engine.NumSuits]engine.Suit{engine.Clubs, engine.Diamonds, engine.Hearts, engine.Spades}

// ArchiveTrumpToSuit translates an archive trump ordinal into a codec suit.
func ArchiveTrumpToSuit(n int) (engine.Suit, error) {
	if n < 0 || n >= engine.NumSuits {
		return 0, fmt.Errorf("archive trump ordinal %d outside 0..%d", n, engine.NumSuits-1)
	}
	return archiveTrump[n], nil
}

// SuitToArchiveTrump is the inverse of ArchiveTrumpToSuit.
func SuitToArchiveTrump(s engine.Suit) int {
	for i, a := range archiveTrump {
		if a == s {
			return i
		}
	}
	return -1
}
