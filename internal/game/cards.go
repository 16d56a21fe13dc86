package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

type Card string

const (
	Rose  Card = "rose"
	Skull Card = "skull"
)

func (c Card) Valid() bool {
	return c == Rose || c == Skull
}

func (c *Card) UnmarshalText(text []byte) error {
	card := Card(text)
	if !card.Valid() {
		return fmt.Errorf("INVALID_CARD: unknown card %q", string(text))
	}
	*c = card
	return nil
}

// Rules are the per-game constants a controller is built with.
type Rules struct {
	WinPoints int
	Deck      []Card
}

// DefaultRules is the standard Skull setup: three roses and one skull each,
// two successful challenges win.
func DefaultRules() Rules {
	return Rules{
		WinPoints: 2,
		Deck:      []Card{Rose, Rose, Rose, Skull},
	}
}

// RandomSource is the subset of *rand.Rand the engine needs.
type RandomSource interface {
	IntN(n int) int
}

var _ RandomSource = (*rand.Rand)(nil)

// RemoveCard returns a copy of cards without the first occurrence of card.
func RemoveCard(cards []Card, card Card) []Card {
	out := make([]Card, 0, len(cards))
	removed := false
	for _, c := range cards {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasCard reports whether card is present in cards.
func HasCard(cards []Card, card Card) bool {
	return slices.Contains(cards, card)
}
