// Package deck models cards and the shared room-wide card pool.
//
// A card's pool identity is its flat deck index: (value-1) + suit*13.
// Suits carry the deck offset, so a room playing with two decks uses
// suits 0..7 and indices 0..103.
package deck

import "fmt"

// Blank marks a padding slot in a boosted draw pool. Drawing it means
// the boost missed.
const Blank = -1

var suitSymbols = [4]string{"♠", "♥", "♦", "♣"}

var valueLabels = [14]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card is a single playing card. Value runs 1 (ace) through 13 (king).
// Suit includes the deck offset: 0-3 for deck 1, 4-7 for deck 2, 8-11
// for deck 3. Deck is 1-based and derivable from Suit.
type Card struct {
	Value int `json:"value"`
	Suit  int `json:"suit"`
	Deck  int `json:"deck"`
}

// Index converts a (value, suit) pair to its flat deck index.
func Index(value, suit int) int {
	return (value - 1) + suit*13
}

// At converts a flat deck index back to a Card.
func At(index int) Card {
	return Card{
		Value: index%13 + 1,
		Suit:  index / 13,
		Deck:  index/52 + 1,
	}
}

// Index returns the card's flat deck index.
func (c Card) Index() int {
	return Index(c.Value, c.Suit)
}

// SuitSymbol returns the card's suit glyph, ignoring the deck offset.
func (c Card) SuitSymbol() string {
	return suitSymbols[((c.Suit%4)+4)%4]
}

// ValueLabel returns the card's face label (A, 2..10, J, Q, K).
func (c Card) ValueLabel() string {
	if c.Value < 1 || c.Value > 13 {
		return "?"
	}
	return valueLabels[c.Value]
}

// String renders the card as, e.g., "A♠" or "10♥(d2)" for deck 2+.
func (c Card) String() string {
	s := c.ValueLabel() + c.SuitSymbol()
	if c.Deck > 1 {
		s += fmt.Sprintf("(d%d)", c.Deck)
	}
	return s
}

// Valid reports whether the card lies within the given deck count.
func (c Card) Valid(deckCount int) bool {
	return c.Value >= 1 && c.Value <= 13 && c.Suit >= 0 && c.Suit < 4*deckCount
}
