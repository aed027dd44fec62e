package deck

import "sort"

// Pool tracks which deck indices the room has claimed. The server's
// copy is authoritative; client copies are caches overwritten wholesale
// by Replace on every broadcast, never merged.
type Pool struct {
	deckCount int
	used      map[int]struct{}
}

// NewPool creates an empty pool spanning deckCount decks.
func NewPool(deckCount int) *Pool {
	if deckCount < 1 {
		deckCount = 1
	}
	return &Pool{
		deckCount: deckCount,
		used:      make(map[int]struct{}),
	}
}

// DeckCount returns how many decks the pool spans.
func (p *Pool) DeckCount() int {
	return p.deckCount
}

// SuitCount returns the number of suit variants across all decks.
func (p *Pool) SuitCount() int {
	return 4 * p.deckCount
}

// IsAvailable reports whether the (value, suit) combination is unclaimed.
func (p *Pool) IsAvailable(value, suit int) bool {
	_, taken := p.used[Index(value, suit)]
	return !taken
}

// Contains reports whether the given index has been claimed.
func (p *Pool) Contains(index int) bool {
	_, ok := p.used[index]
	return ok
}

// MarkUsed claims an index. Duplicate claims are accepted silently so
// stale or repeated broadcasts apply cleanly.
func (p *Pool) MarkUsed(index int) {
	if index == Blank {
		return
	}
	p.used[index] = struct{}{}
}

// Replace overwrites the claimed set with the given indices. This is
// the only way a client copy takes authoritative state.
func (p *Pool) Replace(indices []int) {
	p.used = make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i == Blank {
			continue
		}
		p.used[i] = struct{}{}
	}
}

// Reset drops all claims, as at the start of a new round.
func (p *Pool) Reset() {
	p.used = make(map[int]struct{})
}

// Used returns the claimed indices in ascending order.
func (p *Pool) Used() []int {
	out := make([]int, 0, len(p.used))
	for i := range p.used {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Len returns how many indices have been claimed.
func (p *Pool) Len() int {
	return len(p.used)
}

// AllSuitsExhausted reports whether every suit variant of value, across
// every active deck, has been claimed. Used to grey out values in the
// boosted-swap target picker.
func (p *Pool) AllSuitsExhausted(value int) bool {
	for suit := 0; suit < p.SuitCount(); suit++ {
		if p.IsAvailable(value, suit) {
			return false
		}
	}
	return true
}

// AvailableValues returns the card values (1..13) that still have at
// least one unclaimed suit variant.
func (p *Pool) AvailableValues() []int {
	var out []int
	for v := 1; v <= 13; v++ {
		if !p.AllSuitsExhausted(v) {
			out = append(out, v)
		}
	}
	return out
}

// AvailableSuits returns the unclaimed suit variants of value, in
// ascending order.
func (p *Pool) AvailableSuits(value int) []int {
	var out []int
	for suit := 0; suit < p.SuitCount(); suit++ {
		if p.IsAvailable(value, suit) {
			out = append(out, suit)
		}
	}
	return out
}
