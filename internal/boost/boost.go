// Package boost tracks the chant ladder that raises the odds of a swap
// drawing the player's desired card.
package boost

import "fmt"

// MaxLevel is the terminal ladder level for a round.
const MaxLevel = 3

// percents maps ladder levels to the chance the next swap draws the
// desired target rather than a random card.
var percents = [MaxLevel + 1]int{1, 10, 20, 30}

// Ladder is the chant progression state machine. Levels advance one
// step per successful chant, saturate at MaxLevel, and reset only when
// a swap is confirmed by the server.
type Ladder struct {
	level int
}

// NewLadder returns a ladder at level 0.
func NewLadder() *Ladder {
	return &Ladder{}
}

// Level returns the current ladder level, 0..MaxLevel.
func (l *Ladder) Level() int {
	return l.level
}

// Percent returns the draw probability of the current level.
func (l *Ladder) Percent() int {
	return percents[l.level]
}

// Boosted reports whether the ladder is above the base level.
func (l *Ladder) Boosted() bool {
	return l.level > 0
}

// Advance moves the ladder up one level after a successful chant and
// reports whether the level actually changed. At MaxLevel it is a
// no-op.
func (l *Ladder) Advance() bool {
	if l.level >= MaxLevel {
		return false
	}
	l.level++
	return true
}

// Reset drops the ladder back to level 0. Call only when the server
// confirms a completed swap.
func (l *Ladder) Reset() {
	l.level = 0
}

// Set forces the ladder to a specific level, clamped to the valid
// range. Used when restoring state from a server snapshot.
func (l *Ladder) Set(level int) {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	l.level = level
}

// PercentFor returns the draw probability of an arbitrary level,
// clamped to the valid range.
func PercentFor(level int) int {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return percents[level]
}

// Instruction returns the player-facing copy describing the current
// tier and the next required action.
func (l *Ladder) Instruction() string {
	switch l.level {
	case 0:
		return "Niệm chú để tăng tỉ lệ đổi bài (1%)"
	case MaxLevel:
		return fmt.Sprintf("Tỉ lệ tối đa %d%% - chà bài để đổi", percents[l.level])
	default:
		return fmt.Sprintf("Tỉ lệ %d%% - niệm tiếp hoặc chà bài để đổi", percents[l.level])
	}
}
