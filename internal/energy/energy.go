// Package energy converts continuous touch and device-motion input
// into a bounded scalar charge that authorizes a swap.
//
// The engine is pure and clock-explicit: samples carry their own
// timestamps and the owner drives decay and speed averaging by calling
// DecayTick and AverageTick from its own timers. Nothing here starts a
// goroutine or reads the wall clock, which keeps the accumulation
// rules deterministic under test.
package energy

import (
	"math"
	"time"
)

// Config holds the tuning constants for one collection session.
type Config struct {
	// Required is the energy ceiling that finalizes a swap.
	Required float64
	// BasePerMove is the energy gained by one on-threshold move at
	// reference speed with all points down.
	BasePerMove float64
	// NoiseThreshold is the minimum displacement, in points, for a
	// move to count.
	NoiseThreshold float64
	// ReferenceSpeed normalizes instantaneous speed, points/second.
	ReferenceSpeed float64
	// SpeedCap bounds the speed factor.
	SpeedCap float64
	// RequiredPoints is the contact count that yields a full finger
	// factor.
	RequiredPoints int
	// MinActivePoints is the minimum simultaneously-moving contacts
	// for any energy to accrue.
	MinActivePoints int
	// DecayPerTick is the energy lost per DecayTick once all points
	// have been idle for IdleWindow.
	DecayPerTick float64
	// IdleWindow is how long a point may rest before it counts as
	// idle.
	IdleWindow time.Duration
	// ShakeThreshold is the per-axis acceleration delta that counts
	// as a shake.
	ShakeThreshold float64
	// ShakeGainCap bounds the energy gained from a single shake.
	ShakeGainCap float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Required:        100,
		BasePerMove:     0.08,
		NoiseThreshold:  20,
		ReferenceSpeed:  200,
		SpeedCap:        2,
		RequiredPoints:  4,
		MinActivePoints: 2,
		DecayPerTick:    0.35,
		IdleWindow:      500 * time.Millisecond,
		ShakeThreshold:  15,
		ShakeGainCap:    10,
	}
}

// PointerSample is one contact point's position at a point in time.
// Samples arriving in the same Ingest call are treated as simultaneous.
type PointerSample struct {
	ID int
	X  float64
	Y  float64
	T  time.Time
}

// MotionSample is one accelerometer reading.
type MotionSample struct {
	AX float64
	AY float64
	AZ float64
	T  time.Time
}

type pointState struct {
	x, y  float64
	t     time.Time
	speed float64
}

// Engine accumulates energy from gesture input. Not safe for
// concurrent use; the owning session drives it from one control flow.
type Engine struct {
	cfg      Config
	active   bool
	fired    bool
	energy   float64
	avgSpeed float64
	points   map[int]pointState
	accel    MotionSample
	hasAccel bool
}

// NewEngine creates an engine with the given tuning. It starts
// inactive; call Start to begin a collection session.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, points: make(map[int]pointState)}
}

// Start begins a collection session with zero energy. Any state from a
// previous session is discarded.
func (e *Engine) Start() {
	e.active = true
	e.fired = false
	e.energy = 0
	e.avgSpeed = 0
	e.points = make(map[int]pointState)
	e.hasAccel = false
}

// Active reports whether a collection session is running.
func (e *Engine) Active() bool {
	return e.active
}

// Energy returns the current charge, in [0, Required].
func (e *Engine) Energy() float64 {
	return e.energy
}

// Percent returns the charge as a whole percentage of the ceiling.
func (e *Engine) Percent() int {
	return int(math.Round(e.energy / e.cfg.Required * 100))
}

// AverageSpeed returns the last computed rolling average speed.
func (e *Engine) AverageSpeed() float64 {
	return e.avgSpeed
}

// TrackedPoints returns how many contact points are being tracked.
func (e *Engine) TrackedPoints() int {
	return len(e.points)
}

// Ingest processes one frame of simultaneous contact points and
// reports whether the charge crossed the ceiling on this frame. The
// ceiling is an edge: it fires at most once per session.
//
// A point's first appearance only registers its position. On later
// frames its displacement since the last frame is converted to an
// energy increment when it exceeds the noise threshold, scaled by
// instantaneous speed and by how many of the required contacts are
// down. Increments from all moving points in the frame are summed, but
// nothing accrues unless at least MinActivePoints moved.
func (e *Engine) Ingest(frame []PointerSample) bool {
	if !e.active || e.fired {
		return false
	}

	var totalGain float64
	moving := 0
	fingerFactor := math.Min(float64(len(frame))/float64(e.cfg.RequiredPoints), 1)

	for _, s := range frame {
		prev, known := e.points[s.ID]
		if !known {
			e.points[s.ID] = pointState{x: s.X, y: s.Y, t: s.T}
			continue
		}
		dx := s.X - prev.x
		dy := s.Y - prev.y
		dist := math.Hypot(dx, dy)
		dt := s.T.Sub(prev.t)
		if dt <= 0 {
			continue
		}
		speed := dist / dt.Seconds()
		prev.speed = speed
		if dist > e.cfg.NoiseThreshold {
			speedFactor := math.Min(speed/e.cfg.ReferenceSpeed, e.cfg.SpeedCap)
			totalGain += e.cfg.BasePerMove * speedFactor * fingerFactor
			moving++
			prev.x, prev.y, prev.t = s.X, s.Y, s.T
		}
		e.points[s.ID] = prev
	}

	if totalGain > 0 && moving >= e.cfg.MinActivePoints {
		e.energy = math.Min(e.cfg.Required, e.energy+totalGain)
	}
	return e.checkFull()
}

// IngestMotion processes one accelerometer reading and reports whether
// the charge crossed the ceiling. The first reading only establishes a
// baseline. A later reading whose delta on any axis exceeds the shake
// threshold adds energy proportional to the largest delta, capped per
// shake. Each qualifying sample adds exactly one increment.
func (e *Engine) IngestMotion(s MotionSample) bool {
	if !e.active || e.fired {
		return false
	}
	if !e.hasAccel {
		e.accel = s
		e.hasAccel = true
		return false
	}
	dx := math.Abs(s.AX - e.accel.AX)
	dy := math.Abs(s.AY - e.accel.AY)
	dz := math.Abs(s.AZ - e.accel.AZ)
	e.accel = s
	if dx <= e.cfg.ShakeThreshold && dy <= e.cfg.ShakeThreshold && dz <= e.cfg.ShakeThreshold {
		return false
	}
	intensity := math.Max(dx, math.Max(dy, dz))
	gain := math.Min(intensity*2, e.cfg.ShakeGainCap)
	e.energy = math.Min(e.cfg.Required, e.energy+gain)
	return e.checkFull()
}

// Release stops tracking a contact point, as when a finger lifts.
func (e *Engine) Release(id int) {
	delete(e.points, id)
}

// DecayTick applies one decay step at the given time. Nothing decays
// while any tracked point moved within the idle window.
func (e *Engine) DecayTick(now time.Time) {
	if !e.active || e.fired {
		return
	}
	for _, p := range e.points {
		if now.Sub(p.t) < e.cfg.IdleWindow {
			return
		}
	}
	if e.energy > 0 {
		e.energy = math.Max(0, e.energy-e.cfg.DecayPerTick)
	}
}

// AverageTick recomputes the rolling average speed from the tracked
// points. Run on a fixed interval rather than per-sample to avoid
// display jitter.
func (e *Engine) AverageTick() {
	if !e.active {
		return
	}
	if len(e.points) == 0 {
		e.avgSpeed = 0
		return
	}
	var sum float64
	for _, p := range e.points {
		sum += p.speed
	}
	e.avgSpeed = sum / float64(len(e.points))
}

// Cancel ends the session and discards all accumulated energy. After
// Cancel no further ingest can fire the ceiling edge, even if energy
// had already reached it.
func (e *Engine) Cancel() {
	e.active = false
	e.fired = false
	e.energy = 0
	e.avgSpeed = 0
	e.points = make(map[int]pointState)
	e.hasAccel = false
}

func (e *Engine) checkFull() bool {
	if e.energy >= e.cfg.Required && !e.fired {
		e.fired = true
		return true
	}
	return false
}
