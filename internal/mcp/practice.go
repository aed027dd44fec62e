// Package mcp exposes a solo practice table over the Model Context
// Protocol: a local room and a swap session wired back to back, driven
// entirely through tool calls.
package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"hoanbai/internal/deck"
	"hoanbai/internal/energy"
	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
	"hoanbai/internal/room"
	"hoanbai/internal/session"
)

const practicePlayerID = "you"

// loopback routes the session's client messages straight into the
// local room and queues the room's replies. Replies are applied
// between operations, never re-entrantly while a session method is
// still running.
type loopback struct {
	room  *room.Room
	queue []protocol.ServerMessage
}

func (l *loopback) Send(msg protocol.ClientMessage) error {
	var ds []room.Delivery
	if msg.Type == protocol.TypeJoinRoom {
		ds = l.room.Join(practicePlayerID, "practice")
	} else {
		ds = room.Dispatch(l.room, practicePlayerID, msg)
	}
	for _, d := range ds {
		if d.To == "" || d.To == practicePlayerID {
			l.queue = append(l.queue, d.Msg)
		}
	}
	return nil
}

// practice is one solo table. The clock is virtual: gestures and decay
// ticks advance it explicitly, which makes every tool call
// deterministic.
type practice struct {
	room   *room.Room
	sess   *session.Session
	lb     *loopback
	logger *log.MemoryLogger
	now    time.Time
}

func newPractice(mode, maxBoosts, decks int) *practice {
	r := room.New("PRACTICE", room.Options{
		Mode:      mode,
		MaxBoosts: maxBoosts,
		Decks:     decks,
	})
	lb := &loopback{room: r}
	logger := log.NewMemoryLogger()
	p := &practice{
		room:   r,
		lb:     lb,
		logger: logger,
		now:    time.Now(),
	}
	p.sess = session.New(session.Config{
		RoomID:   r.ID(),
		PlayerID: practicePlayerID,
		Caps:     session.Capabilities{Touch: true, Motion: true, Microphone: true},
		Logger:   logger,
	}, lb)
	_ = p.sess.Join() // loopback sends cannot fail
	p.pump()
	return p
}

// pump applies the queued room replies to the session and collects any
// server-side notices for the tool result.
func (p *practice) pump() []string {
	var notices []string
	for len(p.lb.queue) > 0 {
		msg := p.lb.queue[0]
		p.lb.queue = p.lb.queue[1:]
		if err := p.sess.HandleServer(msg); err != nil {
			notices = append(notices, err.Error())
		} else if msg.Message != "" {
			notices = append(notices, msg.Message)
		}
	}
	return notices
}

// rub feeds four-finger frames until the energy ceiling or the frame
// budget.
func (p *practice) rub(frames int) error {
	frame := func(offset float64, at time.Time) []energy.PointerSample {
		out := make([]energy.PointerSample, 4)
		for i := range out {
			out[i] = energy.PointerSample{ID: i, X: offset, Y: float64(120 * i), T: at}
		}
		return out
	}
	if err := p.sess.IngestPointer(frame(0, p.now)); err != nil {
		return err
	}
	for i := 1; i <= frames && p.sess.Mode() == session.ModeCollectingEnergy; i++ {
		p.now = p.now.Add(16 * time.Millisecond)
		if err := p.sess.IngestPointer(frame(float64(50*i), p.now)); err != nil {
			return err
		}
	}
	return nil
}

// shake feeds alternating hard accelerometer deltas.
func (p *practice) shake(count int) error {
	if err := p.sess.IngestMotion(energy.MotionSample{AZ: 9.8, T: p.now}); err != nil {
		return err
	}
	for i := 0; i < count && p.sess.Mode() == session.ModeCollectingEnergy; i++ {
		p.now = p.now.Add(50 * time.Millisecond)
		s := energy.MotionSample{AZ: 9.8, T: p.now}
		if i%2 == 0 {
			s.AX = 25
		}
		if err := p.sess.IngestMotion(s); err != nil {
			return err
		}
	}
	return nil
}

// wait advances the virtual clock in decay-tick steps, letting charge
// drain while the fingers rest.
func (p *practice) wait(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 100 * time.Millisecond {
		p.now = p.now.Add(100 * time.Millisecond)
		p.sess.DecayTick(p.now)
	}
	p.sess.AverageTick()
}

// tableState is the JSON snapshot returned by most tools.
type tableState struct {
	Mode          string   `json:"mode"`
	Round         int      `json:"round"`
	Hand          []string `json:"hand"`
	Revealed      []int    `json:"revealed"`
	SelectedSlot  int      `json:"selected_slot"`
	EnergyPercent int      `json:"energy_percent"`
	BoostLevel    int      `json:"boost_level"`
	BoostPercent  int      `json:"boost_percent"`
	Instruction   string   `json:"instruction"`
	SwapsUsed     int      `json:"swaps_used"`
	SwapsAllowed  int      `json:"swaps_allowed"`
	TargetValues  []int    `json:"target_values,omitempty"`
	LastResult    string   `json:"last_result,omitempty"`
	Notices       []string `json:"notices,omitempty"`
}

func (p *practice) state(notices []string) string {
	hand := p.sess.Hand()
	cards := make([]string, len(hand))
	for i, c := range hand {
		cards[i] = c.String()
	}
	st := tableState{
		Mode:          p.sess.Mode().String(),
		Round:         p.sess.Round(),
		Hand:          cards,
		Revealed:      p.sess.Revealed(),
		SelectedSlot:  p.sess.SelectedSlot(),
		EnergyPercent: p.sess.EnergyPercent(),
		BoostLevel:    p.sess.Ladder().Level(),
		BoostPercent:  p.sess.Ladder().Percent(),
		Instruction:   p.sess.Ladder().Instruction(),
		SwapsUsed:     p.sess.QuotaUsed(),
		SwapsAllowed:  p.sess.QuotaAllowed(),
		Notices:       notices,
	}
	if p.sess.Mode() == session.ModeAwaitingTarget {
		st.TargetValues = p.sess.TargetValues()
	}
	if card, ok := p.sess.LastResult(); ok {
		st.LastResult = card.String()
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Sprintf("state error: %v", err)
	}
	return string(data)
}

// events renders the most recent session events as text lines.
func (p *practice) events(limit int) string {
	all := p.logger.Events()
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	if len(all) == 0 {
		return "no events yet"
	}
	out := ""
	for _, e := range all {
		line := fmt.Sprintf("[%04d] r%d %s", e.Seq, e.Round, e.Type)
		if e.Card != "" {
			line += " " + e.Card
		}
		if e.Details != "" {
			line += " " + e.Details
		}
		out += line + "\n"
	}
	return out
}

// poolSummary lists which values remain drawable.
func (p *practice) poolSummary() string {
	pool := p.sess.Pool()
	out := fmt.Sprintf("claimed %d of %d cards\navailable values:", pool.Len(), 52*pool.DeckCount())
	for _, v := range pool.AvailableValues() {
		out += fmt.Sprintf(" %s(%d suits)", deck.Card{Value: v, Suit: 0, Deck: 1}.ValueLabel(), len(pool.AvailableSuits(v)))
	}
	return out
}
