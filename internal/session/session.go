// Package session implements the client-resident swap session: the
// state machine that turns touch, motion, and chant input into
// rate-limited swap requests and keeps local state consistent with the
// authoritative room server.
package session

import (
	"sort"
	"time"

	"hoanbai/internal/boost"
	"hoanbai/internal/chant"
	"hoanbai/internal/deck"
	"hoanbai/internal/energy"
	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
)

// Sender delivers client messages to the room server.
type Sender interface {
	Send(msg protocol.ClientMessage) error
}

// Capabilities describes which platform inputs are present. Missing
// capabilities degrade their feature; they never fail the session.
type Capabilities struct {
	Touch      bool
	Motion     bool
	Microphone bool
}

// Config configures a Session.
type Config struct {
	RoomID   string
	PlayerID string
	Energy   energy.Config
	Caps     Capabilities
	Matcher  *chant.Matcher
	Logger   log.EventLogger
}

// Session is the top-level orchestrator for one player's swap
// interactions in one room. It is driven from a single control flow:
// gesture samples, timer ticks, transcripts, and server messages all
// interleave on the owner's loop, so Session does no internal locking.
type Session struct {
	roomID   string
	playerID string
	caps     Capabilities
	sender   Sender
	logger   log.EventLogger

	mode       Mode
	recognizer RecognizerStatus

	hand     []deck.Card
	revealed map[int]bool
	pool     *deck.Pool
	ladder   *boost.Ladder
	engine   *energy.Engine
	matcher  *chant.Matcher

	roomMode     int
	round        int
	quotaUsed    int
	quotaAllowed int
	quotaLatched bool

	selectedSlot int
	desiredValue int
	pendingSwap  bool

	lastResult    *deck.Card
	canStartRound bool
}

// New creates a session. Zero-value Energy config, nil Matcher, and
// nil Logger fall back to defaults.
func New(cfg Config, sender Sender) *Session {
	if cfg.Energy.Required == 0 {
		cfg.Energy = energy.DefaultConfig()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = chant.NewMatcher()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NopLogger{}
	}
	return &Session{
		roomID:       cfg.RoomID,
		playerID:     cfg.PlayerID,
		caps:         cfg.Caps,
		sender:       sender,
		logger:       cfg.Logger,
		revealed:     make(map[int]bool),
		pool:         deck.NewPool(1),
		ladder:       boost.NewLadder(),
		engine:       energy.NewEngine(cfg.Energy),
		matcher:      cfg.Matcher,
		round:        1,
		selectedSlot: -1,
	}
}

// Join announces the player to the room. Idempotent server-side, so it
// doubles as the reconnect path.
func (s *Session) Join() error {
	err := s.sender.Send(protocol.ClientMessage{
		Type:     protocol.TypeJoinRoom,
		RoomID:   s.roomID,
		PlayerID: s.playerID,
	})
	if err != nil {
		return err
	}
	s.log(log.EventJoin, "", "")
	return nil
}

// SelectCard marks a hand slot as the swap source. Selection while a
// swap is in flight is ignored without error.
func (s *Session) SelectCard(slot int) error {
	if s.mode != ModeIdle {
		return nil
	}
	if slot < 0 || slot >= len(s.hand) {
		return rejectf(InputRejected, "không có lá bài ở vị trí %d", slot)
	}
	s.selectedSlot = slot
	s.log(log.EventSelectCard, s.hand[slot].String(), "")
	return nil
}

// SelectedSlot returns the selected hand slot, or -1.
func (s *Session) SelectedSlot() int {
	return s.selectedSlot
}

// BeginSwap starts a swap for the selected slot. At base tier it goes
// straight to energy collection; at a boosted tier it first waits for
// a target value. Quota gating applies before anything else and
// overrides fold state checks.
func (s *Session) BeginSwap() error {
	if s.QuotaExhausted() {
		return rejectf(InputRejected, "bạn đã dùng hết %d lượt hoán trong round này", s.quotaAllowed)
	}
	if s.mode == ModeFolded {
		return rejectf(InputRejected, "bạn đã buông bài")
	}
	if s.mode != ModeIdle {
		return rejectf(InputRejected, "đang hoán bài, không thể bắt đầu lượt mới")
	}
	if s.selectedSlot < 0 {
		return rejectf(InputRejected, "chưa chọn lá bài để hoán")
	}
	if !s.ladder.Boosted() {
		s.startCollecting()
		return nil
	}
	values := s.pool.AvailableValues()
	if len(values) == 0 {
		return rejectf(InputRejected, "không còn lá nào để hoán")
	}
	s.mode = ModeAwaitingTarget
	return nil
}

// TargetValues returns the values selectable as a boosted-swap target:
// those with at least one unclaimed suit variant.
func (s *Session) TargetValues() []int {
	return s.pool.AvailableValues()
}

// ChooseTarget fixes the desired value of a boosted swap and begins
// energy collection.
func (s *Session) ChooseTarget(value int) error {
	if s.mode != ModeAwaitingTarget {
		return rejectf(InputRejected, "chưa ở bước chọn lá")
	}
	if value < 1 || value > 13 || s.pool.AllSuitsExhausted(value) {
		return rejectf(InputRejected, "lá %d không còn trong bộ bài", value)
	}
	s.desiredValue = value
	s.log(log.EventTargetChosen, deck.Card{Value: value, Suit: 0, Deck: 1}.ValueLabel(), "")
	s.startCollecting()
	return nil
}

func (s *Session) startCollecting() {
	s.mode = ModeCollectingEnergy
	s.engine.Start()
}

// IngestPointer feeds one frame of simultaneous touch points into the
// energy engine. Outside of energy collection it is a no-op, which
// makes stray gesture callbacks after finalize or cancel harmless.
func (s *Session) IngestPointer(frame []energy.PointerSample) error {
	if s.mode != ModeCollectingEnergy {
		return nil
	}
	if s.engine.Ingest(frame) {
		return s.finalize()
	}
	return nil
}

// IngestMotion feeds one accelerometer reading into the energy engine.
func (s *Session) IngestMotion(sample energy.MotionSample) error {
	if s.mode != ModeCollectingEnergy {
		return nil
	}
	if !s.caps.Motion {
		return nil
	}
	if s.engine.IngestMotion(sample) {
		return s.finalize()
	}
	return nil
}

// ReleasePointer stops tracking a lifted contact point.
func (s *Session) ReleasePointer(id int) {
	s.engine.Release(id)
}

// DecayTick applies one energy decay step. The owner runs this on a
// fixed interval while the session is collecting.
func (s *Session) DecayTick(now time.Time) {
	if s.mode == ModeCollectingEnergy {
		s.engine.DecayTick(now)
	}
}

// AverageTick recomputes the rolling average speed display.
func (s *Session) AverageTick() {
	if s.mode == ModeCollectingEnergy {
		s.engine.AverageTick()
	}
}

// finalize emits the swap request once energy hits the ceiling. All
// further gesture input is dead from this point: the engine session
// ends before the request goes out, so a late tick cannot double-fire.
func (s *Session) finalize() error {
	slot := s.selectedSlot
	desired := s.desiredValue
	level := s.ladder.Level()
	s.engine.Cancel()

	if s.QuotaExhausted() {
		// Quota raced to zero while collecting.
		s.mode = ModeIdle
		s.selectedSlot = -1
		s.desiredValue = 0
		return rejectf(InputRejected, "bạn đã dùng hết %d lượt hoán trong round này", s.quotaAllowed)
	}

	msg := protocol.ClientMessage{
		Type:      protocol.TypeSwapCard,
		RoomID:    s.roomID,
		CardIndex: slot,
	}
	if desired > 0 && level > 0 {
		msg.Type = protocol.TypeBoostSwap
		msg.DesiredValue = desired
		msg.BoostLevel = protocol.WireBoostLevel(level)
	}

	s.mode = ModeAwaitingAck
	s.selectedSlot = -1
	s.desiredValue = 0
	s.pendingSwap = true
	s.quotaUsed++ // optimistic, display only; overwritten by the ack

	if err := s.sender.Send(msg); err != nil {
		s.pendingSwap = false
		s.quotaUsed--
		s.mode = ModeIdle
		return err
	}
	s.log(log.EventSwapRequested, "", msg.Type)
	return nil
}

// CancelSwap abandons target selection or energy collection and
// returns to idle without emitting anything. Cancel wins over
// finalize: once called, a queued full-energy tick cannot fire.
func (s *Session) CancelSwap() error {
	switch s.mode {
	case ModeAwaitingTarget, ModeCollectingEnergy:
		s.engine.Cancel()
		s.mode = ModeIdle
		s.desiredValue = 0
		s.log(log.EventCancel, "", "")
		return nil
	default:
		return rejectf(InputRejected, "không có lượt hoán nào đang diễn ra")
	}
}

// Reveal flips one of the player's hand slots face up. Reveals are
// monotonic until a new round.
func (s *Session) Reveal(slot int) error {
	if slot < 0 || slot >= len(s.hand) {
		return rejectf(InputRejected, "không có lá bài ở vị trí %d", slot)
	}
	if s.revealed[slot] {
		return nil
	}
	s.revealed[slot] = true
	err := s.sender.Send(protocol.ClientMessage{
		Type:      protocol.TypeFlipCard,
		RoomID:    s.roomID,
		CardIndex: slot,
		Rotation:  180,
	})
	if err != nil {
		return err
	}
	s.log(log.EventCardRevealed, s.hand[slot].String(), "")
	return nil
}

// Fold withdraws from the round: reveals every hidden slot, cancels
// any in-flight energy collection without emitting a swap, and
// disables swap affordances until a new round.
func (s *Session) Fold() error {
	if s.mode == ModeFolded {
		return rejectf(InputRejected, "bạn đã buông bài rồi")
	}
	if s.mode == ModeCollectingEnergy || s.mode == ModeAwaitingTarget {
		s.engine.Cancel()
	}
	for slot := range s.hand {
		s.revealed[slot] = true
	}
	s.mode = ModeFolded
	s.desiredValue = 0
	s.selectedSlot = -1
	err := s.sender.Send(protocol.ClientMessage{
		Type:   protocol.TypeFold,
		RoomID: s.roomID,
	})
	if err != nil {
		return err
	}
	s.log(log.EventFold, "", "")
	return nil
}

// ReadyForNewRound signals that the player wants the next round.
func (s *Session) ReadyForNewRound() error {
	return s.sender.Send(protocol.ClientMessage{
		Type:   protocol.TypeReadyForNewRound,
		RoomID: s.roomID,
	})
}

// SwapHandPositions reorders two hand slots locally and mirrors the
// reorder to the server. Cosmetic only; refused while a swap is in
// flight.
func (s *Session) SwapHandPositions(a, b int) error {
	switch s.mode {
	case ModeIdle, ModeFolded:
	default:
		return rejectf(InputRejected, "đang hoán bài, không thể đổi vị trí")
	}
	if a < 0 || a >= len(s.hand) || b < 0 || b >= len(s.hand) {
		return rejectf(InputRejected, "vị trí đổi chỗ không hợp lệ")
	}
	if a == b {
		return nil
	}
	s.hand[a], s.hand[b] = s.hand[b], s.hand[a]
	s.revealed[a], s.revealed[b] = s.revealed[b], s.revealed[a]
	err := s.sender.Send(protocol.ClientMessage{
		Type:      protocol.TypeSwapCardPositions,
		RoomID:    s.roomID,
		FromIndex: a,
		ToIndex:   b,
	})
	if err != nil {
		return err
	}
	s.log(log.EventPositionsSwapped, "", "")
	return nil
}

// Acknowledge dismisses the swap result display and returns to idle.
func (s *Session) Acknowledge() error {
	if s.mode != ModeAwaitingAck {
		return rejectf(InputRejected, "không có kết quả nào đang chờ")
	}
	s.mode = ModeIdle
	return nil
}

// StartListening begins a chant recognition attempt. Only one attempt
// may be in flight; starting is illegal while a previous attempt is
// active or still stopping, after folding, and once the swap quota is
// spent.
func (s *Session) StartListening() error {
	if !s.caps.Microphone {
		return rejectf(CapabilityUnavailable, "không có microphone, không thể niệm chú")
	}
	if s.mode == ModeFolded {
		return rejectf(InputRejected, "đã bỏ bài, không thể niệm chú")
	}
	if s.QuotaExhausted() {
		return rejectf(InputRejected, "đã dùng hết lượt hoán trong round này")
	}
	if s.recognizer != RecognizerIdle {
		return rejectf(InputRejected, "đang nhận diện giọng nói (%s)", s.recognizer)
	}
	s.recognizer = RecognizerListening
	return nil
}

// StopListening begins recognizer teardown. The engine confirms with
// RecognizerStopped.
func (s *Session) StopListening() {
	if s.recognizer == RecognizerListening {
		s.recognizer = RecognizerStopping
	}
}

// RecognizerStopped marks the recognizer fully stopped.
func (s *Session) RecognizerStopped() {
	s.recognizer = RecognizerIdle
}

// RecognizerState returns the recognizer lifecycle state.
func (s *Session) RecognizerState() RecognizerStatus {
	return s.recognizer
}

// FinalTranscript verifies a final transcript against the chant. On a
// match the ladder advances and the new level is mirrored to the
// server; a miss leaves the ladder untouched.
func (s *Session) FinalTranscript(text string) error {
	if s.recognizer != RecognizerListening {
		return rejectf(InputRejected, "không có phiên nhận diện nào đang chạy")
	}
	if s.mode == ModeFolded {
		return rejectf(InputRejected, "đã bỏ bài, không thể niệm chú")
	}
	if s.QuotaExhausted() {
		return rejectf(InputRejected, "đã dùng hết lượt hoán trong round này")
	}
	if !s.matcher.Match(text) {
		s.log(log.EventChantMiss, "", text)
		return nil
	}
	s.log(log.EventChantSuccess, "", "")
	if !s.ladder.Advance() {
		return nil
	}
	err := s.sender.Send(protocol.ClientMessage{
		Type:       protocol.TypeUpdateChantCount,
		RoomID:     s.roomID,
		ChantCount: s.ladder.Level(),
	})
	if err != nil {
		return err
	}
	s.log(log.EventLevelChange, "", s.ladder.Instruction())
	return nil
}

// RecognitionError reports a recognizer failure mid-listen. Boost
// state is untouched; the attempt ends and the player may retry.
func (s *Session) RecognitionError(reason string) error {
	s.recognizer = RecognizerIdle
	return rejectf(RecognitionTransient, "lỗi nhận diện: %s", reason)
}

// HandleServer applies one authoritative server message. Messages must
// be applied in arrival order; duplicates and stale pool updates are
// idempotent.
func (s *Session) HandleServer(msg protocol.ServerMessage) error {
	switch msg.Type {
	case protocol.TypeGameStarted:
		s.applySnapshot(msg)
	case protocol.TypeCardSwapped, protocol.TypeBoostCompleted:
		s.applySwapResult(msg)
	case protocol.TypeSwapFailed, protocol.TypeError:
		return s.applyRejection(msg)
	case protocol.TypeChantCountUpdated:
		if msg.PlayerID != s.playerID {
			s.logFor(msg.PlayerID, log.EventLevelChange, "", "")
		}
	case protocol.TypeCardFlipped:
		if msg.PlayerID == s.playerID && msg.CardIndex >= 0 && msg.CardIndex < len(s.hand) {
			s.revealed[msg.CardIndex] = true
		}
		s.logFor(msg.PlayerID, log.EventCardRevealed, "", "")
	case protocol.TypeCardPositionsSwapped:
		s.logFor(msg.PlayerID, log.EventPositionsSwapped, "", "")
	case protocol.TypePlayerFolded:
		s.logFor(msg.PlayerID, log.EventFold, "", "")
	case protocol.TypeAllFolded:
		s.canStartRound = msg.CanStartNewRound
		s.log(log.EventAllFolded, "", msg.Message)
	case protocol.TypePlayerReady:
		s.logFor(msg.PlayerID, log.EventPlayerReady, "", "")
	case protocol.TypeNewRoundStarted:
		s.applyNewRound(msg)
	}
	return nil
}

// applySnapshot overwrites all replicated state from a full
// game_started snapshot. Snapshots replace, never merge.
func (s *Session) applySnapshot(msg protocol.ServerMessage) {
	s.engine.Cancel()

	s.hand = append([]deck.Card(nil), msg.Cards...)
	decks := msg.Decks
	if decks < 1 {
		decks = 1
	}
	s.pool = deck.NewPool(decks)
	s.pool.Replace(msg.UsedCards)
	s.roomMode = msg.Mode
	s.quotaAllowed = msg.MaxBoosts
	s.ladder.Set(msg.ChantCount)

	s.revealed = make(map[int]bool)
	for _, slot := range msg.FlippedCards {
		s.revealed[slot] = true
	}

	s.selectedSlot = -1
	s.desiredValue = 0
	s.pendingSwap = false
	if msg.Folded {
		s.mode = ModeFolded
	} else {
		s.mode = ModeIdle
	}
	// The latch deliberately survives repeated snapshots so an
	// exhausted quota is announced once per round.
	s.applyQuota(msg.TotalSwaps)
	s.log(log.EventGameStarted, "", "")
}

func (s *Session) applySwapResult(msg protocol.ServerMessage) {
	s.pool.Replace(msg.UsedCards)
	if msg.PlayerID != s.playerID {
		s.logFor(msg.PlayerID, log.EventSwapApplied, "", "")
		return
	}

	if msg.NewCard != nil && msg.CardIndex >= 0 && msg.CardIndex < len(s.hand) {
		s.hand[msg.CardIndex] = *msg.NewCard
		s.lastResult = msg.NewCard
	}
	if msg.ResetChantCount {
		s.ladder.Reset()
	}
	s.pendingSwap = false
	if msg.TotalSwaps > 0 {
		s.applyQuota(msg.TotalSwaps)
	} else {
		s.applyQuota(s.quotaUsed)
	}
	card := ""
	if msg.NewCard != nil {
		card = msg.NewCard.String()
	}
	s.log(log.EventSwapApplied, card, "")
}

// applyRejection reverts the optimistic quota decrement and returns
// the session to idle. Hand, pool, and ladder are untouched, so the
// swap is safe to retry.
func (s *Session) applyRejection(msg protocol.ServerMessage) error {
	if s.pendingSwap {
		s.pendingSwap = false
		if s.quotaUsed > 0 {
			s.quotaUsed--
		}
	}
	if s.mode == ModeAwaitingAck {
		s.mode = ModeIdle
	}
	s.log(log.EventSwapRejected, "", msg.Message)
	return rejectf(ServerRejected, "%s", msg.Message)
}

func (s *Session) applyNewRound(msg protocol.ServerMessage) {
	s.engine.Cancel()
	s.pool.Replace(msg.UsedCards)
	s.revealed = make(map[int]bool)
	s.ladder.Reset()
	s.quotaUsed = 0
	s.quotaLatched = false
	s.selectedSlot = -1
	s.desiredValue = 0
	s.pendingSwap = false
	s.canStartRound = false
	s.mode = ModeIdle
	s.round++
	s.log(log.EventNewRound, "", msg.Message)
}

// applyQuota takes an authoritative used count and fires the
// exhaustion notice at most once per round.
func (s *Session) applyQuota(used int) {
	s.quotaUsed = used
	if s.quotaAllowed <= 0 {
		return
	}
	if s.quotaUsed >= s.quotaAllowed {
		if !s.quotaLatched {
			s.quotaLatched = true
			s.log(log.EventQuotaExhausted, "", "hết lượt hoán bài trong round này")
		}
		return
	}
	s.quotaLatched = false
}

// Mode returns the session's interaction state.
func (s *Session) Mode() Mode { return s.mode }

// Round returns the 1-based round number.
func (s *Session) Round() int { return s.round }

// RoomMode returns the hand size for the room (3 or 6).
func (s *Session) RoomMode() int { return s.roomMode }

// Hand returns a copy of the player's hand.
func (s *Session) Hand() []deck.Card {
	return append([]deck.Card(nil), s.hand...)
}

// Revealed returns the revealed hand slots in ascending order.
func (s *Session) Revealed() []int {
	out := make([]int, 0, len(s.revealed))
	for slot, on := range s.revealed {
		if on {
			out = append(out, slot)
		}
	}
	sort.Ints(out)
	return out
}

// Pool returns the replicated shared card pool.
func (s *Session) Pool() *deck.Pool { return s.pool }

// Ladder returns the chant ladder.
func (s *Session) Ladder() *boost.Ladder { return s.ladder }

// EnergyPercent returns the current charge as a percentage.
func (s *Session) EnergyPercent() int { return s.engine.Percent() }

// AverageSpeed returns the rolling average gesture speed.
func (s *Session) AverageSpeed() float64 { return s.engine.AverageSpeed() }

// QuotaUsed returns the swaps used this round (optimistic until the
// next authoritative message).
func (s *Session) QuotaUsed() int { return s.quotaUsed }

// QuotaAllowed returns the per-round swap quota.
func (s *Session) QuotaAllowed() int { return s.quotaAllowed }

// QuotaExhausted reports whether the round's swap quota is spent.
func (s *Session) QuotaExhausted() bool {
	return s.quotaAllowed > 0 && s.quotaUsed >= s.quotaAllowed
}

// CanStartNewRound reports whether the room is waiting on ready
// signals for the next round.
func (s *Session) CanStartNewRound() bool { return s.canStartRound }

// LastResult returns the replacement card from the most recent
// confirmed swap.
func (s *Session) LastResult() (deck.Card, bool) {
	if s.lastResult == nil {
		return deck.Card{}, false
	}
	return *s.lastResult, true
}

func (s *Session) log(t log.EventType, card, details string) {
	s.logFor(s.playerID, t, card, details)
}

func (s *Session) logFor(player string, t log.EventType, card, details string) {
	s.logger.Log(log.Event{
		Round:   s.round,
		Player:  player,
		Type:    t,
		Card:    card,
		Details: details,
	})
}
