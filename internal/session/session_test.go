package session

import (
	"testing"
	"time"

	"hoanbai/internal/deck"
	"hoanbai/internal/energy"
	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// captureSender records every message the session emits.
type captureSender struct {
	sent []protocol.ClientMessage
	err  error
}

func (c *captureSender) Send(m protocol.ClientMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *captureSender) ofType(t string) []protocol.ClientMessage {
	var out []protocol.ClientMessage
	for _, m := range c.sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func newTestSession(t *testing.T) (*Session, *captureSender, *log.MemoryLogger) {
	t.Helper()
	sender := &captureSender{}
	logger := log.NewMemoryLogger()
	s := New(Config{
		RoomID:   "ABC123",
		PlayerID: "p1",
		Caps:     Capabilities{Touch: true, Motion: true, Microphone: true},
		Logger:   logger,
	}, sender)
	return s, sender, logger
}

// startSnapshot is a fresh mode-3 round: hand [A♠, 7♥, K♦], empty
// pool, three swaps allowed.
func startSnapshot() protocol.ServerMessage {
	return protocol.ServerMessage{
		Type: protocol.TypeGameStarted,
		Cards: []deck.Card{
			{Value: 1, Suit: 0, Deck: 1},
			{Value: 7, Suit: 1, Deck: 1},
			{Value: 13, Suit: 2, Deck: 1},
		},
		Mode:      3,
		MaxBoosts: 3,
		Decks:     1,
	}
}

// rub drives the session's energy to the ceiling with four-finger
// frames and returns the finalize error.
func rub(t *testing.T, s *Session) error {
	t.Helper()
	at := t0
	frame := func(offset float64, at time.Time) []energy.PointerSample {
		out := make([]energy.PointerSample, 4)
		for i := range out {
			out[i] = energy.PointerSample{ID: i, X: offset, Y: float64(100 * i), T: at}
		}
		return out
	}
	if err := s.IngestPointer(frame(0, at)); err != nil {
		return err
	}
	for i := 1; i < 10000; i++ {
		at = at.Add(16 * time.Millisecond)
		err := s.IngestPointer(frame(float64(50*i), at))
		if err != nil || s.Mode() != ModeCollectingEnergy {
			return err
		}
	}
	t.Fatal("energy never reached the ceiling")
	return nil
}

func TestBaseSwapHappyPath(t *testing.T) {
	s, sender, _ := newTestSession(t)
	if err := s.HandleServer(startSnapshot()); err != nil {
		t.Fatal(err)
	}

	if err := s.SelectCard(1); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSwap(); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeCollectingEnergy {
		t.Fatalf("mode = %s after base-tier BeginSwap, want CollectingEnergy", s.Mode())
	}

	if err := rub(t, s); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeAwaitingAck {
		t.Fatalf("mode = %s after full energy, want AwaitingAck", s.Mode())
	}
	swaps := sender.ofType(protocol.TypeSwapCard)
	if len(swaps) != 1 {
		t.Fatalf("emitted %d swap_card messages, want 1", len(swaps))
	}
	if swaps[0].CardIndex != 1 || swaps[0].RoomID != "ABC123" {
		t.Errorf("swap request = %+v", swaps[0])
	}
	if s.QuotaUsed() != 1 {
		t.Errorf("optimistic quota used = %d, want 1", s.QuotaUsed())
	}

	err := s.HandleServer(protocol.ServerMessage{
		Type:            protocol.TypeCardSwapped,
		PlayerID:        "p1",
		CardIndex:       1,
		NewCard:         &deck.Card{Value: 5, Suit: 3, Deck: 1},
		UsedCards:       []int{19},
		ResetChantCount: true,
		TotalSwaps:      1,
	})
	if err != nil {
		t.Fatal(err)
	}

	hand := s.Hand()
	want := []string{"A♠", "5♣", "K♦"}
	for i, w := range want {
		if hand[i].String() != w {
			t.Errorf("hand[%d] = %s, want %s", i, hand[i], w)
		}
	}
	if s.Ladder().Level() != 0 {
		t.Errorf("ladder level = %d after confirmed swap, want 0", s.Ladder().Level())
	}
	if s.QuotaUsed() != 1 {
		t.Errorf("quota used = %d, want 1", s.QuotaUsed())
	}
	if !s.Pool().Contains(19) {
		t.Error("pool missing claimed index 19")
	}
	if got, ok := s.LastResult(); !ok || got.String() != "5♣" {
		t.Errorf("LastResult = %v, %v", got, ok)
	}

	if err := s.Acknowledge(); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeIdle {
		t.Errorf("mode = %s after Acknowledge, want Idle", s.Mode())
	}
}

func TestChantLadderWalk(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())

	if err := s.StartListening(); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := s.FinalTranscript("nam mô a di đà phật"); err != nil {
			t.Fatal(err)
		}
		if s.Ladder().Level() != i {
			t.Fatalf("level = %d after %d chants, want %d", s.Ladder().Level(), i, i)
		}
	}
	// Fourth success stays at the terminal level and sends nothing.
	if err := s.FinalTranscript("nam mô a di đà phật"); err != nil {
		t.Fatal(err)
	}
	if s.Ladder().Level() != 3 {
		t.Errorf("level = %d after fourth chant, want 3", s.Ladder().Level())
	}
	updates := sender.ofType(protocol.TypeUpdateChantCount)
	if len(updates) != 3 {
		t.Fatalf("emitted %d chant updates, want 3", len(updates))
	}
	for i, u := range updates {
		if u.ChantCount != i+1 {
			t.Errorf("update %d carried chant_count %d, want %d", i, u.ChantCount, i+1)
		}
	}
}

func TestChantMissLeavesLadder(t *testing.T) {
	s, sender, logger := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.StartListening()
	s.FinalTranscript("nam mô a di đà phật")
	if err := s.FinalTranscript("nam mô a di đà chùa"); err != nil {
		t.Fatal(err)
	}
	if s.Ladder().Level() != 1 {
		t.Errorf("level = %d after miss, want 1", s.Ladder().Level())
	}
	if n := len(sender.ofType(protocol.TypeUpdateChantCount)); n != 1 {
		t.Errorf("emitted %d chant updates, want 1", n)
	}
	if n := len(logger.EventsOfType(log.EventChantMiss)); n != 1 {
		t.Errorf("logged %d chant misses, want 1", n)
	}
}

func TestChantRejectedAfterFold(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	if err := s.Fold(); err != nil {
		t.Fatal(err)
	}

	err := s.StartListening()
	if err == nil {
		t.Fatal("StartListening after fold should be rejected")
	}
	if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %s, want InputRejected", kind)
	}
	if n := len(sender.ofType(protocol.TypeUpdateChantCount)); n != 0 {
		t.Errorf("emitted %d chant updates after fold, want 0", n)
	}
}

func TestFoldMidListenBlocksTranscript(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	if err := s.StartListening(); err != nil {
		t.Fatal(err)
	}
	if err := s.Fold(); err != nil {
		t.Fatal(err)
	}

	err := s.FinalTranscript("nam mô a di đà phật")
	if err == nil {
		t.Fatal("transcript after fold should be rejected")
	}
	if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %s, want InputRejected", kind)
	}
	if s.Ladder().Level() != 0 {
		t.Errorf("level = %d after folded chant, want 0", s.Ladder().Level())
	}
	if n := len(sender.ofType(protocol.TypeUpdateChantCount)); n != 0 {
		t.Errorf("emitted %d chant updates, want 0", n)
	}
}

func TestChantRejectedAfterQuotaExhausted(t *testing.T) {
	s, sender, _ := newTestSession(t)
	snap := startSnapshot()
	snap.TotalSwaps = 3
	s.HandleServer(snap)

	err := s.StartListening()
	if err == nil {
		t.Fatal("StartListening with spent quota should be rejected")
	}
	if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %s, want InputRejected", kind)
	}
	if n := len(sender.ofType(protocol.TypeUpdateChantCount)); n != 0 {
		t.Errorf("emitted %d chant updates, want 0", n)
	}
}

func TestQuotaExhaustionMidListenBlocksTranscript(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	if err := s.StartListening(); err != nil {
		t.Fatal(err)
	}

	// The last allowed swap lands as a broadcast while listening.
	snap := startSnapshot()
	snap.TotalSwaps = 3
	s.HandleServer(snap)

	err := s.FinalTranscript("nam mô a di đà phật")
	if err == nil {
		t.Fatal("transcript with spent quota should be rejected")
	}
	if s.Ladder().Level() != 0 {
		t.Errorf("level = %d, want 0", s.Ladder().Level())
	}
	if n := len(sender.ofType(protocol.TypeUpdateChantCount)); n != 0 {
		t.Errorf("emitted %d chant updates, want 0", n)
	}
}

func TestBoostedSwapFlow(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.StartListening()
	s.FinalTranscript("nam mô a di đà phật")

	s.SelectCard(0)
	if err := s.BeginSwap(); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeAwaitingTarget {
		t.Fatalf("mode = %s after boosted BeginSwap, want AwaitingTarget", s.Mode())
	}
	if err := s.ChooseTarget(5); err != nil {
		t.Fatal(err)
	}
	if err := rub(t, s); err != nil {
		t.Fatal(err)
	}

	boosts := sender.ofType(protocol.TypeBoostSwap)
	if len(boosts) != 1 {
		t.Fatalf("emitted %d boost_swap messages, want 1", len(boosts))
	}
	if boosts[0].CardIndex != 0 || boosts[0].DesiredValue != 5 || boosts[0].BoostLevel != 2 {
		t.Errorf("boost request = %+v, want slot 0, value 5, wire level 2", boosts[0])
	}

	s.HandleServer(protocol.ServerMessage{
		Type:            protocol.TypeBoostCompleted,
		PlayerID:        "p1",
		CardIndex:       0,
		NewCard:         &deck.Card{Value: 5, Suit: 1, Deck: 1},
		UsedCards:       []int{17},
		BoostLevel:      2,
		ResetChantCount: true,
		TotalSwaps:      1,
	})
	if s.Hand()[0].String() != "5♥" {
		t.Errorf("hand[0] = %s after boost, want 5♥", s.Hand()[0])
	}
	if s.Ladder().Level() != 0 {
		t.Errorf("ladder level = %d after confirmed boost, want 0", s.Ladder().Level())
	}
}

func TestBoostTargetExcludesExhaustedValues(t *testing.T) {
	s, _, _ := newTestSession(t)
	snap := startSnapshot()
	// Every suit of value 5 claimed.
	snap.UsedCards = []int{4, 17, 30, 43}
	s.HandleServer(snap)
	s.StartListening()
	s.FinalTranscript("nam mô a di đà phật")
	s.SelectCard(0)
	s.BeginSwap()
	if err := s.ChooseTarget(5); err == nil {
		t.Fatal("exhausted value accepted as target")
	} else if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %v, want InputRejected", kind)
	}
	if s.Mode() != ModeAwaitingTarget {
		t.Errorf("mode = %s after bad target, want AwaitingTarget", s.Mode())
	}
}

func TestBoostWithEmptyPoolAborts(t *testing.T) {
	s, _, _ := newTestSession(t)
	snap := startSnapshot()
	for i := 0; i < 52; i++ {
		snap.UsedCards = append(snap.UsedCards, i)
	}
	s.HandleServer(snap)
	s.StartListening()
	s.FinalTranscript("nam mô a di đà phật")
	s.SelectCard(0)
	err := s.BeginSwap()
	if err == nil {
		t.Fatal("BeginSwap succeeded with an empty pool")
	}
	if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %v, want InputRejected", kind)
	}
	if s.Mode() != ModeIdle {
		t.Errorf("mode = %s, want Idle", s.Mode())
	}
}

func TestQuotaLatchSingleNotice(t *testing.T) {
	s, _, logger := newTestSession(t)
	snap := startSnapshot()
	snap.MaxBoosts = 1
	snap.TotalSwaps = 1
	s.HandleServer(snap)

	if !s.QuotaExhausted() {
		t.Fatal("quota should be exhausted")
	}
	// Two further identical snapshots must not re-announce.
	s.HandleServer(snap)
	s.HandleServer(snap)
	if n := len(logger.EventsOfType(log.EventQuotaExhausted)); n != 1 {
		t.Errorf("quota exhausted announced %d times, want 1", n)
	}

	s.SelectCard(0)
	err := s.BeginSwap()
	if err == nil {
		t.Fatal("BeginSwap succeeded with exhausted quota")
	}
	if kind, _ := KindOf(err); kind != InputRejected {
		t.Errorf("error kind = %v, want InputRejected", kind)
	}
}

func TestNoEmitAfterQuotaExhaustedMidFlight(t *testing.T) {
	s, sender, _ := newTestSession(t)
	snap := startSnapshot()
	snap.MaxBoosts = 1
	s.HandleServer(snap)

	s.SelectCard(0)
	s.BeginSwap()
	// Another device of the same player spends the quota while this
	// session is still collecting.
	s.HandleServer(protocol.ServerMessage{
		Type:       protocol.TypeCardSwapped,
		PlayerID:   "p1",
		CardIndex:  2,
		NewCard:    &deck.Card{Value: 2, Suit: 0, Deck: 1},
		UsedCards:  []int{1},
		TotalSwaps: 1,
	})
	err := rub(t, s)
	if err == nil {
		t.Fatal("finalize succeeded despite exhausted quota")
	}
	if n := len(sender.ofType(protocol.TypeSwapCard)); n != 0 {
		t.Errorf("emitted %d swap_card messages after quota exhaustion, want 0", n)
	}
}

func TestFoldCancelsCollectionWithoutEmit(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.SelectCard(0)
	s.BeginSwap()

	if err := s.Fold(); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeFolded {
		t.Fatalf("mode = %s after fold, want Folded", s.Mode())
	}
	if n := len(sender.ofType(protocol.TypeSwapCard)); n != 0 {
		t.Errorf("emitted %d swap requests after fold, want 0", n)
	}
	if n := len(sender.ofType(protocol.TypeFold)); n != 1 {
		t.Errorf("emitted %d fold notices, want 1", n)
	}
	if got := s.Revealed(); len(got) != 3 {
		t.Errorf("revealed slots = %v after fold, want all 3", got)
	}
	if err := s.Fold(); err == nil {
		t.Error("second fold should be rejected")
	}
	if s.EnergyPercent() != 0 {
		t.Errorf("energy = %d%% after fold, want 0", s.EnergyPercent())
	}
}

func TestCancelWinsOverFinalize(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.SelectCard(0)
	s.BeginSwap()
	if err := s.CancelSwap(); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %s after cancel, want Idle", s.Mode())
	}
	// Gesture callbacks queued before the cancel land afterwards;
	// they must neither accrue energy nor emit a swap.
	frame := []energy.PointerSample{
		{ID: 0, X: 0, Y: 0, T: t0},
		{ID: 1, X: 0, Y: 100, T: t0},
	}
	if err := s.IngestPointer(frame); err != nil {
		t.Fatal(err)
	}
	if n := len(sender.ofType(protocol.TypeSwapCard)); n != 0 {
		t.Errorf("emitted %d swap requests after cancel, want 0", n)
	}
	if s.EnergyPercent() != 0 {
		t.Errorf("energy = %d%% after cancel, want 0", s.EnergyPercent())
	}
}

func TestServerRejectionRevertsOptimisticState(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.SelectCard(1)
	s.BeginSwap()
	if err := rub(t, s); err != nil {
		t.Fatal(err)
	}
	if s.QuotaUsed() != 1 {
		t.Fatalf("setup: optimistic quota = %d", s.QuotaUsed())
	}
	handBefore := s.Hand()

	err := s.HandleServer(protocol.ServerMessage{
		Type:    protocol.TypeSwapFailed,
		Message: "Dính lá trắng! Không hoán đổi, thử lại nhé!",
	})
	if err == nil {
		t.Fatal("rejection should surface an error")
	}
	if kind, _ := KindOf(err); kind != ServerRejected {
		t.Errorf("error kind = %v, want ServerRejected", kind)
	}
	if s.Mode() != ModeIdle {
		t.Errorf("mode = %s after rejection, want Idle", s.Mode())
	}
	if s.QuotaUsed() != 0 {
		t.Errorf("quota used = %d after revert, want 0", s.QuotaUsed())
	}
	for i, c := range s.Hand() {
		if c != handBefore[i] {
			t.Errorf("hand[%d] changed on rejection: %s -> %s", i, handBefore[i], c)
		}
	}
	if s.Pool().Len() != 0 {
		t.Error("pool mutated on rejection")
	}
}

func TestRecognizerReentryGuard(t *testing.T) {
	s, _, _ := newTestSession(t)
	if err := s.StartListening(); err != nil {
		t.Fatal(err)
	}
	if err := s.StartListening(); err == nil {
		t.Fatal("second StartListening should be rejected while listening")
	}
	s.StopListening()
	if s.RecognizerState() != RecognizerStopping {
		t.Fatalf("state = %s after StopListening, want Stopping", s.RecognizerState())
	}
	if err := s.StartListening(); err == nil {
		t.Fatal("StartListening should be rejected while stopping")
	}
	s.RecognizerStopped()
	if err := s.StartListening(); err != nil {
		t.Fatalf("StartListening after full stop: %v", err)
	}
}

func TestMicrophoneUnavailableDegrades(t *testing.T) {
	sender := &captureSender{}
	s := New(Config{
		RoomID:   "ABC123",
		PlayerID: "p1",
		Caps:     Capabilities{Touch: true},
	}, sender)
	s.HandleServer(startSnapshot())

	err := s.StartListening()
	if err == nil {
		t.Fatal("StartListening should fail without a microphone")
	}
	if kind, _ := KindOf(err); kind != CapabilityUnavailable {
		t.Errorf("error kind = %v, want CapabilityUnavailable", kind)
	}
	// Base swaps must keep working.
	s.SelectCard(0)
	if err := s.BeginSwap(); err != nil {
		t.Errorf("base swap unavailable without microphone: %v", err)
	}
}

func TestRecognitionErrorKeepsBoostState(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.StartListening()
	s.FinalTranscript("nam mô a di đà phật")

	err := s.RecognitionError("no-speech")
	if kind, _ := KindOf(err); kind != RecognitionTransient {
		t.Errorf("error kind = %v, want RecognitionTransient", kind)
	}
	if s.Ladder().Level() != 1 {
		t.Errorf("ladder level = %d after recognizer error, want 1", s.Ladder().Level())
	}
	if s.RecognizerState() != RecognizerIdle {
		t.Errorf("recognizer = %s, want Idle for retry", s.RecognizerState())
	}
}

func TestSelectWhileSwappingIgnored(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	s.SelectCard(0)
	s.BeginSwap()
	if err := s.SelectCard(2); err != nil {
		t.Fatalf("selecting mid-swap should be a silent no-op, got %v", err)
	}
	if err := rub(t, s); err != nil {
		t.Fatal(err)
	}
}

func TestSwapHandPositions(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	if err := s.SwapHandPositions(0, 2); err != nil {
		t.Fatal(err)
	}
	hand := s.Hand()
	if hand[0].String() != "K♦" || hand[2].String() != "A♠" {
		t.Errorf("hand = %v after reorder", hand)
	}
	notices := sender.ofType(protocol.TypeSwapCardPositions)
	if len(notices) != 1 || notices[0].FromIndex != 0 || notices[0].ToIndex != 2 {
		t.Errorf("reorder notices = %+v", notices)
	}

	s.SelectCard(0)
	s.BeginSwap()
	if err := s.SwapHandPositions(0, 1); err == nil {
		t.Error("reorder during energy collection should be rejected")
	}
}

func TestSnapshotReplacesPool(t *testing.T) {
	s, _, _ := newTestSession(t)
	snap := startSnapshot()
	snap.UsedCards = []int{1, 2, 3}
	s.HandleServer(snap)

	snap.UsedCards = []int{40}
	s.HandleServer(snap)
	if s.Pool().Contains(1) || s.Pool().Contains(2) || s.Pool().Contains(3) {
		t.Error("snapshot merged instead of replacing the pool")
	}
	if !s.Pool().Contains(40) {
		t.Error("snapshot did not apply the new pool")
	}
}

func TestRemoteSwapUpdatesPoolOnly(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	handBefore := s.Hand()

	s.HandleServer(protocol.ServerMessage{
		Type:       protocol.TypeCardSwapped,
		PlayerID:   "p2",
		CardIndex:  0,
		NewCard:    &deck.Card{Value: 9, Suit: 2, Deck: 1},
		UsedCards:  []int{34},
		TotalSwaps: 1,
	})
	for i, c := range s.Hand() {
		if c != handBefore[i] {
			t.Errorf("hand[%d] changed on another player's swap", i)
		}
	}
	if !s.Pool().Contains(34) {
		t.Error("pool missing remote claim")
	}
	if s.QuotaUsed() != 0 {
		t.Errorf("quota used = %d from another player's swap, want 0", s.QuotaUsed())
	}
}

func TestNewRoundResets(t *testing.T) {
	s, _, _ := newTestSession(t)
	snap := startSnapshot()
	snap.MaxBoosts = 1
	snap.TotalSwaps = 1
	snap.FlippedCards = []int{0, 1}
	s.HandleServer(snap)
	s.Ladder().Set(2)

	s.HandleServer(protocol.ServerMessage{
		Type:      protocol.TypeNewRoundStarted,
		UsedCards: []int{7},
		Message:   "Ván mới đã bắt đầu!",
	})
	if s.Round() != 2 {
		t.Errorf("round = %d, want 2", s.Round())
	}
	if s.QuotaUsed() != 0 || s.QuotaExhausted() {
		t.Error("quota not reset on new round")
	}
	if len(s.Revealed()) != 0 {
		t.Errorf("revealed = %v after new round, want none", s.Revealed())
	}
	if s.Ladder().Level() != 0 {
		t.Errorf("ladder level = %d after new round, want 0", s.Ladder().Level())
	}
	if s.Mode() != ModeIdle {
		t.Errorf("mode = %s after new round, want Idle", s.Mode())
	}
}

func TestRevealIsMonotonic(t *testing.T) {
	s, sender, _ := newTestSession(t)
	s.HandleServer(startSnapshot())
	if err := s.Reveal(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Reveal(1); err != nil {
		t.Fatal(err)
	}
	if n := len(sender.ofType(protocol.TypeFlipCard)); n != 1 {
		t.Errorf("emitted %d flip notices for one slot, want 1", n)
	}
	if got := s.Revealed(); len(got) != 1 || got[0] != 1 {
		t.Errorf("Revealed = %v, want [1]", got)
	}
}
