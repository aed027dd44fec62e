// Package room implements the authoritative server side of a swap
// game: room state, dealing, the shared usage ledger, swap and boost
// resolution, folds, and round progression.
package room

import (
	"fmt"
	"math/rand"
	"sync"

	"hoanbai/internal/boost"
	"hoanbai/internal/deck"
	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
)

// Minimum draw-pool sizes per wire boost level. Pools short of the
// minimum are padded with blanks, so high tiers on a thin pool can
// draw a blank and miss.
var boostPoolSizes = map[int]int{1: 10, 2: 10, 3: 5, 4: 3}

// Delivery is one outbound message. An empty To broadcasts to the
// whole room.
type Delivery struct {
	To  string
	Msg protocol.ServerMessage
}

func broadcast(msg protocol.ServerMessage) Delivery {
	return Delivery{Msg: msg}
}

func directed(to string, msg protocol.ServerMessage) Delivery {
	return Delivery{To: to, Msg: msg}
}

// Player is one participant's authoritative round state.
type Player struct {
	ID         string
	Name       string
	Cards      []deck.Card
	ChantCount int
	TotalSwaps int
	Folded     bool
	Ready      bool
	Flipped    map[int]bool
}

// Options configures a new room.
type Options struct {
	Mode      int // hand size, 3 or 6
	MaxBoosts int // per-round swap quota
	Decks     int // 1..3
	Rand      *rand.Rand
	Logger    log.EventLogger
}

// Room is one game room. All methods are safe for concurrent use.
type Room struct {
	id string

	mu      sync.Mutex
	mode    int
	max     int
	decks   int
	round   int
	players map[string]*Player
	order   []string
	rng     *rand.Rand
	logger  log.EventLogger
}

// New creates a room. Zero options fall back to a 3-card, 3-swap,
// single-deck room.
func New(id string, opts Options) *Room {
	if opts.Mode != 3 && opts.Mode != 6 {
		opts.Mode = 3
	}
	if opts.MaxBoosts <= 0 {
		opts.MaxBoosts = 3
	}
	if opts.Decks < 1 || opts.Decks > 3 {
		opts.Decks = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	if opts.Logger == nil {
		opts.Logger = log.NopLogger{}
	}
	return &Room{
		id:      id,
		mode:    opts.Mode,
		max:     opts.MaxBoosts,
		decks:   opts.Decks,
		round:   1,
		players: make(map[string]*Player),
		rng:     opts.Rand,
		logger:  opts.Logger,
	}
}

// ID returns the room code.
func (r *Room) ID() string { return r.id }

// Created returns the room_created reply for the creator.
func (r *Room) Created() protocol.ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return protocol.ServerMessage{
		Type:      protocol.TypeRoomCreated,
		RoomID:    r.id,
		Mode:      r.mode,
		MaxBoosts: r.max,
		Decks:     r.decks,
	}
}

// ownedIndicesLocked collects every card index currently held by any
// player. This set is the room's usage ledger.
func (r *Room) ownedIndicesLocked() []int {
	var out []int
	for _, id := range r.order {
		for _, c := range r.players[id].Cards {
			out = append(out, c.Index())
		}
	}
	return out
}

func (r *Room) ownedSetLocked() map[int]bool {
	set := make(map[int]bool)
	for _, id := range r.order {
		for _, c := range r.players[id].Cards {
			set[c.Index()] = true
		}
	}
	return set
}

// availableLocked returns all unowned indices in ascending order.
func (r *Room) availableLocked() []int {
	owned := r.ownedSetLocked()
	total := 52 * r.decks
	out := make([]int, 0, total)
	for i := 0; i < total; i++ {
		if !owned[i] {
			out = append(out, i)
		}
	}
	return out
}

// dealLocked draws a fresh hand from the unowned cards.
func (r *Room) dealLocked() []deck.Card {
	available := r.availableLocked()
	if len(available) < r.mode {
		// The pool ran dry; redeal over the full space.
		available = available[:0]
		for i := 0; i < 52*r.decks; i++ {
			available = append(available, i)
		}
	}
	r.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	cards := make([]deck.Card, r.mode)
	for i := 0; i < r.mode; i++ {
		cards[i] = deck.At(available[i])
	}
	return cards
}

// snapshotLocked builds the full game_started snapshot for one player.
func (r *Room) snapshotLocked(p *Player) protocol.ServerMessage {
	flipped := make([]int, 0, len(p.Flipped))
	for slot, on := range p.Flipped {
		if on {
			flipped = append(flipped, slot)
		}
	}
	return protocol.ServerMessage{
		Type:         protocol.TypeGameStarted,
		RoomID:       r.id,
		Cards:        append([]deck.Card(nil), p.Cards...),
		UsedCards:    r.ownedIndicesLocked(),
		PlayersCount: len(r.players),
		Mode:         r.mode,
		MaxBoosts:    r.max,
		Decks:        r.decks,
		ChantCount:   p.ChantCount,
		TotalSwaps:   p.TotalSwaps,
		FlippedCards: flipped,
		Folded:       p.Folded,
	}
}

// Join adds a player, dealing them a hand, or re-sends the current
// snapshot when the player is already present. Join is idempotent so
// it doubles as the reconnect path.
func (r *Room) Join(playerID, name string) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		p = &Player{
			ID:      playerID,
			Name:    name,
			Cards:   r.dealLocked(),
			Flipped: make(map[int]bool),
		}
		r.players[playerID] = p
		r.order = append(r.order, playerID)
		r.logger.Log(log.Event{Round: r.round, Player: playerID, Type: log.EventJoin})
	}

	out := []Delivery{
		broadcast(protocol.ServerMessage{
			Type:         protocol.TypePlayerJoined,
			RoomID:       r.id,
			PlayerID:     playerID,
			PlayerName:   p.Name,
			PlayersCount: len(r.players),
		}),
	}
	// Every player gets a fresh snapshot: the new hand changed the
	// shared ledger for everyone.
	for _, id := range r.order {
		out = append(out, directed(id, r.snapshotLocked(r.players[id])))
	}
	return out
}

// SwapCard resolves a base swap: the replacement is drawn uniformly
// from the unowned cards, nudged upward when the player holds chant
// levels (the tier raises the chance of drawing a better value).
func (r *Room) SwapCard(playerID string, slot int) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if d, refused := r.checkSwapAllowedLocked(p); refused {
		return d
	}
	if slot < 0 || slot >= len(p.Cards) {
		return []Delivery{directed(playerID, errorMsg("Chỉ mục lá bài không hợp lệ!"))}
	}

	available := r.availableLocked()
	if len(available) == 0 {
		return []Delivery{directed(playerID, swapFailed("Không còn lá nào để hoán!"))}
	}

	newIndex := r.drawWithChantLocked(p, slot, available)
	p.Cards[slot] = deck.At(newIndex)
	p.ChantCount = 0
	p.TotalSwaps++
	r.logger.Log(log.Event{
		Round:  r.round,
		Player: playerID,
		Type:   log.EventSwapApplied,
		Card:   p.Cards[slot].String(),
	})

	newCard := p.Cards[slot]
	return []Delivery{broadcast(protocol.ServerMessage{
		Type:            protocol.TypeCardSwapped,
		RoomID:          r.id,
		PlayerID:        playerID,
		CardIndex:       slot,
		NewCard:         &newCard,
		UsedCards:       r.ownedIndicesLocked(),
		ResetChantCount: true,
		TotalSwaps:      p.TotalSwaps,
	})}
}

// drawWithChantLocked picks the replacement index. Without chant
// levels the draw is uniform. With levels, the tier's percentage is
// the chance of drawing from the strictly-better values, with a
// softer fallback band below it.
func (r *Room) drawWithChantLocked(p *Player, slot int, available []int) int {
	if p.ChantCount <= 0 {
		return available[r.rng.Intn(len(available))]
	}
	pct := float64(boost.PercentFor(p.ChantCount))
	current := p.Cards[slot].Value

	var better, good []int
	for _, idx := range available {
		v := idx%13 + 1
		switch {
		case v > current:
			better = append(better, idx)
		case v >= current-1:
			good = append(good, idx)
		}
	}

	roll := r.rng.Float64() * 100
	switch {
	case roll < pct && len(better) > 0:
		return better[r.rng.Intn(len(better))]
	case roll < pct+20 && len(good) > 0:
		return good[r.rng.Intn(len(good))]
	default:
		return available[r.rng.Intn(len(available))]
	}
}

// BoostSwap resolves a boosted swap. The draw pool holds the desired
// value's remaining suits plus random filler up to the tier's minimum
// pool size; short pools are padded with blanks. Drawing a blank
// misses: nothing changes and the quota is not spent.
func (r *Room) BoostSwap(playerID string, slot, desiredValue, wireLevel int) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if d, refused := r.checkSwapAllowedLocked(p); refused {
		return d
	}
	if slot < 0 || slot >= len(p.Cards) {
		return []Delivery{directed(playerID, errorMsg("Chỉ mục lá bài không hợp lệ!"))}
	}

	available := r.availableLocked()
	if len(available) == 0 {
		return []Delivery{directed(playerID, swapFailed("Không còn lá nào để hoán!"))}
	}

	minSize, ok := boostPoolSizes[wireLevel]
	if !ok {
		minSize = boostPoolSizes[1]
	}

	drawn := r.drawBoostedLocked(available, desiredValue, minSize)
	if drawn == deck.Blank {
		r.logger.Log(log.Event{Round: r.round, Player: playerID, Type: log.EventSwapRejected, Details: "blank"})
		return []Delivery{directed(playerID, swapFailed("Dính lá trắng! Không hoán đổi, thử lại nhé!"))}
	}

	p.Cards[slot] = deck.At(drawn)
	p.ChantCount = 0
	p.TotalSwaps++
	r.logger.Log(log.Event{
		Round:  r.round,
		Player: playerID,
		Type:   log.EventSwapApplied,
		Card:   p.Cards[slot].String(),
	})

	newCard := p.Cards[slot]
	return []Delivery{broadcast(protocol.ServerMessage{
		Type:            protocol.TypeBoostCompleted,
		RoomID:          r.id,
		PlayerID:        playerID,
		CardIndex:       slot,
		NewCard:         &newCard,
		UsedCards:       r.ownedIndicesLocked(),
		BoostLevel:      wireLevel,
		ResetChantCount: true,
		TotalSwaps:      p.TotalSwaps,
	})}
}

func (r *Room) drawBoostedLocked(available []int, desiredValue, minSize int) int {
	var pool []int
	if desiredValue >= 1 && desiredValue <= 13 {
		desiredSet := make(map[int]bool)
		for suit := 0; suit < 4*r.decks; suit++ {
			desiredSet[deck.Index(desiredValue, suit)] = true
		}
		var desired, filler []int
		for _, idx := range available {
			if desiredSet[idx] {
				desired = append(desired, idx)
			} else {
				filler = append(filler, idx)
			}
		}
		if len(desired) > 0 {
			pool = append(pool, desired...)
			need := minSize - len(pool)
			if need > 0 {
				r.rng.Shuffle(len(filler), func(i, j int) {
					filler[i], filler[j] = filler[j], filler[i]
				})
				if need > len(filler) {
					need = len(filler)
				}
				pool = append(pool, filler[:need]...)
			}
		}
	}
	if pool == nil {
		pool = append(pool, available...)
	}
	for len(pool) < minSize {
		pool = append(pool, deck.Blank)
	}
	return pool[r.rng.Intn(len(pool))]
}

// checkSwapAllowedLocked enforces the per-round quota.
func (r *Room) checkSwapAllowedLocked(p *Player) ([]Delivery, bool) {
	if p.TotalSwaps >= r.max {
		msg := swapFailed(fmt.Sprintf("Bạn đã dùng hết %d lượt hoán trong round này!", r.max))
		return []Delivery{directed(p.ID, msg)}, true
	}
	return nil, false
}

// UpdateChantCount mirrors a player's chant ladder level.
func (r *Room) UpdateChantCount(playerID string, count int) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if count < 0 {
		count = 0
	}
	if count > boost.MaxLevel {
		count = boost.MaxLevel
	}
	p.ChantCount = count
	return []Delivery{broadcast(protocol.ServerMessage{
		Type:       protocol.TypeChantCountUpdated,
		RoomID:     r.id,
		PlayerID:   playerID,
		ChantCount: count,
	})}
}

// FlipCard records a reveal and broadcasts it.
func (r *Room) FlipCard(playerID string, slot, rotation int) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if slot < 0 || slot >= len(p.Cards) {
		return nil
	}
	p.Flipped[slot] = true
	return []Delivery{broadcast(protocol.ServerMessage{
		Type:      protocol.TypeCardFlipped,
		RoomID:    r.id,
		PlayerID:  playerID,
		CardIndex: slot,
		Rotation:  rotation,
	})}
}

// Fold withdraws a player from the round, revealing their whole hand.
// When the last active player folds, the room offers a new round.
func (r *Room) Fold(playerID string) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if p.Folded {
		return nil
	}
	p.Folded = true

	var out []Delivery
	for slot := range p.Cards {
		p.Flipped[slot] = true
		out = append(out, broadcast(protocol.ServerMessage{
			Type:      protocol.TypeCardFlipped,
			RoomID:    r.id,
			PlayerID:  playerID,
			CardIndex: slot,
			Rotation:  180,
		}))
	}
	r.logger.Log(log.Event{Round: r.round, Player: playerID, Type: log.EventFold})

	if r.allFoldedLocked() {
		r.logger.Log(log.Event{Round: r.round, Type: log.EventAllFolded})
		out = append(out, broadcast(protocol.ServerMessage{
			Type:             protocol.TypeAllFolded,
			RoomID:           r.id,
			Message:          `Tất cả đã buông bài! Nhấn nút "Sẵn sàng màn mới" để bắt đầu ván tiếp theo`,
			CanStartNewRound: true,
		}))
		return out
	}
	out = append(out, broadcast(protocol.ServerMessage{
		Type:     protocol.TypePlayerFolded,
		RoomID:   r.id,
		PlayerID: playerID,
	}))
	return out
}

func (r *Room) allFoldedLocked() bool {
	for _, id := range r.order {
		if !r.players[id].Folded {
			return false
		}
	}
	return len(r.order) > 0
}

// Ready marks a player ready for the next round and starts it once
// everyone is.
func (r *Room) Ready(playerID string) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	p.Ready = true
	out := []Delivery{broadcast(protocol.ServerMessage{
		Type:     protocol.TypePlayerReady,
		RoomID:   r.id,
		PlayerID: playerID,
	})}

	for _, id := range r.order {
		if !r.players[id].Ready {
			return out
		}
	}
	return append(out, r.startNewRoundLocked()...)
}

// startNewRoundLocked resets every player and redeals.
func (r *Room) startNewRoundLocked() []Delivery {
	r.round++
	for _, id := range r.order {
		p := r.players[id]
		p.Cards = nil
		p.ChantCount = 0
		p.TotalSwaps = 0
		p.Folded = false
		p.Ready = false
		p.Flipped = make(map[int]bool)
	}
	for _, id := range r.order {
		r.players[id].Cards = r.dealLocked()
	}
	r.logger.Log(log.Event{Round: r.round, Type: log.EventNewRound})

	out := []Delivery{broadcast(protocol.ServerMessage{
		Type:         protocol.TypeNewRoundStarted,
		RoomID:       r.id,
		Message:      "Ván mới đã bắt đầu!",
		UsedCards:    r.ownedIndicesLocked(),
		PlayersCount: len(r.players),
	})}
	for _, id := range r.order {
		out = append(out, directed(id, r.snapshotLocked(r.players[id])))
	}
	return out
}

// SwapPositions applies a cosmetic hand reorder and echoes it to the
// other players.
func (r *Room) SwapPositions(playerID string, from, to int) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil
	}
	if from < 0 || from >= len(p.Cards) || to < 0 || to >= len(p.Cards) {
		return []Delivery{directed(playerID, errorMsg("Invalid swap data"))}
	}
	p.Cards[from], p.Cards[to] = p.Cards[to], p.Cards[from]
	p.Flipped[from], p.Flipped[to] = p.Flipped[to], p.Flipped[from]
	return []Delivery{broadcast(protocol.ServerMessage{
		Type:      protocol.TypeCardPositionsSwapped,
		RoomID:    r.id,
		PlayerID:  playerID,
		FromIndex: from,
		ToIndex:   to,
	})}
}

// Snapshot returns the current full state for one player, for
// reconnects.
func (r *Room) Snapshot(playerID string) (protocol.ServerMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return protocol.ServerMessage{}, false
	}
	return r.snapshotLocked(p), true
}

// Players returns the joined player IDs in join order.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Round returns the 1-based round number.
func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func swapFailed(message string) protocol.ServerMessage {
	return protocol.ServerMessage{Type: protocol.TypeSwapFailed, Message: message}
}

func errorMsg(message string) protocol.ServerMessage {
	return protocol.ServerMessage{Type: protocol.TypeError, Message: message}
}
