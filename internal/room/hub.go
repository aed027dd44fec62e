package room

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Hub owns all rooms and their websocket connections.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	conns  map[string]map[string]*client // room code → player ID → conn
	rng    *rand.Rand
	logger log.EventLogger
	mux    *http.ServeMux
}

// NewHub creates an empty hub.
func NewHub(logger log.EventLogger) *Hub {
	if logger == nil {
		logger = log.NopLogger{}
	}
	h := &Hub{
		rooms:  make(map[string]*Room),
		conns:  make(map[string]map[string]*client),
		rng:    rand.New(rand.NewSource(rand.Int63())),
		logger: logger,
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /ws", h.handleWebSocket)
	return h
}

// CreateRoom makes a room with a fresh 6-character code.
func (h *Hub) CreateRoom(opts Options) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	code := h.newCodeLocked()
	opts.Logger = h.logger
	r := New(code, opts)
	h.rooms[code] = r
	h.conns[code] = make(map[string]*client)
	return r
}

// Lookup returns the room with the given code.
func (h *Hub) Lookup(code string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	return r, ok
}

func (h *Hub) newCodeLocked() string {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = roomCodeAlphabet[h.rng.Intn(len(roomCodeAlphabet))]
		}
		code := string(b)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}

// ListenAndServe starts the hub's HTTP server.
func (h *Hub) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, h.mux)
}

// Handler exposes the hub's routes, for tests and embedding.
func (h *Hub) Handler() http.Handler {
	return h.mux
}

// client is one websocket connection. Writes are serialized by mu.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(ctx context.Context, msg protocol.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow connections from any origin
	})
	if err != nil {
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()
	c := &client{conn: wsConn}
	var roomCode, playerID string
	defer func() {
		if roomCode != "" && playerID != "" {
			h.unregister(roomCode, playerID, c)
		}
	}()

	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			return
		}
		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(ctx, errorMsg("tin nhắn không hợp lệ"))
			continue
		}

		if msg.Type == protocol.TypeCreateRoom {
			room := h.CreateRoom(Options{
				Mode:      msg.Mode,
				MaxBoosts: msg.MaxBoosts,
				Decks:     msg.Decks,
			})
			c.send(ctx, room.Created())
			continue
		}

		room, ok := h.Lookup(msg.RoomID)
		if !ok {
			c.send(ctx, errorMsg("Phòng không tồn tại!"))
			continue
		}

		if msg.Type == protocol.TypeJoinRoom {
			playerID = msg.PlayerID
			if playerID == "" {
				playerID = uuid.NewString()
			}
			roomCode = room.ID()
			h.register(roomCode, playerID, c)
			h.deliver(ctx, roomCode, room.Join(playerID, msg.PlayerName))
			continue
		}

		if playerID == "" {
			c.send(ctx, errorMsg("chưa vào phòng"))
			continue
		}
		h.deliver(ctx, roomCode, Dispatch(room, playerID, msg))
	}
}

// Dispatch routes one joined player's message to the room logic.
func Dispatch(r *Room, playerID string, msg protocol.ClientMessage) []Delivery {
	switch msg.Type {
	case protocol.TypeSwapCard:
		return r.SwapCard(playerID, msg.CardIndex)
	case protocol.TypeBoostSwap:
		return r.BoostSwap(playerID, msg.CardIndex, msg.DesiredValue, msg.BoostLevel)
	case protocol.TypeUpdateChantCount:
		return r.UpdateChantCount(playerID, msg.ChantCount)
	case protocol.TypeFlipCard:
		return r.FlipCard(playerID, msg.CardIndex, msg.Rotation)
	case protocol.TypeFold:
		return r.Fold(playerID)
	case protocol.TypeReadyForNewRound:
		return r.Ready(playerID)
	case protocol.TypeSwapCardPositions:
		return r.SwapPositions(playerID, msg.FromIndex, msg.ToIndex)
	default:
		return []Delivery{directed(playerID, errorMsg("loại tin nhắn không hỗ trợ"))}
	}
}

func (h *Hub) register(code, playerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[code] == nil {
		h.conns[code] = make(map[string]*client)
	}
	h.conns[code][playerID] = c
}

func (h *Hub) unregister(code, playerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A reconnect may have replaced this conn already.
	if h.conns[code][playerID] == c {
		delete(h.conns[code], playerID)
	}
}

// deliver fans messages out to the room's live connections. A closed
// or missing connection is skipped; the player's state stays in the
// room for reconnect.
func (h *Hub) deliver(ctx context.Context, code string, ds []Delivery) {
	h.mu.Lock()
	conns := make(map[string]*client, len(h.conns[code]))
	for id, c := range h.conns[code] {
		conns[id] = c
	}
	h.mu.Unlock()

	for _, d := range ds {
		if d.To != "" {
			if c, ok := conns[d.To]; ok {
				_ = c.send(ctx, d.Msg)
			}
			continue
		}
		for _, c := range conns {
			_ = c.send(ctx, d.Msg)
		}
	}
}
