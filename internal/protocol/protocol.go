// Package protocol defines the JSON messages exchanged between a swap
// session and the authoritative room server.
//
// Field names follow the wire contract: snake_case keys, card slots as
// card_index (0 is a valid slot, so slot-bearing fields never use
// omitempty), boost levels 1-4 on the wire mapping to ladder levels
// 0-3.
package protocol

import "hoanbai/internal/deck"

// Client message types.
const (
	TypeCreateRoom        = "create_room"
	TypeJoinRoom          = "join_room"
	TypeSwapCard          = "swap_card"
	TypeBoostSwap         = "boost_swap"
	TypeUpdateChantCount  = "update_chant_count"
	TypeFlipCard          = "flip_card"
	TypeFold              = "fold"
	TypeReadyForNewRound  = "ready_for_new_round"
	TypeSwapCardPositions = "swap_card_positions"
)

// Server message types.
const (
	TypeRoomCreated          = "room_created"
	TypePlayerJoined         = "player_joined"
	TypeGameStarted          = "game_started"
	TypeCardSwapped          = "card_swapped"
	TypeBoostCompleted       = "boost_completed"
	TypeSwapFailed           = "swap_failed"
	TypeError                = "error"
	TypeChantCountUpdated    = "chant_count_updated"
	TypeCardFlipped          = "card_flipped"
	TypePlayerFolded         = "player_folded"
	TypeAllFolded            = "all_folded"
	TypePlayerReady          = "player_ready"
	TypeNewRoundStarted      = "new_round_started"
	TypeCardPositionsSwapped = "card_positions_swapped"
)

// ClientMessage is a request or notice sent by a player's session.
type ClientMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`

	// Room creation.
	Mode      int `json:"mode,omitempty"`
	MaxBoosts int `json:"max_boosts,omitempty"`
	Decks     int `json:"decks,omitempty"`

	// Swap requests. CardIndex is the hand slot; slot 0 is valid.
	CardIndex    int `json:"card_index"`
	DesiredValue int `json:"desired_value,omitempty"`
	BoostLevel   int `json:"boost_level,omitempty"`

	// Chant mirror.
	ChantCount int `json:"chant_count"`

	// Reveal and reorder notices.
	Rotation  int `json:"rotation,omitempty"`
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

// ServerMessage is an authoritative broadcast or a directed reply.
type ServerMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Message    string `json:"message,omitempty"`

	// Snapshot and per-swap state.
	Cards           []deck.Card `json:"cards,omitempty"`
	UsedCards       []int       `json:"used_cards,omitempty"`
	NewCard         *deck.Card  `json:"new_card,omitempty"`
	CardIndex       int         `json:"card_index"`
	ResetChantCount bool        `json:"reset_chant_count,omitempty"`
	BoostLevel      int         `json:"boost_level,omitempty"`
	ChantCount      int         `json:"chant_count"`

	// Room parameters.
	Mode         int `json:"mode,omitempty"`
	MaxBoosts    int `json:"max_boosts,omitempty"`
	Decks        int `json:"decks,omitempty"`
	PlayersCount int `json:"players_count,omitempty"`

	// Per-player round state.
	TotalSwaps   int   `json:"total_swaps"`
	FlippedCards []int `json:"flipped_cards,omitempty"`
	Folded       bool  `json:"folded,omitempty"`

	// Reveal and reorder notices.
	Rotation  int `json:"rotation,omitempty"`
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`

	// Fold progress.
	AllFolded        bool `json:"all_folded,omitempty"`
	CanStartNewRound bool `json:"can_start_new_round,omitempty"`
}

// WireBoostLevel converts a ladder level (0-3) to its wire value (1-4).
func WireBoostLevel(ladderLevel int) int {
	return ladderLevel + 1
}

// LadderLevel converts a wire boost level (1-4) to a ladder level (0-3).
func LadderLevel(wireLevel int) int {
	return wireLevel - 1
}
