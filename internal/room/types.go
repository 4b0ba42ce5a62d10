package room

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/internal/store"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room closed")
)

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// inbound
const (
	TypeGuess    = "guess"
	TypeNewRound = "new_round"
	TypeChat     = "chat"
)

// outbound
const (
	TypeGameState  = "game_state"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
	TypeChatMsg    = "chat_msg"
	TypeCloseGuess = "close_guess"
	TypeError      = "error"
)

type GuessPayload struct {
	Letter string `json:"letter"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChatMsg struct {
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
}

type CloseGuess struct {
	Message      string `json:"message"`
	EditDistance int    `json:"editDistance"`
}

type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerSummary struct {
	ID      string `json:"playerId"`
	Name    string `json:"name"`
	Guesses int    `json:"guesses"`
}

// Presence accompanies user_joined and user_left.
type Presence struct {
	Player  PlayerSummary   `json:"player"`
	HostID  string          `json:"hostId"`
	Players []PlayerSummary `json:"players"`
}

// RoomInfo is the lobby listing entry for a room.
type RoomInfo struct {
	RoomID    string         `json:"roomId"`
	HostID    string         `json:"hostId"`
	Players   int            `json:"players"`
	Round     int            `json:"round"`
	Status    hangman.Status `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// RoomSnapshot is everything a client needs to render the room.
type RoomSnapshot struct {
	RoomID      string           `json:"roomId"`
	HostID      string           `json:"hostId"`
	Players     []PlayerSummary  `json:"players"`
	Game        hangman.Snapshot `json:"game"`
	Parts       []hangman.PartID `json:"parts"`
	LastGuesser string           `json:"lastGuesser,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Recorder receives finished rounds.
type Recorder interface {
	Record(r store.Result)
}
