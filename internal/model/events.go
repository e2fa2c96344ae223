package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Room events
	EventRoomReady   EventType = "room_ready"   // Player seated, may place ships
	EventBoardsReady EventType = "boards_ready" // Both fleets placed, first turn assigned

	// Match events
	EventShotResult EventType = "shot_result"
	EventTurn       EventType = "turn"
	EventMatchOver  EventType = "match_over"

	// Lobby events
	EventLobbyUpdate EventType = "lobby_update"
)

// Event is the base structure for all events
type Event struct {
	Type       EventType
	Timestamp  time.Time
	RoomID     RoomID     // Zero for lobby events
	Recipients []PlayerID // nil means every connected player
	Payload    any        // Type-specific data
}

// Broadcast returns true if the event goes to every connected player
func (e Event) Broadcast() bool {
	return e.Recipients == nil
}

// RoomReadyPayload is sent to a player when they take a seat in a room
type RoomReadyPayload struct {
	RoomID   RoomID   `json:"room_id"`
	PlayerID PlayerID `json:"player_id"`
}

// BoardsReadyPayload is sent to each member when the match starts.
// Ships is the receiver's own layout.
type BoardsReadyPayload struct {
	Ships       []ShipSpec `json:"ships"`
	CurrentTurn PlayerID   `json:"current_turn"`
}

// ShotResultPayload is sent to both members after every accepted shot
type ShotResultPayload struct {
	Shooter PlayerID     `json:"shooter"`
	Status  ShotStatus   `json:"status"`
	Target  Position     `json:"target"`
	Cells   []CellUpdate `json:"cells"`
	Turn    PlayerID     `json:"turn"` // Zero when the shot ended the match
}

// TurnPayload names the player who shoots next
type TurnPayload struct {
	CurrentTurn PlayerID `json:"current_turn"`
}

// MatchOverPayload names the winner of a finished match
type MatchOverPayload struct {
	Winner PlayerID `json:"winner"`
	// Forfeit is set when the loser left rather than being sunk
	Forfeit bool `json:"forfeit"`
}

// LobbyUpdatePayload carries the refreshed lobby tables
type LobbyUpdatePayload struct {
	Snapshot LobbySnapshot `json:"snapshot"`
}
