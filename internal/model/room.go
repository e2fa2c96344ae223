package model

import "time"

// RoomID uniquely identifies a room. Allocated monotonically, never reused.
type RoomID int64

// RoomState represents the lifecycle phase of a room
type RoomState string

const (
	RoomStateWaiting    RoomState = "waiting"     // One player, open for a second
	RoomStatePlacing    RoomState = "placing"     // Two players, boards not both ready
	RoomStateInProgress RoomState = "in_progress" // Shots alternating
	RoomStateFinished   RoomState = "finished"    // Terminal, room is discarded
)

// MaxRoomPlayers is the number of players in a full room
const MaxRoomPlayers = 2

// RoomMember is a player's seat in a room
type RoomMember struct {
	PlayerID PlayerID
	Name     string
	IsBot    bool
}

// Room is a single match between one or two players
type Room struct {
	ID      RoomID
	State   RoomState
	Members []RoomMember // Creator first
	Boards  []*Board     // One per member, same order as Members
	Turn    PlayerID     // Meaningful only while in progress
	Winner  PlayerID     // Set only when finished

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFull returns true if no more players can join
func (r *Room) IsFull() bool {
	return len(r.Members) >= MaxRoomPlayers
}

// IsOpen returns true while the room has not finished
func (r *Room) IsOpen() bool {
	return r.State != RoomStateFinished
}

// HasMember returns true if the player is seated in the room
func (r *Room) HasMember(playerID PlayerID) bool {
	return r.GetMember(playerID) != nil
}

// GetMember returns the member with the given player ID, or nil if not found
func (r *Room) GetMember(playerID PlayerID) *RoomMember {
	for i := range r.Members {
		if r.Members[i].PlayerID == playerID {
			return &r.Members[i]
		}
	}
	return nil
}

// Creator returns the player who opened the room
func (r *Room) Creator() PlayerID {
	if len(r.Members) == 0 {
		return 0
	}
	return r.Members[0].PlayerID
}

// Opponent returns the other member, or 0 if the player is alone or absent
func (r *Room) Opponent(playerID PlayerID) PlayerID {
	if !r.HasMember(playerID) {
		return 0
	}
	for _, m := range r.Members {
		if m.PlayerID != playerID {
			return m.PlayerID
		}
	}
	return 0
}

// Board returns the board owned by the player, or nil
func (r *Room) Board(playerID PlayerID) *Board {
	for _, b := range r.Boards {
		if b.PlayerID == playerID {
			return b
		}
	}
	return nil
}

// AllBoardsReady returns true once the room is full and every fleet is placed
func (r *Room) AllBoardsReady() bool {
	if !r.IsFull() {
		return false
	}
	for _, b := range r.Boards {
		if !b.Ready {
			return false
		}
	}
	return true
}

// PlayerIDs returns the ids of all members
func (r *Room) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.PlayerID
	}
	return ids
}

// Clone returns a deep copy of the room, boards included
func (r *Room) Clone() *Room {
	c := *r
	c.Members = append([]RoomMember(nil), r.Members...)
	c.Boards = make([]*Board, len(r.Boards))
	for i, b := range r.Boards {
		c.Boards[i] = b.Clone()
	}
	return &c
}
