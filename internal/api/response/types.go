package response

import (
	"time"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID    model.PlayerID `json:"id"`
	Name  string         `json:"name"`
	Wins  int            `json:"wins"`
	IsBot bool           `json:"is_bot,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:    p.ID,
		Name:  p.Name,
		Wins:  p.Wins,
		IsBot: p.IsBot,
	}
}

// AuthResponse is the response for registration
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       Player{ID: s.PlayerID, Name: s.Name},
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// RoomMember represents a seat in a room
type RoomMember struct {
	PlayerID model.PlayerID `json:"player_id"`
	Name     string         `json:"name"`
	IsBot    bool           `json:"is_bot,omitempty"`
}

func membersFromModel(members []model.RoomMember) []RoomMember {
	result := make([]RoomMember, len(members))
	for i, m := range members {
		result[i] = RoomMember{PlayerID: m.PlayerID, Name: m.Name, IsBot: m.IsBot}
	}
	return result
}

// Lobby is the shared lobby view
type Lobby struct {
	Winners []model.WinnerEntry `json:"winners"`
	Rooms   []OpenRoom          `json:"rooms"`
}

// OpenRoom is a room waiting for a second player
type OpenRoom struct {
	RoomID  model.RoomID `json:"room_id"`
	Members []RoomMember `json:"members"`
}

// LobbyFromModel converts a lobby snapshot
func LobbyFromModel(s model.LobbySnapshot) Lobby {
	rooms := make([]OpenRoom, len(s.Rooms))
	for i, r := range s.Rooms {
		rooms[i] = OpenRoom{RoomID: r.RoomID, Members: membersFromModel(r.Members)}
	}
	return Lobby{Winners: s.Winners, Rooms: rooms}
}

// Board is one grid as a given viewer may see it.
// Ships are only filled in for the viewer's own board.
type Board struct {
	PlayerID  model.PlayerID   `json:"player_id"`
	Ready     bool             `json:"ready"`
	Destroyed int              `json:"destroyed"`
	Blocked   []model.Position `json:"blocked"`
	Ships     []model.ShipSpec `json:"ships,omitempty"`
}

func boardFromModel(b *model.Board, own bool) Board {
	view := Board{
		PlayerID:  b.PlayerID,
		Ready:     b.Ready,
		Destroyed: b.Destroyed,
		Blocked:   []model.Position{},
	}
	for y := 0; y < model.GridSize; y++ {
		for x := 0; x < model.GridSize; x++ {
			if b.Grid[y][x] == model.CellBlocked {
				view.Blocked = append(view.Blocked, model.Position{X: x, Y: y})
			}
		}
	}
	if own {
		view.Ships = b.Specs()
	}
	return view
}

// Room represents a room from one member's point of view
type Room struct {
	ID        model.RoomID    `json:"id"`
	State     model.RoomState `json:"state"`
	Members   []RoomMember    `json:"members"`
	Turn      model.PlayerID  `json:"turn,omitempty"`
	Winner    model.PlayerID  `json:"winner,omitempty"`
	Boards    []Board         `json:"boards"`
	CreatedAt time.Time       `json:"created_at"`
}

// RoomFromModel converts a room, hiding every fleet except the viewer's
func RoomFromModel(r *model.Room, viewer model.PlayerID) Room {
	boards := make([]Board, len(r.Boards))
	for i, b := range r.Boards {
		boards[i] = boardFromModel(b, b.PlayerID == viewer)
	}
	room := Room{
		ID:        r.ID,
		State:     r.State,
		Members:   membersFromModel(r.Members),
		Winner:    r.Winner,
		Boards:    boards,
		CreatedAt: r.CreatedAt,
	}
	if r.State == model.RoomStateInProgress {
		room.Turn = r.Turn
	}
	return room
}

// Shot is the outcome of a shot
type Shot struct {
	Status   model.ShotStatus   `json:"status"`
	Target   model.Position     `json:"target"`
	Cells    []model.CellUpdate `json:"cells"`
	NextTurn model.PlayerID     `json:"next_turn,omitempty"`
	Winner   model.PlayerID     `json:"winner,omitempty"`
}

// ShotFromModel converts a shot outcome
func ShotFromModel(o model.ShotOutcome) Shot {
	cells := o.Result.Cells
	if cells == nil {
		cells = []model.CellUpdate{}
	}
	return Shot{
		Status:   o.Result.Status,
		Target:   o.Result.Target,
		Cells:    cells,
		NextTurn: o.NextTurn,
		Winner:   o.Winner,
	}
}
