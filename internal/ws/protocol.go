package ws

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/seabattle/internal/model"
)

// Message types spoken on the socket
const (
	// Inbound
	TypeReg           = "reg"
	TypeCreateRoom    = "create_room"
	TypeAddUserToRoom = "add_user_to_room"
	TypeAddShips      = "add_ships"
	TypeAttack        = "attack"
	TypeRandomAttack  = "randomAttack"
	TypeSinglePlay    = "single_play"

	// Outbound; reg and attack are also used in this direction
	TypeCreateGame    = "create_game"
	TypeStartGame     = "start_game"
	TypeTurn          = "turn"
	TypeFinish        = "finish"
	TypeUpdateWinners = "update_winners"
	TypeUpdateRoom    = "update_room"
)

// Envelope is the outer frame of every message. Data holds the payload JSON as a string.
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
	ID   int    `json:"id"`
}

// Inbound payloads

type RegRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AddUserToRoomRequest struct {
	IndexRoom model.RoomID `json:"indexRoom"`
}

type AddShipsRequest struct {
	GameID      model.RoomID   `json:"gameId"`
	Ships       []WireShip     `json:"ships"`
	IndexPlayer model.PlayerID `json:"indexPlayer"`
}

type AttackRequest struct {
	GameID      model.RoomID   `json:"gameId"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	IndexPlayer model.PlayerID `json:"indexPlayer"`
}

type RandomAttackRequest struct {
	GameID      model.RoomID   `json:"gameId"`
	IndexPlayer model.PlayerID `json:"indexPlayer"`
}

// WireShip is a ship as clients send and receive it.
// Length is informational; the type alone decides how long a ship is.
type WireShip struct {
	Position  model.Position `json:"position"`
	Direction bool           `json:"direction"`
	Type      model.ShipType `json:"type"`
	Length    int            `json:"length"`
}

// Outbound payloads

type RegResponse struct {
	Name      string         `json:"name"`
	Index     model.PlayerID `json:"index"`
	Error     bool           `json:"error"`
	ErrorText string         `json:"errorText"`
}

type CreateGameResponse struct {
	IDGame   model.RoomID   `json:"idGame"`
	IDPlayer model.PlayerID `json:"idPlayer"`
}

type StartGameResponse struct {
	Ships              []WireShip     `json:"ships"`
	CurrentPlayerIndex model.PlayerID `json:"currentPlayerIndex"`
}

type AttackResponse struct {
	Position      model.Position `json:"position"`
	CurrentPlayer model.PlayerID `json:"currentPlayer"`
	Status        string         `json:"status"`
}

type TurnResponse struct {
	CurrentPlayer model.PlayerID `json:"currentPlayer"`
}

type FinishResponse struct {
	WinPlayer model.PlayerID `json:"winPlayer"`
}

type WinnerRow struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

type RoomUser struct {
	Name  string         `json:"name"`
	Index model.PlayerID `json:"index"`
}

type RoomRow struct {
	RoomID    model.RoomID `json:"roomId"`
	RoomUsers []RoomUser   `json:"roomUsers"`
}

// Decode parses an envelope, leaving its payload as a string
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// DecodeData parses the payload of a decoded envelope. An empty data string leaves out untouched.
func DecodeData(env Envelope, out any) error {
	if env.Data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(env.Data), out); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

// Encode wraps a payload in an envelope
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: string(data)})
}

// ToSpecs converts wire ships to placement specs
func ToSpecs(ships []WireShip) []model.ShipSpec {
	specs := make([]model.ShipSpec, len(ships))
	for i, s := range ships {
		specs[i] = model.ShipSpec{Type: s.Type, Position: s.Position, Vertical: s.Direction}
	}
	return specs
}

// FromSpecs converts placement specs to wire ships
func FromSpecs(specs []model.ShipSpec) []WireShip {
	ships := make([]WireShip, len(specs))
	for i, s := range specs {
		ships[i] = WireShip{Position: s.Position, Direction: s.Vertical, Type: s.Type, Length: s.Length()}
	}
	return ships
}

// wireStatus maps a cell status to the names clients expect
func wireStatus(status model.ShotStatus) string {
	switch status {
	case model.ShotHit:
		return "shot"
	case model.ShotKill:
		return "killed"
	default:
		return "miss"
	}
}

type frame struct {
	msgType string
	payload any
}

// translate turns an engine event into the frames a client receives, in order
func translate(event model.Event) []frame {
	switch p := event.Payload.(type) {
	case model.RoomReadyPayload:
		return []frame{{TypeCreateGame, CreateGameResponse{IDGame: p.RoomID, IDPlayer: p.PlayerID}}}

	case model.BoardsReadyPayload:
		return []frame{{TypeStartGame, StartGameResponse{Ships: FromSpecs(p.Ships), CurrentPlayerIndex: p.CurrentTurn}}}

	case model.ShotResultPayload:
		frames := make([]frame, len(p.Cells))
		for i, c := range p.Cells {
			frames[i] = frame{TypeAttack, AttackResponse{
				Position:      c.Position,
				CurrentPlayer: p.Shooter,
				Status:        wireStatus(c.Status),
			}}
		}
		return frames

	case model.TurnPayload:
		return []frame{{TypeTurn, TurnResponse{CurrentPlayer: p.CurrentTurn}}}

	case model.MatchOverPayload:
		return []frame{{TypeFinish, FinishResponse{WinPlayer: p.Winner}}}

	case model.LobbyUpdatePayload:
		winners := make([]WinnerRow, len(p.Snapshot.Winners))
		for i, w := range p.Snapshot.Winners {
			winners[i] = WinnerRow{Name: w.Name, Wins: w.Wins}
		}
		rooms := make([]RoomRow, len(p.Snapshot.Rooms))
		for i, r := range p.Snapshot.Rooms {
			users := make([]RoomUser, len(r.Members))
			for j, m := range r.Members {
				users[j] = RoomUser{Name: m.Name, Index: m.PlayerID}
			}
			rooms[i] = RoomRow{RoomID: r.RoomID, RoomUsers: users}
		}
		return []frame{
			{TypeUpdateWinners, winners},
			{TypeUpdateRoom, rooms},
		}
	}
	return nil
}
