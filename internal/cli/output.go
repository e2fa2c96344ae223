package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/seabattle/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Lobby:
		o.printLobby(v)
	case Room:
		o.printRoom(v)
	case Shot:
		o.printShot(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Wins  int    `json:"wins"`
	IsBot bool   `json:"is_bot,omitempty"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Member response type
type Member struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Lobby response type
type Lobby struct {
	Winners []Winner   `json:"winners"`
	Rooms   []OpenRoom `json:"rooms"`
}

// Winner response type
type Winner struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
}

// OpenRoom response type
type OpenRoom struct {
	RoomID  int64    `json:"room_id"`
	Members []Member `json:"members"`
}

// Room response type
type Room struct {
	ID      int64    `json:"id"`
	State   string   `json:"state"`
	Members []Member `json:"members"`
	Turn    int64    `json:"turn,omitempty"`
	Winner  int64    `json:"winner,omitempty"`
	Boards  []Board  `json:"boards"`
}

// Board response type
type Board struct {
	PlayerID  int64            `json:"player_id"`
	Ready     bool             `json:"ready"`
	Destroyed int              `json:"destroyed"`
	Blocked   []model.Position `json:"blocked"`
	Ships     []model.ShipSpec `json:"ships,omitempty"`
}

// Shot response type
type Shot struct {
	Status   string             `json:"status"`
	Target   model.Position     `json:"target"`
	Cells    []model.CellUpdate `json:"cells"`
	NextTurn int64              `json:"next_turn,omitempty"`
	Winner   int64              `json:"winner,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%d)\n", p.Name, p.ID)
	fmt.Printf("Wins: %d\n", p.Wins)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printLobby(l Lobby) {
	fmt.Printf("Winners (%d):\n", len(l.Winners))
	for _, w := range l.Winners {
		fmt.Printf("  - %s (%d): %d\n", w.Name, w.PlayerID, w.Wins)
	}
	fmt.Printf("Open rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		names := make([]string, len(r.Members))
		for i, m := range r.Members {
			names[i] = m.Name
		}
		fmt.Printf("  - %d: %s\n", r.RoomID, strings.Join(names, ", "))
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %d\n", r.ID)
	fmt.Printf("State: %s\n", r.State)
	fmt.Printf("Members (%d):\n", len(r.Members))
	for _, m := range r.Members {
		botStr := ""
		if m.IsBot {
			botStr = " [bot]"
		}
		fmt.Printf("  - %s (%d)%s\n", m.Name, m.PlayerID, botStr)
	}
	if r.Turn != 0 {
		fmt.Printf("Turn: %d\n", r.Turn)
	}
	if r.Winner != 0 {
		fmt.Printf("Winner: %d\n", r.Winner)
	}

	for _, b := range r.Boards {
		fmt.Printf("\nBoard (%d): ready=%t destroyed=%d/%d\n", b.PlayerID, b.Ready, b.Destroyed, model.FleetSize)
		o.printBoard(b)
	}
}

// printBoard draws ships as S, blocked water as ~ and hit ships as X
func (o *Output) printBoard(b Board) {
	var cells [model.GridSize][model.GridSize]string
	for _, s := range b.Ships {
		for _, c := range s.Cells() {
			if c.InBounds() {
				cells[c.Y][c.X] = "S"
			}
		}
	}
	for _, c := range b.Blocked {
		if !c.InBounds() {
			continue
		}
		if cells[c.Y][c.X] == "S" {
			cells[c.Y][c.X] = "X"
		} else {
			cells[c.Y][c.X] = "~"
		}
	}

	size := model.GridSize

	// Print column headers
	fmt.Print("    ")
	for col := 0; col < size; col++ {
		fmt.Printf(" %d ", col)
	}
	fmt.Println()

	// Print top border
	fmt.Print("   +")
	for col := 0; col < size; col++ {
		fmt.Print("---")
	}
	fmt.Println("+")

	// Print rows
	for row := 0; row < size; row++ {
		fmt.Printf(" %d |", row)
		for col := 0; col < size; col++ {
			cell := cells[row][col]
			if cell == "" {
				fmt.Print(" . ")
			} else {
				fmt.Printf(" %s ", cell)
			}
		}
		fmt.Println("|")
	}

	// Print bottom border
	fmt.Print("   +")
	for col := 0; col < size; col++ {
		fmt.Print("---")
	}
	fmt.Println("+")
}

func (o *Output) printShot(s Shot) {
	fmt.Printf("Shot at (%d,%d): %s\n", s.Target.X, s.Target.Y, s.Status)
	for _, c := range s.Cells {
		if c.Position != s.Target {
			fmt.Printf("  (%d,%d): %s\n", c.Position.X, c.Position.Y, c.Status)
		}
	}
	if s.Winner != 0 {
		fmt.Printf("Match over, winner: %d\n", s.Winner)
	} else if s.NextTurn != 0 {
		fmt.Printf("Next turn: %d\n", s.NextTurn)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Server != "" {
		fmt.Printf("Server: %s (%dms)\n", h.Server, h.LatencyMS)
	}
}
