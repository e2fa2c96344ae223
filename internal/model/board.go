package model

// CellState is the targeting state of a single grid cell
type CellState uint8

const (
	CellEmpty   CellState = iota // may still be targeted
	CellBlocked                  // shot at, or closed off around a sunk ship
)

// Board is one player's grid and fleet within a room
type Board struct {
	PlayerID  PlayerID                      `json:"player_id"`
	Grid      [GridSize][GridSize]CellState `json:"grid"` // Grid[y][x]
	Ships     []PlacedShip                  `json:"ships"`
	Destroyed int                           `json:"destroyed"`
	Ready     bool                          `json:"ready"`
}

// NewBoard creates an empty, not-ready board for a player
func NewBoard(playerID PlayerID) *Board {
	return &Board{
		PlayerID: playerID,
		Ships:    []PlacedShip{},
	}
}

// IsBlocked returns true if the cell can no longer be targeted.
// Out-of-bounds cells count as blocked.
func (b *Board) IsBlocked(pos Position) bool {
	if !pos.InBounds() {
		return true
	}
	return b.Grid[pos.Y][pos.X] == CellBlocked
}

// Block marks a cell as no longer targetable
func (b *Board) Block(pos Position) {
	if pos.InBounds() {
		b.Grid[pos.Y][pos.X] = CellBlocked
	}
}

// UnblockedCells returns every cell that may still be targeted, in row-major order
func (b *Board) UnblockedCells() []Position {
	var cells []Position
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if b.Grid[y][x] == CellEmpty {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// ShipAt returns the index of the ship covering pos, or -1
func (b *Board) ShipAt(pos Position) int {
	for i := range b.Ships {
		if b.Ships[i].Occupies(pos) {
			return i
		}
	}
	return -1
}

// Defeated returns true once the whole fleet is destroyed
func (b *Board) Defeated() bool {
	return b.Ready && b.Destroyed >= FleetSize
}

// Specs returns the layout the player submitted
func (b *Board) Specs() []ShipSpec {
	specs := make([]ShipSpec, len(b.Ships))
	for i, s := range b.Ships {
		specs[i] = s.Spec
	}
	return specs
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	c := *b
	c.Ships = make([]PlacedShip, len(b.Ships))
	for i, s := range b.Ships {
		s.Cells = append([]Position(nil), s.Cells...)
		c.Ships[i] = s
	}
	return &c
}
