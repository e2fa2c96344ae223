package model

// GridSize is the width and height of every board
const GridSize = 10

// FleetSize is the number of ships every player places
const FleetSize = 10

// Position identifies a cell on the board
type Position struct {
	X int `json:"x"` // 0-indexed column
	Y int `json:"y"` // 0-indexed row
}

// InBounds returns true if the position lies on the grid
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}

// Neighbours returns the in-bounds cells of the 8-neighbourhood around p
func (p Position) Neighbours() []Position {
	result := make([]Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Position{X: p.X + dx, Y: p.Y + dy}
			if n.InBounds() {
				result = append(result, n)
			}
		}
	}
	return result
}

// ShipType is the class of a ship, which fixes its length
type ShipType string

const (
	ShipHuge   ShipType = "huge"
	ShipLarge  ShipType = "large"
	ShipMedium ShipType = "medium"
	ShipSmall  ShipType = "small"
)

// Length returns the number of cells a ship of this type occupies, or 0 for unknown types
func (t ShipType) Length() int {
	switch t {
	case ShipHuge:
		return 4
	case ShipLarge:
		return 3
	case ShipMedium:
		return 2
	case ShipSmall:
		return 1
	default:
		return 0
	}
}

// FleetComposition is how many ships of each type make up a full fleet
func FleetComposition() map[ShipType]int {
	return map[ShipType]int{
		ShipHuge:   1,
		ShipLarge:  2,
		ShipMedium: 3,
		ShipSmall:  4,
	}
}

// FleetTypes lists the ship types from longest to shortest
func FleetTypes() []ShipType {
	return []ShipType{ShipHuge, ShipLarge, ShipMedium, ShipSmall}
}

// ShipSpec is a declarative ship layout entry as submitted by a player
type ShipSpec struct {
	Type     ShipType `json:"type"`
	Position Position `json:"position"`
	Vertical bool     `json:"direction"` // true = extends along Y
}

// Length returns the number of cells the ship occupies
func (s ShipSpec) Length() int {
	return s.Type.Length()
}

// Cells returns every cell the ship covers, starting at its anchor
func (s ShipSpec) Cells() []Position {
	cells := make([]Position, s.Length())
	for i := range cells {
		if s.Vertical {
			cells[i] = Position{X: s.Position.X, Y: s.Position.Y + i}
		} else {
			cells[i] = Position{X: s.Position.X + i, Y: s.Position.Y}
		}
	}
	return cells
}

// PlacedShip is a ship committed to a board together with its damage
type PlacedShip struct {
	Spec  ShipSpec   `json:"spec"`
	Cells []Position `json:"cells"`
	Hits  int        `json:"hits"`
}

// Sunk returns true once every cell of the ship has been hit
func (s *PlacedShip) Sunk() bool {
	return s.Hits >= len(s.Cells)
}

// Occupies returns true if the ship covers the given cell
func (s *PlacedShip) Occupies(pos Position) bool {
	for _, c := range s.Cells {
		if c == pos {
			return true
		}
	}
	return false
}
