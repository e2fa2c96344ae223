package testutil

import "github.com/mcoot/seabattle/internal/model"

// CornerFleet returns a valid layout whose first ship is a single cell at (0,0).
//
//	S . . . . . . . . .
//	. . . . . . . . . .
//	H H H H . L L L . .
//	. . . . . . . . . .
//	L L L . M M . M M .
//	. . . . . . . . . .
//	M M . S . S . S . .
func CornerFleet() []model.ShipSpec {
	return []model.ShipSpec{
		spec(model.ShipSmall, 0, 0),
		spec(model.ShipHuge, 0, 2),
		spec(model.ShipLarge, 5, 2),
		spec(model.ShipLarge, 0, 4),
		spec(model.ShipMedium, 4, 4),
		spec(model.ShipMedium, 7, 4),
		spec(model.ShipMedium, 0, 6),
		spec(model.ShipSmall, 3, 6),
		spec(model.ShipSmall, 5, 6),
		spec(model.ShipSmall, 7, 6),
	}
}

// FleetCells returns every cell occupied by a layout, in layout order
func FleetCells(specs []model.ShipSpec) []model.Position {
	var cells []model.Position
	for _, s := range specs {
		cells = append(cells, s.Cells()...)
	}
	return cells
}

// WaterCells returns n cells that CornerFleet leaves empty, starting from the bottom row
func WaterCells(n int) []model.Position {
	cells := make([]model.Position, 0, n)
	for y := model.GridSize - 1; y >= 8 && len(cells) < n; y-- {
		for x := 0; x < model.GridSize && len(cells) < n; x++ {
			cells = append(cells, model.Position{X: x, Y: y})
		}
	}
	return cells
}

func spec(t model.ShipType, x, y int) model.ShipSpec {
	return model.ShipSpec{Type: t, Position: model.Position{X: x, Y: y}}
}
