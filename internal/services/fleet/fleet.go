// Package fleet validates ship layouts and generates random ones.
package fleet

import (
	"fmt"

	"github.com/mcoot/seabattle/internal/model"
)

// TotalCells is the number of cells a full fleet occupies
const TotalCells = 30

// Validate converts a layout into placed ships.
// Ships are checked in the order given and the first failure is returned;
// per-ship failures are reported as *model.PlacementError.
func Validate(specs []model.ShipSpec) ([]model.PlacedShip, error) {
	if err := checkComposition(specs); err != nil {
		return nil, err
	}

	var l layout
	placed := make([]model.PlacedShip, 0, len(specs))
	for i, spec := range specs {
		cells := spec.Cells()
		if err := l.check(cells); err != nil {
			return nil, &model.PlacementError{Index: i, Ship: spec, Err: err}
		}
		l.add(cells)
		placed = append(placed, model.PlacedShip{Spec: spec, Cells: cells})
	}
	return placed, nil
}

func checkComposition(specs []model.ShipSpec) error {
	if len(specs) != model.FleetSize {
		return fmt.Errorf("%w: got %d ships, want %d", model.ErrInvalidFleet, len(specs), model.FleetSize)
	}

	counts := make(map[model.ShipType]int)
	for i, spec := range specs {
		if spec.Type.Length() == 0 {
			return &model.PlacementError{
				Index: i,
				Ship:  spec,
				Err:   fmt.Errorf("%w: unknown ship type %q", model.ErrInvalidFleet, spec.Type),
			}
		}
		counts[spec.Type]++
	}

	for _, t := range model.FleetTypes() {
		want := model.FleetComposition()[t]
		if counts[t] != want {
			return fmt.Errorf("%w: got %d %s ships, want %d", model.ErrInvalidFleet, counts[t], t, want)
		}
	}
	return nil
}

// layout tracks occupied cells and the no-touch zone around them
type layout struct {
	occupied [model.GridSize][model.GridSize]bool
	zone     [model.GridSize][model.GridSize]bool
}

func (l *layout) check(cells []model.Position) error {
	for _, c := range cells {
		if !c.InBounds() {
			return model.ErrOutOfBounds
		}
	}
	for _, c := range cells {
		if l.occupied[c.Y][c.X] {
			return model.ErrOverlap
		}
	}
	for _, c := range cells {
		if l.zone[c.Y][c.X] {
			return model.ErrAdjacent
		}
	}
	return nil
}

func (l *layout) add(cells []model.Position) {
	for _, c := range cells {
		l.occupied[c.Y][c.X] = true
		l.zone[c.Y][c.X] = true
		for _, n := range c.Neighbours() {
			l.zone[n.Y][n.X] = true
		}
	}
}
