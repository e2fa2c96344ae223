package fleet

import (
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
)

const (
	maxFleetAttempts = 20
	maxShipAttempts  = 100
)

// Generate returns a valid random layout, longest ships first.
// If random placement keeps failing it settles for a deterministic layout.
func Generate(rnd random.Random) []model.ShipSpec {
	for attempt := 0; attempt < maxFleetAttempts; attempt++ {
		if specs, ok := generate(rnd, true); ok {
			return specs
		}
	}
	specs, _ := generate(rnd, false)
	return specs
}

func generate(rnd random.Random, useRandom bool) ([]model.ShipSpec, bool) {
	var l layout
	specs := make([]model.ShipSpec, 0, model.FleetSize)

	for _, t := range model.FleetTypes() {
		for n := 0; n < model.FleetComposition()[t]; n++ {
			spec, ok := placeOne(rnd, &l, t, useRandom)
			if !ok {
				return nil, false
			}
			l.add(spec.Cells())
			specs = append(specs, spec)
		}
	}
	return specs, true
}

func placeOne(rnd random.Random, l *layout, t model.ShipType, useRandom bool) (model.ShipSpec, bool) {
	if useRandom {
		for i := 0; i < maxShipAttempts; i++ {
			spec := model.ShipSpec{Type: t, Vertical: rnd.Bool()}
			span := model.GridSize - t.Length() + 1
			if spec.Vertical {
				spec.Position = model.Position{X: rnd.Intn(model.GridSize), Y: rnd.Intn(span)}
			} else {
				spec.Position = model.Position{X: rnd.Intn(span), Y: rnd.Intn(model.GridSize)}
			}
			if l.check(spec.Cells()) == nil {
				return spec, true
			}
		}
	}

	// Row-major scan, horizontal before vertical
	for y := 0; y < model.GridSize; y++ {
		for x := 0; x < model.GridSize; x++ {
			for _, vertical := range []bool{false, true} {
				spec := model.ShipSpec{Type: t, Position: model.Position{X: x, Y: y}, Vertical: vertical}
				if l.check(spec.Cells()) == nil {
					return spec, true
				}
			}
		}
	}
	return model.ShipSpec{}, false
}
