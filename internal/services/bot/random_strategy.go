package bot

import (
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
)

// RandomStrategy fires at a uniformly random cell that is still open
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseTarget picks a random unblocked cell, or (0,0) if none remain
func (s *RandomStrategy) ChooseTarget(board *model.Board) model.Position {
	open := board.UnblockedCells()
	if len(open) == 0 {
		return model.Position{}
	}
	return open[s.random.Intn(len(open))]
}
