package bot

import "github.com/mcoot/seabattle/internal/model"

// Strategy decides where a bot fires.
// The board is the opponent's; a strategy may only look at which cells are blocked.
type Strategy interface {
	ChooseTarget(board *model.Board) model.Position
}
