package board

import (
	"log/slog"

	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/fleet"
)

// Service places fleets on boards and resolves shots against them.
// It works on the board it is given; persisting the owning room is the caller's job.
type Service struct {
	random random.Random
	logger *slog.Logger
}

// New creates a new BoardService
func New(rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		random: rnd,
		logger: logger.With(slog.String("component", "board")),
	}
}

// Place validates a layout and commits it to the board.
// The board is untouched unless the whole layout is valid.
func (s *Service) Place(board *model.Board, specs []model.ShipSpec) error {
	if board.Ready {
		return model.ErrBoardAlreadyReady
	}

	placed, err := fleet.Validate(specs)
	if err != nil {
		return err
	}

	board.Ships = placed
	board.Destroyed = 0
	board.Ready = true
	return nil
}

// Fire resolves one shot against the board
func (s *Service) Fire(board *model.Board, target model.Position) (model.ShotResult, error) {
	if !target.InBounds() {
		return model.ShotResult{}, model.ErrInvalidTarget
	}

	if board.IsBlocked(target) {
		return model.ShotResult{Status: model.ShotRepeated, Target: target, Cells: []model.CellUpdate{}}, nil
	}

	idx := board.ShipAt(target)
	if idx < 0 {
		board.Block(target)
		return single(model.ShotMiss, target), nil
	}

	ship := &board.Ships[idx]
	ship.Hits++
	board.Block(target)
	if !ship.Sunk() {
		return single(model.ShotHit, target), nil
	}

	board.Destroyed++
	cells := s.sink(board, ship)
	s.logger.Debug("ship sunk",
		slog.Int64("player_id", int64(board.PlayerID)),
		slog.String("ship", string(ship.Spec.Type)),
		slog.Int("destroyed", board.Destroyed),
	)

	return model.ShotResult{Status: model.ShotKill, Target: target, Cells: cells}, nil
}

// sink blocks a sunk ship and the water around it, returning every affected cell
func (s *Service) sink(board *model.Board, ship *model.PlacedShip) []model.CellUpdate {
	cells := make([]model.CellUpdate, 0, len(ship.Cells)*3)
	for _, c := range ship.Cells {
		board.Block(c)
		cells = append(cells, model.CellUpdate{Position: c, Status: model.ShotKill})
	}

	seen := make(map[model.Position]bool)
	for _, c := range ship.Cells {
		for _, n := range c.Neighbours() {
			if seen[n] || board.ShipAt(n) >= 0 {
				continue
			}
			seen[n] = true
			board.Block(n)
			cells = append(cells, model.CellUpdate{Position: n, Status: model.ShotMiss})
		}
	}
	return cells
}

// RandomTarget picks uniformly among cells that can still be targeted.
// A board with nothing left to target yields (0,0).
func (s *Service) RandomTarget(board *model.Board) model.Position {
	cells := board.UnblockedCells()
	if len(cells) == 0 {
		return model.Position{}
	}
	return cells[s.random.Intn(len(cells))]
}

func single(status model.ShotStatus, target model.Position) model.ShotResult {
	return model.ShotResult{
		Status: status,
		Target: target,
		Cells:  []model.CellUpdate{{Position: target, Status: status}},
	}
}

// Interface for dependency injection
type ServiceInterface interface {
	Place(board *model.Board, specs []model.ShipSpec) error
	Fire(board *model.Board, target model.Position) (model.ShotResult, error)
	RandomTarget(board *model.Board) model.Position
}

var _ ServiceInterface = (*Service)(nil)
