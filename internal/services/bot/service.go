package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/fleet"
	"github.com/mcoot/seabattle/internal/services/match"
	"github.com/mcoot/seabattle/internal/storage"
)

// MaxBotIterations is a safety limit for the ProcessBotTurns loop.
// A full board holds 100 cells so no legal run of shots comes close.
const MaxBotIterations = 1000

// BotActionType represents the type of action a bot took
type BotActionType string

const (
	ActionShoot         BotActionType = "shoot"
	ActionMatchComplete BotActionType = "match_complete"
)

// BotAction represents a single action taken by a bot during ProcessBotTurns
type BotAction struct {
	Type     BotActionType
	PlayerID model.PlayerID
	Target   model.Position
	Status   model.ShotStatus
}

// Service runs bot opponents for single-player matches
type Service struct {
	storage         storage.Storage
	matchController match.ControllerInterface
	strategies      map[string]Strategy
	clock           clock.Clock
	random          random.Random
	logger          *slog.Logger
}

// NewService creates a new bot Service
func NewService(
	store storage.Storage,
	matchController match.ControllerInterface,
	strategies map[string]Strategy,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:         store,
		matchController: matchController,
		strategies:      strategies,
		clock:           clk,
		random:          rnd,
		logger:          logger.With(slog.String("component", "bot-service")),
	}
}

// CreateBotPlayer creates a new bot player and saves it to storage
func (s *Service) CreateBotPlayer(ctx context.Context, strategy string) (*model.Player, error) {
	if _, ok := s.strategies[strategy]; !ok {
		return nil, fmt.Errorf("unknown bot strategy: %s", strategy)
	}

	id, err := s.storage.NextPlayerID(ctx)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:          id,
		Name:        fmt.Sprintf("%s-%d", model.BotName, id),
		IsBot:       true,
		BotStrategy: strategy,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	return player, nil
}

// StartSinglePlay opens a room for the player with a bot already seated and its fleet placed.
// The match starts as soon as the player submits their own fleet.
func (s *Service) StartSinglePlay(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	bot, err := s.CreateBotPlayer(ctx, model.BotStrategyRandom)
	if err != nil {
		return nil, err
	}

	room, err := s.matchController.OpenBotRoom(ctx, playerID, bot.ID, fleet.Generate(s.random))
	if err != nil {
		// The room was never saved, so only the bot needs discarding
		if delErr := s.storage.DeletePlayer(ctx, bot.ID); delErr != nil {
			s.logger.Warn("failed to discard bot player",
				slog.Int64("bot_id", int64(bot.ID)),
				slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	s.logger.Info("single play started",
		slog.Int64("room_id", int64(room.ID)),
		slog.Int64("player_id", int64(playerID)),
		slog.Int64("bot_id", int64(bot.ID)),
	)

	return room, nil
}

// ProcessBotTurns lets bots shoot for as long as they own the turn.
// It returns all actions taken so callers can log or relay them.
func (s *Service) ProcessBotTurns(ctx context.Context, roomID model.RoomID) ([]BotAction, error) {
	var actions []BotAction

	for range MaxBotIterations {
		room, err := s.matchController.GetRoom(ctx, roomID)
		if errors.Is(err, model.ErrRoomNotFound) {
			break // Finished and discarded
		}
		if err != nil {
			return actions, err
		}

		if room.State != model.RoomStateInProgress {
			break
		}

		shooter := room.GetMember(room.Turn)
		if shooter == nil || !shooter.IsBot {
			break // Human's turn
		}

		player, err := s.storage.GetPlayer(ctx, shooter.PlayerID)
		if err != nil {
			return actions, err
		}

		target := s.strategyForPlayer(player).ChooseTarget(room.Board(room.Opponent(shooter.PlayerID)))
		outcome, err := s.matchController.SubmitShot(ctx, model.ShotRequest{
			PlayerID: shooter.PlayerID,
			RoomID:   roomID,
			Target:   target,
			IsBot:    true,
		})
		if err != nil {
			return actions, err
		}

		actions = append(actions, BotAction{
			Type:     ActionShoot,
			PlayerID: shooter.PlayerID,
			Target:   target,
			Status:   outcome.Result.Status,
		})

		if outcome.Finished() {
			actions = append(actions, BotAction{Type: ActionMatchComplete, PlayerID: outcome.Winner})
			break
		}
	}

	return actions, nil
}

// strategyForPlayer returns the strategy for a bot player, falling back to
// random targeting if the player's strategy is not registered
func (s *Service) strategyForPlayer(player *model.Player) Strategy {
	if st, ok := s.strategies[player.BotStrategy]; ok {
		return st
	}
	return NewRandomStrategy(s.random)
}

// Interface for dependency injection
type ServiceInterface interface {
	CreateBotPlayer(ctx context.Context, strategy string) (*model.Player, error)
	StartSinglePlay(ctx context.Context, playerID model.PlayerID) (*model.Room, error)
	ProcessBotTurns(ctx context.Context, roomID model.RoomID) ([]BotAction, error)
}

var _ ServiceInterface = (*Service)(nil)
