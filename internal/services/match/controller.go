package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/board"
	"github.com/mcoot/seabattle/internal/storage"
)

// LobbyNotifier refreshes the shared lobby view after rooms or wins change
type LobbyNotifier interface {
	PublishUpdate(ctx context.Context)
}

// Recorder receives match metrics
type Recorder interface {
	RoomOpened()
	RoomClosed()
	ShotResolved(status model.ShotStatus)
	MatchFinished(forfeit bool)
}

type nopRecorder struct{}

func (nopRecorder) RoomOpened()                    {}
func (nopRecorder) RoomClosed()                    {}
func (nopRecorder) ShotResolved(model.ShotStatus) {}
func (nopRecorder) MatchFinished(bool)             {}

// Controller runs the room state machine: seating, placement, shots and completion.
// Mutations of one room are serialized; different rooms never contend.
type Controller struct {
	storage      storage.Storage
	boardService board.ServiceInterface
	publisher    notify.Publisher
	lobby        LobbyNotifier
	metrics      Recorder
	clock        clock.Clock
	logger       *slog.Logger

	roomLocks   *keyedMutex[model.RoomID]
	playerLocks *keyedMutex[model.PlayerID] // guards "one open room per player"
}

// NewController creates a new match Controller. A nil metrics recorder disables metrics.
func NewController(
	storage storage.Storage,
	boardService board.ServiceInterface,
	publisher notify.Publisher,
	lobby LobbyNotifier,
	metrics Recorder,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Controller{
		storage:      storage,
		boardService: boardService,
		publisher:    publisher,
		lobby:        lobby,
		metrics:      metrics,
		clock:        clock,
		logger:       logger.With(slog.String("component", "match")),
		roomLocks:    newKeyedMutex[model.RoomID](),
		playerLocks:  newKeyedMutex[model.PlayerID](),
	}
}

// CreateRoom opens a waiting room with the player as its creator
func (c *Controller) CreateRoom(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	unlock := c.playerLocks.Lock(playerID)
	defer unlock()

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := c.ensureSeatFree(ctx, playerID); err != nil {
		return nil, err
	}

	roomID, err := c.storage.NextRoomID(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:    roomID,
		State: model.RoomStateWaiting,
		Members: []model.RoomMember{
			{PlayerID: player.ID, Name: player.Name, IsBot: player.IsBot},
		},
		Boards:    []*model.Board{model.NewBoard(player.ID)},
		Turn:      player.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.logger.Error("failed to save room",
			slog.Int64("room_id", int64(roomID)),
			slog.String("error", err.Error()))
		return nil, err
	}
	c.metrics.RoomOpened()

	c.logger.Info("room created",
		slog.Int64("room_id", int64(roomID)),
		slog.Int64("player_id", int64(playerID)))

	c.emit(room.ID, model.EventRoomReady, []model.PlayerID{playerID},
		model.RoomReadyPayload{RoomID: room.ID, PlayerID: playerID})
	c.lobby.PublishUpdate(ctx)

	return room, nil
}

// JoinRoom seats the player as the second member and opens placement
func (c *Controller) JoinRoom(ctx context.Context, playerID model.PlayerID, roomID model.RoomID) (*model.Room, error) {
	unlockPlayer := c.playerLocks.Lock(playerID)
	defer unlockPlayer()
	unlockRoom := c.roomLocks.Lock(roomID)
	defer unlockRoom()

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsFull() || room.State != model.RoomStateWaiting {
		return nil, model.ErrRoomFull
	}
	if err := c.ensureSeatFree(ctx, playerID); err != nil {
		return nil, err
	}

	room.Members = append(room.Members, model.RoomMember{
		PlayerID: player.ID,
		Name:     player.Name,
		IsBot:    player.IsBot,
	})
	room.Boards = append(room.Boards, model.NewBoard(player.ID))
	room.State = model.RoomStatePlacing
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player joined room",
		slog.Int64("room_id", int64(roomID)),
		slog.Int64("player_id", int64(playerID)))

	c.emit(room.ID, model.EventRoomReady, []model.PlayerID{playerID},
		model.RoomReadyPayload{RoomID: room.ID, PlayerID: playerID})
	c.lobby.PublishUpdate(ctx)

	return room, nil
}

// OpenBotRoom creates a room with the player as creator and the bot already seated
// with its fleet committed. The room is never waiting, so no one else can join it.
func (c *Controller) OpenBotRoom(ctx context.Context, playerID, botID model.PlayerID, botShips []model.ShipSpec) (*model.Room, error) {
	unlock := c.playerLocks.Lock(playerID)
	defer unlock()

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	bot, err := c.storage.GetPlayer(ctx, botID)
	if err != nil {
		return nil, err
	}
	if !bot.IsBot {
		return nil, model.ErrNotABot
	}
	if err := c.ensureSeatFree(ctx, playerID); err != nil {
		return nil, err
	}

	botBoard := model.NewBoard(bot.ID)
	if err := c.boardService.Place(botBoard, botShips); err != nil {
		return nil, err
	}

	roomID, err := c.storage.NextRoomID(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:    roomID,
		State: model.RoomStatePlacing,
		Members: []model.RoomMember{
			{PlayerID: player.ID, Name: player.Name, IsBot: player.IsBot},
			{PlayerID: bot.ID, Name: bot.Name, IsBot: true},
		},
		Boards:    []*model.Board{model.NewBoard(player.ID), botBoard},
		Turn:      player.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	c.metrics.RoomOpened()

	c.logger.Info("bot room created",
		slog.Int64("room_id", int64(roomID)),
		slog.Int64("player_id", int64(playerID)),
		slog.Int64("bot_id", int64(botID)))

	c.emit(room.ID, model.EventRoomReady, []model.PlayerID{playerID},
		model.RoomReadyPayload{RoomID: room.ID, PlayerID: playerID})
	c.lobby.PublishUpdate(ctx)

	return room, nil
}

// SubmitPlacement commits the player's fleet. The match starts once both fleets are in.
func (c *Controller) SubmitPlacement(ctx context.Context, playerID model.PlayerID, roomID model.RoomID, ships []model.ShipSpec) (*model.Room, error) {
	unlock := c.roomLocks.Lock(roomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(playerID) {
		return nil, model.ErrNotInRoom
	}
	if room.State != model.RoomStateWaiting && room.State != model.RoomStatePlacing {
		return nil, model.ErrPlacementClosed
	}

	if err := c.boardService.Place(room.Board(playerID), ships); err != nil {
		c.logger.Debug("placement rejected",
			slog.Int64("room_id", int64(roomID)),
			slog.Int64("player_id", int64(playerID)),
			slog.String("error", err.Error()))
		return nil, err
	}

	started := room.AllBoardsReady()
	if started {
		room.State = model.RoomStateInProgress
		room.Turn = room.Creator()
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("ships placed",
		slog.Int64("room_id", int64(roomID)),
		slog.Int64("player_id", int64(playerID)),
		slog.Bool("match_started", started))

	if started {
		for _, b := range room.Boards {
			c.emit(room.ID, model.EventBoardsReady, []model.PlayerID{b.PlayerID},
				model.BoardsReadyPayload{Ships: b.Specs(), CurrentTurn: room.Turn})
		}
	}

	return room, nil
}

// SubmitShot fires at the opponent's board on behalf of req.PlayerID
func (c *Controller) SubmitShot(ctx context.Context, req model.ShotRequest) (model.ShotOutcome, error) {
	unlock := c.roomLocks.Lock(req.RoomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, req.RoomID)
	if err != nil {
		return model.ShotOutcome{}, err
	}
	return c.resolveShot(ctx, room, req)
}

// RandomShot lets the engine pick an untouched cell on the opponent's board and fires at it
func (c *Controller) RandomShot(ctx context.Context, playerID model.PlayerID, roomID model.RoomID, isBot bool) (model.ShotOutcome, error) {
	unlock := c.roomLocks.Lock(roomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return model.ShotOutcome{}, err
	}

	var target model.Position
	if opponent := room.Opponent(playerID); opponent != 0 {
		if b := room.Board(opponent); b != nil {
			target = c.boardService.RandomTarget(b)
		}
	}

	return c.resolveShot(ctx, room, model.ShotRequest{
		PlayerID: playerID,
		RoomID:   roomID,
		Target:   target,
		IsBot:    isBot,
	})
}

// resolveShot runs with the room lock held
func (c *Controller) resolveShot(ctx context.Context, room *model.Room, req model.ShotRequest) (model.ShotOutcome, error) {
	if !room.HasMember(req.PlayerID) {
		return model.ShotOutcome{}, model.ErrNotInRoom
	}
	if room.State != model.RoomStateInProgress {
		return model.ShotOutcome{}, model.ErrMatchNotInProgress
	}
	if !req.IsBot && room.Turn != req.PlayerID {
		return model.ShotOutcome{}, model.ErrNotYourTurn
	}

	defender := room.Opponent(req.PlayerID)
	target := room.Board(defender)

	result, err := c.boardService.Fire(target, req.Target)
	if err != nil {
		return model.ShotOutcome{}, err
	}

	if result.Status == model.ShotRepeated {
		c.metrics.ShotResolved(result.Status)
		return model.ShotOutcome{Result: result, NextTurn: room.Turn}, nil
	}

	if result.Status == model.ShotMiss {
		room.Turn = defender
	}
	room.UpdatedAt = c.clock.Now()

	if target.Defeated() {
		if err := c.closeMatch(ctx, room, req.PlayerID, false); err != nil {
			return model.ShotOutcome{}, err
		}
		c.metrics.ShotResolved(result.Status)
		c.emitShot(room, req.PlayerID, result, 0)
		c.announceFinish(ctx, room, false)
		return model.ShotOutcome{Result: result, Winner: req.PlayerID}, nil
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return model.ShotOutcome{}, err
	}
	c.metrics.ShotResolved(result.Status)

	c.emitShot(room, req.PlayerID, result, room.Turn)
	c.emit(room.ID, model.EventTurn, room.PlayerIDs(), model.TurnPayload{CurrentTurn: room.Turn})

	return model.ShotOutcome{Result: result, NextTurn: room.Turn}, nil
}

// LeaveRoom removes the player from their open room, if any.
// A waiting room is discarded; a started room is forfeited to the other member.
func (c *Controller) LeaveRoom(ctx context.Context, playerID model.PlayerID) error {
	unlockPlayer := c.playerLocks.Lock(playerID)
	defer unlockPlayer()

	return c.leave(ctx, playerID)
}

// LeaveAndRemove leaves the player's open room and then runs remove, holding the
// player's seat lock throughout so no room can be created or joined in between.
func (c *Controller) LeaveAndRemove(ctx context.Context, playerID model.PlayerID, remove func(context.Context) error) error {
	unlockPlayer := c.playerLocks.Lock(playerID)
	defer unlockPlayer()

	if err := c.leave(ctx, playerID); err != nil {
		return err
	}
	return remove(ctx)
}

// leave runs with the player lock held
func (c *Controller) leave(ctx context.Context, playerID model.PlayerID) error {
	found, err := c.RoomForPlayer(ctx, playerID)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	unlockRoom := c.roomLocks.Lock(found.ID)
	defer unlockRoom()

	// Reload under the room lock; a shot may have finished the match meanwhile
	room, err := c.storage.GetRoom(ctx, found.ID)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !room.HasMember(playerID) {
		return nil
	}

	if room.State == model.RoomStateWaiting {
		if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
			return err
		}
		c.metrics.RoomClosed()
		c.logger.Info("waiting room closed",
			slog.Int64("room_id", int64(room.ID)),
			slog.Int64("player_id", int64(playerID)))
		c.lobby.PublishUpdate(ctx)
		return nil
	}

	c.logger.Info("player forfeited",
		slog.Int64("room_id", int64(room.ID)),
		slog.Int64("player_id", int64(playerID)))
	winner := room.Opponent(playerID)
	if err := c.closeMatch(ctx, room, winner, true); err != nil {
		return err
	}
	c.announceFinish(ctx, room, true)
	return nil
}

// closeMatch commits the end of a started room: the room is deleted, the winner
// credited and bots discarded. Nothing is announced. The room lock must be held.
func (c *Controller) closeMatch(ctx context.Context, room *model.Room, winner model.PlayerID, forfeit bool) error {
	room.State = model.RoomStateFinished
	room.Winner = winner
	room.Turn = 0

	if err := c.storage.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	c.metrics.RoomClosed()
	c.metrics.MatchFinished(forfeit)

	for _, m := range room.Members {
		if m.IsBot {
			// Bots live for a single match
			if err := c.storage.DeletePlayer(ctx, m.PlayerID); err != nil {
				c.logger.Warn("failed to remove bot player",
					slog.Int64("player_id", int64(m.PlayerID)),
					slog.String("error", err.Error()))
			}
			continue
		}
		if m.PlayerID == winner {
			c.recordWin(ctx, winner)
		}
	}

	c.logger.Info("match finished",
		slog.Int64("room_id", int64(room.ID)),
		slog.Int64("winner", int64(winner)),
		slog.Bool("forfeit", forfeit))
	return nil
}

// announceFinish publishes the outcome of a match closed by closeMatch
func (c *Controller) announceFinish(ctx context.Context, room *model.Room, forfeit bool) {
	c.emit(room.ID, model.EventMatchOver, room.PlayerIDs(),
		model.MatchOverPayload{Winner: room.Winner, Forfeit: forfeit})
	c.lobby.PublishUpdate(ctx)
}

func (c *Controller) recordWin(ctx context.Context, playerID model.PlayerID) {
	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		// The winner may already have unregistered
		c.logger.Warn("could not record win",
			slog.Int64("player_id", int64(playerID)),
			slog.String("error", err.Error()))
		return
	}
	player.Wins++
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		c.logger.Error("failed to save win",
			slog.Int64("player_id", int64(playerID)),
			slog.String("error", err.Error()))
	}
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, roomID)
}

// ListRooms returns every open room ordered by id
func (c *Controller) ListRooms(ctx context.Context) ([]*model.Room, error) {
	return c.storage.ListRooms(ctx)
}

// RoomForPlayer returns the open room the player sits in, or ErrRoomNotFound
func (c *Controller) RoomForPlayer(ctx context.Context, playerID model.PlayerID) (*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.IsOpen() && r.HasMember(playerID) {
			return r, nil
		}
	}
	return nil, model.ErrRoomNotFound
}

func (c *Controller) ensureSeatFree(ctx context.Context, playerID model.PlayerID) error {
	_, err := c.RoomForPlayer(ctx, playerID)
	if err == nil {
		return model.ErrAlreadyInRoom
	}
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil
	}
	return err
}

func (c *Controller) emitShot(room *model.Room, shooter model.PlayerID, result model.ShotResult, next model.PlayerID) {
	c.emit(room.ID, model.EventShotResult, room.PlayerIDs(), model.ShotResultPayload{
		Shooter: shooter,
		Status:  result.Status,
		Target:  result.Target,
		Cells:   result.Cells,
		Turn:    next,
	})
}

func (c *Controller) emit(roomID model.RoomID, eventType model.EventType, recipients []model.PlayerID, payload any) {
	c.publisher.Publish(model.Event{
		Type:       eventType,
		Timestamp:  c.clock.Now(),
		RoomID:     roomID,
		Recipients: recipients,
		Payload:    payload,
	})
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, playerID model.PlayerID) (*model.Room, error)
	JoinRoom(ctx context.Context, playerID model.PlayerID, roomID model.RoomID) (*model.Room, error)
	OpenBotRoom(ctx context.Context, playerID, botID model.PlayerID, botShips []model.ShipSpec) (*model.Room, error)
	SubmitPlacement(ctx context.Context, playerID model.PlayerID, roomID model.RoomID, ships []model.ShipSpec) (*model.Room, error)
	SubmitShot(ctx context.Context, req model.ShotRequest) (model.ShotOutcome, error)
	RandomShot(ctx context.Context, playerID model.PlayerID, roomID model.RoomID, isBot bool) (model.ShotOutcome, error)
	LeaveRoom(ctx context.Context, playerID model.PlayerID) error
	LeaveAndRemove(ctx context.Context, playerID model.PlayerID, remove func(context.Context) error) error
	GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	RoomForPlayer(ctx context.Context, playerID model.PlayerID) (*model.Room, error)
}

var _ ControllerInterface = (*Controller)(nil)
