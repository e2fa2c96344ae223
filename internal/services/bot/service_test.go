package bot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/seabattle/internal/dependencies/mocks"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/board"
	"github.com/mcoot/seabattle/internal/services/bot"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/match"
	"github.com/mcoot/seabattle/internal/storage/memory"
	"github.com/mcoot/seabattle/internal/testutil"
)

// scriptedStrategy fires at a fixed list of targets, in order
type scriptedStrategy struct {
	targets []model.Position
	next    int
}

func (s *scriptedStrategy) ChooseTarget(*model.Board) model.Position {
	t := s.targets[s.next%len(s.targets)]
	s.next++
	return t
}

type ServiceSuite struct {
	suite.Suite
	store      *memory.Storage
	recorder   *notify.Recorder
	mockClock  *mocks.MockClock
	mockRandom *mocks.MockRandom

	matchController *match.Controller
	botService      *bot.Service

	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.recorder = notify.NewRecorder()
	s.mockClock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.mockRandom = mocks.NewMockRandom()
	logger := testutil.NopLogger()
	s.ctx = context.Background()

	lobbyService := lobby.New(s.store, s.recorder, s.mockClock, logger)
	s.matchController = match.NewController(
		s.store,
		board.New(s.mockRandom, logger),
		s.recorder,
		lobbyService,
		nil,
		s.mockClock,
		logger,
	)
	s.useStrategy(bot.NewRandomStrategy(s.mockRandom))
}

func (s *ServiceSuite) useStrategy(st bot.Strategy) {
	strategies := map[string]bot.Strategy{model.BotStrategyRandom: st}
	s.botService = bot.NewService(s.store, s.matchController, strategies, s.mockClock, s.mockRandom, testutil.NopLogger())
}

func (s *ServiceSuite) createPlayer(name string) model.PlayerID {
	id, err := s.store.NextPlayerID(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: id, Name: name, CreatedAt: s.mockClock.Now()}))
	return id
}

// startSinglePlay opens a bot room for a new human and places the human's fleet
func (s *ServiceSuite) startSinglePlay() (model.PlayerID, *model.Room) {
	human := s.createPlayer("alice")
	room, err := s.botService.StartSinglePlay(s.ctx, human)
	s.Require().NoError(err)
	room, err = s.matchController.SubmitPlacement(s.ctx, human, room.ID, testutil.CornerFleet())
	s.Require().NoError(err)
	s.Require().Equal(model.RoomStateInProgress, room.State)
	return human, room
}

func (s *ServiceSuite) TestCreateBotPlayer() {
	player, err := s.botService.CreateBotPlayer(s.ctx, model.BotStrategyRandom)
	s.Require().NoError(err)

	s.Equal(model.PlayerID(1), player.ID)
	s.Equal("Bot-1", player.Name)
	s.True(player.IsBot)
	s.Equal(model.BotStrategyRandom, player.BotStrategy)

	// Verify saved to storage
	retrieved, err := s.store.GetPlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(player.Name, retrieved.Name)
	s.True(retrieved.IsBot)
}

func (s *ServiceSuite) TestCreateBotPlayer_UnknownStrategy() {
	_, err := s.botService.CreateBotPlayer(s.ctx, "clairvoyant")
	s.Error(err)

	players, _ := s.store.ListPlayers(s.ctx)
	s.Empty(players)
}

func (s *ServiceSuite) TestStartSinglePlay() {
	human := s.createPlayer("alice")

	room, err := s.botService.StartSinglePlay(s.ctx, human)
	s.Require().NoError(err)

	s.Equal(model.RoomStatePlacing, room.State)
	s.Require().Len(room.Members, 2)
	s.Equal(human, room.Creator())
	s.True(room.Members[1].IsBot)

	botBoard := room.Board(room.Members[1].PlayerID)
	s.True(botBoard.Ready)
	s.Len(botBoard.Ships, model.FleetSize)
	s.False(room.Board(human).Ready)

	ready := s.recorder.OfType(model.EventRoomReady)
	s.Require().NotEmpty(ready)
	s.Equal([]model.PlayerID{human}, ready[0].Recipients)
}

func (s *ServiceSuite) TestStartSinglePlay_HumanMovesFirst() {
	human, room := s.startSinglePlay()
	s.Equal(human, room.Turn)

	actions, err := s.botService.ProcessBotTurns(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Empty(actions)
}

func (s *ServiceSuite) TestStartSinglePlay_AlreadySeated() {
	human := s.createPlayer("alice")
	_, err := s.matchController.CreateRoom(s.ctx, human)
	s.Require().NoError(err)

	_, err = s.botService.StartSinglePlay(s.ctx, human)
	s.ErrorIs(err, model.ErrAlreadyInRoom)

	// No orphaned bot left behind
	players, _ := s.store.ListPlayers(s.ctx)
	s.Len(players, 1)
}

func (s *ServiceSuite) TestStartSinglePlay_BotHiddenFromWinners() {
	human := s.createPlayer("alice")
	_, err := s.botService.StartSinglePlay(s.ctx, human)
	s.Require().NoError(err)

	updates := s.recorder.OfType(model.EventLobbyUpdate)
	s.Require().NotEmpty(updates)
	winners := updates[len(updates)-1].Payload.(model.LobbyUpdatePayload).Snapshot.Winners
	s.Require().Len(winners, 1)
	s.Equal("alice", winners[0].Name)
}

func (s *ServiceSuite) TestProcessBotTurns_ShootsUntilMiss() {
	human, room := s.startSinglePlay()

	// (0,9) is water on the bot's generated layout
	outcome, err := s.matchController.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: human,
		RoomID:   room.ID,
		Target:   model.Position{X: 0, Y: 9},
	})
	s.Require().NoError(err)
	s.Require().Equal(model.ShotMiss, outcome.Result.Status)

	actions, err := s.botService.ProcessBotTurns(s.ctx, room.ID)
	s.Require().NoError(err)

	// Unprimed random takes the first open cell: the small ship at (0,0), then (2,0)
	s.Require().Len(actions, 2)
	s.Equal(bot.ActionShoot, actions[0].Type)
	s.Equal(model.Position{X: 0, Y: 0}, actions[0].Target)
	s.Equal(model.ShotKill, actions[0].Status)
	s.Equal(model.Position{X: 2, Y: 0}, actions[1].Target)
	s.Equal(model.ShotMiss, actions[1].Status)

	updated, err := s.matchController.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(human, updated.Turn)
}

func (s *ServiceSuite) TestProcessBotTurns_BotWinsMatch() {
	s.useStrategy(&scriptedStrategy{targets: testutil.FleetCells(testutil.CornerFleet())})
	human, room := s.startSinglePlay()
	botID := room.Opponent(human)

	_, err := s.matchController.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: human,
		RoomID:   room.ID,
		Target:   model.Position{X: 0, Y: 9},
	})
	s.Require().NoError(err)

	actions, err := s.botService.ProcessBotTurns(s.ctx, room.ID)
	s.Require().NoError(err)

	s.Require().Len(actions, len(testutil.FleetCells(testutil.CornerFleet()))+1)
	last := actions[len(actions)-1]
	s.Equal(bot.ActionMatchComplete, last.Type)
	s.Equal(botID, last.PlayerID)

	_, err = s.matchController.GetRoom(s.ctx, room.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)

	// Bot is discarded and the human gains nothing
	_, err = s.store.GetPlayer(s.ctx, botID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	player, err := s.store.GetPlayer(s.ctx, human)
	s.Require().NoError(err)
	s.Equal(0, player.Wins)
}

func (s *ServiceSuite) TestProcessBotTurns_StopsBeforeMatchStarts() {
	human := s.createPlayer("alice")
	room, err := s.botService.StartSinglePlay(s.ctx, human)
	s.Require().NoError(err)

	actions, err := s.botService.ProcessBotTurns(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Empty(actions)
}

func (s *ServiceSuite) TestProcessBotTurns_UnknownRoom() {
	actions, err := s.botService.ProcessBotTurns(s.ctx, 99)
	s.Require().NoError(err)
	s.Empty(actions)
}

func (s *ServiceSuite) TestHumanForfeitRemovesBot() {
	human, room := s.startSinglePlay()
	botID := room.Opponent(human)

	s.Require().NoError(s.matchController.LeaveRoom(s.ctx, human))

	_, err := s.store.GetPlayer(s.ctx, botID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// joinOnSaveStorage runs onSave once, right after the first room is stored
type joinOnSaveStorage struct {
	*memory.Storage
	onSave func(model.RoomID)
}

func (st *joinOnSaveStorage) SaveRoom(ctx context.Context, room *model.Room) error {
	if err := st.Storage.SaveRoom(ctx, room); err != nil {
		return err
	}
	if hook := st.onSave; hook != nil {
		st.onSave = nil
		hook(room.ID)
	}
	return nil
}

func (s *ServiceSuite) TestStartSinglePlay_RoomNeverOpenToOthers() {
	store := &joinOnSaveStorage{Storage: s.store}
	logger := testutil.NopLogger()
	controller := match.NewController(
		store,
		board.New(s.mockRandom, logger),
		s.recorder,
		lobby.New(store, s.recorder, s.mockClock, logger),
		nil,
		s.mockClock,
		logger,
	)
	strategies := map[string]bot.Strategy{model.BotStrategyRandom: bot.NewRandomStrategy(s.mockRandom)}
	botService := bot.NewService(store, controller, strategies, s.mockClock, s.mockRandom, logger)

	human := s.createPlayer("alice")
	intruder := s.createPlayer("mallory")

	var joinErr error
	store.onSave = func(roomID model.RoomID) {
		_, joinErr = controller.JoinRoom(s.ctx, intruder, roomID)
	}

	room, err := botService.StartSinglePlay(s.ctx, human)
	s.Require().NoError(err)
	s.ErrorIs(joinErr, model.ErrRoomFull)

	s.Equal(model.RoomStatePlacing, room.State)
	s.False(room.HasMember(intruder))
	s.Empty(s.recorder.OfType(model.EventMatchOver))

	snapshot, err := lobby.New(store, s.recorder, s.mockClock, logger).Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Empty(snapshot.Rooms)

	player, err := s.store.GetPlayer(s.ctx, intruder)
	s.Require().NoError(err)
	s.Equal(0, player.Wins)
}

func (s *ServiceSuite) TestStartSinglePlay_UnknownPlayerLeavesNothing() {
	_, err := s.botService.StartSinglePlay(s.ctx, 42)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, _ := s.store.ListPlayers(s.ctx)
	s.Empty(players)
	rooms, _ := s.store.ListRooms(s.ctx)
	s.Empty(rooms)
}
