package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/seabattle/internal/dependencies/mocks"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/monitor"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/board"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/storage/memory"
	fixtures "github.com/mcoot/seabattle/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	recorder   *notify.Recorder
	metrics    *monitor.Metrics
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context

	alice model.PlayerID
	bob   model.PlayerID
	carol model.PlayerID
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := fixtures.NopLogger()
	s.storage = memory.New()
	s.recorder = notify.NewRecorder()
	s.metrics = monitor.NewMetrics("test")
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	lobbyService := lobby.New(s.storage, s.recorder, s.clock, logger)
	s.controller = NewController(
		s.storage,
		board.New(s.random, logger),
		s.recorder,
		lobbyService,
		s.metrics,
		s.clock,
		logger,
	)
	s.ctx = context.Background()

	s.alice = s.createPlayer("alice", false)
	s.bob = s.createPlayer("bob", false)
	s.carol = s.createPlayer("carol", false)
}

func (s *ControllerSuite) createPlayer(name string, isBot bool) model.PlayerID {
	id, err := s.storage.NextPlayerID(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{
		ID:        id,
		Name:      name,
		IsBot:     isBot,
		CreatedAt: s.clock.Now(),
	}))
	return id
}

// startMatch seats creator and joiner, places CornerFleet for both and clears recorded events
func (s *ControllerSuite) startMatch(creator, joiner model.PlayerID) model.RoomID {
	room, err := s.controller.CreateRoom(s.ctx, creator)
	s.Require().NoError(err)
	_, err = s.controller.JoinRoom(s.ctx, joiner, room.ID)
	s.Require().NoError(err)
	_, err = s.controller.SubmitPlacement(s.ctx, creator, room.ID, fixtures.CornerFleet())
	s.Require().NoError(err)
	started, err := s.controller.SubmitPlacement(s.ctx, joiner, room.ID, fixtures.CornerFleet())
	s.Require().NoError(err)
	s.Require().Equal(model.RoomStateInProgress, started.State)
	s.recorder.Reset()
	return room.ID
}

func (s *ControllerSuite) shoot(playerID model.PlayerID, roomID model.RoomID, target model.Position) model.ShotOutcome {
	outcome, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: playerID,
		RoomID:   roomID,
		Target:   target,
	})
	s.Require().NoError(err)
	return outcome
}

func (s *ControllerSuite) room(roomID model.RoomID) *model.Room {
	room, err := s.controller.GetRoom(s.ctx, roomID)
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) wins(playerID model.PlayerID) int {
	player, err := s.storage.GetPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	return player.Wins
}

// CreateRoom tests

func (s *ControllerSuite) TestCreateRoomSucceeds() {
	room, err := s.controller.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)

	s.Equal(model.RoomStateWaiting, room.State)
	s.Equal(s.alice, room.Turn)
	s.Require().Len(room.Members, 1)
	s.Equal("alice", room.Members[0].Name)
	s.Require().Len(room.Boards, 1)
	s.False(room.Boards[0].Ready)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ActiveRooms))
}

func (s *ControllerSuite) TestCreateRoomIsPersisted() {
	room, err := s.controller.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)

	stored := s.room(room.ID)
	s.Equal(room.ID, stored.ID)
	s.True(stored.HasMember(s.alice))
}

func (s *ControllerSuite) TestCreateRoomAllocatesIncreasingIDs() {
	first, err := s.controller.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)
	second, err := s.controller.CreateRoom(s.ctx, s.bob)
	s.Require().NoError(err)

	s.Greater(second.ID, first.ID)
}

func (s *ControllerSuite) TestCreateRoomEmitsRoomReadyAndLobbyUpdate() {
	room, err := s.controller.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)

	ready := s.recorder.OfType(model.EventRoomReady)
	s.Require().Len(ready, 1)
	s.Equal([]model.PlayerID{s.alice}, ready[0].Recipients)
	s.Equal(model.RoomReadyPayload{RoomID: room.ID, PlayerID: s.alice}, ready[0].Payload)

	updates := s.recorder.OfType(model.EventLobbyUpdate)
	s.Require().Len(updates, 1)
	payload := updates[0].Payload.(model.LobbyUpdatePayload)
	s.Require().Len(payload.Snapshot.Rooms, 1)
	s.Equal(room.ID, payload.Snapshot.Rooms[0].RoomID)
}

func (s *ControllerSuite) TestCreateRoomFailsWhenAlreadySeated() {
	_, err := s.controller.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)

	_, err = s.controller.CreateRoom(s.ctx, s.alice)
	s.ErrorIs(err, model.ErrAlreadyInRoom)
}

func (s *ControllerSuite) TestCreateRoomFailsForUnknownPlayer() {
	_, err := s.controller.CreateRoom(s.ctx, 999)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// JoinRoom tests

func (s *ControllerSuite) TestJoinRoomSucceeds() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	s.recorder.Reset()

	room, err := s.controller.JoinRoom(s.ctx, s.bob, created.ID)
	s.Require().NoError(err)

	s.Equal(model.RoomStatePlacing, room.State)
	s.Equal([]model.PlayerID{s.alice, s.bob}, room.PlayerIDs())
	s.NotNil(room.Board(s.bob))
	s.False(room.Board(s.bob).Ready)

	ready := s.recorder.OfType(model.EventRoomReady)
	s.Require().Len(ready, 1)
	s.Equal([]model.PlayerID{s.bob}, ready[0].Recipients)

	// A full room leaves the open rooms table
	updates := s.recorder.OfType(model.EventLobbyUpdate)
	s.Require().Len(updates, 1)
	s.Empty(updates[0].Payload.(model.LobbyUpdatePayload).Snapshot.Rooms)
}

func (s *ControllerSuite) TestThirdJoinFailsWithRoomFull() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	_, err := s.controller.JoinRoom(s.ctx, s.bob, created.ID)
	s.Require().NoError(err)

	_, err = s.controller.JoinRoom(s.ctx, s.carol, created.ID)
	s.ErrorIs(err, model.ErrRoomFull)

	s.Len(s.room(created.ID).Members, 2)
}

func (s *ControllerSuite) TestJoinOwnRoomFails() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	_, err := s.controller.JoinRoom(s.ctx, s.alice, created.ID)
	s.ErrorIs(err, model.ErrAlreadyInRoom)
	s.Equal(model.RoomStateWaiting, s.room(created.ID).State)
}

func (s *ControllerSuite) TestJoinFailsWhenSeatedElsewhere() {
	_, _ = s.controller.CreateRoom(s.ctx, s.bob)
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	_, err := s.controller.JoinRoom(s.ctx, s.bob, created.ID)
	s.ErrorIs(err, model.ErrAlreadyInRoom)
}

func (s *ControllerSuite) TestJoinUnknownRoomFails() {
	_, err := s.controller.JoinRoom(s.ctx, s.bob, 42)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// SubmitPlacement tests

func (s *ControllerSuite) TestPlacementAllowedWhileWaiting() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	room, err := s.controller.SubmitPlacement(s.ctx, s.alice, created.ID, fixtures.CornerFleet())
	s.Require().NoError(err)

	s.Equal(model.RoomStateWaiting, room.State)
	s.True(room.Board(s.alice).Ready)
	s.Empty(s.recorder.OfType(model.EventBoardsReady))
}

func (s *ControllerSuite) TestPlacementStartsMatchWhenBothReady() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	_, _ = s.controller.JoinRoom(s.ctx, s.bob, created.ID)

	bobFleet := fixtures.CornerFleet()
	bobFleet[0].Position = model.Position{X: 9, Y: 9}

	room, err := s.controller.SubmitPlacement(s.ctx, s.bob, created.ID, bobFleet)
	s.Require().NoError(err)
	s.Equal(model.RoomStatePlacing, room.State)

	room, err = s.controller.SubmitPlacement(s.ctx, s.alice, created.ID, fixtures.CornerFleet())
	s.Require().NoError(err)
	s.Equal(model.RoomStateInProgress, room.State)
	s.Equal(s.alice, room.Turn)

	// Each player is sent only their own layout
	events := s.recorder.OfType(model.EventBoardsReady)
	s.Require().Len(events, 2)
	for _, e := range events {
		s.Require().Len(e.Recipients, 1)
		payload := e.Payload.(model.BoardsReadyPayload)
		s.Equal(s.alice, payload.CurrentTurn)
		if e.Recipients[0] == s.bob {
			s.Equal(bobFleet, payload.Ships)
		} else {
			s.Equal(fixtures.CornerFleet(), payload.Ships)
		}
	}
}

func (s *ControllerSuite) TestPlacementRejectsResubmission() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	_, err := s.controller.SubmitPlacement(s.ctx, s.alice, created.ID, fixtures.CornerFleet())
	s.Require().NoError(err)

	_, err = s.controller.SubmitPlacement(s.ctx, s.alice, created.ID, fixtures.CornerFleet())
	s.ErrorIs(err, model.ErrBoardAlreadyReady)
}

func (s *ControllerSuite) TestPlacementRejectsInvalidFleetWithoutChange() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	fleet := fixtures.CornerFleet()
	fleet[1].Position = model.Position{X: 0, Y: 0} // huge over the small ship

	_, err := s.controller.SubmitPlacement(s.ctx, s.alice, created.ID, fleet)
	s.ErrorIs(err, model.ErrOverlap)
	s.Equal(model.KindValidation, model.KindOf(err))

	board := s.room(created.ID).Board(s.alice)
	s.False(board.Ready)
	s.Empty(board.Ships)
}

func (s *ControllerSuite) TestPlacementByNonMemberFails() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	_, err := s.controller.SubmitPlacement(s.ctx, s.bob, created.ID, fixtures.CornerFleet())
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestPlacementClosedOnceStarted() {
	roomID := s.startMatch(s.alice, s.bob)

	_, err := s.controller.SubmitPlacement(s.ctx, s.alice, roomID, fixtures.CornerFleet())
	s.ErrorIs(err, model.ErrPlacementClosed)
}

// SubmitShot tests

func (s *ControllerSuite) TestShotBeforeStartFails() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	_, _ = s.controller.JoinRoom(s.ctx, s.bob, created.ID)

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{PlayerID: s.alice, RoomID: created.ID})
	s.ErrorIs(err, model.ErrMatchNotInProgress)
}

func (s *ControllerSuite) TestShotOutOfTurnFails() {
	roomID := s.startMatch(s.alice, s.bob)

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: s.bob,
		RoomID:   roomID,
		Target:   model.Position{X: 0, Y: 0},
	})
	s.ErrorIs(err, model.ErrNotYourTurn)

	room := s.room(roomID)
	s.Equal(s.alice, room.Turn)
	s.False(room.Board(s.alice).IsBlocked(model.Position{X: 0, Y: 0}))
	s.Empty(s.recorder.Events())
}

func (s *ControllerSuite) TestShotByNonMemberFails() {
	roomID := s.startMatch(s.alice, s.bob)

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{PlayerID: s.carol, RoomID: roomID})
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestShotOutsideGridFails() {
	roomID := s.startMatch(s.alice, s.bob)

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: s.alice,
		RoomID:   roomID,
		Target:   model.Position{X: 10, Y: 0},
	})
	s.ErrorIs(err, model.ErrInvalidTarget)
	s.Equal(s.alice, s.room(roomID).Turn)
}

func (s *ControllerSuite) TestMissFlipsTurn() {
	roomID := s.startMatch(s.alice, s.bob)
	water := fixtures.WaterCells(1)[0]

	outcome := s.shoot(s.alice, roomID, water)

	s.Equal(model.ShotMiss, outcome.Result.Status)
	s.Equal(s.bob, outcome.NextTurn)
	s.False(outcome.Finished())

	room := s.room(roomID)
	s.Equal(s.bob, room.Turn)
	s.True(room.Board(s.bob).IsBlocked(water))
	s.False(room.Board(s.alice).IsBlocked(water))

	results := s.recorder.OfType(model.EventShotResult)
	s.Require().Len(results, 1)
	s.Equal([]model.PlayerID{s.alice, s.bob}, results[0].Recipients)
	payload := results[0].Payload.(model.ShotResultPayload)
	s.Equal(s.alice, payload.Shooter)
	s.Equal(model.ShotMiss, payload.Status)
	s.Equal(s.bob, payload.Turn)
	s.Equal([]model.CellUpdate{{Position: water, Status: model.ShotMiss}}, payload.Cells)

	turns := s.recorder.OfType(model.EventTurn)
	s.Require().Len(turns, 1)
	s.Equal(model.TurnPayload{CurrentTurn: s.bob}, turns[0].Payload)
}

func (s *ControllerSuite) TestHitKeepsTurn() {
	roomID := s.startMatch(s.alice, s.bob)

	// Second cell of the huge ship
	outcome := s.shoot(s.alice, roomID, model.Position{X: 1, Y: 2})

	s.Equal(model.ShotHit, outcome.Result.Status)
	s.Equal(s.alice, outcome.NextTurn)
	s.Equal(s.alice, s.room(roomID).Turn)
}

func (s *ControllerSuite) TestSingleCellKillAtCorner() {
	roomID := s.startMatch(s.alice, s.bob)

	outcome := s.shoot(s.alice, roomID, model.Position{X: 0, Y: 0})

	s.Equal(model.ShotKill, outcome.Result.Status)
	s.Equal(s.alice, outcome.NextTurn)

	board := s.room(roomID).Board(s.bob)
	s.Equal(1, board.Destroyed)
	for _, p := range []model.Position{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		s.True(board.IsBlocked(p), "expected %v blocked", p)
	}
	s.Len(board.UnblockedCells(), model.GridSize*model.GridSize-4)
}

func (s *ControllerSuite) TestTenAlternatingMissesAlternateTurn() {
	roomID := s.startMatch(s.alice, s.bob)
	water := fixtures.WaterCells(5)

	shooter, other := s.alice, s.bob
	for i := 0; i < 10; i++ {
		outcome := s.shoot(shooter, roomID, water[i/2])
		s.Equal(model.ShotMiss, outcome.Result.Status)
		s.Equal(other, outcome.NextTurn)
		shooter, other = other, shooter
	}

	s.Equal(s.alice, s.room(roomID).Turn)
	s.Len(s.recorder.OfType(model.EventTurn), 10)
}

func (s *ControllerSuite) TestMissThenRepeatFlipsOnce() {
	roomID := s.startMatch(s.alice, s.bob)
	water := fixtures.WaterCells(1)[0]

	s.shoot(s.alice, roomID, water)
	s.shoot(s.bob, roomID, water)
	s.recorder.Reset()

	outcome := s.shoot(s.alice, roomID, water)

	s.Equal(model.ShotRepeated, outcome.Result.Status)
	s.Empty(outcome.Result.Cells)
	s.Equal(s.alice, outcome.NextTurn)
	s.Equal(s.alice, s.room(roomID).Turn)
	s.Empty(s.recorder.Events())
}

func (s *ControllerSuite) TestBotShotIgnoresTurn() {
	roomID := s.startMatch(s.alice, s.bob)

	outcome, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
		PlayerID: s.bob,
		RoomID:   roomID,
		Target:   fixtures.WaterCells(1)[0],
		IsBot:    true,
	})
	s.Require().NoError(err)

	s.Equal(model.ShotMiss, outcome.Result.Status)
	s.Equal(s.alice, outcome.NextTurn)
}

func (s *ControllerSuite) TestSinkingFleetFinishesMatch() {
	roomID := s.startMatch(s.alice, s.bob)
	cells := fixtures.FleetCells(fixtures.CornerFleet())

	var outcome model.ShotOutcome
	for i, c := range cells {
		outcome = s.shoot(s.alice, roomID, c)
		if i < len(cells)-1 {
			s.False(outcome.Finished())
		}
	}

	s.True(outcome.Finished())
	s.Equal(model.ShotKill, outcome.Result.Status)
	s.Equal(s.alice, outcome.Winner)
	s.Equal(model.PlayerID(0), outcome.NextTurn)

	_, err := s.controller.GetRoom(s.ctx, roomID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal(1, s.wins(s.alice))
	s.Equal(0, s.wins(s.bob))

	over := s.recorder.OfType(model.EventMatchOver)
	s.Require().Len(over, 1)
	s.Equal(model.MatchOverPayload{Winner: s.alice}, over[0].Payload)
	s.Equal([]model.PlayerID{s.alice, s.bob}, over[0].Recipients)

	results := s.recorder.OfType(model.EventShotResult)
	s.Equal(model.PlayerID(0), results[len(results)-1].Payload.(model.ShotResultPayload).Turn)

	// The finishing shot emits no turn event
	s.Len(s.recorder.OfType(model.EventTurn), len(cells)-1)

	updates := s.recorder.OfType(model.EventLobbyUpdate)
	s.Require().NotEmpty(updates)
	winners := updates[len(updates)-1].Payload.(model.LobbyUpdatePayload).Snapshot.Winners
	s.Equal("alice", winners[0].Name)
	s.Equal(1, winners[0].Wins)

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.MatchesFinished.WithLabelValues("sunk")))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.ActiveRooms))
	s.Equal(float64(10), testutil.ToFloat64(s.metrics.ShotsFired.WithLabelValues("kill")))
}

// failingDeleteStorage refuses to delete rooms while err is set
type failingDeleteStorage struct {
	*memory.Storage
	err error
}

func (st *failingDeleteStorage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	if st.err != nil {
		return st.err
	}
	return st.Storage.DeleteRoom(ctx, id)
}

func (s *ControllerSuite) TestWinningShotNotAnnouncedUntilCommitted() {
	roomID := s.startMatch(s.alice, s.bob)
	cells := fixtures.FleetCells(fixtures.CornerFleet())
	last := cells[len(cells)-1]
	for _, c := range cells[:len(cells)-1] {
		s.shoot(s.alice, roomID, c)
	}
	s.recorder.Reset()

	store := &failingDeleteStorage{Storage: s.storage, err: errors.New("backend unavailable")}
	logger := fixtures.NopLogger()
	s.controller = NewController(
		store,
		board.New(s.random, logger),
		s.recorder,
		lobby.New(store, s.recorder, s.clock, logger),
		s.metrics,
		s.clock,
		logger,
	)

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{PlayerID: s.alice, RoomID: roomID, Target: last})
	s.Require().ErrorIs(err, store.err)

	s.Empty(s.recorder.Events())
	stored := s.room(roomID)
	s.Equal(model.RoomStateInProgress, stored.State)
	s.Equal(model.FleetSize-1, stored.Board(s.bob).Destroyed)
	s.False(stored.Board(s.bob).IsBlocked(last))
	s.Equal(0, s.wins(s.alice))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.MatchesFinished.WithLabelValues("sunk")))

	// Once storage recovers the same shot wins
	store.err = nil
	outcome := s.shoot(s.alice, roomID, last)
	s.Equal(s.alice, outcome.Winner)
	s.Equal(1, s.wins(s.alice))

	events := s.recorder.Events()
	s.Require().Len(events, 3)
	s.Equal(model.EventShotResult, events[0].Type)
	s.Equal(model.EventMatchOver, events[1].Type)
	s.Equal(model.EventLobbyUpdate, events[2].Type)
}

func (s *ControllerSuite) TestForfeitNotAnnouncedWhenDeleteFails() {
	roomID := s.startMatch(s.alice, s.bob)

	store := &failingDeleteStorage{Storage: s.storage, err: errors.New("backend unavailable")}
	logger := fixtures.NopLogger()
	s.controller = NewController(store, board.New(s.random, logger), s.recorder,
		lobby.New(store, s.recorder, s.clock, logger), s.metrics, s.clock, logger)

	s.Require().Error(s.controller.LeaveRoom(s.ctx, s.bob))

	s.Empty(s.recorder.OfType(model.EventMatchOver))
	s.Equal(model.RoomStateInProgress, s.room(roomID).State)
	s.Equal(0, s.wins(s.alice))
}

func (s *ControllerSuite) TestShotAfterFinishFails() {
	roomID := s.startMatch(s.alice, s.bob)
	for _, c := range fixtures.FleetCells(fixtures.CornerFleet()) {
		s.shoot(s.alice, roomID, c)
	}

	_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{PlayerID: s.alice, RoomID: roomID})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestPlayersCanPlayAgainAfterFinish() {
	roomID := s.startMatch(s.alice, s.bob)
	for _, c := range fixtures.FleetCells(fixtures.CornerFleet()) {
		s.shoot(s.alice, roomID, c)
	}

	again := s.startMatch(s.bob, s.alice)
	s.NotEqual(roomID, again)
}

func (s *ControllerSuite) TestConcurrentShotsResolveOnce() {
	roomID := s.startMatch(s.alice, s.bob)
	water := fixtures.WaterCells(1)[0]

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
				PlayerID: s.alice,
				RoomID:   roomID,
				Target:   water,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrNotYourTurn)
	}
	s.Equal(1, succeeded)
	s.Len(s.recorder.OfType(model.EventShotResult), 1)
	s.Equal(0, s.controller.roomLocks.size())
}

// RandomShot tests

func (s *ControllerSuite) TestRandomShotPicksUnblockedCell() {
	roomID := s.startMatch(s.alice, s.bob)

	// Unprimed random picks the first unblocked cell: the small ship at (0,0)
	outcome, err := s.controller.RandomShot(s.ctx, s.alice, roomID, false)
	s.Require().NoError(err)
	s.Equal(model.Position{X: 0, Y: 0}, outcome.Result.Target)
	s.Equal(model.ShotKill, outcome.Result.Status)

	// (1,0) and (0,1) are now blocked, so index 0 is (2,0)
	outcome, err = s.controller.RandomShot(s.ctx, s.alice, roomID, false)
	s.Require().NoError(err)
	s.Equal(model.Position{X: 2, Y: 0}, outcome.Result.Target)
	s.Equal(model.ShotMiss, outcome.Result.Status)
}

func (s *ControllerSuite) TestRandomShotUsesQueuedIndex() {
	roomID := s.startMatch(s.alice, s.bob)
	s.random.QueueIntn(model.GridSize*model.GridSize - 1)

	outcome, err := s.controller.RandomShot(s.ctx, s.alice, roomID, false)
	s.Require().NoError(err)
	s.Equal(model.Position{X: 9, Y: 9}, outcome.Result.Target)
}

func (s *ControllerSuite) TestRandomShotRespectsTurn() {
	roomID := s.startMatch(s.alice, s.bob)

	_, err := s.controller.RandomShot(s.ctx, s.bob, roomID, false)
	s.ErrorIs(err, model.ErrNotYourTurn)
}

// LeaveRoom tests

func (s *ControllerSuite) TestLeaveWaitingRoomDeletesIt() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	s.recorder.Reset()

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, s.alice))

	_, err := s.controller.GetRoom(s.ctx, created.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Empty(s.recorder.OfType(model.EventMatchOver))
	s.Len(s.recorder.OfType(model.EventLobbyUpdate), 1)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.ActiveRooms))
}

func (s *ControllerSuite) TestLeaveStartedMatchForfeits() {
	roomID := s.startMatch(s.alice, s.bob)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, s.alice))

	_, err := s.controller.GetRoom(s.ctx, roomID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal(1, s.wins(s.bob))
	s.Equal(0, s.wins(s.alice))

	over := s.recorder.OfType(model.EventMatchOver)
	s.Require().Len(over, 1)
	s.Equal(model.MatchOverPayload{Winner: s.bob, Forfeit: true}, over[0].Payload)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.MatchesFinished.WithLabelValues("forfeit")))
}

func (s *ControllerSuite) TestLeaveDuringPlacementForfeits() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	_, _ = s.controller.JoinRoom(s.ctx, s.bob, created.ID)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, s.bob))

	s.Equal(1, s.wins(s.alice))
	_, err := s.controller.RoomForPlayer(s.ctx, s.alice)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestLeaveWithoutRoomIsNoop() {
	s.NoError(s.controller.LeaveRoom(s.ctx, s.alice))
	s.Empty(s.recorder.Events())
}

func (s *ControllerSuite) TestLeaveAndRemoveForfeitsThenRemoves() {
	roomID := s.startMatch(s.alice, s.bob)

	var seatedDuringRemove bool
	err := s.controller.LeaveAndRemove(s.ctx, s.bob, func(ctx context.Context) error {
		_, err := s.storage.GetRoom(ctx, roomID)
		seatedDuringRemove = err == nil
		return s.storage.DeletePlayer(ctx, s.bob)
	})
	s.Require().NoError(err)

	s.False(seatedDuringRemove)
	s.Equal(1, s.wins(s.alice))
	_, err = s.storage.GetPlayer(s.ctx, s.bob)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestLeaveAndRemoveBlocksNewSeats() {
	created := make(chan error, 1)
	err := s.controller.LeaveAndRemove(s.ctx, s.alice, func(ctx context.Context) error {
		go func() {
			_, err := s.controller.CreateRoom(s.ctx, s.alice)
			created <- err
		}()
		// CreateRoom must wait for the seat lock rather than slip in before removal
		select {
		case err := <-created:
			s.Fail("room created while the player was being removed")
			created <- err
		case <-time.After(50 * time.Millisecond):
		}
		return s.storage.DeletePlayer(ctx, s.alice)
	})
	s.Require().NoError(err)

	s.ErrorIs(<-created, model.ErrPlayerNotFound)
	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *ControllerSuite) TestLeaveAndRemoveReportsRemoveError() {
	boom := errors.New("boom")
	err := s.controller.LeaveAndRemove(s.ctx, s.alice, func(context.Context) error { return boom })
	s.ErrorIs(err, boom)
}

// Bot seats

func (s *ControllerSuite) TestBotRemovedWhenHumanWins() {
	bot := s.createPlayer("Bot-4", true)
	roomID := s.startMatch(s.alice, bot)

	for _, c := range fixtures.FleetCells(fixtures.CornerFleet()) {
		s.shoot(s.alice, roomID, c)
	}

	s.Equal(1, s.wins(s.alice))
	_, err := s.storage.GetPlayer(s.ctx, bot)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestBotWinIsNotRecorded() {
	bot := s.createPlayer("Bot-4", true)
	roomID := s.startMatch(s.alice, bot)

	for _, c := range fixtures.FleetCells(fixtures.CornerFleet()) {
		_, err := s.controller.SubmitShot(s.ctx, model.ShotRequest{
			PlayerID: bot,
			RoomID:   roomID,
			Target:   c,
			IsBot:    true,
		})
		s.Require().NoError(err)
	}

	s.Equal(0, s.wins(s.alice))
	_, err := s.storage.GetPlayer(s.ctx, bot)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	over := s.recorder.OfType(model.EventMatchOver)
	s.Require().Len(over, 1)
	s.Equal(bot, over[0].Payload.(model.MatchOverPayload).Winner)
}

// Read helpers

func (s *ControllerSuite) TestRoomForPlayer() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)

	room, err := s.controller.RoomForPlayer(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal(created.ID, room.ID)

	_, err = s.controller.RoomForPlayer(s.ctx, s.bob)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestListRooms() {
	first, _ := s.controller.CreateRoom(s.ctx, s.alice)
	second, _ := s.controller.CreateRoom(s.ctx, s.bob)

	rooms, err := s.controller.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(first.ID, rooms[0].ID)
	s.Equal(second.ID, rooms[1].ID)
}

func (s *ControllerSuite) TestReturnedRoomDoesNotAliasStorage() {
	created, _ := s.controller.CreateRoom(s.ctx, s.alice)
	created.State = model.RoomStateFinished
	created.Boards[0].Block(model.Position{X: 3, Y: 3})

	stored := s.room(created.ID)
	s.Equal(model.RoomStateWaiting, stored.State)
	s.False(stored.Boards[0].IsBlocked(model.Position{X: 3, Y: 3}))
}
