package lobby

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/storage"
)

// Service builds the shared lobby view: the winners table and the rooms open for joining
type Service struct {
	storage   storage.Storage
	publisher notify.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new lobby Service
func New(storage storage.Storage, publisher notify.Publisher, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With(slog.String("component", "lobby")),
	}
}

// Snapshot returns the current winners table and open rooms.
// Winners are ordered by wins descending, then id; bots never appear.
// Only rooms still waiting for a second player are listed.
func (s *Service) Snapshot(ctx context.Context) (model.LobbySnapshot, error) {
	// One read so winners and rooms describe the same moment
	players, rooms, err := s.storage.ReadAll(ctx)
	if err != nil {
		return model.LobbySnapshot{}, err
	}

	snapshot := model.LobbySnapshot{
		Winners: []model.WinnerEntry{},
		Rooms:   []model.OpenRoom{},
	}

	for _, p := range players {
		if p.IsBot {
			continue
		}
		snapshot.Winners = append(snapshot.Winners, model.WinnerEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Wins:     p.Wins,
		})
	}
	sort.SliceStable(snapshot.Winners, func(i, j int) bool {
		if snapshot.Winners[i].Wins != snapshot.Winners[j].Wins {
			return snapshot.Winners[i].Wins > snapshot.Winners[j].Wins
		}
		return snapshot.Winners[i].PlayerID < snapshot.Winners[j].PlayerID
	})

	for _, r := range rooms {
		if r.State != model.RoomStateWaiting {
			continue
		}
		snapshot.Rooms = append(snapshot.Rooms, model.OpenRoom{
			RoomID:  r.ID,
			Members: append([]model.RoomMember(nil), r.Members...),
		})
	}

	return snapshot, nil
}

// PublishUpdate broadcasts a fresh snapshot to every connected player
func (s *Service) PublishUpdate(ctx context.Context) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error("failed to build lobby snapshot", slog.String("error", err.Error()))
		return
	}
	s.publisher.Publish(model.Event{
		Type:      model.EventLobbyUpdate,
		Timestamp: s.clock.Now(),
		Payload:   model.LobbyUpdatePayload{Snapshot: snapshot},
	})
}

// Interface for dependency injection
type ServiceInterface interface {
	Snapshot(ctx context.Context) (model.LobbySnapshot, error)
	PublishUpdate(ctx context.Context)
}

var _ ServiceInterface = (*Service)(nil)
