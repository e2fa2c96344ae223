package storage

import (
	"context"

	"github.com/mcoot/seabattle/internal/model"
)

// Storage defines the interface for data persistence.
// Implementations hand out copies: mutating a returned value never affects stored state.
type Storage interface {
	// Identifier allocation, monotonic and never reused
	NextPlayerID(ctx context.Context) (model.PlayerID, error)
	NextRoomID(ctx context.Context) (model.RoomID, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// ReadAll returns every player and every room as of a single instant
	ReadAll(ctx context.Context) ([]*model.Player, []*model.Room, error)
}
