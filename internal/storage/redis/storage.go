package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) NextPlayerID(ctx context.Context) (model.PlayerID, error) {
	id, err := s.client.Incr(ctx, playerSeqKey()).Result()
	if err != nil {
		return 0, err
	}
	return model.PlayerID(id), nil
}

func (s *Storage) NextRoomID(ctx context.Context) (model.RoomID, error) {
	id, err := s.client.Incr(ctx, roomSeqKey()).Result()
	if err != nil {
		return 0, err
	}
	return model.RoomID(id), nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Bots are throwaway; only they expire
	var ttl time.Duration
	if player.IsBot {
		ttl = s.cfg.PlayerTTL
	}

	key := playerKey(player.ID)

	// Drop a stale name index entry if the player was renamed
	previous, err := s.GetPlayer(ctx, player.ID)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	if previous != nil && previous.Name != player.Name {
		pipe.Del(ctx, playerNameIndexKey(previous.Name))
	}
	pipe.Set(ctx, key, data, ttl)
	pipe.Set(ctx, playerNameIndexKey(player.Name), int64(player.ID), ttl)
	pipe.SAdd(ctx, playersIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	id, err := s.client.Get(ctx, playerNameIndexKey(name)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(id))
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	var players []*model.Player
	err := s.loadIndexed(ctx, playersIndexKey(), func(data []byte) error {
		var p model.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		players = append(players, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	key := playerKey(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key, playerNameIndexKey(player.Name))
	pipe.SRem(ctx, playersIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	key := roomKey(room.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomsIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	var rooms []*model.Room
	err := s.loadIndexed(ctx, roomsIndexKey(), func(data []byte) error {
		var r model.Room
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rooms = append(rooms, &r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	key := roomKey(id)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, roomsIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// readAllScript loads the values behind each index SET in KEYS inside one script
// run, which Redis executes atomically. Expired entries come back as nil.
var readAllScript = redis.NewScript(`
local out = {}
for i, index in ipairs(KEYS) do
	local keys = redis.call('SMEMBERS', index)
	if #keys == 0 then
		out[i] = {}
	else
		out[i] = redis.call('MGET', unpack(keys))
	end
end
return out
`)

func (s *Storage) ReadAll(ctx context.Context) ([]*model.Player, []*model.Room, error) {
	res, err := readAllScript.Run(ctx, s.client, []string{playersIndexKey(), roomsIndexKey()}).Slice()
	if err != nil {
		return nil, nil, err
	}
	if len(res) != 2 {
		return nil, nil, fmt.Errorf("read all: unexpected reply of %d sets", len(res))
	}

	var players []*model.Player
	err = decodeValues(res[0], func(data []byte) error {
		var p model.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		players = append(players, &p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var rooms []*model.Room
	err = decodeValues(res[1], func(data []byte) error {
		var r model.Room
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rooms = append(rooms, &r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return players, rooms, nil
}

// decodeValues feeds each non-nil string of a script reply array to decode
func decodeValues(reply interface{}, decode func([]byte) error) error {
	values, _ := reply.([]interface{})
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		if err := decode([]byte(str)); err != nil {
			return err
		}
	}
	return nil
}

// loadIndexed fetches every value referenced by an index SET with one MGET.
// Entries that have expired are pruned from the index.
func (s *Storage) loadIndexed(ctx context.Context, indexKey string, decode func([]byte) error) error {
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}

	var expired []interface{}
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			expired = append(expired, keys[i])
			continue
		}
		if err := decode([]byte(str)); err != nil {
			return err
		}
	}

	if len(expired) > 0 {
		return s.client.SRem(ctx, indexKey, expired...).Err()
	}
	return nil
}
