package redis

import (
	"fmt"

	"github.com/mcoot/seabattle/internal/model"
)

// Key prefix for all match data
const keyPrefix = "seabattle"

func playerSeqKey() string {
	return keyPrefix + ":seq:player"
}

func roomSeqKey() string {
	return keyPrefix + ":seq:room"
}

func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// playerNameIndexKey maps a display name to its player id
func playerNameIndexKey(name string) string {
	return fmt.Sprintf("%s:idx:player_name:%s", keyPrefix, name)
}

// playersIndexKey is the SET of all player keys
func playersIndexKey() string {
	return keyPrefix + ":idx:players"
}

func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%d", keyPrefix, id)
}

// roomsIndexKey is the SET of all room keys
func roomsIndexKey() string {
	return keyPrefix + ":idx:rooms"
}
