package model

import "time"

// PlayerID uniquely identifies a player across the process lifetime.
// Ids are allocated from a monotonic counter and never reused.
type PlayerID int64

// Player represents a registered participant
type Player struct {
	ID           PlayerID
	Name         string
	PasswordHash string // bcrypt hash
	Wins         int
	IsBot        bool
	BotStrategy  string
	CreatedAt    time.Time
}

// Clone returns a copy of the player
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// BotStrategyRandom fires at uniformly random unblocked cells
const BotStrategyRandom = "random"

// BotName is the display name given to bot opponents
const BotName = "Bot"
