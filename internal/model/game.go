package model

// ShotStatus is the outcome reported for a shot, and for each affected cell
type ShotStatus string

const (
	ShotMiss     ShotStatus = "miss"     // Water
	ShotHit      ShotStatus = "hit"      // Ship damaged, still afloat
	ShotKill     ShotStatus = "kill"     // Ship sunk by this shot
	ShotRepeated ShotStatus = "repeated" // Target already blocked, nothing changed
)

// CellUpdate reports the new status of one cell after a shot
type CellUpdate struct {
	Position Position   `json:"position"`
	Status   ShotStatus `json:"status"`
}

// ShotResult is the full outcome of resolving a shot against a board
type ShotResult struct {
	Status ShotStatus   `json:"status"`
	Target Position     `json:"target"`
	Cells  []CellUpdate `json:"cells"` // Empty for repeated shots
}

// ShotRequest is a shot submitted on behalf of a player
type ShotRequest struct {
	PlayerID PlayerID
	RoomID   RoomID
	Target   Position
	// IsBot marks shots issued by the bot service for its own seat.
	// Never populated from client input.
	IsBot bool
}

// ShotOutcome is what the match controller reports back after a shot
type ShotOutcome struct {
	Result   ShotResult
	NextTurn PlayerID // 0 once the match is over
	Winner   PlayerID // 0 while the match continues
}

// Finished returns true if this shot ended the match
func (o ShotOutcome) Finished() bool {
	return o.Winner != 0
}
