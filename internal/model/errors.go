package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for callers that map errors to responses
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // Bad input, nothing changed
	KindState      ErrorKind = "state"      // Valid input, wrong moment
	KindNotFound   ErrorKind = "not_found"  // Unknown player or room
)

// Error is a sentinel domain error carrying its kind
type Error struct {
	kind ErrorKind
	msg  string
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the error's classification
func (e *Error) Kind() ErrorKind {
	return e.kind
}

// KindOf returns the kind of the first domain error in err's chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return ""
}

// Common errors used across the application
var (
	// Lookup errors
	ErrPlayerNotFound = newError(KindNotFound, "player not found")
	ErrRoomNotFound   = newError(KindNotFound, "room not found")

	// Registration errors
	ErrNameTaken       = newError(KindState, "name is already taken")
	ErrInvalidName     = newError(KindValidation, "name must not be empty")
	ErrInvalidPassword = newError(KindValidation, "password must not be empty")

	// Room errors
	ErrRoomFull      = newError(KindState, "room is full")
	ErrAlreadyInRoom = newError(KindState, "player is already in a room")
	ErrNotInRoom     = newError(KindState, "player is not in this room")
	ErrNotABot       = newError(KindValidation, "player is not a bot")

	// Placement errors
	ErrPlacementClosed   = newError(KindState, "ships can no longer be placed")
	ErrBoardAlreadyReady = newError(KindState, "ships have already been placed")
	ErrOutOfBounds       = newError(KindValidation, "ship lies outside the grid")
	ErrOverlap           = newError(KindValidation, "ship overlaps another ship")
	ErrAdjacent          = newError(KindValidation, "ship touches another ship")
	ErrInvalidFleet      = newError(KindValidation, "fleet composition is invalid")

	// Shot errors
	ErrMatchNotInProgress = newError(KindState, "match is not in progress")
	ErrNotYourTurn        = newError(KindState, "not this player's turn")
	ErrInvalidTarget      = newError(KindValidation, "target lies outside the grid")
)

// PlacementError reports which ship in a layout was rejected
type PlacementError struct {
	Index int // Position of the ship in the submitted layout
	Ship  ShipSpec
	Err   error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("ship %d (%s at %d,%d): %v", e.Index, e.Ship.Type, e.Ship.Position.X, e.Ship.Position.Y, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}
