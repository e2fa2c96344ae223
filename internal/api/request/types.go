package request

import "github.com/mcoot/seabattle/internal/model"

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// PlaceShipsRequest is the request body for submitting a fleet
type PlaceShipsRequest struct {
	Ships []model.ShipSpec `json:"ships"`
}

// AttackRequest is the request body for firing at a cell
type AttackRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}
