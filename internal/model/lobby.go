package model

// WinnerEntry is one row of the winners table
type WinnerEntry struct {
	PlayerID PlayerID `json:"player_id"`
	Name     string   `json:"name"`
	Wins     int      `json:"wins"`
}

// OpenRoom is one row of the open rooms table
type OpenRoom struct {
	RoomID  RoomID       `json:"room_id"`
	Members []RoomMember `json:"members"`
}

// LobbySnapshot is the shared view every connected player sees outside a match
type LobbySnapshot struct {
	Winners []WinnerEntry `json:"winners"`
	Rooms   []OpenRoom    `json:"rooms"`
}
