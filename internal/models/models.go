package models

import (
	"time"
)

// GameRecord is one finished game
type GameRecord struct {
	ID         int       `db:"id" json:"id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	Rounds     int       `db:"rounds" json:"rounds"`
	Winner     string    `db:"winner" json:"winner"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Standings []GameStanding `db:"-" json:"standings"`
}

// GameStanding is a player's final placement in a recorded game
type GameStanding struct {
	ID         int    `db:"id" json:"-"`
	RecordID   int    `db:"record_id" json:"-"`
	Rank       int    `db:"rank" json:"rank"`
	PlayerName string `db:"player_name" json:"player_name"`
	Seat       int    `db:"seat" json:"seat"`
	Score      int    `db:"score" json:"score"`
	IsBot      bool   `db:"is_bot" json:"is_bot"`
}
