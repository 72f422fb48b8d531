package models

import "time"

// EventStateID is the fixed key of the singleton event state row.
const EventStateID = "ctf-2025"

type EventState struct {
	ID    string `gorm:"primaryKey"`
	Phase string

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
