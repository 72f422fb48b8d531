package models

import (
	"fmt"
	"time"
)

const MaxTeamSize = 4

type Team struct {
	ID   string `gorm:"type:uuid;primaryKey"`
	Name string `gorm:"uniqueIndex"`

	// Password is empty for open teams.
	Password string

	Members []int64 `gorm:"type:jsonb;serializer:json"`

	IsParticipant  bool
	TestTaskPassed bool

	// Version guards concurrent membership updates: every conditional
	// update matches on it and bumps it.
	Version int64

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (t *Team) IsFull() bool {
	return len(t.Members) >= MaxTeamSize
}

func (t *Team) HasMember(userID int64) bool {
	for _, id := range t.Members {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(%s, %q, %d/%d)", t.ID, t.Name, len(t.Members), MaxTeamSize)
}
