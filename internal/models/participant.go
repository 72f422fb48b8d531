package models

import "time"

type Participant struct {
	UserID int64 `gorm:"primaryKey"`

	Name       string
	Age        int
	University string
	Specialty  string
	Course     string
	Source     string
	Phone      string

	DataConsent bool

	// TeamID is nil while the participant has no team. Only the team
	// service is allowed to write it.
	TeamID *string `gorm:"type:uuid;index"`

	// ChatID is the Telegram chat used to reach the participant.
	ChatID int64

	RegisteredAt time.Time `gorm:"autoCreateTime"`
}

func (p *Participant) HasTeam() bool {
	return p.TeamID != nil
}
