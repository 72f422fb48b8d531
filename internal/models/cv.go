package models

import "time"

// CV keeps the latest uploaded resume per participant. A new upload
// overwrites the previous one, no history is kept.
type CV struct {
	UserID int64 `gorm:"primaryKey"`

	FileID   string
	FileName string

	UploadedAt time.Time `gorm:"autoUpdateTime"`
}
