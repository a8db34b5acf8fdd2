package models

import (
	"time"
)

// UserProgress is the cup counter row for one chat user (lazily created)
type UserProgress struct {
	ID string `gorm:"primaryKey;type:varchar(32)" json:"id"` // chat platform user id

	// Core counters
	Cups        int64 `json:"cups" gorm:"not null;default:0;check:cups >= 0"`
	Legendaries int64 `json:"legendaries" gorm:"not null;default:0;check:legendaries >= 0"`

	// Written only on prestige; the role-derived rank is what gameplay reads
	Prestige int `json:"prestige" gorm:"not null;default:0"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
