package model

import "time"

// Event is a named calendar date tracked inside a chat. Date keeps the ISO
// YYYY-MM-DD form so that ordering by the column is chronological.
type Event struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    string `gorm:"uniqueIndex:idx_chat_event_name,priority:1"`
	Name      string `gorm:"uniqueIndex:idx_chat_event_name,priority:2"`
	Date      string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
