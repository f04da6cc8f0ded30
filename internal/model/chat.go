package model

import "time"

// Chat stores per-conversation reminder settings.
type Chat struct {
	ChatID          string `gorm:"primaryKey"`
	Language        string
	ReminderTime    string
	ReminderEnabled bool `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Events          []Event `gorm:"foreignKey:ChatID;references:ChatID"`
}
