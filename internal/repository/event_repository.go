package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"countdown-bot/internal/model"
)

// EventRepository handles the events of a chat. Names are unique per chat.
type EventRepository struct {
	db    *gorm.DB
	chats *ChatRepository
}

func NewEventRepository(db *gorm.DB, chats *ChatRepository) *EventRepository {
	return &EventRepository{db: db, chats: chats}
}

// Upsert stores the event, overwriting the date of an existing event with the same name.
func (r *EventRepository) Upsert(ctx context.Context, chatID, name, date string) (*model.Event, error) {
	event := model.Event{ChatID: chatID, Name: strings.TrimSpace(name), Date: strings.TrimSpace(date)}
	if event.Name == "" {
		return nil, errors.New("event name is empty")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.chats.ensure(tx, chatID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"date", "updated_at"}),
		}).Create(&event).Error
	})
	if err != nil {
		return nil, errors.Wrapf(err, "upsert event %q for chat %s", event.Name, chatID)
	}
	return &event, nil
}

// Delete removes events whose name matches case-insensitively and reports how many were removed.
func (r *EventRepository) Delete(ctx context.Context, chatID, name string) (int64, error) {
	name = strings.TrimSpace(name)
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []model.Event
		if err := tx.Select("id", "name").Where("chat_id = ?", chatID).Find(&events).Error; err != nil {
			return err
		}
		var ids []uint
		for _, event := range events {
			if strings.EqualFold(event.Name, name) {
				ids = append(ids, event.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		res := tx.Where("chat_id = ? AND id IN ?", chatID, ids).Delete(&model.Event{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, errors.Wrapf(err, "delete event %q for chat %s", name, chatID)
	}
	return removed, nil
}

// ListByChat returns the chat's events in chronological order.
func (r *EventRepository) ListByChat(ctx context.Context, chatID string) ([]model.Event, error) {
	events := make([]model.Event, 0)
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("date ASC, name ASC").
		Find(&events).Error; err != nil {
		return nil, errors.Wrapf(err, "list events for chat %s", chatID)
	}
	return events, nil
}
