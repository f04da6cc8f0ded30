package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"countdown-bot/internal/model"
)

// DefaultLanguage is assigned to chats on first contact.
const DefaultLanguage = "en"

// ChatRepository manages per-chat settings. Every chat is created lazily with
// defaults on first reference and is never deleted.
type ChatRepository struct {
	db                  *gorm.DB
	defaultReminderTime string
}

func NewChatRepository(db *gorm.DB, defaultReminderTime string) *ChatRepository {
	return &ChatRepository{db: db, defaultReminderTime: defaultReminderTime}
}

func (r *ChatRepository) defaults(chatID string) model.Chat {
	return model.Chat{
		ChatID:          chatID,
		Language:        DefaultLanguage,
		ReminderTime:    r.defaultReminderTime,
		ReminderEnabled: false,
	}
}

// ensure inserts the default row unless one already exists.
func (r *ChatRepository) ensure(tx *gorm.DB, chatID string) error {
	chat := r.defaults(chatID)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error; err != nil {
		return errors.Wrapf(err, "ensure chat %s", chatID)
	}
	return nil
}

// Ensure creates the chat with defaults if it does not exist yet.
func (r *ChatRepository) Ensure(ctx context.Context, chatID string) error {
	return r.ensure(r.db.WithContext(ctx), chatID)
}

// Get returns the stored chat or, when absent, an unsaved default one.
func (r *ChatRepository) Get(ctx context.Context, chatID string) (model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&chat).Error
	switch {
	case err == nil:
		return chat, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.defaults(chatID), nil
	default:
		return model.Chat{}, errors.Wrapf(err, "find chat %s", chatID)
	}
}

func (r *ChatRepository) SetLanguage(ctx context.Context, chatID, lang string) error {
	return r.update(ctx, chatID, "language", lang)
}

func (r *ChatRepository) SetReminderTime(ctx context.Context, chatID, clock string) error {
	return r.update(ctx, chatID, "reminder_time", clock)
}

func (r *ChatRepository) SetReminderEnabled(ctx context.Context, chatID string, enabled bool) error {
	return r.update(ctx, chatID, "reminder_enabled", enabled)
}

// ToggleReminder flips the reminder flag in one transaction and returns the new value.
func (r *ChatRepository) ToggleReminder(ctx context.Context, chatID string) (bool, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, chatID); err != nil {
			return err
		}
		if err := tx.Model(&model.Chat{}).Where("chat_id = ?", chatID).
			Update("reminder_enabled", gorm.Expr("NOT reminder_enabled")).Error; err != nil {
			return errors.Wrapf(err, "toggle reminder for chat %s", chatID)
		}
		return tx.Where("chat_id = ?", chatID).First(&chat).Error
	})
	if err != nil {
		return false, err
	}
	return chat.ReminderEnabled, nil
}

// ListReminderEnabled returns a snapshot of all chats with reminders switched on.
func (r *ChatRepository) ListReminderEnabled(ctx context.Context) ([]model.Chat, error) {
	var chats []model.Chat
	if err := r.db.WithContext(ctx).
		Select("chat_id", "language", "reminder_time", "reminder_enabled").
		Where("reminder_enabled = ?", true).
		Order("chat_id ASC").
		Find(&chats).Error; err != nil {
		return nil, errors.Wrap(err, "list reminder chats")
	}
	return chats, nil
}

func (r *ChatRepository) update(ctx context.Context, chatID, column string, value interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, chatID); err != nil {
			return err
		}
		if err := tx.Model(&model.Chat{}).Where("chat_id = ?", chatID).Update(column, value).Error; err != nil {
			return errors.Wrapf(err, "update %s for chat %s", column, chatID)
		}
		return nil
	})
}
