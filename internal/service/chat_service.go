package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"countdown-bot/internal/config"
	"countdown-bot/internal/countdown"
	"countdown-bot/internal/model"
	"countdown-bot/internal/repository"
)

var (
	// ErrInvalidFormat means the add-event input is not "<name> <YYYY-MM-DD>".
	ErrInvalidFormat = errors.New("invalid event format")
	// ErrInvalidTime means the reminder time is not a valid HH:MM clock.
	ErrInvalidTime = errors.New("invalid reminder time")
)

// ChatService validates user input and applies it to the chat store.
// Validation failures never reach the repositories.
type ChatService struct {
	chats  *repository.ChatRepository
	events *repository.EventRepository
}

func NewChatService(chats *repository.ChatRepository, events *repository.EventRepository) *ChatService {
	return &ChatService{chats: chats, events: events}
}

// Ensure creates the chat with defaults on first contact.
func (s *ChatService) Ensure(ctx context.Context, chatID string) error {
	return s.chats.Ensure(ctx, chatID)
}

// Config returns the persisted settings of the chat, creating them if needed.
func (s *ChatService) Config(ctx context.Context, chatID string) (model.Chat, error) {
	if err := s.chats.Ensure(ctx, chatID); err != nil {
		return model.Chat{}, err
	}
	return s.chats.Get(ctx, chatID)
}

// AddEvent parses "<name> <YYYY-MM-DD>" and upserts the event.
func (s *ChatService) AddEvent(ctx context.Context, chatID, input string) (*model.Event, error) {
	name, date, err := ParseEventInput(input)
	if err != nil {
		return nil, err
	}
	return s.events.Upsert(ctx, chatID, name, date)
}

// DeleteEvent removes the named event (case-insensitive). Zero means nothing matched.
func (s *ChatService) DeleteEvent(ctx context.Context, chatID, name string) (int64, error) {
	if err := s.chats.Ensure(ctx, chatID); err != nil {
		return 0, err
	}
	return s.events.Delete(ctx, chatID, name)
}

func (s *ChatService) ListEvents(ctx context.Context, chatID string) ([]model.Event, error) {
	if err := s.chats.Ensure(ctx, chatID); err != nil {
		return nil, err
	}
	return s.events.ListByChat(ctx, chatID)
}

// SetReminderTime validates input as H:M and stores it zero padded.
func (s *ChatService) SetReminderTime(ctx context.Context, chatID, input string) (string, error) {
	clock, ok := config.NormalizeClock(input)
	if !ok {
		return "", ErrInvalidTime
	}
	if err := s.chats.SetReminderTime(ctx, chatID, clock); err != nil {
		return "", err
	}
	return clock, nil
}

// ToggleReminder flips the reminder flag and returns its new value.
func (s *ChatService) ToggleReminder(ctx context.Context, chatID string) (bool, error) {
	return s.chats.ToggleReminder(ctx, chatID)
}

// EnableReminders switches reminders on, used when the bot joins a chat.
func (s *ChatService) EnableReminders(ctx context.Context, chatID string) error {
	return s.chats.SetReminderEnabled(ctx, chatID, true)
}

// SetLanguage stores any code; unsupported codes render with the default language.
func (s *ChatService) SetLanguage(ctx context.Context, chatID, lang string) error {
	return s.chats.SetLanguage(ctx, chatID, strings.ToLower(strings.TrimSpace(lang)))
}

// ParseEventInput splits text on its last whitespace run into a name and an ISO date.
func ParseEventInput(text string) (string, string, error) {
	text = strings.TrimSpace(text)
	idx := strings.LastIndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return "", "", ErrInvalidFormat
	}
	_, size := utf8.DecodeRuneInString(text[idx:])
	name := strings.TrimSpace(text[:idx])
	date := text[idx+size:]
	if name == "" {
		return "", "", ErrInvalidFormat
	}
	parsed, err := countdown.ParseDate(date)
	if err != nil {
		return "", "", errors.Wrap(ErrInvalidFormat, err.Error())
	}
	return name, parsed.Format(countdown.DateLayout), nil
}
