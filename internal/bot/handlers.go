package bot

import (
	"context"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"countdown-bot/internal/i18n"
	"countdown-bot/internal/model"
	"countdown-bot/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	if msg.IsCommand() {
		if !b.addressedToUs(msg) {
			return nil
		}
		b.logger.Info("command", zap.Int64("chat_id", msg.Chat.ID), zap.String("command", msg.Command()))
		return b.handleCommand(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	key := chatKey(msg.Chat.ID)
	chat, err := b.chats.Config(ctx, key)
	if err != nil {
		return err
	}
	stage, err := b.conversations.Take(key)
	if err != nil {
		return withLang(chat, err)
	}
	if stage == service.StageIdle && !msg.Chat.IsPrivate() {
		return nil
	}

	b.logger.Debug("free text", zap.Int64("chat_id", msg.Chat.ID), zap.Stringer("stage", stage))
	switch stage {
	case service.StageAwaitingEvent:
		return b.addEvent(ctx, msg.Chat.ID, chat, text)
	case service.StageAwaitingDeleteName:
		return b.deleteEvent(ctx, msg.Chat.ID, chat, text)
	case service.StageAwaitingTime:
		return b.setReminderTime(ctx, msg.Chat.ID, chat, text)
	default:
		return b.send(msg.Chat.ID, b.tr(chat, i18n.KeyUnknown), b.mainMenu(chat))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	key := chatKey(chatID)
	chat, err := b.chats.Config(ctx, key)
	if err != nil {
		return err
	}

	switch msg.Command() {
	case "start":
		if err := b.conversations.Clear(key); err != nil {
			return withLang(chat, err)
		}
		return b.send(chatID, b.tr(chat, i18n.KeyWelcome), b.mainMenu(chat))
	case "status":
		return b.sendStatus(ctx, chatID, chat)
	case "about":
		return b.send(chatID, b.tr(chat, i18n.KeyAbout), nil)
	case "cancel":
		if err := b.conversations.Clear(key); err != nil {
			return withLang(chat, err)
		}
		return b.send(chatID, b.tr(chat, i18n.KeyCancelled), b.mainMenu(chat))
	default:
		if !msg.Chat.IsPrivate() {
			return nil
		}
		return b.send(chatID, b.tr(chat, i18n.KeyUnknown), nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	b.ackCallback(cb)
	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	key := chatKey(chatID)
	chat, err := b.chats.Config(ctx, key)
	if err != nil {
		return err
	}

	b.logger.Info("callback", zap.Int64("chat_id", chatID), zap.String("data", cb.Data))
	switch data := cb.Data; {
	case data == cbAdd:
		return b.prompt(chatID, chat, service.StageAwaitingEvent, i18n.KeyEnterEvent)
	case data == cbShow:
		return b.showEvents(ctx, chatID, chat)
	case data == cbDelete:
		return b.prompt(chatID, chat, service.StageAwaitingDeleteName, i18n.KeyEnterDelete)
	case data == cbSetTime:
		return b.prompt(chatID, chat, service.StageAwaitingTime, i18n.KeyEnterTime)
	case data == cbToggleReminder:
		on, err := b.chats.ToggleReminder(ctx, key)
		if err != nil {
			return withLang(chat, err)
		}
		chat.ReminderEnabled = on
		msgKey := i18n.KeyReminderStopped
		if on {
			msgKey = i18n.KeyReminderStarted
		}
		return b.send(chatID, b.tr(chat, msgKey), b.mainMenu(chat))
	case data == cbChangeLang:
		return b.send(chatID, b.tr(chat, i18n.KeySelectLang), b.languageMenu())
	case strings.HasPrefix(data, cbLangPrefix):
		code := strings.TrimPrefix(data, cbLangPrefix)
		if err := b.chats.SetLanguage(ctx, key, code); err != nil {
			return withLang(chat, err)
		}
		chat.Language = code
		return b.send(chatID, b.tr(chat, i18n.KeyLangSet, b.tr(chat, i18n.KeyLangName)), b.mainMenu(chat))
	case data == cbRefresh:
		if err := b.conversations.Clear(key); err != nil {
			return withLang(chat, err)
		}
		return b.send(chatID, b.tr(chat, i18n.KeyRefreshed), b.mainMenu(chat))
	case data == cbAbout:
		return b.send(chatID, b.tr(chat, i18n.KeyAbout), nil)
	default:
		b.logger.Warn("unknown callback", zap.String("data", data))
		return nil
	}
}

// prompt moves the chat to stage and asks for the reply the stage expects.
func (b *Bot) prompt(chatID int64, chat model.Chat, stage service.Stage, key string) error {
	if err := b.conversations.Set(chat.ChatID, stage); err != nil {
		return withLang(chat, err)
	}
	return b.send(chatID, b.tr(chat, key), tgbotapi.ForceReply{ForceReply: true, Selective: true})
}

func (b *Bot) addEvent(ctx context.Context, chatID int64, chat model.Chat, text string) error {
	event, err := b.chats.AddEvent(ctx, chat.ChatID, text)
	if errors.Is(err, service.ErrInvalidFormat) {
		return b.send(chatID, b.tr(chat, i18n.KeyInvalidDate), b.mainMenu(chat))
	}
	if err != nil {
		return withLang(chat, err)
	}
	return b.send(chatID, b.tr(chat, i18n.KeyEventAdded, html.EscapeString(event.Name), event.Date), b.mainMenu(chat))
}

func (b *Bot) deleteEvent(ctx context.Context, chatID int64, chat model.Chat, name string) error {
	removed, err := b.chats.DeleteEvent(ctx, chat.ChatID, name)
	if err != nil {
		return withLang(chat, err)
	}
	key := i18n.KeyDeletedEvent
	if removed == 0 {
		key = i18n.KeyEventNotFound
	}
	return b.send(chatID, b.tr(chat, key, html.EscapeString(name)), b.mainMenu(chat))
}

func (b *Bot) setReminderTime(ctx context.Context, chatID int64, chat model.Chat, text string) error {
	clock, err := b.chats.SetReminderTime(ctx, chat.ChatID, text)
	if errors.Is(err, service.ErrInvalidTime) {
		return b.send(chatID, b.tr(chat, i18n.KeyInvalidTime), b.mainMenu(chat))
	}
	if err != nil {
		return withLang(chat, err)
	}
	chat.ReminderTime = clock
	return b.send(chatID, b.tr(chat, i18n.KeyTimeSet, clock), b.mainMenu(chat))
}

func (b *Bot) showEvents(ctx context.Context, chatID int64, chat model.Chat) error {
	events, err := b.chats.ListEvents(ctx, chat.ChatID)
	if err != nil {
		return withLang(chat, err)
	}
	text, lines := b.digest.Render(chat.Language, events, b.now().In(b.loc))
	if lines == 0 {
		text = b.tr(chat, i18n.KeyNoEvents)
	}
	return b.send(chatID, text, b.mainMenu(chat))
}

func (b *Bot) sendStatus(ctx context.Context, chatID int64, chat model.Chat) error {
	events, err := b.chats.ListEvents(ctx, chat.ChatID)
	if err != nil {
		return withLang(chat, err)
	}
	state := b.tr(chat, i18n.KeyReminderOff)
	if chat.ReminderEnabled {
		state = b.tr(chat, i18n.KeyReminderOn)
	}
	text := b.tr(chat, i18n.KeyStatus, state, chat.ReminderTime, len(events), b.tr(chat, i18n.KeyLangName))
	return b.send(chatID, text, b.mainMenu(chat))
}

// addressedToUs drops group commands meant for another bot (/start@other_bot).
func (b *Bot) addressedToUs(msg *tgbotapi.Message) bool {
	full := msg.CommandWithAt()
	at := strings.IndexByte(full, '@')
	if at < 0 || b.username == "" {
		return true
	}
	return strings.EqualFold(full[at+1:], b.username)
}

func (b *Bot) tr(chat model.Chat, key string, args ...interface{}) string {
	return b.catalog.Render(chat.Language, key, args...)
}

func withLang(chat model.Chat, err error) error {
	return &chatError{lang: chat.Language, err: err}
}
