package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"countdown-bot/internal/i18n"
	"countdown-bot/internal/model"
)

const (
	cbAdd            = "add"
	cbShow           = "show"
	cbDelete         = "delete"
	cbSetTime        = "set_time"
	cbToggleReminder = "toggle_reminder"
	cbChangeLang     = "change_lang"
	cbLangPrefix     = "lang_"
	cbRefresh        = "refresh"
	cbAbout          = "about"
)

func (b *Bot) mainMenu(chat model.Chat) tgbotapi.InlineKeyboardMarkup {
	toggle := i18n.KeyToggleOn
	if chat.ReminderEnabled {
		toggle = i18n.KeyToggleOff
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyAddEvent), cbAdd),
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyShowEvents), cbShow),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyDeleteEvent), cbDelete),
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeySetTime), cbSetTime),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, toggle), cbToggleReminder),
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyChangeLang), cbChangeLang),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyRefresh), cbRefresh),
			tgbotapi.NewInlineKeyboardButtonData(b.tr(chat, i18n.KeyAboutButton), cbAbout),
		),
	}
	if b.username != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(b.tr(chat, i18n.KeyAddGroup), addToGroupURL(b.username)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// languageMenu lists every bundled language under its own name.
func (b *Bot) languageMenu() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, code := range b.catalog.Languages() {
		label := b.catalog.Render(code, i18n.KeyLangName)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbLangPrefix+code),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func addToGroupURL(username string) string {
	return "https://t.me/" + username + "?startgroup=true"
}
