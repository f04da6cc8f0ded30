package service

import (
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"countdown-bot/internal/countdown"
	"countdown-bot/internal/i18n"
	"countdown-bot/internal/model"
)

// Translator renders a localized template.
type Translator interface {
	Render(lang, key string, args ...interface{}) string
}

// DigestService builds the countdown list shown on demand and sent by the dispatcher.
type DigestService struct {
	tr     Translator
	logger *zap.Logger
}

func NewDigestService(tr Translator, logger *zap.Logger) *DigestService {
	return &DigestService{tr: tr, logger: logger}
}

// Render returns the header plus one line per event, and the number of event lines.
// Events whose date cannot be classified are skipped.
func (s *DigestService) Render(lang string, events []model.Event, today time.Time) (string, int) {
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, s.tr.Render(lang, i18n.KeyEventsHeader))
	for _, event := range events {
		line, ok := s.Line(lang, event, today)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), len(lines) - 1
}

// Line renders a single event. Names are HTML escaped.
func (s *DigestService) Line(lang string, event model.Event, today time.Time) (string, bool) {
	cd, err := countdown.Classify(event.Date, today)
	if err != nil {
		s.logger.Warn("skip event with malformed date",
			zap.String("chat_id", event.ChatID), zap.String("event", event.Name), zap.Error(err))
		return "", false
	}
	name := html.EscapeString(event.Name)
	switch cd.Kind {
	case countdown.Future:
		return s.tr.Render(lang, i18n.KeyEventFuture, name, cd.Days, event.Date), true
	case countdown.Today:
		return s.tr.Render(lang, i18n.KeyEventToday, name), true
	default:
		return s.tr.Render(lang, i18n.KeyEventPast, name, cd.Days, event.Date), true
	}
}
