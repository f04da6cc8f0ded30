package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"countdown-bot/internal/i18n"
	"countdown-bot/internal/model"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDigestLine(t *testing.T) {
	digest := NewDigestService(i18n.MustLoad(), zap.NewNop())
	today := day("2025-12-20")

	tests := []struct {
		event model.Event
		want  string
	}{
		{model.Event{Name: "Birthday", Date: "2025-12-25"}, "🎯 Birthday – 5 days left (2025-12-25)"},
		{model.Event{Name: "Graduation", Date: "2025-12-20"}, "🎉 Graduation is today!"},
		{model.Event{Name: "Launch", Date: "2025-12-17"}, "⌛ Launch was 3 days ago (2025-12-17)"},
		{model.Event{Name: "Tom & <Jerry>", Date: "2025-12-21"}, "🎯 Tom &amp; &lt;Jerry&gt; – 1 days left (2025-12-21)"},
	}
	for _, test := range tests {
		line, ok := digest.Line("en", test.event, today)
		assert.True(t, ok, test.event.Name)
		assert.Equal(t, test.want, line)
	}

	_, ok := digest.Line("en", model.Event{Name: "Broken", Date: "2025-02-30"}, today)
	assert.False(t, ok)
}

func TestDigestRenderSkipsMalformed(t *testing.T) {
	digest := NewDigestService(i18n.MustLoad(), zap.NewNop())
	events := []model.Event{
		{Name: "Broken", Date: "soon"},
		{Name: "Exam", Date: "2025-12-22"},
	}

	text, lines := digest.Render("en", events, day("2025-12-20"))
	assert.Equal(t, 1, lines)
	assert.Equal(t, "📅 <b>Your Events:</b>\n🎯 Exam – 2 days left (2025-12-22)", text)

	_, lines = digest.Render("en", events[:1], day("2025-12-20"))
	assert.Zero(t, lines)
}

func TestDigestRenderLocalized(t *testing.T) {
	catalog := i18n.MustLoad()
	digest := NewDigestService(catalog, zap.NewNop())
	events := []model.Event{{Name: "Onam", Date: "2025-12-21"}}

	text, lines := digest.Render("ml", events, day("2025-12-20"))
	assert.Equal(t, 1, lines)
	assert.Contains(t, text, catalog.Render("ml", i18n.KeyEventsHeader))
	assert.Contains(t, text, catalog.Render("ml", i18n.KeyEventFuture, "Onam", 1, "2025-12-21"))

	fallback, _ := digest.Render("xx", events, day("2025-12-20"))
	english, _ := digest.Render("en", events, day("2025-12-20"))
	assert.Equal(t, english, fallback)
}
