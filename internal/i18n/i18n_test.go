package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requiredKeys are the templates every caller relies on.
var requiredKeys = []string{
	KeyWelcome, KeyAddEvent, KeyShowEvents, KeyDeleteEvent, KeySetTime, KeyToggleOn,
	KeyToggleOff, KeyChangeLang, KeyRefresh, KeyEnterEvent, KeyEnterTime, KeyEventAdded,
	KeyInvalidDate, KeyNoEvents, KeyEventsHeader, KeyEventFuture, KeyEventToday,
	KeyEventPast, KeyTimeSet, KeyReminderStarted, KeyReminderStopped, KeySelectLang,
	KeyLangSet, KeyThanksAdded, KeyLangName, KeyGenericError,
}

func TestEveryLanguageHasCoreKeys(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "ml", "hi", "ta"}, c.Languages())

	for _, lang := range c.Languages() {
		for _, key := range requiredKeys {
			_, ok := c.texts[lang][key]
			assert.True(t, ok, "language %s misses %s", lang, key)
		}
	}
}

func TestEnglishHasEveryKey(t *testing.T) {
	c := MustLoad()
	extra := []string{
		KeyAddGroup, KeyAboutButton, KeyEnterDelete, KeyInvalidTime, KeyDeletedEvent,
		KeyEventNotFound, KeyRefreshed, KeyCancelled, KeyReminderOn, KeyReminderOff,
		KeyStatus, KeyAbout, KeyGenericError, KeyUnknown,
	}
	for _, key := range append(requiredKeys, extra...) {
		_, ok := c.texts[DefaultLanguage][key]
		assert.True(t, ok, "english misses %s", key)
	}
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	c := MustLoad()
	assert.Equal(t, "🎯 Birthday – 5 days left (2025-12-25)", c.Render("en", KeyEventFuture, "Birthday", 5, "2025-12-25"))
	assert.Equal(t, "🎉 Exam is today!", c.Render("en", KeyEventToday, "Exam"))
	assert.Equal(t, "🎯 Birthday – 5 दिन बचे (2025-12-25)", c.Render("hi", KeyEventFuture, "Birthday", 5, "2025-12-25"))
}

func TestRenderDoesNotReexpandArguments(t *testing.T) {
	c := MustLoad()
	assert.Equal(t, "🎉 {1} is today!", c.Render("en", KeyEventToday, "{1}", "boom"))
}

func TestRenderFallsBackToEnglish(t *testing.T) {
	c := MustLoad()
	english := c.Render("en", KeyNoEvents)

	assert.Equal(t, english, c.Render("xx", KeyNoEvents))
	assert.Equal(t, english, c.Render("", KeyNoEvents))
	assert.Equal(t, english, c.Render("not a language!", KeyNoEvents))
	assert.Equal(t, c.Render("en", KeyAbout), c.Render("ta", KeyAbout), "missing key falls back per key")
	assert.Equal(t, "no_such_key", c.Render("en", "no_such_key"))
}

func TestResolve(t *testing.T) {
	c := MustLoad()
	assert.Equal(t, "ml", c.Resolve("ml"))
	assert.Equal(t, "ta", c.Resolve(" TA "))
	assert.Equal(t, "en", c.Resolve("en-US"))
	assert.Equal(t, "en", c.Resolve("fr"))
	assert.True(t, c.Supports("hi"))
	assert.False(t, c.Supports("fr"))
}
