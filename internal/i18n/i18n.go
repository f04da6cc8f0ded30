// Package i18n renders localized message templates. Templates use positional
// {0}, {1}, {2} placeholders; keys missing from a language fall back to English.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// DefaultLanguage is used for unsupported codes and missing keys.
const DefaultLanguage = "en"

// Template keys.
const (
	KeyLangName        = "lang_name"
	KeyWelcome         = "welcome"
	KeyAddEvent        = "add_event"
	KeyShowEvents      = "show_events"
	KeyDeleteEvent     = "delete_event"
	KeySetTime         = "set_time"
	KeyToggleOn        = "toggle_on"
	KeyToggleOff       = "toggle_off"
	KeyChangeLang      = "change_lang"
	KeyRefresh         = "refresh"
	KeyAddGroup        = "add_group"
	KeyAboutButton     = "about_button"
	KeyEnterEvent      = "enter_event"
	KeyEnterDelete     = "enter_delete"
	KeyEnterTime       = "enter_time"
	KeyEventAdded      = "event_added"
	KeyInvalidDate     = "invalid_date"
	KeyInvalidTime     = "invalid_time"
	KeyNoEvents        = "no_events"
	KeyEventsHeader    = "events_header"
	KeyEventFuture     = "event_future"
	KeyEventToday      = "event_today"
	KeyEventPast       = "event_past"
	KeyDeletedEvent    = "deleted_event"
	KeyEventNotFound   = "event_not_found"
	KeyTimeSet         = "time_set"
	KeyReminderStarted = "reminder_started"
	KeyReminderStopped = "reminder_stopped"
	KeySelectLang      = "select_lang"
	KeyLangSet         = "lang_set"
	KeyThanksAdded     = "thanks_added"
	KeyRefreshed       = "refreshed"
	KeyCancelled       = "cancelled"
	KeyReminderOn      = "reminder_on"
	KeyReminderOff     = "reminder_off"
	KeyStatus          = "status"
	KeyAbout           = "about"
	KeyGenericError    = "generic_error"
	KeyUnknown         = "unknown"
)

// supported lists the bundled languages in menu order; the first one is the default.
var supported = []string{DefaultLanguage, "ml", "hi", "ta"}

//go:embed locales/*.json
var localeFiles embed.FS

// Catalog holds the templates of every supported language.
type Catalog struct {
	codes   []string
	texts   map[string]map[string]string
	matcher language.Matcher
}

// Load reads the embedded locale files.
func Load() (*Catalog, error) {
	c := &Catalog{texts: make(map[string]map[string]string, len(supported))}
	tags := make([]language.Tag, 0, len(supported))
	for _, code := range supported {
		raw, err := localeFiles.ReadFile("locales/" + code + ".json")
		if err != nil {
			return nil, errors.Wrapf(err, "read locale %s", code)
		}
		texts := make(map[string]string)
		if err := json.Unmarshal(raw, &texts); err != nil {
			return nil, errors.Wrapf(err, "parse locale %s", code)
		}
		tag, err := language.Parse(code)
		if err != nil {
			return nil, errors.Wrapf(err, "parse language tag %s", code)
		}
		c.codes = append(c.codes, code)
		c.texts[code] = texts
		tags = append(tags, tag)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// MustLoad is Load for the embedded files, which are known to be valid.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Languages returns the supported language codes in menu order.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Supports reports whether code resolves to a bundled language.
func (c *Catalog) Supports(code string) bool {
	_, ok := c.match(code)
	return ok
}

// Resolve maps a stored language code to the bundled language used for rendering.
func (c *Catalog) Resolve(code string) string {
	resolved, _ := c.match(code)
	return resolved
}

func (c *Catalog) match(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := c.texts[code]; ok {
		return code, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage, false
	}
	_, index, confidence := c.matcher.Match(tag)
	if confidence < language.High {
		return DefaultLanguage, false
	}
	return c.codes[index], true
}

// Render returns the template for key in lang with {N} placeholders replaced by args.
// Unknown languages and missing keys fall back to English; an unknown key renders as itself.
func (c *Catalog) Render(lang, key string, args ...interface{}) string {
	text, ok := c.texts[c.Resolve(lang)][key]
	if !ok {
		text, ok = c.texts[DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(args))
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", fmt.Sprint(arg))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
