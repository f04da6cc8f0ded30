// Package countdown turns stored event dates into signed day counts.
package countdown

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the ISO calendar date layout events are stored in.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

type Kind int

const (
	Future Kind = iota
	Today
	Past
)

func (k Kind) String() string {
	switch k {
	case Future:
		return "future"
	case Today:
		return "today"
	case Past:
		return "past"
	default:
		return "unknown"
	}
}

// Countdown is the distance between an event date and today. Days is never negative.
type Countdown struct {
	Kind Kind
	Days int
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q", raw)
	}
	return d, nil
}

// Classify compares eventDate with the calendar day of today, ignoring time of day
// and the location of today beyond picking its calendar date.
func Classify(eventDate string, today time.Time) (Countdown, error) {
	event, err := ParseDate(eventDate)
	if err != nil {
		return Countdown{}, err
	}
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// both are UTC midnights, so the division is exact
	diff := int((event.Unix() - day.Unix()) / secondsPerDay)
	switch {
	case diff > 0:
		return Countdown{Kind: Future, Days: diff}, nil
	case diff == 0:
		return Countdown{Kind: Today}, nil
	default:
		return Countdown{Kind: Past, Days: -diff}, nil
	}
}
