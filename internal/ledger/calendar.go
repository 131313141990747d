package ledger

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateIDLayout is the business date key format (DD-MM-YYYY).
const DateIDLayout = "02-01-2006"

// Calendar agrees on "now" and day boundaries for every component.
type Calendar struct {
	Location *time.Location
	Clock    func() time.Time
}

func NewCalendar(tz string) (*Calendar, error) {
	loc := time.UTC
	if strings.TrimSpace(tz) != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = l
	}
	return &Calendar{Location: loc}, nil
}

// Now is the current time in the business location.
func (c *Calendar) Now() time.Time {
	now := time.Now()
	if c != nil && c.Clock != nil {
		now = c.Clock()
	}
	return now.In(c.location())
}

func (c *Calendar) CurrentBusinessDate() string {
	return c.Now().Format(DateIDLayout)
}

func (c *Calendar) PreviousBusinessDate() string {
	return c.Now().AddDate(0, 0, -1).Format(DateIDLayout)
}

// ClockTime is a local wall-clock HH:MM cut-off.
type ClockTime struct {
	Hour   int
	Minute int
}

var clock12h = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// ParseClock parses "09:00 AM" style strings into 24-hour time.
func ParseClock(raw string) (ClockTime, bool) {
	m := clock12h.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ClockTime{}, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 12 || min > 59 {
		return ClockTime{}, false
	}
	if h == 12 {
		h = 0
	}
	if strings.EqualFold(m[3], "PM") {
		h += 12
	}
	return ClockTime{Hour: h, Minute: min}, true
}

// CutoffPassed reports whether local now is strictly after today's cut-off.
// An empty or unparseable cut-off never closes the window.
func (c *Calendar) CutoffPassed(raw string) bool {
	ct, ok := ParseClock(raw)
	if !ok {
		return false
	}
	now := c.Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), ct.Hour, ct.Minute, 0, 0, now.Location())
	return now.After(target)
}

func (c *Calendar) location() *time.Location {
	if c == nil || c.Location == nil {
		return time.UTC
	}
	return c.Location
}
