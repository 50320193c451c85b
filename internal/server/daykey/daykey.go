// Package daykey maps instants onto the calendar day a user lives in.
//
// Every "which day is this" and "what is today" question in the engine goes
// through this package, always with the caller-declared IANA timezone and
// never with the server's local zone.
package daykey

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
)

var locations sync.Map // tz id -> *time.Location

// LoadLocation returns the location for an IANA timezone id. An empty,
// unknown or "Local" id yields UTC with ok=false.
func LoadLocation(tz string) (loc *time.Location, ok bool) {
	tz = strings.TrimSpace(tz)
	if tz == "" || tz == "Local" {
		return time.UTC, false
	}
	if l, found := locations.Load(tz); found {
		return l.(*time.Location), true
	}
	l, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, false
	}
	locations.Store(tz, l)
	return l, true
}

// Normalize returns the timezone id that will actually be used for tz.
func Normalize(tz string) string {
	loc, ok := LoadLocation(tz)
	if !ok {
		return common.DefaultTimezone
	}
	return loc.String()
}

// Resolve returns the calendar date instant falls on in tz, with the day
// boundary at local midnight.
func Resolve(instant time.Time, tz string) civil.Date {
	loc, _ := LoadLocation(tz)
	return civil.DateOf(instant.In(loc))
}

// Parse reads a "YYYY-MM-DD" day key.
func Parse(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: invalid day %q", common.ErrValidation, s)
	}
	return d, nil
}

// Span lists every day from start to end inclusive, ascending. It returns
// nil when end is before start.
func Span(start, end civil.Date) []civil.Date {
	if end.Before(start) {
		return nil
	}
	days := make([]civil.Date, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Resolver answers "what is today" for a timezone. It is the only place in
// the engine that reads the wall clock.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a Resolver on the system clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt returns a Resolver whose clock is now; used in tests and
// for replaying historical syncs.
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Now returns the current instant in UTC.
func (r *Resolver) Now() time.Time {
	return r.now().UTC()
}

// Today returns the current calendar date in tz.
func (r *Resolver) Today(tz string) civil.Date {
	return Resolve(r.now(), tz)
}
