package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assignment-management-api/models"
)

// Where the display timezone came from.
const (
	TimezoneSourceUser       = "user"
	TimezoneSourceParent     = "parent"
	TimezoneSourceInstructor = "instructor"
	TimezoneSourceDefault    = "default"
)

// legacyZoneNames maps the zone names older accounts stored to IANA names.
var legacyZoneNames = map[string]string{
	"Eastern Time (US & Canada)":  "America/New_York",
	"Central Time (US & Canada)":  "America/Chicago",
	"Mountain Time (US & Canada)": "America/Denver",
	"Pacific Time (US & Canada)":  "America/Los_Angeles",
	"Alaska":                      "America/Juneau",
	"Hawaii":                      "Pacific/Honolulu",
	"Arizona":                     "America/Phoenix",
	"London":                      "Europe/London",
	"Berlin":                      "Europe/Berlin",
	"New Delhi":                   "Asia/Kolkata",
	"Beijing":                     "Asia/Shanghai",
	"Tokyo":                       "Asia/Tokyo",
	"Bangkok":                     "Asia/Bangkok",
	"Sydney":                      "Australia/Sydney",
	"UTC":                         "UTC",
}

// LoadTimezone resolves an IANA or legacy zone name.
func LoadTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("empty timezone")
	}
	if iana, ok := legacyZoneNames[name]; ok {
		name = iana
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// TimezoneResolution is the zone due dates are displayed and parsed in.
type TimezoneResolution struct {
	Location *time.Location `json:"-"`
	Name     string         `json:"name"`
	Source   string         `json:"source"`
}

// Fallback reports whether the user's own preference could not be used.
func (r TimezoneResolution) Fallback() bool {
	return r.Source != TimezoneSourceUser
}

// ResolveTimezone picks the user's preferred zone, falling back to the parent
// account's, then the assignment instructor's, then UTC.
func (s *AssignmentService) ResolveTimezone(ctx context.Context, user models.User, instructorID int) TimezoneResolution {
	if loc, err := LoadTimezone(user.Timezone()); err == nil {
		return TimezoneResolution{Location: loc, Name: user.Timezone(), Source: TimezoneSourceUser}
	}

	candidates := []struct {
		id     *int
		source string
	}{
		{user.ParentID, TimezoneSourceParent},
		{&instructorID, TimezoneSourceInstructor},
	}
	for _, cand := range candidates {
		if cand.id == nil || *cand.id <= 0 || *cand.id == user.ID {
			continue
		}
		owner, err := s.store.GetUser(ctx, *cand.id)
		if err != nil {
			continue
		}
		if loc, err := LoadTimezone(owner.Timezone()); err == nil {
			return TimezoneResolution{Location: loc, Name: owner.Timezone(), Source: cand.source}
		}
	}
	return TimezoneResolution{Location: time.UTC, Name: "UTC", Source: TimezoneSourceDefault}
}

// AdjustDueDates converts every set due timestamp into loc. Unset timestamps stay nil.
func AdjustDueDates(dueDates []models.DueDate, loc *time.Location) []models.DueDate {
	out := make([]models.DueDate, len(dueDates))
	for i, dd := range dueDates {
		if dd.DueAt != nil && loc != nil {
			local := dd.DueAt.In(loc)
			dd.DueAt = &local
		}
		out[i] = dd
	}
	return out
}

var dueAtLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02 15:04",
}

// ParseDueAt reads a form timestamp. Values carrying an offset keep it;
// anything else is read as wall time in loc. Blank input means no timestamp.
func ParseDueAt(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dueAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
}
