package utils

import "time"

// DefaultTimezone is the zone event times are shown in.
const DefaultTimezone = "Africa/Nairobi"

const eventTimeLayout = "Mon 02 Jan 2006 15:04 MST"

// InTimezone converts t to the named zone. It returns t unchanged when the
// zone database is unavailable.
func InTimezone(t time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return t
	}
	return t.In(loc)
}

func FormatEventTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return InTimezone(t, DefaultTimezone).Format(eventTimeLayout)
}
