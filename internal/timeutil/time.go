package timeutil

import "time"

// DateLayout is the canonical date key format for schedule, pool and
// usage rows.
const DateLayout = "2006-01-02"

var nowFunc = time.Now

// Now returns the current time. It is wrapped to simplify testing and
// allow centralized timezone handling for web and scheduler components.
func Now() time.Time {
	return nowFunc()
}

// SetNowFunc overrides the function used by Now. Passing nil resets it.
func SetNowFunc(fn func() time.Time) {
	if fn == nil {
		nowFunc = time.Now
		return
	}
	nowFunc = fn
}

// Today returns the current date in DateLayout.
func Today() string {
	return Now().Format(DateLayout)
}

// Tomorrow returns the next calendar date in DateLayout.
func Tomorrow() string {
	return Now().AddDate(0, 0, 1).Format(DateLayout)
}

// DaysAgo returns the date n days before the given date key. The input
// must be in DateLayout; a malformed input yields an empty string.
func DaysAgo(date string, n int) string {
	t, err := time.ParseInLocation(DateLayout, date, Now().Location())
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -n).Format(DateLayout)
}

// DaysBetween returns the whole-day difference to − from. Both inputs
// must be in DateLayout. Dates are compared as UTC midnights so DST
// transitions cannot skew the count.
func DaysBetween(from, to string) (int, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f) / (24 * time.Hour)), nil
}
