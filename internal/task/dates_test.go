package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon, so weekday arithmetic has days on both sides.
var dateNow = time.Date(2026, 3, 4, 15, 30, 0, 0, time.Local)

func localDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseDateRelative(t *testing.T) {
	cases := map[string]time.Time{
		"today":     localDate(2026, 3, 4),
		"Tomorrow":  localDate(2026, 3, 5),
		"yesterday": localDate(2026, 3, 3),
	}
	for spec, want := range cases {
		got, err := ParseDate(spec, dateNow)
		require.NoError(t, err, spec)
		assert.Equal(t, want, got, spec)
	}
}

func TestParseDateWeekdays(t *testing.T) {
	cases := map[string]time.Time{
		"friday":      localDate(2026, 3, 6),
		"fri":         localDate(2026, 3, 6),
		"monday":      localDate(2026, 3, 9),  // already passed this week, wraps forward
		"wednesday":   localDate(2026, 3, 4),  // today counts as this wednesday
		"this-sunday": localDate(2026, 3, 8),  // sunday ends the week
		"next-friday": localDate(2026, 3, 13), // friday of next week, not this one
		"next-monday": localDate(2026, 3, 9),
	}
	for spec, want := range cases {
		got, err := ParseDate(spec, dateNow)
		require.NoError(t, err, spec)
		assert.Equal(t, want, got, spec)
	}
}

func TestParseDateAbsolute(t *testing.T) {
	got, err := ParseDate("2027-01-15", dateNow)
	require.NoError(t, err)
	assert.Equal(t, localDate(2027, 1, 15), got)

	// MM-DD and bare DD fill in from now.
	got, err = ParseDate("12-25", dateNow)
	require.NoError(t, err)
	assert.Equal(t, localDate(2026, 12, 25), got)

	got, err = ParseDate("20", dateNow)
	require.NoError(t, err)
	assert.Equal(t, localDate(2026, 3, 20), got)
}

func TestParseDateNaturalLanguageFallback(t *testing.T) {
	got, err := ParseDate("in 3 days", dateNow)
	require.NoError(t, err)
	assert.Equal(t, localDate(2026, 3, 7), got)
}

func TestParseDateInvalid(t *testing.T) {
	_, err := ParseDate("not-a-date-at-all", dateNow)
	require.ErrorIs(t, err, ErrParse)
}

func TestParseDueArg(t *testing.T) {
	filter, due, err := ParseDueArg("due:tomorrow", dateNow)
	require.NoError(t, err)
	assert.Empty(t, filter)
	assert.Equal(t, localDate(2026, 3, 5), due)

	filter, due, err = ParseDueArg("due.before:2026-06-01", dateNow)
	require.NoError(t, err)
	assert.Equal(t, "before", filter)
	assert.Equal(t, localDate(2026, 6, 1), due)

	// Overdue is shorthand for before the start of today.
	filter, due, err = ParseDueArg("due:overdue", dateNow)
	require.NoError(t, err)
	assert.Equal(t, "before", filter)
	assert.Equal(t, localDate(2026, 3, 4), due)

	_, _, err = ParseDueArg("due.within:today", dateNow)
	require.ErrorIs(t, err, ErrParse)

	_, _, err = ParseDueArg("due", dateNow)
	require.ErrorIs(t, err, ErrParse)
}

func TestDueFilterBoundaries(t *testing.T) {
	task := Task{Due: localDate(2026, 1, 9)}

	before := Query{DateFilter: "before", Due: localDate(2026, 1, 10)}
	assert.True(t, task.MatchesFilter(before))

	onBoundary := Task{Due: localDate(2026, 1, 10)}
	assert.False(t, onBoundary.MatchesFilter(before), "before excludes the boundary day")

	after := Query{DateFilter: "after", Due: localDate(2026, 1, 9)}
	assert.False(t, task.MatchesFilter(after), "after excludes the boundary day")
	assert.True(t, onBoundary.MatchesFilter(after))
}

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "", FormatDue(time.Time{}, dateNow))
	assert.Equal(t, "today", FormatDue(localDate(2026, 3, 4), dateNow))
	assert.Equal(t, "tomorrow", FormatDue(localDate(2026, 3, 5), dateNow))
	assert.Equal(t, "yesterday", FormatDue(localDate(2026, 3, 3), dateNow))
	assert.Equal(t, "Mon 9", FormatDue(localDate(2026, 3, 9), dateNow))
	assert.Equal(t, "25 Dec", FormatDue(localDate(2026, 12, 25), dateNow))
	assert.Equal(t, "1 Feb 2027", FormatDue(localDate(2027, 2, 1), dateNow))
}
