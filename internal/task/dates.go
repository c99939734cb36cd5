package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// nlParser handles the date phrases the fixed grammar does not cover, such as
// "in 3 days". Initialised once; when.Parser is safe for repeated Parse calls.
var nlParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func weekdayToDate(name, selector string, now time.Time) (time.Time, bool) {
	wd, ok := weekdays[strings.ToLower(name)]
	if !ok {
		return time.Time{}, false
	}

	// Monday-based offsets so "this-sunday" lands at the end of the week.
	diff := int(mondayBased(wd)) - int(mondayBased(now.Weekday()))

	switch selector {
	case "next":
		return StartOfDay(now.AddDate(0, 0, diff+7)), true
	case "this", "":
		if diff < 0 {
			diff += 7
		}
		return StartOfDay(now.AddDate(0, 0, diff)), true
	}
	return time.Time{}, false
}

func mondayBased(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// ParseDate parses a due-date spec into local midnight of the target day.
// Supported: today/tomorrow/yesterday, [next-|this-]<weekday>, <weekday>,
// YYYY-MM-DD, MM-DD, DD, then natural-language phrases as a fallback.
func ParseDate(spec string, now time.Time) (time.Time, error) {
	lower := strings.ToLower(strings.TrimSpace(spec))

	switch lower {
	case "today":
		return StartOfDay(now), nil
	case "tomorrow":
		return StartOfDay(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return StartOfDay(now.AddDate(0, 0, -1)), nil
	}

	if selector, rest, found := strings.Cut(lower, "-"); found {
		if t, ok := weekdayToDate(rest, selector, now); ok {
			return t, nil
		}
	}

	if t, ok := weekdayToDate(lower, "", now); ok {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02", spec, now.Location()); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("01-02", spec, now.Location()); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	}

	if day, err := strconv.Atoi(spec); err == nil && day >= 1 && day <= 31 {
		return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location()), nil
	}

	if r, err := nlParser.Parse(spec, now); err == nil && r != nil {
		return StartOfDay(r.Time), nil
	}

	return time.Time{}, fmt.Errorf("%w: invalid due date %q (expected YYYY-MM-DD, MM-DD, DD, a weekday, or a phrase like 'today')", ErrParse, spec)
}

// ParseDueArg splits a token such as "due:today" or "due.before:2024-12-25"
// into a date filter and a due instant. "due:overdue" is shorthand for
// everything due before today.
func ParseDueArg(arg string, now time.Time) (string, time.Time, error) {
	key, spec, found := strings.Cut(arg, ":")
	if !found {
		return "", time.Time{}, fmt.Errorf("%w: invalid due query %q (expected due:<date> or due.<filter>:<date>)", ErrParse, arg)
	}

	if spec == "overdue" {
		return "before", StartOfDay(now), nil
	}

	filter := ""
	if _, f, found := strings.Cut(key, "."); found {
		switch f {
		case "after", "before", "on", "in":
			filter = f
		default:
			return "", time.Time{}, fmt.Errorf("%w: invalid date filter %q (valid filters: after, before, on, in)", ErrParse, f)
		}
	}

	due, err := ParseDate(spec, now)
	if err != nil {
		return "", time.Time{}, err
	}
	return filter, due, nil
}

// sameDay compares local calendar days, ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDue renders a due date the way people say it: today, tomorrow,
// yesterday, a weekday within the coming week, otherwise a short date.
func FormatDue(due, now time.Time) string {
	if due.IsZero() {
		return ""
	}
	due = due.Local()

	switch {
	case sameDay(due, now):
		return "today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "tomorrow"
	case sameDay(due, now.AddDate(0, 0, -1)):
		return "yesterday"
	}

	days := int(StartOfDay(due).Sub(StartOfDay(now)).Hours() / 24)
	switch {
	case days > 0 && days <= 6:
		return due.Format("Mon 2")
	case due.Year() == now.Year():
		return due.Format("2 Jan")
	default:
		return due.Format("2 Jan 2006")
	}
}
