package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is a resolved, inclusive calendar date interval.
// Both bounds are UTC midnight.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FromString returns the lower bound in YYYY-MM-DD form, as expected by the
// upstream date-filter query parameters.
func (r DateRange) FromString() string {
	return r.From.Format("2006-01-02")
}

// ToString returns the upper bound in YYYY-MM-DD form.
func (r DateRange) ToString() string {
	return r.To.Format("2006-01-02")
}

func (r DateRange) String() string {
	return r.FromString() + ".." + r.ToString()
}

// relativePattern matches phrases like "3 days ago", "1 week ago".
var relativePattern = regexp.MustCompile(`^(\d+)\s+(day|week|month|year)s?\s+ago$`)

// ResolveDateRange turns two date expressions into a concrete interval.
// Each bound is either an absolute date (YYYY-MM-DD) or a relative phrase
// ("today", "yesterday", "3 days ago", "1 week ago"). Relative phrases
// resolve against the supplied now, keeping resolution pure and testable.
// Returns ErrInvalidDateRange when either bound fails to parse or the
// resolved from is after to.
func ResolveDateRange(from, to string, now time.Time) (DateRange, error) {
	fromDate, err := resolveDate(from, now)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from %q: %w", ErrInvalidDateRange, from, err)
	}

	toDate, err := resolveDate(to, now)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: to %q: %w", ErrInvalidDateRange, to, err)
	}

	if fromDate.After(toDate) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s",
			ErrInvalidDateRange, fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
	}

	return DateRange{From: fromDate, To: toDate}, nil
}

// resolveDate resolves a single date expression to UTC midnight.
func resolveDate(expr string, now time.Time) (time.Time, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	today := truncateToDay(now)

	switch expr {
	case "":
		return time.Time{}, fmt.Errorf("empty date expression")
	case "today", "now":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if m := relativePattern.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q: %w", m[1], err)
		}
		switch m[2] {
		case "day":
			return today.AddDate(0, 0, -n), nil
		case "week":
			return today.AddDate(0, 0, -7*n), nil
		case "month":
			return today.AddDate(0, -n, 0), nil
		case "year":
			return today.AddDate(-n, 0, 0), nil
		}
	}

	parsed, err := time.Parse("2006-01-02", expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date expression %q", expr)
	}
	return parsed, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
