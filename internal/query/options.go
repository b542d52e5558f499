// Package query translates report query-string parameters into a typed,
// parameterized representation of a login-history search. Filter keys are
// whitelisted; anything else in the URL is ignored outright.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Op identifies how a clause compares its column against its value.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpContains
	OpNotContains
	OpSince      // timestamp within the last Interval
	OpOnOrAfter  // timestamp >= value
	OpOnOrBefore // timestamp <= value
)

// Clause is one WHERE condition. Value types by Op: OpSince carries an
// Interval, OpOnOrAfter/OpOnOrBefore carry a time.Time, everything else
// carries the comparison value directly.
type Clause struct {
	Column string
	Op     Op
	Value  interface{}
}

// Interval is a calendar-aware relative interval ("1 MONTH" is a month, not
// 30 days).
type Interval struct {
	Years  int
	Months int
	Days   int
}

// Before returns the point in time the interval reaches back to from now.
func (iv Interval) Before(now time.Time) time.Time {
	return now.AddDate(-iv.Years, -iv.Months, -iv.Days)
}

// Options is a fully parsed search: filter clauses, sort order, and paging.
type Options struct {
	Clauses    []Clause
	SortColumn string
	SortDesc   bool
	Limit      int // 0 disables paging
	Page       int // 1-based
}

// relative-interval tokens accepted by the "when" filter
var whenIntervals = map[string]Interval{
	"1 DAY":   {Days: 1},
	"1 WEEK":  {Days: 7},
	"1 MONTH": {Months: 1},
	"1 YEAR":  {Years: 1},
}

// sortableColumns whitelists columns accepted by the sort parameter.
var sortableColumns = map[string]bool{
	"id":                   true,
	"user_id":              true,
	"username":             true,
	"user_agent":           true,
	"ip_address":           true,
	"login_was_successful": true,
	"login_timestamp":      true,
}

const (
	defaultSortColumn = "login_timestamp"
	dateLayout        = "2006-01-02"
)

// Parse builds Options from URL query values. defaultLimit is the configured
// page size, overridable by the limit parameter. Malformed values degrade
// gracefully: unparseable dates, booleans, numbers, and unknown sort columns
// are dropped and defaults apply. Unknown filter keys never reach the query.
func Parse(values url.Values, defaultLimit int) Options {
	opts := Options{
		SortColumn: defaultSortColumn,
		SortDesc:   true,
		Limit:      defaultLimit,
		Page:       1,
	}

	// "when" wins over explicit date-range filters
	useDateRange := true
	if raw := strings.TrimSpace(values.Get("when")); raw != "" {
		if iv, ok := whenIntervals[strings.ToUpper(raw)]; ok {
			opts.Clauses = append(opts.Clauses, Clause{Column: "login_timestamp", Op: OpSince, Value: iv})
			useDateRange = false
		}
	}

	if useDateRange {
		if from, ok := parseDate(values.Get("date_from")); ok {
			opts.Clauses = append(opts.Clauses, Clause{Column: "login_timestamp", Op: OpOnOrAfter, Value: from})
		}
		if until, ok := parseDate(values.Get("date_until")); ok {
			// inclusive end-of-day boundary
			until = until.Add(24*time.Hour - time.Second)
			opts.Clauses = append(opts.Clauses, Clause{Column: "login_timestamp", Op: OpOnOrBefore, Value: until})
		}
	}

	for key := range values {
		raw := values.Get(key)
		if raw == "" {
			continue
		}

		value, negated := splitNegation(raw)

		switch key {
		case "id", "user_id":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				opts.Clauses = append(opts.Clauses, Clause{Column: key, Op: equalityOp(negated), Value: n})
			}
		case "username", "ip_address":
			opts.Clauses = append(opts.Clauses, Clause{Column: key, Op: equalityOp(negated), Value: value})
		case "user_agent":
			op := OpContains
			if negated {
				op = OpNotContains
			}
			opts.Clauses = append(opts.Clauses, Clause{Column: key, Op: op, Value: value})
		case "user_agent_features":
			opts.Clauses = append(opts.Clauses, Clause{Column: key, Op: equalityOp(negated), Value: value})
		case "login_was_successful":
			if b, err := strconv.ParseBool(value); err == nil {
				opts.Clauses = append(opts.Clauses, Clause{Column: key, Op: equalityOp(negated), Value: b})
			}
		case "sort":
			column, desc := raw, false
			if strings.HasPrefix(column, "-") {
				column, desc = column[1:], true
			}
			if sortableColumns[column] {
				opts.SortColumn = column
				opts.SortDesc = desc
			}
		case "limit":
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				opts.Limit = n
			}
		case "page":
			if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
				opts.Page = n
			}
		}
		// anything else: not a whitelisted key, ignored
	}

	return opts
}

// splitNegation strips a leading "!" and reports whether it was present.
func splitNegation(value string) (string, bool) {
	if strings.HasPrefix(value, "!") {
		return value[1:], true
	}
	return value, false
}

func equalityOp(negated bool) Op {
	if negated {
		return OpNotEqual
	}
	return OpEqual
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
