package core

// convert.go coerces record values into typed scalars for filtering and
// sorting. Every function returns a pgtype value with Valid=false when the
// input is empty or unparsable; callers pick the documented fallback
// (0 for numbers, the Unix epoch for sort keys, "fails every bound" for
// date filters) instead of raising an error.

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Epoch is the sort key used for dates that do not parse.
var Epoch = time.Unix(0, 0).UTC()

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ToDate parses s using the accepted date layouts. Layouts go through
// time.Parse rather than pgtype.Date.Scan, which rolls impossible dates such
// as 2023-02-30 over into the next month instead of rejecting them.
func ToDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}
	return pgtype.Date{}
}

// DateOrEpoch returns the parsed date or Epoch.
func DateOrEpoch(s string) time.Time {
	if d := ToDate(s); d.Valid {
		return d.Time
	}
	return Epoch
}

// ToInt parses the leading integer of s ("42", "-7", "25 years").
func ToInt(s string) pgtype.Int8 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return pgtype.Int8{}
	}
	var n pgtype.Int8
	if err := n.Scan(s[:end]); err != nil {
		return pgtype.Int8{}
	}
	return n
}

// IntOrZero returns the leading integer of s or 0.
func IntOrZero(s string) int {
	return int(ToInt(s).Int64)
}

// ToFloat parses s as a decimal number.
func ToFloat(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{}
	}
	var f pgtype.Float8
	if err := f.Scan(s); err != nil {
		return pgtype.Float8{}
	}
	return f
}

// FloatOrZero returns the value of s or 0.
func FloatOrZero(s string) float64 {
	return ToFloat(s).Float64
}

// SplitList splits a comma-separated list, trimming items and dropping blanks.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
