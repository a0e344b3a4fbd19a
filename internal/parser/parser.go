// Package parser converts raw spreadsheet date strings into calendar instants.
//
// Sheet operators enter dates by hand, so the same column can hold
// "12/03/2024 10:30:00", "12-03-24", or an exported ISO timestamp. Formats are
// tried in a fixed priority order and the first match wins. Day-month-year
// order is fixed; this parser never interprets month-day-year.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format identifies which parse path produced a timestamp.
type Format string

const (
	// FormatSlash is slash-separated day/month/year with optional time.
	FormatSlash Format = "dd/mm/yyyy"
	// FormatHyphen is hyphen-separated day-month-year with optional time.
	FormatHyphen Format = "dd-mm-yyyy"
	// FormatISO covers the closed set of unambiguous ISO-style layouts.
	FormatISO Format = "iso"
	// FormatNone means the input was empty or failed to parse.
	FormatNone Format = ""
)

// ParseError reports a date string that matched no accepted format.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable date: %q", e.Raw)
}

// isoLayouts is the closed fallback set. Strings that do not fit the strict
// day-first formats are tried against these and nothing else; handing
// arbitrary input to a lenient parser produced silently wrong dates in the
// data this service replaced.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse converts a raw cell value into a calendar instant.
//
// An empty or whitespace-only input is "no value": the zero time with ok
// false and no error. Any other input either parses or returns *ParseError.
// Instants are interpreted in the server's local calendar; the source data
// carries no timezone.
func Parse(raw string) (time.Time, bool, error) {
	t, _, ok, err := ParseFormat(raw)
	return t, ok, err
}

// ParseFormat is Parse plus the format that matched, for diagnostics.
func ParseFormat(raw string) (time.Time, Format, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, FormatNone, false, nil
	}

	fields := strings.Fields(s)
	if len(fields) <= 2 {
		datePart := fields[0]

		var sep string
		var format Format
		switch {
		case strings.Contains(datePart, "/"):
			sep, format = "/", FormatSlash
		case strings.Contains(datePart, "-"):
			sep, format = "-", FormatHyphen
		}

		if sep != "" {
			parts := strings.Split(datePart, sep)
			if len(parts) != 3 {
				return time.Time{}, FormatNone, false, &ParseError{Raw: raw}
			}
			nums, allInts := atoiAll(parts)
			if allInts {
				timePart := ""
				if len(fields) == 2 {
					timePart = fields[1]
				}
				t, err := buildInstant(raw, parts, nums, timePart)
				if err != nil {
					return time.Time{}, FormatNone, false, err
				}
				return t, format, true, nil
			}
			// Non-integer components (e.g. "2024-03-12T10:30:00") fall
			// through to the ISO layouts.
		}
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, FormatISO, true, nil
		}
	}

	return time.Time{}, FormatNone, false, &ParseError{Raw: raw}
}

// buildInstant assembles a time.Time from three numeric date components plus
// an optional colon-separated time part.
func buildInstant(raw string, parts []string, nums []int, timePart string) (time.Time, error) {
	day, month, year := nums[0], nums[1], nums[2]
	if len(parts[0]) == 4 {
		// A four-digit leading component is a year: exported data sometimes
		// arrives as YYYY/MM/DD even in day-first columns.
		year, month, day = nums[0], nums[1], nums[2]
	}
	if year < 100 {
		// Two-digit years are this century. No century-boundary logic:
		// the domain has no dates before 2000.
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &ParseError{Raw: raw}
	}

	hour, minute, second := 0, 0, 0
	if timePart != "" {
		comps := strings.Split(timePart, ":")
		if len(comps) > 3 {
			return time.Time{}, &ParseError{Raw: raw}
		}
		tnums, allInts := atoiAll(comps)
		if !allInts {
			return time.Time{}, &ParseError{Raw: raw}
		}
		switch len(tnums) {
		case 3:
			second = tnums[2]
			fallthrough
		case 2:
			minute = tnums[1]
			fallthrough
		case 1:
			hour = tnums[0]
		}
		if hour > 23 || minute > 59 || second > 59 {
			return time.Time{}, &ParseError{Raw: raw}
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// atoiAll parses every element as a non-negative integer.
func atoiAll(parts []string) ([]int, bool) {
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, false
		}
		nums = append(nums, n)
	}
	return nums, true
}
