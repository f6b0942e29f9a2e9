// Package core holds the domain model of the spending report engine along
// with the cell-level parsing used when importing raw CSV grids.
package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// moneyPattern accepts optional dollar signs on either side of the sign,
// thousands separators, and up to two decimal places: "$1,234.56", "-45.00",
// "+$3", "1234".
var moneyPattern = regexp.MustCompile(`^\$?[+-]?\$?[0-9]{1,3}(,?[0-9]{3})*(\.[0-9]{1,2})?$`)

// dateLayouts are tried in order when typing a cell as a date. Bank exports
// are overwhelmingly ISO or US month-first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParseMoneyCell parses a raw cell as a money value. Returns the signed
// amount and true on success.
//
// Examples:
//
//	ParseMoneyCell("$1,234.56") -> 1234.56, true
//	ParseMoneyCell("-45.00")    -> -45,    true
//	ParseMoneyCell("12.345")    -> 0,      false (three decimals)
func ParseMoneyCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !moneyPattern.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDateCell parses a raw cell as a calendar date, discarding any
// time-of-day component. Returns midnight UTC and true on success.
func ParseDateCell(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return Midnight(t), true
	}
	return time.Time{}, false
}

// Midnight truncates t to midnight UTC on the same calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
