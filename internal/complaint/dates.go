package complaint

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	CanonicalDateLayout = "02-01-2006"
	formInputLayout     = "2006-01-02"

	maxSpreadsheetSerial = 2958465
)

// Tried in order; the first layout yielding a real calendar date wins.
var dateLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"01-02-2006",
	"02/01/2006",
	"2006/01/02",
	"01/02/2006",
}

var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Raw spreadsheet date cells: plain unsigned decimals only.
var serialCell = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// NormalizeDate converts free-form date text into DD-MM-YYYY. Anything it
// cannot interpret yields nil; bare numbers are not dates here.
func NormalizeDate(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, ok := parseDate(value)
	if !ok {
		return nil
	}
	return ptr(parsed.Format(CanonicalDateLayout))
}

// NormalizeSheetDate accepts everything NormalizeDate does plus the raw
// serial number a spreadsheet stores for a date cell.
func NormalizeSheetDate(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	if parsed, ok := parseDate(value); ok {
		return ptr(parsed.Format(CanonicalDateLayout))
	}
	if !serialCell.MatchString(value) {
		return nil
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return NormalizeSerialDate(serial)
}

func NormalizeSerialDate(serial float64) *string {
	parsed, ok := serialToTime(serial)
	if !ok {
		return nil
	}
	return ptr(parsed.Format(CanonicalDateLayout))
}

func ParseCanonicalDate(value *string) (time.Time, bool) {
	if value == nil {
		return time.Time{}, false
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return time.Time{}, false
	}
	return parseDate(trimmed)
}

// FormInputDate renders a stored date as YYYY-MM-DD for HTML date inputs.
func FormInputDate(value *string) string {
	parsed, ok := ParseCanonicalDate(value)
	if !ok {
		return ""
	}
	return parsed.Format(formInputLayout)
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func serialToTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSpreadsheetSerial {
		return time.Time{}, false
	}
	return spreadsheetEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}
