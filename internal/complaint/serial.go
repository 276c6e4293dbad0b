package complaint

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	serialPrefix = "C"
	serialWidth  = 4
)

// NextSerial derives the serial following count existing records.
func NextSerial(count int) string {
	return FormatSerial(count + 1)
}

// FormatSerial pads to at least four digits; larger numbers keep every digit.
func FormatSerial(n int) string {
	return fmt.Sprintf("%s%0*d", serialPrefix, serialWidth, n)
}

func ParseSerialNumber(serial string) (int, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(serial))
	digits, ok := strings.CutPrefix(trimmed, serialPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeSheetSerial accepts "C0007", "c7" or a bare positive integer
// and returns the canonical serial.
func NormalizeSheetSerial(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if n, ok := ParseSerialNumber(trimmed); ok && n > 0 {
		return FormatSerial(n), true
	}
	if n, ok := parseWholeNumber(trimmed); ok && n > 0 {
		return FormatSerial(n), true
	}
	return "", false
}

func parseWholeNumber(value string) (int, bool) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
