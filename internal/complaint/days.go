package complaint

import (
	"fmt"
	"strings"
)

type InvertedRangePolicy string

const (
	InvertedRangeAllow InvertedRangePolicy = "allow"
	InvertedRangeClamp InvertedRangePolicy = "clamp"
	InvertedRangeDrop  InvertedRangePolicy = "drop"
)

func ParseInvertedRangePolicy(value string) (InvertedRangePolicy, error) {
	switch policy := InvertedRangePolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return InvertedRangeAllow, nil
	case InvertedRangeAllow, InvertedRangeClamp, InvertedRangeDrop:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown inverted range policy %q", value)
	}
}

// Apply adjusts a day count whose end date precedes its start date.
func (p InvertedRangePolicy) Apply(days *int) *int {
	if days == nil || *days >= 0 {
		return days
	}
	switch p {
	case InvertedRangeClamp:
		return ptr(0)
	case InvertedRangeDrop:
		return nil
	default:
		return days
	}
}

// DaysBetween returns the whole days from one stored date to another, or nil
// when either side is missing or unparseable.
func DaysBetween(from, to *string) *int {
	start, ok := ParseCanonicalDate(from)
	if !ok {
		return nil
	}
	end, ok := ParseCanonicalDate(to)
	if !ok {
		return nil
	}
	return ptr(int(end.Sub(start).Hours() / 24))
}
