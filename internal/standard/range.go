package standard

import (
	"math"
	"strconv"
	"strings"
)

// rangeSep is the EN DASH separating the bounds of a published band.
const rangeSep = "–"

// Range is a closed interval [Min, Max]. A single published value has Min == Max.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the midpoint of the band.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Contains reports whether v lies within the closed band.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ParseRange converts one table cell into a Range. It never fails: an empty
// or unparsable cell yields {0, 0}, and an unparsable bound of "min–max"
// yields 0 for that bound only.
func ParseRange(cell string) Range {
	r, _ := parseRangeCell(cell)
	return r
}

// parseRangeCell is ParseRange plus a flag reporting whether any non-empty
// part of the cell failed to parse.
func parseRangeCell(cell string) (Range, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return Range{}, true
	}

	// Only the first two parts of "a–b–c" are bounds.
	if parts := strings.SplitN(cell, rangeSep, 3); len(parts) > 1 {
		minV, okMin := parseDecimal(parts[0])
		maxV, okMax := parseDecimal(parts[1])
		return Range{Min: minV, Max: maxV}, okMin && okMax
	}

	v, ok := parseDecimal(cell)
	return Range{Min: v, Max: v}, ok
}

// parseNumber parses a single comma-decimal cell, returning 0 when the cell is
// empty or unparsable.
func parseNumber(cell string) float64 {
	v, _ := parseDecimal(cell)
	return v
}

// parseDecimal reads the leading comma-decimal number of s and ignores
// whatever follows it, so "6,1 %" is 6.1 and "12g" is 12. An empty string is
// 0 and counts as parsed. A string with no leading number, or one that
// overflows to an infinity, is 0 and not parsed.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	s = strings.ReplaceAll(s, ",", ".")
	n := floatPrefixLen(s)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// floatPrefixLen returns the length of the longest prefix of s of the form
// [sign] digits [. digits] [e [sign] digits], with at least one mantissa
// digit. It returns 0 when s does not start with a number.
func floatPrefixLen(s string) int {
	i := signLen(s)
	intDigits := digitsLen(s[i:])
	i += intDigits

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = digitsLen(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		j += signLen(s[j:])
		if d := digitsLen(s[j:]); d > 0 {
			i = j + d
		}
	}
	return i
}

// parseLeadingInt reads the leading base-10 integer of s, so "18a" and
// "19.0" are 18 and 19.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := signLen(s)
	d := digitsLen(s[i:])
	if d == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:i+d])
	if err != nil {
		return 0, false
	}
	return v, true
}

func signLen(s string) int {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func digitsLen(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
