// Package quarter handles fiscal quarter labels of the form "YY.QQ"
// (two-digit year, quarter digit 1–4, literal Q), the sole join key across
// every per-quarter series. Labels sort chronologically by construction.
package quarter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// labelRegex matches: {YY}.{Q}Q
// Example: 25.3Q
var labelRegex = regexp.MustCompile(`^(\d{2})\.([1-4])Q$`)

// ErrInvalidLabel is returned when a string is not a well-formed quarter label.
var ErrInvalidLabel = errors.New("quarter: invalid label format")

// Label is a fiscal quarter token, e.g. "25.3Q".
type Label string

// Parse validates and returns a quarter label.
// Format: {YY}.{Q}Q with Q in 1–4.
func Parse(s string) (Label, error) {
	if !labelRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q (expected YY.QQ, e.g. 25.3Q)", ErrInvalidLabel, s)
	}
	return Label(s), nil
}

// MustParse is Parse that panics on error. For tests and static data only.
func MustParse(s string) Label {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Year returns the two-digit year portion.
func (l Label) Year() int {
	m := labelRegex.FindStringSubmatch(string(l))
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

// Quarter returns the quarter digit (1–4).
func (l Label) Quarter() int {
	m := labelRegex.FindStringSubmatch(string(l))
	if m == nil {
		return 0
	}
	q, _ := strconv.Atoi(m[2])
	return q
}

// Valid reports whether the label is well-formed.
func (l Label) Valid() bool {
	return labelRegex.MatchString(string(l))
}

// YearAgo returns the same quarter one year earlier: 25.4Q → 24.4Q.
// This single transform resolves both comparison baselines: "same quarter
// prior year" for quarterly figures and "prior year-end" for cumulative ones.
func (l Label) YearAgo() Label {
	if !l.Valid() {
		return l
	}
	return newLabel(l.Year()-1, l.Quarter())
}

// Prev returns the immediately preceding quarter, wrapping the year:
// 25.1Q → 24.4Q.
func (l Label) Prev() Label {
	if !l.Valid() {
		return l
	}
	y, q := l.Year(), l.Quarter()
	if q == 1 {
		return newLabel(y-1, 4)
	}
	return newLabel(y, q-1)
}

// Less reports whether l is chronologically before other.
func (l Label) Less(other Label) bool {
	if l.Year() != other.Year() {
		return l.Year() < other.Year()
	}
	return l.Quarter() < other.Quarter()
}

func newLabel(year, q int) Label {
	return Label(fmt.Sprintf("%02d.%dQ", year, q))
}
