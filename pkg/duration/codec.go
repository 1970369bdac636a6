package duration

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Codec errors.
var (
	ErrNoUnits    = errors.New("no duration units found")
	ErrOutOfRange = errors.New("duration out of range")
)

// Unit multipliers in nanoseconds.
const (
	Nanosecond  int64 = 1
	Millisecond int64 = 1_000_000
	Second      int64 = 1_000_000_000
	Minute      int64 = 60 * Second
	Hour        int64 = 60 * Minute
)

// unit is one component of the compact notation.
type unit struct {
	suffix     string
	multiplier int64
	pattern    *regexp.Regexp
}

// units in formatting order. The minute pattern captures a trailing "s" so
// matches that are really milliseconds can be skipped.
var units = []unit{
	{"h", Hour, regexp.MustCompile(`(\d+)h`)},
	{"m", Minute, regexp.MustCompile(`(\d+)m(s?)`)},
	{"s", Second, regexp.MustCompile(`(\d+)s`)},
	{"ms", Millisecond, regexp.MustCompile(`(\d+)ms`)},
	{"ns", Nanosecond, regexp.MustCompile(`(\d+)ns`)},
}

// Format renders d in compact notation, e.g. "1h1m1s500123ns".
// Zero renders as the empty string.
func Format(d time.Duration) string {
	if d == 0 {
		return ""
	}

	var b strings.Builder
	rest := uint64(d)
	if d < 0 {
		b.WriteByte('-')
		rest = uint64(-(d + 1)) + 1
	}

	for _, u := range units {
		m := uint64(u.multiplier)
		n := rest / m
		rest %= m
		if n == 0 {
			continue
		}
		b.WriteString(strconv.FormatUint(n, 10))
		b.WriteString(u.suffix)
	}
	return b.String()
}

// Parse reads a duration in compact notation. Units that do not appear, or
// whose value does not fit, contribute zero, so unparseable text yields 0.
func Parse(text string) time.Duration {
	d, _, _ := scan(text)
	return d
}

// ParseStrict is Parse with validation. Blank text is zero. Text without
// any unit returns ErrNoUnits and a component too large for int64
// nanoseconds returns ErrOutOfRange.
func ParseStrict(text string) (time.Duration, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	d, matched, err := scan(text)
	if err != nil {
		return 0, err
	}
	if matched == 0 {
		return 0, ErrNoUnits
	}
	return d, nil
}

// scan sums the first match of every unit and reports how many units
// matched. A unit that would overflow is skipped and reported as
// ErrOutOfRange after the other units are summed.
func scan(text string) (time.Duration, int, error) {
	var (
		total   int64
		matched int
		err     error
	)
	for _, u := range units {
		digits, ok := firstMatch(u, text)
		if !ok {
			continue
		}
		matched++

		n, perr := strconv.ParseInt(digits, 10, 64)
		if perr != nil || n > (1<<63-1)/u.multiplier || total > (1<<63-1)-n*u.multiplier {
			err = ErrOutOfRange
			continue
		}
		total += n * u.multiplier
	}
	return time.Duration(total), matched, err
}

func firstMatch(u unit, text string) (string, bool) {
	if u.suffix != "m" {
		m := u.pattern.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
	for _, m := range u.pattern.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			return m[1], true
		}
	}
	return "", false
}
