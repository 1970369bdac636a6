package timer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Clock holds the display digits for a remaining duration.
type Clock struct {
	// Hours is empty when the duration is under an hour.
	Hours string

	Minutes string
	Seconds string

	// Fraction is empty unless ticks are finer than a second.
	Fraction string
}

// NewClock derives the clock digits for s.
func NewClock(s Snapshot) Clock {
	return ClockFor(s.Duration, s.Config.DurationPerTick)
}

// ClockFor derives the clock digits for d remaining at the given tick
// granularity.
func ClockFor(d, perTick time.Duration) Clock {
	d = max(d, 0)

	var c Clock
	if h := int64(d / time.Hour); h > 0 {
		c.Hours = fmt.Sprintf("%02d", h)
	}
	c.Minutes = fmt.Sprintf("%02d", int64(d/time.Minute)%60)
	c.Seconds = fmt.Sprintf("%02d", int64(d/time.Second)%60)

	if perTick > 0 && perTick < time.Second {
		width := FractionDigits(perTick)
		ticks := int64(d%time.Second) / int64(perTick)
		c.Fraction = fmt.Sprintf("%0*d", width, ticks)
	}
	return c
}

// FractionDigits is the number of fractional digits needed to show every
// tick of the given granularity: ceil(log10(1s/perTick + 1)). It is 0 for
// ticks of a second or longer.
func FractionDigits(perTick time.Duration) int {
	if perTick <= 0 || perTick >= time.Second {
		return 0
	}
	return int(math.Ceil(math.Log10(float64(time.Second)/float64(perTick) + 1)))
}

// String renders the clock as [HH:]MM:SS[.F...].
func (c Clock) String() string {
	var b strings.Builder
	if c.Hours != "" {
		b.WriteString(c.Hours)
		b.WriteByte(':')
	}
	b.WriteString(c.Minutes)
	b.WriteByte(':')
	b.WriteString(c.Seconds)
	if c.Fraction != "" {
		b.WriteByte('.')
		b.WriteString(c.Fraction)
	}
	return b.String()
}
