package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockFor(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		perTick time.Duration
		want    Clock
		text    string
	}{
		{
			name:    "millisecond ticks",
			d:       65_500_000_000,
			perTick: time.Millisecond,
			want:    Clock{Minutes: "01", Seconds: "05", Fraction: "0500"},
			text:    "01:05.0500",
		},
		{
			name:    "second ticks have no fraction",
			d:       25 * time.Minute,
			perTick: time.Second,
			want:    Clock{Minutes: "25", Seconds: "00"},
			text:    "25:00",
		},
		{
			name:    "hours shown when non-zero",
			d:       time.Hour + 2*time.Minute + 3*time.Second,
			perTick: time.Second,
			want:    Clock{Hours: "01", Minutes: "02", Seconds: "03"},
			text:    "01:02:03",
		},
		{
			name:    "tenth ticks",
			d:       1_300_000_000,
			perTick: 100 * time.Millisecond,
			want:    Clock{Minutes: "00", Seconds: "01", Fraction: "03"},
			text:    "00:01.03",
		},
		{
			name:    "zero",
			d:       0,
			perTick: time.Second,
			want:    Clock{Minutes: "00", Seconds: "00"},
			text:    "00:00",
		},
		{
			name:    "negative clamps to zero",
			d:       -time.Second,
			perTick: time.Second,
			want:    Clock{Minutes: "00", Seconds: "00"},
			text:    "00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClockFor(tt.d, tt.perTick)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, got.String())
		})
	}
}

func TestFractionDigits(t *testing.T) {
	assert.Equal(t, 0, FractionDigits(time.Second))
	assert.Equal(t, 0, FractionDigits(time.Minute))
	assert.Equal(t, 0, FractionDigits(0))
	assert.Equal(t, 2, FractionDigits(100*time.Millisecond))
	assert.Equal(t, 4, FractionDigits(time.Millisecond))
	assert.Equal(t, 10, FractionDigits(time.Nanosecond))
}

func TestNewClock(t *testing.T) {
	s := Initial(DefaultConfig().WithDurationPerTick(time.Millisecond)).WithDuration(65_500_000_000)
	c := NewClock(s)
	assert.Equal(t, "01", c.Minutes)
	assert.Equal(t, "05", c.Seconds)
	assert.Equal(t, "0500", c.Fraction)
}
