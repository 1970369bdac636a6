package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidMode is returned for mode values outside Pomodoro..LongBreak.
var ErrInvalidMode = errors.New("invalid timer mode")

// Mode is the phase of the Pomodoro cycle.
type Mode int

const (
	// Pomodoro is a focused work session.
	Pomodoro Mode = iota

	// ShortBreak follows every Pomodoro except the last of a cycle.
	ShortBreak

	// LongBreak ends a cycle.
	LongBreak

	// ModeCount is the number of valid modes.
	ModeCount
)

// Modes lists the valid modes in cycle order.
var Modes = [ModeCount]Mode{Pomodoro, ShortBreak, LongBreak}

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case Pomodoro:
		return "Pomodoro"
	case ShortBreak:
		return "Short Break"
	case LongBreak:
		return "Long Break"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SnakeCase returns the name as "short_break".
func (m Mode) SnakeCase() string {
	return strings.ReplaceAll(strings.ToLower(m.String()), " ", "_")
}

// WormCase returns the name as "short-break".
func (m Mode) WormCase() string {
	return strings.ReplaceAll(strings.ToLower(m.String()), " ", "-")
}

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	return m >= Pomodoro && m < ModeCount
}

// Validate returns ErrInvalidMode if m is out of range.
func (m Mode) Validate() error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return nil
}

// ParseMode accepts a mode index ("0".."2") or any of the mode's names in
// display, snake or worm case, case-insensitively.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := Mode(n)
		if err := m.Validate(); err != nil {
			return 0, err
		}
		return m, nil
	}
	lower := strings.ToLower(s)
	for _, m := range Modes {
		if lower == strings.ToLower(m.String()) || lower == m.SnakeCase() || lower == m.WormCase() {
			return m, nil
		}
	}
	// Accept the unseparated spelling too ("shortbreak").
	for _, m := range Modes {
		if lower == strings.ReplaceAll(m.SnakeCase(), "_", "") {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
