package timer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptySnapshot is returned when decoding a JSON null.
var ErrEmptySnapshot = errors.New("empty timer snapshot")

// Config governs a Pomodoro cycle. It is replaced wholesale with every
// snapshot.
type Config struct {
	// Sessions is the number of pomodoros per cycle.
	Sessions uint

	// Duration is the full length of each mode, indexed by Mode.
	Duration [ModeCount]time.Duration

	// Paused is the pause state a freshly initialised timer starts in.
	Paused bool

	// DurationPerTick is how much the server decrements Duration per tick.
	DurationPerTick time.Duration
}

// DefaultConfig returns the configuration a Goje server starts with.
func DefaultConfig() Config {
	return Config{
		Sessions: 4,
		Duration: [ModeCount]time.Duration{
			25 * time.Minute,
			5 * time.Minute,
			30 * time.Minute,
		},
		DurationPerTick: time.Second,
	}
}

// WithDuration returns a copy of c with the length of mode m set to d.
// Invalid modes leave the copy unchanged.
func (c Config) WithDuration(m Mode, d time.Duration) Config {
	if m.Valid() {
		c.Duration[m] = d
	}
	return c
}

// WithSessions returns a copy of c with n sessions per cycle.
func (c Config) WithSessions(n uint) Config {
	c.Sessions = n
	return c
}

// WithPaused returns a copy of c with the initial pause state set.
func (c Config) WithPaused(paused bool) Config {
	c.Paused = paused
	return c
}

// WithDurationPerTick returns a copy of c with the tick granularity set.
func (c Config) WithDurationPerTick(d time.Duration) Config {
	c.DurationPerTick = d
	return c
}

// Validate checks the invariants a server relies on.
func (c Config) Validate() error {
	if c.Sessions == 0 {
		return errors.New("sessions must be positive")
	}
	for i, d := range c.Duration {
		if d < 0 {
			return fmt.Errorf("%s duration is negative", Mode(i))
		}
	}
	if c.DurationPerTick < 0 {
		return errors.New("duration per tick is negative")
	}
	return nil
}

// Snapshot is the timer state at one instant. Snapshots are values: two
// snapshots with the same fields are equal under ==.
type Snapshot struct {
	// Duration is the time remaining in the current mode.
	Duration time.Duration

	// Mode is the current phase of the cycle.
	Mode Mode

	// Paused reports whether the countdown is halted.
	Paused bool

	// FinishedSessions counts completed pomodoros in this cycle.
	FinishedSessions uint

	Config Config
}

// Initial returns the snapshot of a freshly initialised timer running c.
func Initial(c Config) Snapshot {
	return Snapshot{
		Duration: c.Duration[Pomodoro],
		Mode:     Pomodoro,
		Paused:   c.Paused,
		Config:   c,
	}
}

// WithMode returns a copy of s in mode m. The remaining duration is left
// alone; the server resets it when the mode changes.
func (s Snapshot) WithMode(m Mode) Snapshot {
	s.Mode = m
	return s
}

// WithPaused returns a copy of s with the pause flag set.
func (s Snapshot) WithPaused(paused bool) Snapshot {
	s.Paused = paused
	return s
}

// TogglePaused returns a copy of s with the pause flag inverted.
func (s Snapshot) TogglePaused() Snapshot {
	s.Paused = !s.Paused
	return s
}

// WithFinishedSessions returns a copy of s with n finished sessions.
func (s Snapshot) WithFinishedSessions(n uint) Snapshot {
	s.FinishedSessions = n
	return s
}

// AddFinishedSessions returns a copy of s with delta added to the finished
// sessions. The result never drops below zero.
func (s Snapshot) AddFinishedSessions(delta int) Snapshot {
	n := int64(s.FinishedSessions) + int64(delta)
	if n < 0 {
		n = 0
	}
	s.FinishedSessions = uint(n)
	return s
}

// WithDuration returns a copy of s with d remaining. Negative values clamp
// to zero.
func (s Snapshot) WithDuration(d time.Duration) Snapshot {
	s.Duration = max(d, 0)
	return s
}

// SeekAdd returns a copy of s with d added to the remaining duration,
// saturating at zero.
func (s Snapshot) SeekAdd(d time.Duration) Snapshot {
	return s.WithDuration(s.Duration + d)
}

// WithConfig returns a copy of s governed by c.
func (s Snapshot) WithConfig(c Config) Snapshot {
	s.Config = c
	return s
}

// Restarted returns a copy of s with the full duration of its mode remaining.
func (s Snapshot) Restarted() Snapshot {
	s.Duration = s.ModeDuration()
	return s
}

// Reinitialized returns the snapshot of a fresh cycle under s.Config.
func (s Snapshot) Reinitialized() Snapshot {
	return Initial(s.Config)
}

// Next returns the snapshot after switching to the following mode, as a
// Goje server does when a mode runs out: a Pomodoro counts as finished and
// leads to a short break, or to the long break once the cycle's sessions
// are done; a short break leads back to a Pomodoro and the long break starts
// a fresh cycle. The new mode starts with its full duration.
func (s Snapshot) Next() Snapshot {
	switch s.Mode {
	case Pomodoro:
		s.FinishedSessions++
		if s.FinishedSessions >= s.Config.Sessions {
			s.Mode = LongBreak
		} else {
			s.Mode = ShortBreak
		}
	case LongBreak:
		return s.Reinitialized()
	default:
		s.Mode = Pomodoro
	}
	return s.Restarted()
}

// Prev returns the snapshot after stepping back one mode. Stepping back
// from the first Pomodoro of a cycle lands on the previous cycle's long
// break; stepping back from a break un-finishes its Pomodoro.
func (s Snapshot) Prev() Snapshot {
	switch s.Mode {
	case Pomodoro:
		if s.FinishedSessions == 0 {
			s.FinishedSessions = s.Config.Sessions
			s.Mode = LongBreak
		} else {
			s.Mode = ShortBreak
		}
	default:
		if s.FinishedSessions > 0 {
			s.FinishedSessions--
		}
		s.Mode = Pomodoro
	}
	return s.Restarted()
}

// ModeDuration is the full length of the current mode, or 0 if the mode is
// invalid.
func (s Snapshot) ModeDuration() time.Duration {
	if !s.Mode.Valid() {
		return 0
	}
	return s.Config.Duration[s.Mode]
}

// Progress is the elapsed fraction of the current mode in [0, 1].
func (s Snapshot) Progress() float64 {
	total := s.ModeDuration()
	if total <= 0 {
		return 0
	}
	p := float64(total-s.Duration) / float64(total)
	return min(max(p, 0), 1)
}

// SessionsText renders finished sessions against the cycle target, "2/4".
func (s Snapshot) SessionsText() string {
	return fmt.Sprintf("%d/%d", s.FinishedSessions, s.Config.Sessions)
}

// Validate checks the mode and configuration.
func (s Snapshot) Validate() error {
	if err := s.Mode.Validate(); err != nil {
		return err
	}
	if s.Duration < 0 {
		return errors.New("remaining duration is negative")
	}
	return s.Config.Validate()
}

// state holds the fields the newer server layout nests under "State".
type state struct {
	Duration         time.Duration
	Mode             Mode
	FinishedSessions uint
	Paused           bool
}

// flatSnapshot has the fields of Snapshot and none of its methods.
type flatSnapshot Snapshot

// MarshalJSON encodes s with the state fields at the top level next to
// "Config", the layout the web interface posts.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(flatSnapshot(s))
}

// MarshalNested encodes s with the state fields under a "State" object.
func (s Snapshot) MarshalNested() ([]byte, error) {
	return json.Marshal(struct {
		Config Config
		State  state
	}{
		Config: s.Config,
		State: state{
			Duration:         s.Duration,
			Mode:             s.Mode,
			FinishedSessions: s.FinishedSessions,
			Paused:           s.Paused,
		},
	})
}

// UnmarshalJSON decodes either layout. A "State" object, when present, takes
// precedence over top-level state fields. Out-of-range modes are rejected.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrEmptySnapshot
	}

	var wire struct {
		flatSnapshot
		State *state
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	decoded := Snapshot(wire.flatSnapshot)
	if st := wire.State; st != nil {
		decoded.Duration = st.Duration
		decoded.Mode = st.Mode
		decoded.FinishedSessions = st.FinishedSessions
		decoded.Paused = st.Paused
	}
	if err := decoded.Mode.Validate(); err != nil {
		return err
	}

	*s = decoded
	return nil
}

// Decode parses a snapshot from JSON.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
