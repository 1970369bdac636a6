// Package timer models the Goje Pomodoro timer as a client sees it.
//
// A Snapshot is an immutable value describing the timer at one instant:
// remaining duration, current Mode, pause flag, finished sessions and the
// Config that governs the cycle. Snapshots arrive from the server's event
// stream and are sent back through the command API; the client never mutates
// one in place. Use the With* methods to derive a modified copy.
//
// # Modes
//
// A cycle is Pomodoro followed by Short Break, repeated until Config.Sessions
// pomodoros are finished, then a Long Break:
//
//	Pomodoro -> Short Break -> Pomodoro -> ... -> Long Break -> Pomodoro
//
// # Display
//
// NewClock derives the clock digits for a snapshot. When the tick granularity
// is finer than a second the clock carries a fractional part with just enough
// digits to show every tick.
package timer
