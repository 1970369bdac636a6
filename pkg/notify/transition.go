package notify

import (
	"github.com/goje-timer/goje-go/pkg/timer"
)

// Notification is one message to deliver.
type Notification struct {
	Message string
	Tags    []string
}

var modeStart = [timer.ModeCount]Notification{
	timer.Pomodoro:   {Message: "Pomodoro started!", Tags: []string{"tomato"}},
	timer.ShortBreak: {Message: "Short break!", Tags: []string{"coffee"}},
	timer.LongBreak:  {Message: "Long break!", Tags: []string{"tropical_drink"}},
}

var (
	timerPaused    = Notification{Message: "Timer paused!", Tags: []string{"pause_button"}}
	timerUnpaused  = Notification{Message: "Timer unpaused!", Tags: []string{"arrow_forward"}}
	longBreakEnded = Notification{Message: "Long break ended!", Tags: []string{"tomato"}}
)

// ModeStart returns the notification announcing mode m.
func ModeStart(m timer.Mode) (Notification, bool) {
	if !m.Valid() {
		return Notification{}, false
	}
	return modeStart[m], true
}

// Transitions returns the notifications for moving from prev to cur, in
// delivery order.
func Transitions(prev, cur timer.Snapshot) []Notification {
	var out []Notification

	if cur.Mode != prev.Mode {
		if prev.Mode == timer.LongBreak && cur.Config.Paused {
			out = append(out, longBreakEnded)
		}
		if n, ok := ModeStart(cur.Mode); ok {
			out = append(out, n)
		}
	}

	if cur.Paused != prev.Paused {
		if cur.Paused {
			out = append(out, timerPaused)
		} else {
			out = append(out, timerUnpaused)
		}
	}
	return out
}
