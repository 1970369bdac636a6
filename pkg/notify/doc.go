// Package notify turns timer transitions into push notifications.
//
// Transitions are derived by comparing consecutive snapshots published by a
// stream.Handle:
//
//   - a mode change announces the new mode ("Pomodoro started!",
//     "Short break!", "Long break!")
//   - a pause flip announces "Timer paused!" or "Timer unpaused!"
//   - leaving a long break on a timer configured to start paused announces
//     "Long break ended!"
//
// The first snapshot after connecting only sets the baseline.
//
// Notifications are delivered through a Sink. Ntfy is the Sink for ntfy.sh
// style servers: the message is POSTed as plain text to the topic URL with
// the tags in the "Tags" header.
//
// Hooks receive the same transitions as Changes (mode start, mode end,
// pause). Exec runs a local command per event with the timer JSON as its
// argument. Fifo is fed every snapshot rather than transitions: it writes
// one JSON line per snapshot to a named pipe for status bars and scripts.
package notify
