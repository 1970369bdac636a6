// Command goje-client controls and watches a Goje Pomodoro timer.
//
// Usage:
//
//	goje-client [flags] <command> [args]
//
// Examples:
//
//	# Follow the timer, with ntfy notifications
//	goje-client watch --ntfy ntfy.sh/my-pomodoro
//
//	# Pause, skip to the next mode, move back 30 seconds
//	goje-client pause
//	goje-client next
//	goje-client seek -- -30s
//
//	# Change the cycle settings
//	goje-client config set --duration pomodoro=50m --sessions 3
//
//	# Interactive shell with a live status prompt
//	goje-client shell
package main

import (
	"os"

	"github.com/goje-timer/goje-go/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
