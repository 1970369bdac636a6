// Command goje-log views and analyzes goje-client protocol log files.
//
// Log files are written by goje-client when run with --protocol-log (or
// protocol-log in its config file).
//
// Usage:
//
//	goje-log <command> [flags] <file.glog>
//
// Examples:
//
//	# View all events
//	goje-log view client.glog
//
//	# View only API requests and responses
//	goje-log view --layer api client.glog
//
//	# View only snapshots received under the "timer" event
//	goje-log view --event timer client.glog
//
//	# Export to CSV
//	goje-log export --format csv -o client.csv client.glog
//
//	# Keep one connection and save it to a new file
//	goje-log filter --conn-id abc12345-... -o conn.glog client.glog
//
//	# Show statistics
//	goje-log stats client.glog
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goje-timer/goje-go/cmd/goje-log/commands"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "goje-log",
		Short:         "Goje protocol log analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var opts commands.FilterOptions
	f := root.PersistentFlags()
	f.StringVar(&opts.Layer, "layer", "", "filter by layer (transport, stream, api)")
	f.StringVar(&opts.Direction, "direction", "", "filter by direction (in, out)")
	f.StringVar(&opts.Category, "category", "", "filter by category (message, control, state, error)")
	f.StringVar(&opts.EventName, "event", "", "filter by stream event name")
	f.StringVar(&opts.ConnID, "conn-id", "", "filter by connection ID")
	f.StringVar(&opts.TimeStart, "time-start", "", "filter by start time (RFC3339)")
	f.StringVar(&opts.TimeEnd, "time-end", "", "filter by end time (RFC3339)")

	view := &cobra.Command{
		Use:   "view <file.glog>",
		Short: "View log file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunView(args[0], opts, cmd.OutOrStdout())
		},
	}

	var format, exportOut string
	export := &cobra.Command{
		Use:   "export <file.glog>",
		Short: "Export log file to JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunExport(args[0], format, exportOut, opts, cmd.OutOrStdout())
		},
	}
	export.Flags().StringVar(&format, "format", "jsonl", "output format (jsonl, csv)")
	export.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")

	var filterOut string
	filter := &cobra.Command{
		Use:   "filter -o <out.glog> <file.glog>",
		Short: "Filter log file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if filterOut == "" {
				return errors.New("output file (-o) required")
			}
			return commands.RunFilter(args[0], filterOut, opts, cmd.OutOrStdout())
		},
	}
	filter.Flags().StringVarP(&filterOut, "output", "o", "", "output file (required)")

	stats := &cobra.Command{
		Use:   "stats <file.glog>",
		Short: "Show statistics about the log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], opts, cmd.OutOrStdout())
		},
	}

	root.AddCommand(view, export, filter, stats)
	return root
}
