package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goje-timer/goje-go/pkg/duration"
	"github.com/goje-timer/goje-go/pkg/log"
)

// RunExport writes the events of path matching opts to output, or to w when
// output is empty, as JSON lines or CSV.
func RunExport(path, format, output string, opts FilterOptions, w io.Writer) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := opts.open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "connection_id", "direction", "layer", "category",
	"type", "event", "request_id", "method", "path", "status",
	"mode", "remaining", "paused", "finished_sessions",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	row := make([]string, len(csvHeader))
	row[0] = event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	row[1] = event.ConnectionID
	row[2] = event.Direction.String()
	row[3] = event.Layer.String()
	row[4] = event.Category.String()
	row[5] = typeLabel(event)

	switch {
	case event.Frame != nil:
		row[6] = event.Frame.EventName
	case event.Message != nil:
		msg := event.Message
		row[6] = msg.Name
		row[7] = msg.RequestID
		row[8] = msg.Method
		row[9] = msg.Path
		if msg.StatusCode != 0 {
			row[10] = strconv.Itoa(msg.StatusCode)
		}
		if s := msg.Snapshot; s != nil {
			row[11] = s.Mode.String()
			row[12] = duration.Format(s.Duration)
			row[13] = strconv.FormatBool(s.Paused)
			row[14] = strconv.FormatUint(uint64(s.FinishedSessions), 10)
		}
	}
	return row
}
