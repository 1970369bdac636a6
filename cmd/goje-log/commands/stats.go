package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/goje-timer/goje-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	StreamEvents      map[string]int
	Requests          map[string]*RequestStats
	Connections       map[string]*ConnectionStats
	Reconnects        int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// RequestStats holds statistics for one API endpoint.
type RequestStats struct {
	Count        int
	Failed       int
	TotalLatency time.Duration
	Responses    int
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen      time.Time
	LastSeen       time.Time
	Events         int
	SnapshotCount  int
	LastSnapshotAt time.Time
}

// RunStats analyzes the events of path matching opts and prints
// statistics.
func RunStats(path string, opts FilterOptions, w io.Writer) error {
	reader, err := opts.open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		StreamEvents:      make(map[string]int),
		Requests:          make(map[string]*RequestStats),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (stats *Stats) add(event log.Event) {
	stats.TotalEvents++
	stats.EventsByLayer[event.Layer]++
	stats.EventsByCategory[event.Category]++
	stats.EventsByDirection[event.Direction]++

	if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
		stats.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(stats.TimeRange.End) {
		stats.TimeRange.End = event.Timestamp
	}

	conn, ok := stats.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		stats.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}

	if msg := event.Message; msg != nil {
		if msg.Snapshot != nil {
			conn.SnapshotCount++
			if event.Timestamp.After(conn.LastSnapshotAt) {
				conn.LastSnapshotAt = event.Timestamp
			}
		}
		switch msg.Type {
		case log.MessageTypeEvent:
			stats.StreamEvents[msg.Name]++
		case log.MessageTypeRequest:
			stats.request(msg).Count++
		case log.MessageTypeResponse:
			req := stats.request(msg)
			if msg.StatusCode < 200 || msg.StatusCode > 299 {
				req.Failed++
			}
			if msg.Latency != nil {
				req.TotalLatency += *msg.Latency
				req.Responses++
			}
		}
	}

	if event.ControlMsg != nil && event.ControlMsg.Type == log.ControlMsgReconnect {
		stats.Reconnects++
	}
	if event.Error != nil {
		stats.Errors++
	}
}

func (stats *Stats) request(msg *log.MessageEvent) *RequestStats {
	key := msg.Method + " " + msg.Path
	req, ok := stats.Requests[key]
	if !ok {
		req = &RequestStats{}
		stats.Requests[key] = req
	}
	return req
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Goje Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerStream, log.LayerAPI} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.StreamEvents) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Stream Events:")
		for _, name := range sortedKeys(stats.StreamEvents) {
			fmt.Fprintf(w, "  %-12s %d\n", name+":", stats.StreamEvents[name])
		}
	}

	if len(stats.Requests) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requests:")
		for _, key := range sortedKeys(stats.Requests) {
			req := stats.Requests[key]
			fmt.Fprintf(w, "  %-28s %d", key, req.Count)
			if req.Failed > 0 {
				fmt.Fprintf(w, ", %d failed", req.Failed)
			}
			if req.Responses > 0 {
				fmt.Fprintf(w, ", avg %s", formatDuration(req.TotalLatency/time.Duration(req.Responses)))
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range conns {
			d := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(c.id), c.stats.Events, d)
			if c.stats.SnapshotCount > 0 {
				fmt.Fprintf(w, "           Snapshots: %d (last: %s)\n",
					c.stats.SnapshotCount, c.stats.LastSnapshotAt.Format(time.RFC3339))
			}
		}
	}

	if stats.Reconnects > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Reconnects: %d\n", stats.Reconnects)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
