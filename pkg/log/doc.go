// Package log provides structured protocol logging for Goje clients.
//
// This package defines the Logger interface and Event types for capturing
// what a client exchanges with a Goje server: raw server-sent-event frames,
// decoded timer snapshots, command requests and responses, connection state
// changes and errors. It is separate from operational logging (slog) -
// protocol capture provides a complete machine-readable trace for debugging
// and analysis.
//
// # Basic Usage
//
// Components accept a Logger through their options:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For later analysis: write to a binary file
//	logger, _ := log.NewFileLogger("goje-client.glog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: raw SSE frames and HTTP bodies (FrameEvent)
//   - Stream: decoded snapshots delivered to subscribers (MessageEvent)
//   - API: command requests and responses (MessageEvent)
//
// State changes, SSE control lines and errors have dedicated event types.
//
// # File Format
//
// Log files are a sequence of CBOR-encoded events with the .glog extension.
// The goje-log CLI tool provides viewing, filtering, export and statistics.
package log
