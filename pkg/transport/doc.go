// Package transport connects a Goje client to a server over HTTP.
//
// The transport layer handles:
//   - Server-sent events: parsing the text/event-stream format
//   - Reconnection with backoff and Last-Event-ID resumption
//   - Idle detection when a server stops sending anything
//   - TLS with optional client certificates
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON Timer Snapshots      │
//	├────────────────────────────────┤
//	│  Server-Sent Events (UTF-8)    │
//	├────────────────────────────────┤
//	│       HTTP/1.1 (chunked)       │
//	├────────────────────────────────┤
//	│        TLS (optional)          │
//	├────────────────────────────────┤
//	│              TCP               │
//	└────────────────────────────────┘
//
// # Event Stream Format
//
// A stream is a sequence of lines. A blank line dispatches the event built
// from the preceding fields:
//
//	event: change
//	data: {"Duration":1500000000000,"Mode":0,...}
//
// Fields are event, data, id and retry; a space after the colon is optional
// and lines starting with a colon are comments. Multiple data lines are
// joined with newlines. An event without data is not dispatched.
//
// # Reconnection
//
// EventSource reconnects whenever the stream ends or an attempt fails,
// using the backoff from package connection. The server's retry field sets
// the initial delay and the last seen id is sent as Last-Event-ID. Each
// failure is reported to the handler; reconnection never stops until the
// EventSource is closed.
//
// # Keep-Alive
//
// Servers commonly send comment lines to keep idle streams open. With an
// idle timeout configured, a stream that delivers no line at all for that
// long is treated as lost and reconnected.
package transport
