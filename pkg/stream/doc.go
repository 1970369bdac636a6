// Package stream keeps a client's view of a Goje timer in sync with the
// server's event stream.
//
// A Sync opens exactly one subscription to the stream and publishes a State
// for every event it receives:
//
//	Pending ──event──▶ Connected(snapshot) ──event──▶ Connected(snapshot')
//	   │                      │      ▲
//	 error                  error    event
//	   ▼                      ▼      │
//	Disconnected ◀────────────┴──────┘
//
// Pending holds until the first event arrives. A transport error publishes
// Disconnected, which is not sticky: the next decoded event publishes
// Connected again. Events whose payload cannot be decoded leave the
// published state unchanged.
//
// The stream is the only source of truth. Commands sent through package
// api return the server's answer to the caller but never publish into a
// Sync; the resulting change arrives as a stream event like any other.
//
// Reading the published state is safe from any goroutine. Observers that
// want change notifications call Handle.Subscribe.
package stream
