// Package api implements the Goje command API.
//
// Every command is a POST of a full timer snapshot to one of the timer
// endpoints:
//
//	POST /api/timer           replace the timer state
//	POST /api/timer/prevmode  switch to the previous mode
//	POST /api/timer/nextmode  switch to the next mode
//	POST /api/timer/pause     toggle pause
//	POST /api/timer/reset     restart the current mode
//
// The body is the client's locally derived snapshot, built with the pure
// With* constructors of package timer. A server may answer with a fresh
// snapshot, which the Client returns to the caller. The Client never feeds
// responses into a stream.Sync: pushed events are the only source of the
// displayed state.
//
// A non-2xx response is returned as a *transport.StatusError.
package api
