// Package connection manages the lifecycle of a long-lived connection to a
// Goje server, such as the timer event stream.
//
// A Manager owns one logical connection. It calls a ConnectFunc to establish
// it and, after the owner reports the connection lost, retries in the
// background with exponential backoff until it succeeds or the Manager is
// closed.
//
// # Reconnection Strategy
//
// Delays follow the default sequence below and reset after every successful
// connection:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s
//  3. Maximum delay: 30 seconds
//  4. Continue at 30s until successful
//
// A server may lower or raise the initial delay with the SSE retry field;
// see Manager.SetRetry.
//
// # Jitter
//
// Clients restarted together (for example after the server comes back) spread
// their attempts:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
