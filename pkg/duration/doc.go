// Package duration converts between nanosecond durations and the compact
// unit strings Goje uses for timer configuration.
//
// # Format
//
// A duration is decomposed into hours, minutes, seconds, milliseconds and
// nanoseconds using integer division. Only non-zero units are written, in
// that order, without separators:
//
//	Format(3_661_000_500_123) == "1h1m1s500123ns"
//	Format(25 * time.Minute) == "25m"
//	Format(0) == ""
//
// # Parse
//
// Parse is deliberately lenient. Each unit is searched for independently and
// the first match of each contributes its value. Unmatched units contribute
// zero and any other text is ignored, so "1h30m", "1h 30m" and "30m1h" all
// parse to the same value. An "m" immediately followed by "s" is a
// millisecond, never a minute, and an "s" preceded by "m" or "n" belongs to
// that unit.
//
// Use ParseStrict where user input must be validated before it is sent to a
// server.
//
// # Round Trip
//
// For every non-negative duration d, Parse(Format(d)) == d. The reverse does
// not hold: Format(Parse(s)) is the canonical spelling of s.
package duration
