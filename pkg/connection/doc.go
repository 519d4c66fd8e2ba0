// Package connection provides connection lifecycle management for whatsbot.
//
// This package handles:
//   - Classification of disconnect reasons into fatal and transient classes
//   - Exponential backoff for reconnection attempts
//   - Jitter to avoid reconnecting in lockstep
//   - Sequential reconnection attempts until a fatal cause or cancellation
//
// # Classification
//
// Every closed connection carries a status code from the protocol engine:
//
//	401 logged out           fatal, no reconnect
//	500 bad session          fatal, credentials must be wiped, no reconnect
//	428 closed by peer       transient, reported with diagnostic hints
//	anything else or absent  transient
//
// # Reconnection Strategy
//
// After a transient close the Manager waits for the next backoff delay and
// starts exactly one new attempt:
//
//  1. Delay: 5 seconds between attempts by default
//  2. With a multiplier above 1 the delay grows, e.g. 10s, 20s, 40s
//  3. Maximum delay: 60 seconds unless configured otherwise
//  4. Reset to the initial delay once an attempt reaches open
//
// MaxAttempts and MaxElapsed bound the retries; zero means retry until a
// fatal cause occurs.
package connection
