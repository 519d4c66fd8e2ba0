// Package session runs a single connection attempt of the bot.
//
// A Session is bootstrapped from persisted credentials, owns one engine
// connection and consumes the connection's typed event stream in a single
// goroutine:
//
//	Connecting, PairingChallenge  start the pairing flow once, when unregistered
//	Open                          enable command dispatch
//	Incoming                      dispatch text commands while open
//	Closed                        end the attempt with the close reason
//
// The pairing flow runs as a separate task whose result re-enters the loop.
// A failed pairing ends the attempt with an error. The caller (see
// NewAttemptFunc and connection.Manager) decides whether to start another
// attempt; every attempt gets a fresh Session, so the pairing request flag is
// never shared between attempts.
package session
