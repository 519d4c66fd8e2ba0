// Package whatsapp adapts the whatsmeow client to the session.Engine and
// session.Conn interfaces.
//
// The adapter owns three concerns:
//
//   - Credential persistence in a SQLite database under the auth directory
//     (SQLStore). The device record is created on first use and saved by
//     whatsmeow after every mutation.
//   - Event translation. whatsmeow events are mapped to the small closed set
//     of session events. Everything else is dropped.
//   - Version lookup. The published web client version is fetched once per
//     process and announced instead of the built-in one when newer.
//
// whatsmeow's own reconnect loop is disabled; reconnection is owned by
// connection.Manager.
package whatsapp
