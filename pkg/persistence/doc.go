// Package persistence provides runtime state persistence for the bot.
//
// This package handles the JSON serialization of runtime state (linked
// account, last open time, last disconnect verdict, reconnect counters) that
// the status command reads after the bot has stopped. Linked-device
// credentials are stored separately by the whatsapp package's SQLStore.
package persistence
