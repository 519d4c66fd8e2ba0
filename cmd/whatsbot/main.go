// Command whatsbot runs a WhatsApp command bot linked to a phone as a
// companion device.
//
// Usage:
//
//	whatsbot <command> [flags]
//
// Commands:
//
//	run      Connect, pair if needed and answer commands
//	status   Show the persisted bot state
//	reset    Delete the stored credentials
//	log      View and analyze session event logs
//	version  Print version information
//
// Examples:
//
//	# First start: prompts for the phone number and prints a pairing code
//	whatsbot run
//
//	# Headless pairing with an event log and a metrics endpoint
//	WHATSBOT_PHONE=212612345678 whatsbot run --event-log bot.wlog --metrics-addr :9464
//
//	# Show the reconnect history of a run
//	whatsbot log stats bot.wlog
package main

import "os"

func main() {
	os.Exit(Execute())
}
