// Package command maps inbound chat text to canned replies.
//
// Matching is case-insensitive and exact: "!PING" and "!ping" both match the
// ping command, "!ping now" and " !ping" match nothing. Unmatched and empty
// text is ignored.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sender delivers a text reply to a chat.
type Sender interface {
	SendText(ctx context.Context, chat, text string) error
}

// Command is a literal trigger with its reply.
type Command struct {
	// Name is the literal that triggers the command, e.g. "!ping".
	Name string

	// Description is shown by the help command.
	Description string

	// Reply is sent back to the chat the command came from.
	Reply string
}

// Dispatcher errors.
var (
	ErrEmptyName     = errors.New("command name is empty")
	ErrDuplicateName = errors.New("duplicate command name")
)

// Dispatcher holds a fixed set of commands.
type Dispatcher struct {
	commands []Command
	byName   map[string]int
}

// NewDispatcher creates a dispatcher for the given commands. Names are
// compared case-insensitively, so "!Ping" and "!ping" collide.
func NewDispatcher(commands ...Command) (*Dispatcher, error) {
	d := &Dispatcher{byName: make(map[string]int, len(commands))}
	for _, c := range commands {
		if c.Name == "" {
			return nil, ErrEmptyName
		}
		key := strings.ToLower(c.Name)
		if _, dup := d.byName[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
		}
		d.byName[key] = len(d.commands)
		d.commands = append(d.commands, c)
	}
	return d, nil
}

// Lookup returns the command matching text exactly, ignoring case.
func (d *Dispatcher) Lookup(text string) (Command, bool) {
	if text == "" {
		return Command{}, false
	}
	i, ok := d.byName[strings.ToLower(text)]
	if !ok {
		return Command{}, false
	}
	return d.commands[i], true
}

// Dispatch sends the reply for text to chat when text names a command.
// It returns the matched command and whether there was a match.
func (d *Dispatcher) Dispatch(ctx context.Context, s Sender, chat, text string) (Command, bool, error) {
	c, ok := d.Lookup(text)
	if !ok {
		return Command{}, false, nil
	}
	if err := s.SendText(ctx, chat, c.Reply); err != nil {
		return c, true, fmt.Errorf("reply to %s: %w", c.Name, err)
	}
	return c, true, nil
}

// Names returns the command literals in registration order.
func (d *Dispatcher) Names() []string {
	names := make([]string, len(d.commands))
	for i, c := range d.commands {
		names[i] = c.Name
	}
	return names
}
