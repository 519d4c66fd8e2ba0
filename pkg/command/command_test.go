package command_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whatsbot/whatsbot-go/pkg/command"
	"github.com/whatsbot/whatsbot-go/pkg/command/mocks"
)

const chat = "33612345678@s.whatsapp.net"

func TestLookupCaseInsensitiveExact(t *testing.T) {
	d := command.Default()

	tests := []struct {
		text  string
		match string
	}{
		{"!ping", command.Ping},
		{"!PING", command.Ping},
		{"!Ping", command.Ping},
		{"!BONJOUR", command.Hello},
		{"!help", command.Help},
		{"!Info", command.Info},
		{"!ping now", ""},
		{" !ping", ""},
		{"!ping ", ""},
		{"ping", ""},
		{"!pin", ""},
		{"", ""},
		{"hello there", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, ok := d.Lookup(tt.text)
			if tt.match == "" {
				assert.False(t, ok, "Lookup(%q) matched %q", tt.text, c.Name)
				return
			}
			require.True(t, ok, "Lookup(%q) did not match", tt.text)
			assert.Equal(t, tt.match, c.Name)
		})
	}
}

func TestDispatchSendsOneReply(t *testing.T) {
	d := command.Default()
	sender := mocks.NewMockSender(t)

	sender.EXPECT().SendText(mock.Anything, chat, "🏓 Pong! Bot online!").Return(nil).Once()

	c, ok, err := d.Dispatch(context.Background(), sender, chat, "!PiNg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, command.Ping, c.Name)
}

func TestDispatchNoMatchSendsNothing(t *testing.T) {
	d := command.Default()
	sender := mocks.NewMockSender(t)

	for _, text := range []string{"", "!ping now", "random chatter"} {
		_, ok, err := d.Dispatch(context.Background(), sender, chat, text)
		assert.NoError(t, err)
		assert.False(t, ok)
	}
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchSendError(t *testing.T) {
	d := command.Default()
	sender := mocks.NewMockSender(t)
	boom := errors.New("socket closed")

	sender.EXPECT().SendText(mock.Anything, chat, mock.AnythingOfType("string")).Return(boom)

	c, ok, err := d.Dispatch(context.Background(), sender, chat, "!info")
	assert.True(t, ok)
	assert.Equal(t, command.Info, c.Name)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "!info")
}

func TestNames(t *testing.T) {
	assert.Equal(t,
		[]string{command.Ping, command.Hello, command.Info, command.Help},
		command.Default().Names())
}

func TestHelpListsEveryCommand(t *testing.T) {
	d := command.Default()
	help, ok := d.Lookup(command.Help)
	require.True(t, ok)

	for _, name := range d.Names() {
		assert.True(t, strings.Contains(help.Reply, name), "help text misses %s", name)
	}
}

func TestNewDispatcherRejectsBadSets(t *testing.T) {
	_, err := command.NewDispatcher(command.Command{Name: ""})
	assert.ErrorIs(t, err, command.ErrEmptyName)

	_, err = command.NewDispatcher(
		command.Command{Name: "!a", Reply: "1"},
		command.Command{Name: "!A", Reply: "2"},
	)
	assert.ErrorIs(t, err, command.ErrDuplicateName)
}
