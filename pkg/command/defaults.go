package command

import (
	"strings"

	"github.com/whatsbot/whatsbot-go/pkg/version"
)

// Built-in command literals.
const (
	Ping  = "!ping"
	Hello = "!bonjour"
	Help  = "!help"
	Info  = "!info"
)

// Default returns the dispatcher for the built-in commands.
func Default() *Dispatcher {
	commands := []Command{
		{Name: Ping, Description: "Test the bot", Reply: "🏓 Pong! Bot online!"},
		{Name: Hello, Description: "Greeting", Reply: "👋 Hi! WhatsApp bot powered by whatsmeow!"},
		{Name: Info, Description: "Bot info", Reply: infoText()},
		{Name: Help, Description: "This help"},
	}
	commands[3].Reply = HelpText(commands)

	d, err := NewDispatcher(commands...)
	if err != nil {
		// The built-in set is static.
		panic(err)
	}
	return d
}

// HelpText renders the reply of the help command for the given commands.
func HelpText(commands []Command) string {
	var b strings.Builder
	b.WriteString("🤖 *Available commands*\n\n")
	for _, c := range commands {
		b.WriteString("📌 ")
		b.WriteString(c.Name)
		if c.Description != "" {
			b.WriteString(" - ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPowered by ")
	b.WriteString(version.UserAgent())
	b.WriteString(" 🚀")
	return b.String()
}

func infoText() string {
	return "ℹ️ *Bot information*\n\n" +
		"✅ Status: Online\n" +
		"📦 Version: " + version.Current + "\n" +
		"🔗 Connection: Stable\n" +
		"⚡ Ready to reply!"
}
