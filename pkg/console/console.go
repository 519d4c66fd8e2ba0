// Package console renders operator-facing status output and reads operator
// input from the terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/version"
)

// DefaultAuthDir is the auth directory named in remediation steps when none
// is configured.
const DefaultAuthDir = "auth_info"

// Example numbers shown with the pairing instructions.
var exampleNumbers = []struct{ flag, country, number string }{
	{"🇲🇦", "Morocco", "212612345678"},
	{"🇫🇷", "France", "33612345678"},
	{"🇧🇪", "Belgium", "32471234567"},
	{"🇺🇸", "USA", "12025551234"},
}

type styles struct {
	box   lipgloss.Style
	code  lipgloss.Style
	title lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	ok    lipgloss.Style
	muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	green := lipgloss.Color("#25D366")
	return styles{
		box: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(green).
			Padding(0, 3),
		code: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(green).
			Padding(1, 6).
			Bold(true),
		title: r.NewStyle().Bold(true),
		err:   r.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true),
		ok:    r.NewStyle().Foreground(green),
		muted: r.NewStyle().Faint(true),
	}
}

// Console writes status output for the operator. It is safe for concurrent
// use; each call writes its block atomically.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	st      styles
	authDir string
}

// Option configures a Console.
type Option func(*Console)

// WithAuthDir sets the directory named in remediation steps.
func WithAuthDir(dir string) Option {
	return func(c *Console) { c.authDir = dir }
}

// New creates a console writing to out. A nil out writes to stdout.
func New(out io.Writer, opts ...Option) *Console {
	if out == nil {
		out = os.Stdout
	}
	c := &Console{
		out:     out,
		st:      newStyles(lipgloss.NewRenderer(out)),
		authDir: DefaultAuthDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Banner prints the startup banner.
func (c *Console) Banner() {
	c.print(func(b *strings.Builder) {
		b.WriteString("\n")
		b.WriteString(c.st.box.Render(fmt.Sprintf("🚀 %s %s 🚀", strings.ToUpper(version.Name), version.Current)))
		b.WriteString("\n\n⏳ Initialising...\n\n")
	})
}

// Version reports the web client version that will be announced.
func (c *Console) Version(info session.VersionInfo) {
	latest := "no"
	if info.Latest {
		latest = "yes"
	}
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "📦 WhatsApp Web version: %s\n", info.Version)
		fmt.Fprintf(b, "✅ Latest version: %s\n", latest)
	})
}

func (c *Console) Connecting() {
	c.line("🔄 Connecting...")
}

// PairingInstructions explains the expected phone number format.
func (c *Console) PairingInstructions() {
	c.print(func(b *strings.Builder) {
		b.WriteString("\n")
		b.WriteString(c.st.box.Render("📱 PAIRING CODE LOGIN"))
		b.WriteString("\n\n")
		b.WriteString(c.st.warn.Render("⚠️  Number format: [country code][number]"))
		b.WriteString("\nValid examples:\n")
		for _, ex := range exampleNumbers {
			fmt.Fprintf(b, "  %s %-9s %s\n", ex.flag, ex.country+":", ex.number)
		}
		b.WriteString("\n")
	})
}

func (c *Console) PhoneAccepted(phone string) {
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "\n%s\n", c.st.ok.Render("✅ Number accepted: "+phone))
		b.WriteString("⏳ Generating pairing code...\n\n")
	})
}

// PairingCode displays the code with the manual linking steps.
func (c *Console) PairingCode(code string) {
	c.print(func(b *strings.Builder) {
		b.WriteString(c.st.code.Render("CODE:  " + code))
		b.WriteString("\n\n")
		b.WriteString(c.st.title.Render("📱 STEPS ON WHATSAPP:"))
		b.WriteString("\n")
		b.WriteString("1. Open WhatsApp\n")
		b.WriteString("2. Menu (⋮) → Linked devices\n")
		b.WriteString("3. Link a device\n")
		b.WriteString("4. \"Link with phone number instead\"\n")
		fmt.Fprintf(b, "5. Enter: %s\n\n", code)
		b.WriteString(c.st.warn.Render(fmt.Sprintf("⏰ WARNING: the code is valid for %d seconds!", int(session.PairingCodeTTL.Seconds()))))
		b.WriteString("\n\n")
	})
}

// PairingFailed reports a pairing error with the checks the operator
// should make.
func (c *Console) PairingFailed(err error) {
	c.print(func(b *strings.Builder) {
		if errors.Is(err, session.ErrInvalidPhoneNumber) {
			fmt.Fprintf(b, "\n%s\n", c.st.err.Render(fmt.Sprintf("❌ ERROR: invalid number (%d-%d digits required)",
				session.MinPhoneDigits, session.MaxPhoneDigits)))
			return
		}
		fmt.Fprintf(b, "\n%s %s\n", c.st.err.Render("❌ ERROR:"), err)
		b.WriteString("\n🔍 Check:\n")
		b.WriteString("  - the number format is correct\n")
		b.WriteString("  - the internet connection is up\n")
		b.WriteString("  - WhatsApp is installed for this number\n")
	})
}

func (c *Console) Linked(jid string) {
	c.line("🔗 Linked as " + jid)
}

// Open prints the connected banner with the available commands.
func (c *Console) Open(commands []string) {
	c.print(func(b *strings.Builder) {
		b.WriteString("\n")
		b.WriteString(c.st.box.Render("✅ BOT CONNECTED ✅"))
		b.WriteString("\n\n📩 Waiting for messages...\n")
		fmt.Fprintf(b, "💡 Commands: %s\n\n", strings.Join(commands, ", "))
	})
}

// Incoming prints one received message.
func (c *Console) Incoming(msg session.Message) {
	kind := "private"
	if msg.Group {
		kind = "group"
	}
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "\n📩 Message (%s)\n", kind)
		fmt.Fprintf(b, "   From: %s\n", msg.Chat)
		if msg.Group && msg.Sender != "" {
			fmt.Fprintf(b, "   Sender: %s\n", msg.Sender)
		}
		fmt.Fprintf(b, "   Message: %q\n", msg.Text)
	})
}

func (c *Console) Replied(command string) {
	c.line(c.st.ok.Render("✅ Replied: " + command))
}

// Disconnected reports a closed connection and, when the stored session
// needs resetting, the likely causes and the remediation commands.
func (c *Console) Disconnected(v connection.Verdict) {
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "\n%s\n", c.st.err.Render("❌ Connection closed"))
		fmt.Fprintf(b, "Code: %s\n", v.Reason.Code())

		switch v.Class {
		case connection.ClassBadSession:
			fmt.Fprintf(b, "\n%s\n", c.st.warn.Render("⚠️  INVALID SESSION"))
		case connection.ClassLoggedOut:
			fmt.Fprintf(b, "\n%s\n", c.st.warn.Render("⚠️  LOGGED OUT"))
		case connection.ClassClosedByPeer:
			fmt.Fprintf(b, "\n%s\n", c.st.warn.Render("⚠️  CONNECTION CLOSED BY WHATSAPP"))
		default:
			return
		}

		if len(v.Hints) > 0 {
			b.WriteString("🔍 Possible causes:\n")
			for _, h := range v.Hints {
				fmt.Fprintf(b, "  - %s\n", h)
			}
		}
		if v.WipeCredentials || v.Class.Fatal() {
			c.writeRemedy(b)
		}
	})
}

func (c *Console) Reconnecting(attempt int, delay time.Duration) {
	c.line(fmt.Sprintf("🔄 Reconnecting in %s (attempt %d)...\n", delay.Round(100*time.Millisecond), attempt))
}

// Terminated reports that no further connection attempt will be made.
func (c *Console) Terminated(v connection.Verdict) {
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "\n%s\n", c.st.err.Render("⛔ Session ended: "+v.Reason.String()))
		b.WriteString(c.st.muted.Render("No further reconnection will be attempted. Press Ctrl+C to exit."))
		b.WriteString("\n")
	})
}

// Fatal reports an error that stops the bot.
func (c *Console) Fatal(err error) {
	c.print(func(b *strings.Builder) {
		fmt.Fprintf(b, "\n%s %s\n", c.st.err.Render("❌ FATAL ERROR:"), err)
		b.WriteString("\n💡 Solutions:\n")
		b.WriteString("1. Check the internet connection\n")
		fmt.Fprintf(b, "2. rm -rf %s\n", c.authDir)
		fmt.Fprintf(b, "3. %s run\n\n", version.Name)
	})
}

func (c *Console) writeRemedy(b *strings.Builder) {
	b.WriteString("\n💡 Solution:\n")
	fmt.Fprintf(b, "   rm -rf %s\n", c.authDir)
	fmt.Fprintf(b, "   %s run\n\n", version.Name)
}

func (c *Console) line(s string) {
	c.print(func(b *strings.Builder) {
		b.WriteString(s)
		b.WriteString("\n")
	})
}

func (c *Console) print(fn func(b *strings.Builder)) {
	var b strings.Builder
	fn(&b)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, b.String())
}

var _ session.Reporter = (*Console)(nil)
