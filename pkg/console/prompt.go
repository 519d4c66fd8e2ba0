package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/whatsbot/whatsbot-go/pkg/session"
)

// Prompt errors.
var (
	ErrInterrupted = errors.New("prompt interrupted")
	ErrNoInput     = errors.New("no input")
)

// Prompter reads one line from the terminal per call. It keeps a single
// readline instance for its lifetime: a read abandoned by a cancelled prompt
// stays pending and answers the next prompt, so no typed input is lost.
type Prompter struct {
	in   io.Reader
	out  io.Writer
	base readline.Config

	mu      sync.Mutex
	stdin   *readline.CancelableStdin
	rl      *readline.Instance
	pending chan promptResult
	closed  bool
}

type promptResult struct {
	line string
	err  error
}

// NewPrompter creates a prompter on stdin and stdout.
func NewPrompter() *Prompter {
	return &Prompter{
		in:  os.Stdin,
		out: os.Stdout,
		base: readline.Config{
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		},
	}
}

// Prompt shows label and returns the trimmed line entered. Cancelling ctx
// abandons the wait and returns ctx.Err(); the read itself carries over to
// the next call.
func (p *Prompter) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resc, err := p.read(label)
	if err != nil {
		return "", err
	}

	select {
	case r := <-resc:
		p.mu.Lock()
		if p.pending == resc {
			p.pending = nil
		}
		p.mu.Unlock()

		switch {
		case errors.Is(r.err, readline.ErrInterrupt):
			return "", ErrInterrupted
		case errors.Is(r.err, io.EOF):
			return "", ErrNoInput
		case r.err != nil:
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// read returns the channel of the outstanding read, starting one if none is
// pending.
func (p *Prompter) read(label string) (chan promptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrNoInput
	}
	if p.rl == nil {
		stdin := readline.NewCancelableStdin(p.in)
		cfg := p.base.Clone()
		cfg.Stdin = stdin
		cfg.Stdout = p.out
		rl, err := readline.NewEx(cfg)
		if err != nil {
			_ = stdin.Close()
			return nil, fmt.Errorf("open prompt: %w", err)
		}
		p.stdin, p.rl = stdin, rl
	}

	p.rl.SetPrompt(label)
	if p.pending != nil {
		p.rl.Refresh()
		return p.pending, nil
	}

	resc := make(chan promptResult, 1)
	p.pending = resc
	rl := p.rl
	go func() {
		line, err := rl.Readline()
		resc <- promptResult{line, err}
	}()
	return resc, nil
}

// Close releases the terminal. A pending read returns ErrNoInput.
func (p *Prompter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.rl == nil {
		return nil
	}
	_ = p.stdin.Close()
	return p.rl.Close()
}

// StaticPrompter answers every prompt with the same value. It is used for
// headless pairing with a preconfigured phone number.
type StaticPrompter string

func (s StaticPrompter) Prompt(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrNoInput
	}
	return string(s), nil
}

var (
	_ session.Prompter = (*Prompter)(nil)
	_ session.Prompter = StaticPrompter("")
)
