package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/whatsbot/whatsbot-go/pkg/log"
)

// PairingState is the state of a pairing flow.
type PairingState uint8

const (
	PairingIdle PairingState = iota
	PairingAwaitingNumber
	PairingAwaitingCode
	PairingCompleted
	PairingFailed
)

// String returns the state name.
func (s PairingState) String() string {
	switch s {
	case PairingIdle:
		return "idle"
	case PairingAwaitingNumber:
		return "awaiting_number"
	case PairingAwaitingCode:
		return "awaiting_code"
	case PairingCompleted:
		return "completed"
	case PairingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PhonePromptLabel is the prompt shown when asking for the phone number.
const PhonePromptLabel = "➡️  Enter your WhatsApp number: "

// CodeRequester requests a pairing code for a phone number.
type CodeRequester interface {
	RequestPairingCode(ctx context.Context, phone string) (string, error)
}

// PairingConfig configures a PairingFlow.
type PairingConfig struct {
	Prompter  Prompter
	Requester CodeRequester
	Reporter  Reporter
	EventLog  log.Logger

	// AttemptID tags event log entries.
	AttemptID string

	// OnStateChange is called after every transition.
	OnStateChange func(state PairingState)
}

// PairingFlow links a new device with a pairing code. A flow runs at most
// once.
type PairingFlow struct {
	mu    sync.Mutex
	state PairingState
	code  string

	cfg PairingConfig
}

// NewPairingFlow creates a pairing flow in the idle state.
func NewPairingFlow(cfg PairingConfig) *PairingFlow {
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	cfg.EventLog = log.OrNoop(cfg.EventLog)
	return &PairingFlow{cfg: cfg}
}

// State returns the current state.
func (f *PairingFlow) State() PairingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Code returns the issued code, empty until the flow completed.
func (f *PairingFlow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// Run prompts for the phone number, validates it, requests a pairing code
// and displays it. It returns the displayed code.
//
// An out-of-range number fails with *InvalidPhoneNumberError without calling
// the requester. A failed request or prompt returns *PairingError. Neither is
// retried.
func (f *PairingFlow) Run(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.state != PairingIdle {
		f.mu.Unlock()
		return "", ErrPairingStarted
	}
	f.mu.Unlock()

	f.setState(PairingAwaitingNumber)
	f.cfg.Reporter.PairingInstructions()
	f.logStage(log.PairingPrompted, "", nil)

	input, err := f.cfg.Prompter.Prompt(ctx, PhonePromptLabel)
	if err != nil {
		return "", f.fail(ctx, "", err)
	}

	phone, err := NormalizePhoneNumber(input)
	if err != nil {
		f.setState(PairingFailed)
		f.cfg.Reporter.PairingFailed(err)
		f.logStage(log.PairingFailed, "", err)
		return "", err
	}

	f.cfg.Reporter.PhoneAccepted(phone)
	f.setState(PairingAwaitingCode)
	f.logStage(log.PairingRequested, phone, nil)

	code, err := f.cfg.Requester.RequestPairingCode(ctx, phone)
	if err != nil {
		return "", f.fail(ctx, phone, err)
	}

	code = FormatPairingCode(code)
	f.mu.Lock()
	f.code = code
	f.mu.Unlock()

	f.cfg.Reporter.PairingCode(code)
	f.setState(PairingCompleted)
	f.logStage(log.PairingCodeIssued, phone, nil)
	return code, nil
}

// fail moves to the failed state. Cancellation is returned as is and not
// reported to the operator.
func (f *PairingFlow) fail(ctx context.Context, phone string, err error) error {
	f.setState(PairingFailed)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		f.logStage(log.PairingFailed, phone, err)
		return err
	}
	perr := &PairingError{Phone: phone, Err: err}
	f.cfg.Reporter.PairingFailed(perr)
	f.logStage(log.PairingFailed, phone, perr)
	return perr
}

func (f *PairingFlow) setState(s PairingState) {
	f.mu.Lock()
	old := f.state
	f.state = s
	f.mu.Unlock()

	if old == s {
		return
	}
	f.cfg.EventLog.Log(log.Event{
		Timestamp: time.Now(),
		AttemptID: f.cfg.AttemptID,
		Component: log.ComponentPairing,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPairing,
			OldState: old.String(),
			NewState: s.String(),
		},
	})
	if f.cfg.OnStateChange != nil {
		f.cfg.OnStateChange(s)
	}
}

func (f *PairingFlow) logStage(stage log.PairingStage, phone string, err error) {
	ev := &log.PairingEvent{Stage: stage}
	if phone != "" {
		ev.Phone = MaskPhoneNumber(phone)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	f.cfg.EventLog.Log(log.Event{
		Timestamp: time.Now(),
		AttemptID: f.cfg.AttemptID,
		Component: log.ComponentPairing,
		Category:  log.CategoryPairing,
		Pairing:   ev,
	})
}
