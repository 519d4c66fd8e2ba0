package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whatsbot/whatsbot-go/pkg/log"
	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/session/mocks"
)

type recordingLog struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLog) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLog) pairing() []log.PairingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.PairingEvent
	for _, e := range r.events {
		if e.Pairing != nil {
			out = append(out, *e.Pairing)
		}
	}
	return out
}

func TestPairingFlow(t *testing.T) {
	t.Run("Completes", func(t *testing.T) {
		conn := newFakeConn()
		conn.pairCode = "kq7m-x2pa"

		prompter := mocks.NewMockPrompter(t)
		prompter.EXPECT().Prompt(mock.Anything, session.PhonePromptLabel).Return("212 612 345 678", nil).Once()

		events := &recordingLog{}
		var states []session.PairingState
		flow := session.NewPairingFlow(session.PairingConfig{
			Prompter:      prompter,
			Requester:     conn,
			EventLog:      events,
			AttemptID:     "attempt-1",
			OnStateChange: func(s session.PairingState) { states = append(states, s) },
		})
		assert.Equal(t, session.PairingIdle, flow.State())

		code, err := flow.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "KQ7M-X2PA", code)
		assert.Equal(t, "KQ7M-X2PA", flow.Code())
		assert.Equal(t, session.PairingCompleted, flow.State())
		assert.Equal(t, []string{testPhone}, conn.Requests())
		assert.Equal(t, []session.PairingState{
			session.PairingAwaitingNumber,
			session.PairingAwaitingCode,
			session.PairingCompleted,
		}, states)

		stages := events.pairing()
		require.Len(t, stages, 3)
		assert.Equal(t, log.PairingPrompted, stages[0].Stage)
		assert.Equal(t, log.PairingRequested, stages[1].Stage)
		assert.Equal(t, "21********78", stages[1].Phone)
		assert.Equal(t, log.PairingCodeIssued, stages[2].Stage)
	})

	t.Run("RunsOnce", func(t *testing.T) {
		prompter := mocks.NewMockPrompter(t)
		prompter.EXPECT().Prompt(mock.Anything, mock.Anything).Return("1", nil).Once()

		flow := session.NewPairingFlow(session.PairingConfig{Prompter: prompter, Requester: newFakeConn()})

		_, err := flow.Run(context.Background())
		assert.ErrorIs(t, err, session.ErrInvalidPhoneNumber)
		assert.Equal(t, session.PairingFailed, flow.State())

		_, err = flow.Run(context.Background())
		assert.ErrorIs(t, err, session.ErrPairingStarted)
	})

	t.Run("PromptError", func(t *testing.T) {
		prompter := mocks.NewMockPrompter(t)
		prompter.EXPECT().Prompt(mock.Anything, mock.Anything).Return("", assert.AnError).Once()
		conn := newFakeConn()

		flow := session.NewPairingFlow(session.PairingConfig{Prompter: prompter, Requester: conn})

		_, err := flow.Run(context.Background())
		var perr *session.PairingError
		require.ErrorAs(t, err, &perr)
		assert.Empty(t, perr.Phone)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, conn.Requests())
	})
}

func TestPairingStateString(t *testing.T) {
	tests := map[session.PairingState]string{
		session.PairingIdle:           "idle",
		session.PairingAwaitingNumber: "awaiting_number",
		session.PairingAwaitingCode:   "awaiting_code",
		session.PairingCompleted:      "completed",
		session.PairingFailed:         "failed",
		session.PairingState(42):      "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}
