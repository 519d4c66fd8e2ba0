package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBackoff(t *testing.T) {
	t.Run("DefaultIsFixed", func(t *testing.T) {
		b := NewBackoff()
		for i := range 6 {
			if got := b.Next(); got != InitialBackoff {
				t.Errorf("Next() #%d = %v, want %v", i+1, got, InitialBackoff)
			}
		}
	})

	t.Run("ExponentialSequence", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    InitialBackoff,
			Max:        MaxBackoff,
			Multiplier: 2,
		})

		want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, MaxBackoff, MaxBackoff}
		for i, w := range want {
			if got := b.Next(); got != w {
				t.Errorf("Next() #%d = %v, want %v", i+1, got, w)
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: time.Second, Max: time.Minute, Multiplier: 2})

		b.Next()
		b.Next()
		b.Next()
		if b.Attempts() != 3 {
			t.Errorf("Attempts() = %d, want 3", b.Attempts())
		}

		b.Reset()
		if b.Attempts() != 0 {
			t.Errorf("Attempts() after reset = %d, want 0", b.Attempts())
		}
		if got := b.Next(); got != time.Second {
			t.Errorf("Next() after reset = %v, want 1s", got)
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		const jitter = 0.1
		b := NewBackoffWithConfig(BackoffConfig{Initial: InitialBackoff, Multiplier: 1, Jitter: jitter})
		for range 20 {
			got := b.Next()
			if got < InitialBackoff {
				t.Errorf("Next() = %v, below base %v", got, InitialBackoff)
			}
			limit := InitialBackoff + time.Duration(float64(InitialBackoff)*jitter)
			if got > limit {
				t.Errorf("Next() = %v, above jitter limit %v", got, limit)
			}
		}
	})

	t.Run("Fixed", func(t *testing.T) {
		b := NewBackoffWithConfig(FixedBackoffConfig(2 * time.Second))
		for i := range 6 {
			if got := b.Next(); got != 2*time.Second {
				t.Errorf("Next() #%d = %v, want 2s", i+1, got)
			}
		}
	})

	t.Run("ConfigNormalization", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: 10 * time.Second, Max: time.Second, Multiplier: 0.5, Jitter: -1})
		if b.max != 10*time.Second {
			t.Errorf("max = %v, want raised to initial", b.max)
		}
		if b.multiplier != 1 {
			t.Errorf("multiplier = %v, want 1", b.multiplier)
		}
		if b.jitter != 0 {
			t.Errorf("jitter = %v, want 0", b.jitter)
		}
	})
}

func TestReason(t *testing.T) {
	tests := []struct {
		reason Reason
		str    string
		code   string
	}{
		{ReasonNone, "none", "-"},
		{ReasonLoggedOut, "logged out (401)", "401"},
		{ReasonConnectionClosed, "connection closed (428)", "428"},
		{ReasonBadSession, "bad session (500)", "500"},
		{Reason(999), "unknown (999)", "999"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.str {
			t.Errorf("Reason(%d).String() = %q, want %q", int(tt.reason), got, tt.str)
		}
		if got := tt.reason.Code(); got != tt.code {
			t.Errorf("Reason(%d).Code() = %q, want %q", int(tt.reason), got, tt.code)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		reason    Reason
		class     Class
		reconnect bool
		wipe      bool
		hints     int
	}{
		{"LoggedOut", ReasonLoggedOut, ClassLoggedOut, false, false, 1},
		{"BadSession", ReasonBadSession, ClassBadSession, false, true, 1},
		{"ClosedByPeer", ReasonConnectionClosed, ClassClosedByPeer, true, true, 3},
		{"ConnectionLost", ReasonConnectionLost, ClassTransient, true, false, 0},
		{"RestartRequired", ReasonRestartRequired, ClassTransient, true, false, 0},
		{"Replaced", ReasonConnectionReplaced, ClassTransient, true, false, 0},
		{"None", ReasonNone, ClassTransient, true, false, 0},
		{"Unknown", Reason(12345), ClassTransient, true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.reason)
			if v.Reason != tt.reason {
				t.Errorf("Reason = %v, want %v", v.Reason, tt.reason)
			}
			if v.Class != tt.class {
				t.Errorf("Class = %v, want %v", v.Class, tt.class)
			}
			if v.Reconnect != tt.reconnect {
				t.Errorf("Reconnect = %v, want %v", v.Reconnect, tt.reconnect)
			}
			if v.WipeCredentials != tt.wipe {
				t.Errorf("WipeCredentials = %v, want %v", v.WipeCredentials, tt.wipe)
			}
			if len(v.Hints) != tt.hints {
				t.Errorf("len(Hints) = %d, want %d", len(v.Hints), tt.hints)
			}
			if v.Class.Fatal() == v.Reconnect {
				t.Errorf("Fatal() = %v contradicts Reconnect = %v", v.Class.Fatal(), v.Reconnect)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateReconnecting, "RECONNECTING"},
		{StateTerminated, "TERMINATED"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// scriptedAttempts returns an AttemptFunc that plays back outcomes in order.
// Once the script is exhausted it blocks until ctx is cancelled.
func scriptedAttempts(outcomes ...Outcome) (AttemptFunc, *atomic.Int32) {
	var calls atomic.Int32
	fn := func(ctx context.Context, attempt int) (Outcome, error) {
		n := int(calls.Add(1))
		if n <= len(outcomes) {
			return outcomes[n-1], nil
		}
		<-ctx.Done()
		return Outcome{}, nil
	}
	return fn, &calls
}

// instantManager returns a manager that does not wait between attempts and
// records the requested delays.
func instantManager(fn AttemptFunc, policy Policy) (*Manager, *[]time.Duration) {
	m := NewManager(fn, policy)
	var mu sync.Mutex
	delays := []time.Duration{}
	m.after = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	return m, &delays
}

func exponentialPolicy() Policy {
	return Policy{Backoff: BackoffConfig{Initial: InitialBackoff, Max: MaxBackoff, Multiplier: 2}}
}

func TestManagerFatalStopsImmediately(t *testing.T) {
	for _, reason := range []Reason{ReasonLoggedOut, ReasonBadSession} {
		t.Run(reason.String(), func(t *testing.T) {
			fn, calls := scriptedAttempts(Outcome{Opened: true, Reason: reason})
			m, delays := instantManager(fn, exponentialPolicy())

			var reconnecting atomic.Int32
			m.OnReconnecting(func(int, time.Duration) { reconnecting.Add(1) })

			err := m.Run(context.Background())

			var terr *TerminalError
			if !errors.As(err, &terr) {
				t.Fatalf("Run() error = %v, want *TerminalError", err)
			}
			if terr.Verdict.Reason != reason {
				t.Errorf("Verdict.Reason = %v, want %v", terr.Verdict.Reason, reason)
			}
			if !errors.Is(err, ErrSessionTerminated) {
				t.Errorf("errors.Is(err, ErrSessionTerminated) = false")
			}
			if calls.Load() != 1 {
				t.Errorf("attempts = %d, want 1", calls.Load())
			}
			if reconnecting.Load() != 0 || len(*delays) != 0 {
				t.Errorf("reconnection scheduled after fatal reason")
			}
			if m.State() != StateTerminated {
				t.Errorf("State() = %v, want TERMINATED", m.State())
			}
		})
	}
}

func TestManagerTransientBackoff(t *testing.T) {
	fn, calls := scriptedAttempts(
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionClosed},
		Outcome{},
		Outcome{Reason: ReasonRestartRequired},
		Outcome{Reason: ReasonLoggedOut},
	)
	m, delays := instantManager(fn, exponentialPolicy())

	var verdicts []Verdict
	m.OnDisconnected(func(v Verdict) { verdicts = append(verdicts, v) })

	var attemptsSeen []int
	m.OnReconnecting(func(attempt int, _ time.Duration) { attemptsSeen = append(attemptsSeen, attempt) })

	err := m.Run(context.Background())
	if !errors.Is(err, ErrSessionTerminated) {
		t.Fatalf("Run() error = %v, want terminated", err)
	}

	if calls.Load() != 5 {
		t.Errorf("attempts = %d, want 5", calls.Load())
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
		}
	}
	if len(verdicts) != 5 {
		t.Errorf("disconnect callbacks = %d, want 5", len(verdicts))
	}
	if verdicts[1].Class != ClassClosedByPeer {
		t.Errorf("verdict[1].Class = %v, want closed-by-peer", verdicts[1].Class)
	}
	if len(attemptsSeen) != 4 || attemptsSeen[0] != 2 || attemptsSeen[3] != 5 {
		t.Errorf("reconnect attempts = %v, want [2 3 4 5]", attemptsSeen)
	}
}

func TestManagerBackoffResetsOnOpen(t *testing.T) {
	fn, _ := scriptedAttempts(
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Opened: true, Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonLoggedOut},
	)
	m, delays := instantManager(fn, exponentialPolicy())

	_ = m.Run(context.Background())

	want := []time.Duration{5 * time.Second, 10 * time.Second, 5 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
		}
	}
}

func TestManagerDefaultPolicyWaitsFixedDelay(t *testing.T) {
	fn, _ := scriptedAttempts(
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonLoggedOut},
	)
	m, delays := instantManager(fn, DefaultPolicy())

	_ = m.Run(context.Background())

	if len(*delays) != 3 {
		t.Fatalf("delays = %v, want 3 entries", *delays)
	}
	for i, d := range *delays {
		if d != InitialBackoff {
			t.Errorf("delay[%d] = %v, want %v", i, d, InitialBackoff)
		}
	}
}

func TestManagerMaxAttempts(t *testing.T) {
	policy := exponentialPolicy()
	policy.MaxAttempts = 2

	fn, calls := scriptedAttempts(
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
	)
	m, _ := instantManager(fn, policy)

	err := m.Run(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Run() error = %v, want ErrRetriesExhausted", err)
	}
	if calls.Load() != 3 {
		t.Errorf("attempts = %d, want 3", calls.Load())
	}
	if m.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", m.State())
	}
}

func TestManagerMaxElapsed(t *testing.T) {
	policy := exponentialPolicy()
	policy.MaxElapsed = time.Minute

	fn, calls := scriptedAttempts(
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
		Outcome{Reason: ReasonConnectionLost},
	)
	m, _ := instantManager(fn, policy)

	clock := time.Unix(0, 0)
	m.now = func() time.Time {
		clock = clock.Add(25 * time.Second)
		return clock
	}

	err := m.Run(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Run() error = %v, want ErrRetriesExhausted", err)
	}
	if calls.Load() != 2 {
		t.Errorf("attempts = %d, want 2", calls.Load())
	}
}

func TestManagerAttemptError(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(func(ctx context.Context, attempt int) (Outcome, error) {
		return Outcome{}, boom
	}, DefaultPolicy())

	if err := m.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
	if m.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", m.State())
	}
}

func TestManagerCancelDuringWait(t *testing.T) {
	fn, calls := scriptedAttempts(Outcome{Reason: ReasonConnectionLost})
	m := NewManager(fn, Policy{Backoff: FixedBackoffConfig(time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())

	reconnecting := make(chan struct{})
	m.OnReconnecting(func(int, time.Duration) { close(reconnecting) })

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-reconnecting:
	case <-time.After(time.Second):
		t.Fatal("manager did not schedule a reconnect")
	}
	if m.State() != StateReconnecting {
		t.Errorf("State() = %v, want RECONNECTING", m.State())
	}

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if calls.Load() != 1 {
		t.Errorf("attempts = %d, want 1", calls.Load())
	}
}

func TestManagerSingleRun(t *testing.T) {
	fn, _ := scriptedAttempts()
	m := NewManager(fn, DefaultPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for m.State() != StateConnecting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := m.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	<-done

	if err := m.Run(context.Background()); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Run() after close error = %v, want ErrManagerClosed", err)
	}
}

func TestManagerStateChanges(t *testing.T) {
	fn, _ := scriptedAttempts(Outcome{Reason: ReasonConnectionLost}, Outcome{Reason: ReasonLoggedOut})
	m, _ := instantManager(fn, exponentialPolicy())

	var transitions []State
	m.OnStateChange(func(_, newState State) { transitions = append(transitions, newState) })

	_ = m.Run(context.Background())

	want := []State{
		StateConnecting, StateDisconnected, StateReconnecting,
		StateConnecting, StateDisconnected, StateTerminated,
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}
