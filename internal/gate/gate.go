package gate

import (
	"context"
	"fmt"
)

// Phase is the global lifecycle stage of the event. It lives in a single
// storage row and must be re-read for every gated decision, so an admin
// change is visible to the very next action of any session.
type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhaseTestTask     Phase = "test_task"
	PhaseMainTask     Phase = "main_task"
	PhaseFinished     Phase = "finished"
)

var allPhases = []Phase{PhaseRegistration, PhaseTestTask, PhaseMainTask, PhaseFinished}

func Phases() []Phase {
	return allPhases
}

func ParsePhase(s string) (Phase, error) {
	for _, p := range allPhases {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown event phase %q", s)
}

// TeamStatus is what the gate needs to know about a participant's team.
type TeamStatus struct {
	IsParticipant  bool
	TestTaskPassed bool
}

type PhaseReader interface {
	GetPhase(ctx context.Context) (string, error)
}

type PhaseStore interface {
	PhaseReader
	SetPhase(ctx context.Context, phase string) error
}

type Gate struct {
	store PhaseStore
}

func New(store PhaseStore) *Gate {
	return &Gate{store: store}
}

// Current reads the phase fresh from storage. A missing row means the event
// is still in registration.
func (g *Gate) Current(ctx context.Context) (Phase, error) {
	raw, err := g.store.GetPhase(ctx)
	if err != nil {
		return "", fmt.Errorf("reading phase: %w", err)
	}
	if raw == "" {
		return PhaseRegistration, nil
	}
	phase, err := ParsePhase(raw)
	if err != nil {
		return "", fmt.Errorf("stored phase: %w", err)
	}
	return phase, nil
}

func (g *Gate) Set(ctx context.Context, phase Phase) error {
	if err := g.store.SetPhase(ctx, string(phase)); err != nil {
		return fmt.Errorf("setting phase: %w", err)
	}
	return nil
}

// Everything below is a pure function of (phase, team status) so that every
// gating rule can be tested without storage or transport.

// Closed reports whether the event is over and no stateful action is
// available to anyone.
func Closed(p Phase) bool {
	return p == PhaseFinished
}

// TeamChangesAllowed reports whether teams may be created, joined or left.
func TeamChangesAllowed(p Phase) bool {
	return p == PhaseRegistration
}

// Demoted reports whether a team is shown the rejection message and dropped
// to the non-participant menu: the competition has moved past registration
// and the team did not pass the test task.
func Demoted(p Phase, st TeamStatus) bool {
	return (p == PhaseTestTask || p == PhaseMainTask) && !st.TestTaskPassed
}

// TestTaskAvailable reports whether the test task document may be handed to
// a team.
func TestTaskAvailable(p Phase, st TeamStatus) bool {
	return p == PhaseTestTask && st.TestTaskPassed
}

// MainTaskAvailable reports whether the main task document may be handed to
// a team. Admission is required on top of the test task.
func MainTaskAvailable(p Phase, st TeamStatus) bool {
	return p == PhaseMainTask && st.IsParticipant && st.TestTaskPassed
}
