package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhaseStore struct {
	phase string
	err   error
}

func (f *fakePhaseStore) GetPhase(ctx context.Context) (string, error) {
	return f.phase, f.err
}

func (f *fakePhaseStore) SetPhase(ctx context.Context, phase string) error {
	if f.err != nil {
		return f.err
	}
	f.phase = phase
	return nil
}

func TestParsePhase(t *testing.T) {
	for _, p := range Phases() {
		parsed, err := ParsePhase(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePhase("halftime")
	assert.Error(t, err)

	_, err = ParsePhase("")
	assert.Error(t, err)
}

func TestCurrent_MissingRowDefaultsToRegistration(t *testing.T) {
	g := New(&fakePhaseStore{phase: ""})

	phase, err := g.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseRegistration, phase)
}

func TestCurrent_ReadsFreshValue(t *testing.T) {
	store := &fakePhaseStore{phase: "registration"}
	g := New(store)

	phase, err := g.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseRegistration, phase)

	require.NoError(t, g.Set(context.Background(), PhaseMainTask))

	phase, err = g.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseMainTask, phase)
}

func TestCurrent_Errors(t *testing.T) {
	storeErr := errors.New("connection refused")
	g := New(&fakePhaseStore{err: storeErr})

	_, err := g.Current(context.Background())
	assert.ErrorIs(t, err, storeErr)

	g = New(&fakePhaseStore{phase: "garbage"})
	_, err = g.Current(context.Background())
	assert.Error(t, err)
}

func TestClosed(t *testing.T) {
	assert.True(t, Closed(PhaseFinished))
	assert.False(t, Closed(PhaseRegistration))
	assert.False(t, Closed(PhaseTestTask))
	assert.False(t, Closed(PhaseMainTask))
}

func TestTeamChangesAllowed(t *testing.T) {
	assert.True(t, TeamChangesAllowed(PhaseRegistration))
	assert.False(t, TeamChangesAllowed(PhaseTestTask))
	assert.False(t, TeamChangesAllowed(PhaseMainTask))
	assert.False(t, TeamChangesAllowed(PhaseFinished))
}

func TestDemoted(t *testing.T) {
	notPassed := TeamStatus{}
	passed := TeamStatus{TestTaskPassed: true}

	assert.False(t, Demoted(PhaseRegistration, notPassed))
	assert.True(t, Demoted(PhaseTestTask, notPassed))
	assert.True(t, Demoted(PhaseMainTask, notPassed))
	assert.False(t, Demoted(PhaseFinished, notPassed))

	assert.False(t, Demoted(PhaseTestTask, passed))
	assert.False(t, Demoted(PhaseMainTask, passed))
}

func TestTestTaskAvailable(t *testing.T) {
	passed := TeamStatus{TestTaskPassed: true}

	assert.True(t, TestTaskAvailable(PhaseTestTask, passed))
	assert.False(t, TestTaskAvailable(PhaseTestTask, TeamStatus{}))
	assert.False(t, TestTaskAvailable(PhaseRegistration, passed))
	assert.False(t, TestTaskAvailable(PhaseMainTask, passed))
	assert.False(t, TestTaskAvailable(PhaseFinished, passed))
}

func TestMainTaskAvailable(t *testing.T) {
	admitted := TeamStatus{IsParticipant: true, TestTaskPassed: true}

	assert.True(t, MainTaskAvailable(PhaseMainTask, admitted))
	assert.False(t, MainTaskAvailable(PhaseMainTask, TeamStatus{TestTaskPassed: true}))
	assert.False(t, MainTaskAvailable(PhaseMainTask, TeamStatus{IsParticipant: true}))
	assert.False(t, MainTaskAvailable(PhaseTestTask, admitted))
	assert.False(t, MainTaskAvailable(PhaseFinished, admitted))
}
