package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/best-lviv/ctf-bot/internal/broadcast"
	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeBackend covers every storage surface the admin service reaches:
// phase row, team rows and the participant list for broadcasts.
type fakeBackend struct {
	phase        string
	team         *models.Team
	participants []*models.Participant
}

func (f *fakeBackend) GetPhase(ctx context.Context) (string, error) { return f.phase, nil }

func (f *fakeBackend) SetPhase(ctx context.Context, phase string) error {
	f.phase = phase
	return nil
}

func (f *fakeBackend) GetParticipant(ctx context.Context, userID int64) (*models.Participant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBackend) SetParticipantTeam(ctx context.Context, userID int64, teamID *string) error {
	return nil
}

func (f *fakeBackend) CreateTeam(ctx context.Context, team *models.Team) (bool, error) {
	return false, nil
}

func (f *fakeBackend) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	if f.team != nil && f.team.Name == name {
		return f.team, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBackend) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	if f.team != nil && f.team.ID == id {
		return f.team, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBackend) UpdateTeamMembers(ctx context.Context, team *models.Team) (bool, error) {
	return false, nil
}

func (f *fakeBackend) UpdateTeamStatus(ctx context.Context, teamID string, testTaskPassed, isParticipant bool) (bool, error) {
	if f.team == nil || f.team.ID != teamID {
		return false, nil
	}
	f.team.TestTaskPassed = testTaskPassed
	f.team.IsParticipant = isParticipant
	return true, nil
}

func (f *fakeBackend) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return f.participants, nil
}

type nopNotifier struct{ sent int }

func (n *nopNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	n.sent++
	return nil
}

func (n *nopNotifier) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	return nil
}

func (n *nopNotifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return nil
}

func newTestServer(backend *fakeBackend, notifier *nopNotifier, token string) *echo.Echo {
	cfg := &config.Config{APIToken: token}
	teams := teamsvc.New(backend, notifier, time.Second, "@org")
	dispatcher := broadcast.New(backend, notifier, time.Second)

	e := echo.New()
	NewService(cfg, teams, gate.New(backend), dispatcher).Register(e)
	return e
}

func do(e *echo.Echo, token, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireToken(t *testing.T) {
	e := newTestServer(&fakeBackend{}, &nopNotifier{}, "s3cret")

	rec := do(e, "", "/admin/phase", `{"phase":"test_task"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, "wrong", "/admin/phase", `{"phase":"test_task"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, "s3cret", "/admin/phase", `{"phase":"test_task"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireToken_EmptyConfiguredTokenDeniesAll(t *testing.T) {
	e := newTestServer(&fakeBackend{}, &nopNotifier{}, "")

	rec := do(e, "", "/admin/phase", `{"phase":"test_task"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetPhase(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestServer(backend, &nopNotifier{}, "s3cret")

	rec := do(e, "s3cret", "/admin/phase", `{"phase":"main_task"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "main_task", backend.phase)

	rec = do(e, "s3cret", "/admin/phase", `{"phase":"halftime"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "main_task", backend.phase)
}

func TestSetTeamStatus(t *testing.T) {
	backend := &fakeBackend{team: &models.Team{ID: "t1", Name: "Falcons"}}
	e := newTestServer(backend, &nopNotifier{}, "s3cret")

	rec := do(e, "s3cret", "/admin/team_status", `{"team_name":"Falcons","test_task_passed":true,"is_participant":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, backend.team.TestTaskPassed)
	// Passing the test task admits the team regardless of the flag sent.
	assert.True(t, backend.team.IsParticipant)

	rec = do(e, "s3cret", "/admin/team_status", `{"team_name":"Ghosts","test_task_passed":true,"is_participant":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, "s3cret", "/admin/team_status", `{"test_task_passed":true,"is_participant":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBroadcastEndpoint(t *testing.T) {
	backend := &fakeBackend{participants: []*models.Participant{
		{UserID: 1, ChatID: 101},
		{UserID: 2, ChatID: 102},
		{UserID: 3, ChatID: 0},
	}}
	notifier := &nopNotifier{}
	e := newTestServer(backend, notifier, "s3cret")

	rec := do(e, "s3cret", "/admin/broadcast", `{"text":"Привіт усім!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, notifier.sent)
	assert.JSONEq(t, `{"attempted":2,"failed":0,"succeeded":2}`, rec.Body.String())

	rec = do(e, "s3cret", "/admin/broadcast", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
