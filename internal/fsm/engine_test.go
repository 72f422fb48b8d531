package fsm

import (
	"context"
	"testing"

	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	upserted  []*models.Participant
	consented []int64
	upsertErr error
}

func (f *fakeRepo) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *p
	f.upserted = append(f.upserted, &cp)
	return nil
}

func (f *fakeRepo) SetDataConsent(ctx context.Context, userID int64) error {
	f.consented = append(f.consented, userID)
	return nil
}

func text(s string) Input    { return Input{Text: s} }
func contact(s string) Input { return Input{Contact: s} }

// advance runs one transition and fails the test on engine errors.
func advance(t *testing.T, e *Engine, sess *session.Session, in Input) Outcome {
	t.Helper()
	out, err := e.Advance(context.Background(), sess, 42, 4242, in)
	require.NoError(t, err)
	return out
}

func TestStart_ResetsAndAsksForName(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{State: session.State("team:menu")}
	sess.Set("leftover", "junk")

	out := e.Start(sess)
	assert.Equal(t, StateName, sess.State)
	assert.Equal(t, "", sess.Get("leftover"))
	require.Len(t, out.Replies, 1)
	assert.False(t, out.Done)
}

func TestInFlow(t *testing.T) {
	assert.True(t, InFlow(StateName))
	assert.True(t, InFlow(StateContact))
	assert.True(t, InFlow(StateCheckData))
	assert.True(t, InFlow(StateDataConsent))
	assert.False(t, InFlow(session.StateNone))
	assert.False(t, InFlow(session.State("team:menu")))
}

func TestFullFlow_PersistsParticipant(t *testing.T) {
	repo := &fakeRepo{}
	e := NewEngine(repo)
	sess := &session.Session{}

	e.Start(sess)
	advance(t, e, sess, text("  Оля  "))
	assert.Equal(t, StateAge, sess.State)

	advance(t, e, sess, text("19"))
	assert.Equal(t, StateUniversity, sess.State)

	advance(t, e, sess, text("🎓 НУЛП"))
	assert.Equal(t, StateSpecialty, sess.State)

	advance(t, e, sess, text("Кібербезпека"))
	assert.Equal(t, StateCourse, sess.State)

	advance(t, e, sess, text("2 курс 🤓"))
	assert.Equal(t, StateSource, sess.State)

	advance(t, e, sess, text("Instagram"))
	assert.Equal(t, StateContact, sess.State)

	// The participant row lands when the contact arrives.
	assert.Empty(t, repo.upserted)
	advance(t, e, sess, contact("+380501234567"))
	assert.Equal(t, StateCheckData, sess.State)
	require.Len(t, repo.upserted, 1)

	p := repo.upserted[0]
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, int64(4242), p.ChatID)
	assert.Equal(t, "Оля", p.Name)
	assert.Equal(t, 19, p.Age)
	assert.Equal(t, "🎓 НУЛП", p.University)
	assert.Equal(t, "Кібербезпека", p.Specialty)
	assert.Equal(t, "2 курс 🤓", p.Course)
	assert.Equal(t, "Instagram", p.Source)
	assert.Equal(t, "+380501234567", p.Phone)
	assert.False(t, p.DataConsent)
	assert.Nil(t, p.TeamID)

	advance(t, e, sess, text(ButtonDataCorrect))
	assert.Equal(t, StateDataConsent, sess.State)
	assert.Empty(t, repo.consented)

	out := advance(t, e, sess, text(ButtonConsentAccept))
	assert.True(t, out.Done)
	assert.Equal(t, session.StateNone, sess.State)
	assert.Equal(t, []int64{42}, repo.consented)
}

func TestName_Validation(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)

	for _, bad := range []string{"О", "X1", "Оля123", "!!", "   "} {
		out := advance(t, e, sess, text(bad))
		assert.Equal(t, StateName, sess.State, "input %q must not advance", bad)
		assert.False(t, out.Done)
	}

	// Spaces inside a name are fine.
	advance(t, e, sess, text("Анна Марія"))
	assert.Equal(t, StateAge, sess.State)
	assert.Equal(t, "Анна Марія", sess.Get("name"))
}

func TestAge_Bounds(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))

	for _, bad := range []string{"15", "51", "-5", "abc", "19 років", ""} {
		advance(t, e, sess, text(bad))
		assert.Equal(t, StateAge, sess.State, "input %q must not advance", bad)
	}

	advance(t, e, sess, text("16"))
	assert.Equal(t, StateUniversity, sess.State)
	assert.Equal(t, "16", sess.Get("age"))
}

func TestChoice_RejectsFreeText(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))

	advance(t, e, sess, text("Гарвард"))
	assert.Equal(t, StateUniversity, sess.State)

	advance(t, e, sess, text("🎓 ЛНУ"))
	assert.Equal(t, StateSpecialty, sess.State)
}

func TestUniversity_OtherBranch(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))

	advance(t, e, sess, text(ButtonOtherUniversity))
	assert.Equal(t, StateNewUniversity, sess.State)

	advance(t, e, sess, text("КПІ"))
	assert.Equal(t, StateSpecialty, sess.State)
	assert.Equal(t, "КПІ", sess.Get("university"))
}

func TestSource_OtherBranch(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))
	advance(t, e, sess, text("🎓 НУЛП"))
	advance(t, e, sess, text("ПЗ"))
	advance(t, e, sess, text("1 курс 🤓"))

	advance(t, e, sess, text(ButtonOtherSource))
	assert.Equal(t, StateCustomSource, sess.State)

	advance(t, e, sess, text("Плакат у коридорі"))
	assert.Equal(t, StateContact, sess.State)
	assert.Equal(t, "Плакат у коридорі", sess.Get("source"))
}

func TestContact_RequiresStructuredPayload(t *testing.T) {
	repo := &fakeRepo{}
	e := NewEngine(repo)
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))
	advance(t, e, sess, text("🎓 НУЛП"))
	advance(t, e, sess, text("ПЗ"))
	advance(t, e, sess, text("1 курс 🤓"))
	advance(t, e, sess, text("Instagram"))

	// Typing a phone number as text is not a contact.
	advance(t, e, sess, text("+380501234567"))
	assert.Equal(t, StateContact, sess.State)
	assert.Empty(t, repo.upserted)

	advance(t, e, sess, contact("+380501234567"))
	assert.Equal(t, StateCheckData, sess.State)
	assert.Len(t, repo.upserted, 1)
}

func TestCheckData_IncorrectRestartsFromScratch(t *testing.T) {
	repo := &fakeRepo{}
	e := NewEngine(repo)
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))
	advance(t, e, sess, text("🎓 НУЛП"))
	advance(t, e, sess, text("ПЗ"))
	advance(t, e, sess, text("1 курс 🤓"))
	advance(t, e, sess, text("Instagram"))
	advance(t, e, sess, contact("+380501234567"))

	advance(t, e, sess, text(ButtonDataIncorrect))
	assert.Equal(t, StateName, sess.State)
	assert.Equal(t, "", sess.Get("name"))
	assert.Empty(t, repo.consented)

	// Everything is re-collected; the second run overwrites the first row.
	advance(t, e, sess, text("Макс"))
	advance(t, e, sess, text("21"))
	advance(t, e, sess, text("🎓 УКУ"))
	advance(t, e, sess, text("ПЗ"))
	advance(t, e, sess, text("3 курс 🤓"))
	advance(t, e, sess, text("Друзі"))
	advance(t, e, sess, contact("+380671112233"))

	require.Len(t, repo.upserted, 2)
	assert.Equal(t, "Макс", repo.upserted[1].Name)
	assert.Equal(t, 21, repo.upserted[1].Age)
}

func TestConsent_DeclineAsksAgain(t *testing.T) {
	repo := &fakeRepo{}
	e := NewEngine(repo)
	sess := &session.Session{}
	e.Start(sess)
	advance(t, e, sess, text("Оля"))
	advance(t, e, sess, text("20"))
	advance(t, e, sess, text("🎓 НУЛП"))
	advance(t, e, sess, text("ПЗ"))
	advance(t, e, sess, text("1 курс 🤓"))
	advance(t, e, sess, text("Instagram"))
	advance(t, e, sess, contact("+380501234567"))
	advance(t, e, sess, text(ButtonDataCorrect))

	out := advance(t, e, sess, text(ButtonConsentDecline))
	assert.False(t, out.Done)
	assert.Equal(t, StateDataConsent, sess.State)
	assert.Empty(t, repo.consented)

	out = advance(t, e, sess, text(ButtonConsentAccept))
	assert.True(t, out.Done)
	assert.Equal(t, []int64{42}, repo.consented)
}

func TestMediaInput_Reprompts(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{}
	e.Start(sess)

	out := advance(t, e, sess, Input{Media: true})
	assert.Equal(t, StateName, sess.State)
	require.Len(t, out.Replies, 1)
	assert.Contains(t, out.Replies[0].Text, "тільки текст")
}

func TestAdvance_RejectsForeignState(t *testing.T) {
	e := NewEngine(&fakeRepo{})
	sess := &session.Session{State: session.State("team:menu")}

	_, err := e.Advance(context.Background(), sess, 42, 4242, text("hi"))
	assert.Error(t, err)
}
