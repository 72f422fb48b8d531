package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

// fakeTelebotContext overrides the handful of telebot.Context methods the
// handlers touch and records everything sent through it.
type fakeTelebotContext struct {
	telebot.Context

	message *telebot.Message
	sent    []any
}

func (f *fakeTelebotContext) Update() telebot.Update { return telebot.Update{ID: 1} }

func (f *fakeTelebotContext) Message() *telebot.Message { return f.message }

func (f *fakeTelebotContext) Sender() *telebot.User { return &telebot.User{ID: 42} }

func (f *fakeTelebotContext) Chat() *telebot.Chat {
	return &telebot.Chat{ID: 4242, Type: telebot.ChatPrivate}
}

func (f *fakeTelebotContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeTelebotContext) sentTexts() []string {
	var out []string
	for _, s := range f.sent {
		if text, ok := s.(string); ok {
			out = append(out, text)
		}
	}
	return out
}

func (f *fakeTelebotContext) sentContaining(substr string) bool {
	for _, text := range f.sentTexts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

func newTestUC(m *telebot.Message) (*UpdateContext, *fakeTelebotContext) {
	tc := &fakeTelebotContext{message: m}
	return NewUpdateContext(context.Background(), tc), tc
}

func newCVUploadSession() *session.Session {
	return &session.Session{State: stateCVUpload}
}

func TestCVUpload_RejectsNonDocument(t *testing.T) {
	b := &Bot{config: &config.Config{}}
	sess := newCVUploadSession()
	uc, tc := newTestUC(&telebot.Message{Text: "ось моє CV"})

	err := b.handleCVUpload(uc, sess, fsm.Input{Text: "ось моє CV"})
	require.NoError(t, err)

	assert.Equal(t, stateCVUpload, sess.State)
	assert.True(t, tc.sentContaining("завантаж файл у форматі PDF"))
}

func TestCVUpload_RejectsWrongMIME(t *testing.T) {
	b := &Bot{config: &config.Config{}}
	sess := newCVUploadSession()
	doc := &telebot.Document{
		File:     telebot.File{FileID: "f1", FileSize: 1024},
		FileName: "cv.docx",
		MIME:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	uc, tc := newTestUC(&telebot.Message{Document: doc})

	err := b.handleCVUpload(uc, sess, fsm.Input{})
	require.NoError(t, err)

	assert.Equal(t, stateCVUpload, sess.State)
	assert.True(t, tc.sentContaining("Файл має бути у форматі PDF"))
}

func TestCVUpload_RejectsOversizedFile(t *testing.T) {
	b := &Bot{config: &config.Config{}}
	sess := newCVUploadSession()
	doc := &telebot.Document{
		File:     telebot.File{FileID: "f1", FileSize: maxCVSize + 1},
		FileName: "cv.pdf",
		MIME:     "application/pdf",
	}
	uc, tc := newTestUC(&telebot.Message{Document: doc})

	err := b.handleCVUpload(uc, sess, fsm.Input{})
	require.NoError(t, err)

	assert.Equal(t, stateCVUpload, sess.State)
	assert.True(t, tc.sentContaining("занадто великий"))
}

func TestCVUpload_BackWithoutSaveReportsNothingSaved(t *testing.T) {
	b := &Bot{config: &config.Config{}}
	sess := newCVUploadSession()
	uc, tc := newTestUC(&telebot.Message{Text: btnBack})

	err := b.handleCVUpload(uc, sess, fsm.Input{Text: btnBack})
	require.NoError(t, err)

	assert.Equal(t, stateCVMenu, sess.State)
	assert.True(t, tc.sentContaining("Файл не було збережено"))
}

func TestCVUpload_BackAfterSaveSkipsWarning(t *testing.T) {
	b := &Bot{config: &config.Config{}}
	sess := newCVUploadSession()
	sess.Set("cv_saved", "true")
	uc, tc := newTestUC(&telebot.Message{Text: btnBack})

	err := b.handleCVUpload(uc, sess, fsm.Input{Text: btnBack})
	require.NoError(t, err)

	assert.Equal(t, stateCVMenu, sess.State)
	assert.False(t, tc.sentContaining("Файл не було збережено"))
}
