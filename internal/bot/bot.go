package bot

import (
	"context"
	"strings"

	"github.com/best-lviv/ctf-bot/internal/broadcast"
	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"

	"github.com/best-lviv/ctf-bot/internal/gate"
	"gopkg.in/telebot.v4"
)

// Session states owned by the handler layer (the registration states live
// in the fsm package).
const (
	stateTeamCreateName     session.State = "team:create_name"
	stateTeamCreatePassword session.State = "team:create_password"
	stateTeamCreateConfirm  session.State = "team:create_confirm"
	stateTeamJoinName       session.State = "team:join_name"
	stateTeamJoinPassword   session.State = "team:join_password"
	stateTeamMenu           session.State = "team:menu"
	stateCVMenu             session.State = "team:cv_menu"
	stateCVUpload           session.State = "team:cv_upload"
	stateLeaveConfirm       session.State = "team:leave_confirm"

	stateAdminPassword   session.State = "admin:password"
	stateAdminMenu       session.State = "admin:main"
	stateAdminBroadcast  session.State = "admin:broadcast"
	stateAdminTeamStatus session.State = "admin:team_status"
	stateAdminEventState session.State = "admin:event_state"
)

const (
	msgGenericRetry  = "‼️ Виникла помилка. Спробуй ще раз!"
	msgEventFinished = "Реєстрація та змагання завершені. Дякуємо за участь! 🚩\nЧекаємо вас на BEST CTF 2026! 😎"
	msgRegClosed     = "Реєстрація завершена, дякуємо за інтерес! Спробуйте наступного року. 🚩"
	msgTeamRejected  = "Шкода, але ваша команда не пройшла на змагання. 😢\n" +
		"Не переймайтеся, наступного року також буде CTF! 🚩\n" +
		"Наша команда дуже вдячна, що саме ви захотіли бути частиною нашого івенту! 🙌"
	msgMediaNote = "‼️ Будь ласка, надсилай тільки текст або натискай на кнопки! Не стікери, фото, GIF чи відео."
)

type Bot struct {
	config     *config.Config
	storage    *storage.Storage
	sessions   *session.Store
	engine     *fsm.Engine
	teams      *teamsvc.Service
	gate       *gate.Gate
	dispatcher *broadcast.Dispatcher
	bot        telebot.API
}

func New(
	cfg *config.Config,
	store *storage.Storage,
	sessions *session.Store,
	engine *fsm.Engine,
	teams *teamsvc.Service,
	g *gate.Gate,
	dispatcher *broadcast.Dispatcher,
	api telebot.API,
) *Bot {
	return &Bot{
		config:     cfg,
		storage:    store,
		sessions:   sessions,
		engine:     engine,
		teams:      teams,
		gate:       g,
		dispatcher: dispatcher,
		bot:        api,
	}
}

// Register attaches the bot to every update type it handles.
func (b *Bot) Register(tb *telebot.Bot) {
	for _, updateType := range []string{
		telebot.OnText,
		telebot.OnContact,
		telebot.OnDocument,
		telebot.OnSticker,
		telebot.OnPhoto,
		telebot.OnVideo,
		telebot.OnAnimation,
	} {
		tb.Handle(updateType, b.HandleUpdate)
	}
}

// HandleUpdate is the single entry point for inbound updates. The whole
// handling of one update runs under the sender's session lock, so a user's
// next message is not processed until the previous one has been fully
// handled and persisted.
func (b *Bot) HandleUpdate(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.BotHandleTimeout)
	defer cancel()

	uc := NewUpdateContext(ctx, c)

	if c.Message() == nil || c.Sender() == nil || c.Chat() == nil {
		uc.L().Debug("ignoring update without message")
		return nil
	}
	if c.Chat().Type != telebot.ChatPrivate {
		uc.L().Debugf("ignoring update from non-private chat %d", c.Chat().ID)
		return nil
	}

	in := inputFromMessage(c.Message())

	b.sessions.Do(c.Sender().ID, func(sess *session.Session) {
		if err := b.route(uc, sess, in); err != nil {
			uc.L().Errorf("failed to handle update: %v", err)
			// Never leave a session dangling mid-flow after a failure.
			sess.Reset()
			b.send(uc, msgGenericRetry)
			b.sendMainMenu(uc, sess, "")
		}
	})

	return nil
}

func inputFromMessage(m *telebot.Message) fsm.Input {
	in := fsm.Input{Text: m.Text}
	if m.Contact != nil {
		in.Contact = m.Contact.PhoneNumber
	}
	if m.Sticker != nil || m.Photo != nil || m.Video != nil || m.Animation != nil {
		in.Media = true
	}
	return in
}

func (b *Bot) route(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	// The admin entry phrase only works outside any flow.
	if sess.State == session.StateNone &&
		in.Text != "" &&
		strings.EqualFold(in.Text, b.config.AdminEntryPhrase) {
		return b.handleAdminEntry(uc, sess)
	}

	switch {
	case fsm.InFlow(sess.State):
		return b.handleRegistrationStep(uc, sess, in)
	case isAdminState(sess.State):
		return b.handleAdminState(uc, sess, in)
	case isTeamState(sess.State):
		return b.handleTeamState(uc, sess, in)
	default:
		return b.handleTopLevel(uc, sess, in)
	}
}

func isAdminState(s session.State) bool {
	switch s {
	case stateAdminPassword, stateAdminMenu, stateAdminBroadcast, stateAdminTeamStatus, stateAdminEventState:
		return true
	}
	return false
}

func isTeamState(s session.State) bool {
	switch s {
	case stateTeamCreateName, stateTeamCreatePassword, stateTeamCreateConfirm,
		stateTeamJoinName, stateTeamJoinPassword,
		stateTeamMenu, stateCVMenu, stateCVUpload, stateLeaveConfirm:
		return true
	}
	return false
}

// send delivers a reply within the current update, logging failures rather
// than propagating them: a reply we could not deliver must not corrupt the
// session.
func (b *Bot) send(uc *UpdateContext, what any, opts ...any) {
	if err := uc.TC().Send(what, opts...); err != nil {
		uc.L().Errorf("failed to send reply: %v", err)
	}
}

func (b *Bot) sendOutcome(uc *UpdateContext, out fsm.Outcome) {
	for _, msg := range out.Replies {
		if markup := markupFor(msg.Keyboard); markup != nil {
			b.send(uc, msg.Text, markup)
		} else {
			b.send(uc, msg.Text)
		}
	}
}
