package bot

import (
	"fmt"
	"math/rand"

	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"gopkg.in/telebot.v4"
)

var mainMenuGreetings = []string{
	"Вітаю, чемпіоне! Ти щойно потрапив у світ загадок і експлойтів BEST CTF! 🚩",
	"Ласкаво просимо на BEST CTF! Твої пригоди починаються тут.😉",
	"Йо-хо-хо! І флаг у кишеню! Лет’s гоу! 🚩",
	"Сезон полювання за байтами “BEST CTF 2025” відкрито! Покажи себе🔥",
	"Увага, увага! У гру заходить новий претендент на чемпіонський кубок BEST CTF. 😎",
}

func (b *Bot) handleTopLevel(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Media {
		b.send(uc, msgMediaNote)
		b.sendMainMenu(uc, sess, "")
		return nil
	}

	switch in.Text {
	case "/start":
		return b.handleStart(uc, sess)
	case btnRegister:
		return b.handleRegisterButton(uc, sess)
	case btnReRegister:
		out := b.engine.Start(sess)
		b.sendOutcome(uc, out)
		return nil
	case btnInfoCTF:
		b.sendInfoCTF(uc)
		return nil
	case btnInfoBEST:
		b.sendInfoBEST(uc)
		return nil
	case btnMyTeam:
		return b.handleMyTeam(uc, sess)
	case btnChatLink:
		return b.handleChatLink(uc)
	case btnCreateTeam:
		return b.handleCreateTeam(uc, sess)
	case btnJoinTeam:
		return b.handleJoinTeam(uc, sess)
	case btnMainTask:
		return b.handleMainTask(uc, sess)
	case btnBackToMain:
		b.sendMainMenu(uc, sess, "")
		return nil
	default:
		b.sendMainMenu(uc, sess, "")
		return nil
	}
}

func (b *Bot) handleStart(uc *UpdateContext, sess *session.Session) error {
	registered, err := b.storage.IsRegistered(uc, uc.Sender().ID)
	if err != nil {
		return fmt.Errorf("checking registration: %w", err)
	}
	if !registered {
		b.sendWelcome(uc, sess)
		return nil
	}

	p, err := b.storage.GetParticipant(uc, uc.Sender().ID)
	if err != nil {
		return fmt.Errorf("getting participant: %w", err)
	}
	b.send(uc, fmt.Sprintf(
		"Привіт, %s, рада тебе тут бачити! Ти вже зареєстрований(-на), тому \nWell done! 🎉 \nТепер ти можеш:\n"+
			" ✅ Увійти в команду чи створити свою\n"+
			" ✅ Дізнатись усе про подію ℹ️\n"+
			"\nЯкщо не маєш команди, з якою хочеш брати участь — пірнай у чат учасників %s. Там можна легко знайти однодумців! 🤝\n",
		p.Name, b.config.FindTeamChatLink,
	), b.mainMenuKeyboardFresh(uc))
	b.send(uc, mainMenuGreetings[rand.Intn(len(mainMenuGreetings))])
	sess.Reset()
	return nil
}

func (b *Bot) sendWelcome(uc *UpdateContext, sess *session.Session) {
	b.send(uc,
		"🚩 Ласкаво просимо до CTF-2025! 🚩\n"+
			"  Немає часу зволікати. Дій! ⚡️\n"+
			"  Спочатку зареєструйся як учасник, а потім створи або приєднайся до команди! 🤝",
		registerKeyboard(),
	)
	sess.Reset()
}

func (b *Bot) handleRegisterButton(uc *UpdateContext, sess *session.Session) error {
	registered, err := b.storage.IsRegistered(uc, uc.Sender().ID)
	if err != nil {
		return fmt.Errorf("checking registration: %w", err)
	}
	if registered {
		return b.handleStart(uc, sess)
	}

	b.sendPhotoAsset(uc, "register.png", "🚩 Починаємо реєстрацію в CTF-2025! 🚩")
	out := b.engine.Start(sess)
	b.sendOutcome(uc, out)
	return nil
}

func (b *Bot) handleRegistrationStep(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	out, err := b.engine.Advance(uc, sess, uc.Sender().ID, uc.Chat().ID, in)
	if err != nil {
		return fmt.Errorf("advancing registration: %w", err)
	}
	b.sendOutcome(uc, out)
	if out.Done {
		b.sendMainMenu(uc, sess, "")
	}
	return nil
}

// mainMenuKeyboardFresh builds the main-menu keyboard for the sender's
// current participation, reading the phase fresh.
func (b *Bot) mainMenuKeyboardFresh(uc *UpdateContext) *telebot.ReplyMarkup {
	phase, err := b.gate.Current(uc)
	if err != nil {
		uc.L().Errorf("failed to read phase: %v", err)
		phase = gate.PhaseRegistration
	}
	isParticipant := false
	if p, err := b.storage.GetParticipant(uc, uc.Sender().ID); err == nil && p.TeamID != nil {
		if st, err := b.teams.GetStatus(uc, *p.TeamID); err == nil {
			isParticipant = st.IsParticipant
		}
	}
	return mainMenuKeyboard(isParticipant, phase)
}

// sendMainMenu is the safe landing point of every flow: it re-reads the
// phase, applies the demotion rule and clears the session. errText, when
// set, replaces the standard menu text.
func (b *Bot) sendMainMenu(uc *UpdateContext, sess *session.Session, errText string) {
	defer sess.Reset()

	phase, err := b.gate.Current(uc)
	if err != nil {
		uc.L().Errorf("failed to read phase: %v", err)
		phase = gate.PhaseRegistration
	}
	if gate.Closed(phase) {
		b.send(uc, msgEventFinished)
		return
	}

	p, err := b.storage.GetParticipant(uc, uc.Sender().ID)
	if err != nil {
		if !storage.IsNotFound(err) {
			uc.L().Errorf("failed to get participant: %v", err)
		}
		b.sendWelcome(uc, sess)
		return
	}

	isParticipant := false
	if p.TeamID != nil {
		st, err := b.teams.GetStatus(uc, *p.TeamID)
		if err != nil {
			uc.L().Errorf("failed to get team status: %v", err)
		}
		isParticipant = st.IsParticipant
		if gate.Demoted(phase, st) {
			b.send(uc, msgTeamRejected, mainMenuKeyboard(false, phase))
			return
		}
	}

	text := errText
	if text == "" {
		text = mainMenuMessage(isParticipant, phase, b.config.ParticipantsChatLink, b.config.FindTeamChatLink)
	}
	b.send(uc, text, mainMenuKeyboard(isParticipant, phase), telebot.ModeHTML)
}

func mainMenuMessage(isParticipant bool, phase gate.Phase, participantsLink, findTeamLink string) string {
	if isParticipant {
		if phase == gate.PhaseMainTask {
			return fmt.Sprintf(
				"Тепер ти можеш:\n"+
					" ✅ Виконати основне CTF завдання\n"+
					" ✅ Переглянути інформацію про свою команду\n\n"+
					"Якщо хочеш поспілкуватися з іншими учасниками — пірнай у <a href=%q>Чат учасників</a>.",
				participantsLink,
			)
		}
		return fmt.Sprintf(
			"Повертаємось до головного меню! 😊\n"+
				"Тепер ти можеш:\n"+
				" ✅ Перейти до меню команди\n"+
				" ✅ Дізнатись усе про подію ℹ️\n\n"+
				"Якщо хочеш поспілкуватися з тими, хто вже пройшов тестове завдання — пірнай у <a href=%q>Чат учасників</a>.",
			participantsLink,
		)
	}
	return fmt.Sprintf(
		"Повертаємось до головного меню! 😊\n"+
			"Тепер ти можеш:\n"+
			" ✅ Увійти в команду чи створити свою\n"+
			" ✅ Дізнатись усе про подію ℹ️\n\n"+
			"Якщо не маєш команди, з якою хочеш брати участь — пірнай у <a href=%q>Знайди команду</a>.",
		findTeamLink,
	)
}
