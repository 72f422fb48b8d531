package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"
	"gopkg.in/telebot.v4"
)

const (
	msgNotInTeam       = "Ви не в команді! Приєднайтесь до команди або створіть нову."
	msgEnterTeamName   = "♦️ Введи назву команди:"
	msgEnterPassword   = "♦️ Введи пароль команди. Ти ж його знаєш, правда? 😅"
	msgInventPassword  = "Вигадай пароль для команди. Знаю, це складно, але воно точно того варте! 🔒"
	msgTestTaskClosed  = "Тестовий етап ще не розпочався або вже закінчився. Слідкуй за оновленнями! 🚩"
	msgMainTaskClosed  = "Основний етап CTF ще не розпочався або вже закінчився. Слідкуй за оновленнями! 🚩"
	msgTestTaskNotYet  = "Йой його поки тут немає😢 Воно буде 15-го листопада. Заряджай ноут, завантажуй усі словники і будь готовий до бою🔥\n" +
		"‼️ Увага ‼️: брати участь можуть лише команди, у яких є щонайменше 3 учасники."
	msgMainTaskBlocked = "Ваша команда ще не пройшла тестове завдання. Завершіть його, щоб отримати доступ до основного CTF завдання! 🚩"
)

// teamFor resolves the sender's team; team is nil when the sender has none.
func (b *Bot) teamFor(uc *UpdateContext) (*models.Participant, *models.Team, error) {
	p, err := b.storage.GetParticipant(uc, uc.Sender().ID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("getting participant: %w", err)
	}
	if p.TeamID == nil {
		return p, nil, nil
	}
	team, err := b.storage.GetTeamByID(uc, *p.TeamID)
	if err != nil {
		if storage.IsNotFound(err) {
			return p, nil, nil
		}
		return nil, nil, fmt.Errorf("getting team: %w", err)
	}
	return p, team, nil
}

func (b *Bot) teamOverview(uc *UpdateContext, team *models.Team) string {
	names := b.teams.MemberNames(uc, team)
	list := "Тільки ти"
	if len(names) > 0 {
		list = strings.Join(names, ", ")
	}
	return fmt.Sprintf("Твоя команда: %s\nУчасники: %d/%d\nСклад: %s",
		team.Name, len(team.Members), models.MaxTeamSize, list)
}

func (b *Bot) freshStatus(uc *UpdateContext, team *models.Team) gate.TeamStatus {
	st, err := b.teams.GetStatus(uc, team.ID)
	if err != nil {
		uc.L().Errorf("failed to get team status: %v", err)
	}
	return st
}

func (b *Bot) handleMyTeam(uc *UpdateContext, sess *session.Session) error {
	phase, err := b.gate.Current(uc)
	if err != nil {
		return fmt.Errorf("reading phase: %w", err)
	}
	if gate.Closed(phase) {
		b.send(uc, msgEventFinished)
		sess.Reset()
		return nil
	}

	p, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if p == nil {
		b.sendWelcome(uc, sess)
		return nil
	}

	if team != nil {
		st := b.freshStatus(uc, team)
		if gate.Demoted(phase, st) {
			b.send(uc, msgTeamRejected, mainMenuKeyboard(false, phase))
			sess.Reset()
			return nil
		}
		b.send(uc, b.teamOverview(uc, team), teamMenuKeyboard(st, phase))
		sess.State = stateTeamMenu
		return nil
	}

	if !gate.TeamChangesAllowed(phase) {
		b.send(uc, msgRegClosed, mainMenuKeyboard(false, phase))
		sess.Reset()
		return nil
	}

	b.sendPhotoAsset(uc, "findTeam.png", "🤝 Знайди свою команду для BEST CTF-2025!")
	b.send(uc, fmt.Sprintf(
		"❌ Ти поки не в команді.\n\n"+
			"Але це не страшно, адже у нас є чат <a href=%q>Знайди команду</a>, де можна познайомитись із тими, хто так само шукає собі мейтів, "+
			"все що тобі потрібно це перейти в чат і представитись! Хто знає, може саме з цими людьми "+
			"ви зійдете на п’єдестал! 🤝\n\n"+
			"Або ж створи свою команду і запроси інших героїв просто зараз:",
		b.config.FindTeamChatLink,
	), noTeamKeyboard(), telebot.ModeHTML)
	sess.Reset()
	return nil
}

func (b *Bot) handleChatLink(uc *UpdateContext) error {
	b.sendPhotoAsset(uc, "chat.png", "💭 Приєднуйся до чату!")
	b.send(uc, fmt.Sprintf("Переходь у <a href=%q>Знайди команду</a>! 🤝", b.config.FindTeamChatLink),
		b.mainMenuKeyboardFresh(uc), telebot.ModeHTML)
	return nil
}

func (b *Bot) handleCreateTeam(uc *UpdateContext, sess *session.Session) error {
	return b.startTeamDialog(uc, sess, stateTeamCreateName,
		"Круто! Давай у кілька натисків по клавіатурі створимо місце, де збираються сильні💪\n\nВведи назву команди:")
}

func (b *Bot) handleJoinTeam(uc *UpdateContext, sess *session.Session) error {
	return b.startTeamDialog(uc, sess, stateTeamJoinName,
		"Зібрався з силами? Приєднуйся до своєї команди! 💪\n\nВведи назву команди:")
}

func (b *Bot) startTeamDialog(uc *UpdateContext, sess *session.Session, first session.State, prompt string) error {
	phase, err := b.gate.Current(uc)
	if err != nil {
		return fmt.Errorf("reading phase: %w", err)
	}
	if !gate.TeamChangesAllowed(phase) {
		b.send(uc, msgRegClosed, mainMenuKeyboard(false, phase))
		sess.Reset()
		return nil
	}

	p, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if p == nil {
		b.sendWelcome(uc, sess)
		return nil
	}
	if team != nil {
		b.send(uc, "Ти вже в команді! Спочатку покинь поточну команду.", mainMenuKeyboard(false, phase))
		return nil
	}

	b.send(uc, prompt, backToMainKeyboard())
	sess.State = first
	return nil
}

func (b *Bot) handleTeamState(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	switch sess.State {
	case stateTeamCreateName:
		return b.handleCreateName(uc, sess, in)
	case stateTeamCreatePassword:
		return b.handleCreatePassword(uc, sess, in)
	case stateTeamCreateConfirm:
		return b.handleCreateConfirm(uc, sess, in)
	case stateTeamJoinName:
		return b.handleJoinName(uc, sess, in)
	case stateTeamJoinPassword:
		return b.handleJoinPassword(uc, sess, in)
	case stateTeamMenu:
		return b.handleTeamMenu(uc, sess, in)
	case stateCVMenu:
		return b.handleCVMenu(uc, sess, in)
	case stateCVUpload:
		return b.handleCVUpload(uc, sess, in)
	case stateLeaveConfirm:
		return b.handleLeaveConfirm(uc, sess, in)
	}
	return fmt.Errorf("unexpected team state %q", sess.State)
}

func (b *Bot) handleCreateName(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Media || in.Text == "" {
		b.send(uc, msgEnterTeamName+"\n"+msgMediaNote, backToMainKeyboard())
		return nil
	}
	if in.Text == btnBackToMain {
		b.sendMainMenu(uc, sess, "")
		return nil
	}
	name := strings.TrimSpace(in.Text)
	if len([]rune(name)) < 2 {
		b.send(uc, msgEnterTeamName+"\n‼️ Назва команди має містити принаймні 2 символи. Спробуй ще раз!", backToMainKeyboard())
		return nil
	}
	if _, err := b.storage.GetTeamByName(uc, name); err == nil {
		b.send(uc, msgEnterTeamName+"\n‼️ Ця назва команди вже зайнята. Вибери іншу!", backToMainKeyboard())
		return nil
	} else if !storage.IsNotFound(err) {
		return fmt.Errorf("checking team name: %w", err)
	}

	sess.Set("team_name", name)
	b.send(uc, msgInventPassword, backToMainKeyboard())
	sess.State = stateTeamCreatePassword
	return nil
}

func (b *Bot) handleCreatePassword(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Media || in.Text == "" {
		b.send(uc, msgInventPassword+"\n"+msgMediaNote, backToMainKeyboard())
		return nil
	}
	if in.Text == btnBackToMain {
		b.sendMainMenu(uc, sess, "")
		return nil
	}
	password := strings.TrimSpace(in.Text)
	if len([]rune(password)) < 4 {
		b.send(uc, msgInventPassword+"\n‼️ Пароль має містити принаймні 4 символи. Спробуй ще раз!", backToMainKeyboard())
		return nil
	}

	sess.Set("team_password", password)
	b.send(uc, fmt.Sprintf("Перевір, чи правильно введено дані:\nНазва команди: %s\nПароль: %s",
		sess.Get("team_name"), password), confirmDataKeyboard())
	sess.State = stateTeamCreateConfirm
	return nil
}

func (b *Bot) handleCreateConfirm(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	reprompt := func(note string) {
		b.send(uc, fmt.Sprintf("Перевір, чи правильно введено дані:\nНазва команди: %s\nПароль: %s\n%s",
			sess.Get("team_name"), sess.Get("team_password"), note), confirmDataKeyboard())
	}

	switch in.Text {
	case fsm.ButtonDataCorrect:
	case fsm.ButtonDataIncorrect:
		b.send(uc, "Добре, давай ще раз! Введи назву команди:", backToMainKeyboard())
		sess.State = stateTeamCreateName
		return nil
	default:
		if in.Media {
			reprompt(msgMediaNote)
		} else {
			reprompt("‼️ Будь ласка, вибери один із варіантів нижче!")
		}
		return nil
	}

	teamName := sess.Get("team_name")
	team, created, err := b.teams.CreateOrJoin(uc, teamName, uc.Sender().ID, sess.Get("team_password"))
	if err != nil {
		if teamsvc.IsCapacityOrAuth(err) {
			b.sendMainMenu(uc, sess, "Цю назву вже зайнято, і пароль не підійшов. Давай інші дані 😜")
			return nil
		}
		return fmt.Errorf("creating team: %w", err)
	}

	phase, _ := b.gate.Current(uc)
	verb := "створив(-ла)"
	if !created {
		verb = "доєднався(-лась) до"
	}
	b.send(uc, fmt.Sprintf("Вітаю! Ти %s команду *%s*!", verb, teamName), telebot.ModeMarkdown)
	b.send(uc, b.teamOverview(uc, team), teamMenuKeyboard(b.freshStatus(uc, team), phase))
	sess.State = stateTeamMenu
	sess.Data = nil
	return nil
}

func (b *Bot) handleJoinName(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Media || in.Text == "" {
		b.send(uc, msgEnterTeamName+"\n"+msgMediaNote, backToMainKeyboard())
		return nil
	}
	if in.Text == btnBackToMain {
		b.sendMainMenu(uc, sess, "")
		return nil
	}
	name := strings.TrimSpace(in.Text)
	if _, err := b.storage.GetTeamByName(uc, name); err != nil {
		if storage.IsNotFound(err) {
			b.send(uc, msgEnterTeamName+"\n‼️ Команда з такою назвою не існує. Перевір назву та спробуй ще раз!", backToMainKeyboard())
			return nil
		}
		return fmt.Errorf("checking team name: %w", err)
	}

	sess.Set("team_name", name)
	b.send(uc, msgEnterPassword, backToMainKeyboard())
	sess.State = stateTeamJoinPassword
	return nil
}

func (b *Bot) handleJoinPassword(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Media || in.Text == "" {
		b.send(uc, msgEnterPassword+"\n"+msgMediaNote, backToMainKeyboard())
		return nil
	}
	if in.Text == btnBackToMain {
		b.sendMainMenu(uc, sess, "")
		return nil
	}

	teamName := sess.Get("team_name")
	team, _, err := b.teams.CreateOrJoin(uc, teamName, uc.Sender().ID, strings.TrimSpace(in.Text))
	if err != nil {
		if teamsvc.IsCapacityOrAuth(err) {
			b.send(uc, msgEnterPassword+
				"\n‼️ Неправильний пароль або команда вже повна (4 учасники). Перевір дані та спробуй ще раз!",
				backToMainKeyboard())
			return nil
		}
		return fmt.Errorf("joining team: %w", err)
	}

	phase, _ := b.gate.Current(uc)
	b.send(uc, fmt.Sprintf("Вітаю, тепер ти успішно доєднався(-лась) до команди *%s*!", teamName), telebot.ModeMarkdown)
	b.send(uc, b.teamOverview(uc, team), teamMenuKeyboard(b.freshStatus(uc, team), phase))
	sess.State = stateTeamMenu
	sess.Data = nil
	return nil
}

func (b *Bot) handleTeamMenu(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	switch in.Text {
	case btnTestTask:
		return b.handleTestTask(uc, sess)
	case btnMainTask:
		return b.handleMainTask(uc, sess)
	case btnMyCV:
		return b.handleOpenCVMenu(uc, sess)
	case btnLeaveTeam:
		return b.handleLeaveRequest(uc, sess)
	case btnBackToMain:
		b.sendMainMenu(uc, sess, "")
		return nil
	}

	_, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if team == nil {
		b.sendMainMenu(uc, sess, msgNotInTeam)
		return nil
	}
	if in.Media {
		b.send(uc, msgMediaNote)
	}
	phase, _ := b.gate.Current(uc)
	b.send(uc, b.teamOverview(uc, team), teamMenuKeyboard(b.freshStatus(uc, team), phase))
	return nil
}

func (b *Bot) handleTestTask(uc *UpdateContext, sess *session.Session) error {
	phase, err := b.gate.Current(uc)
	if err != nil {
		return fmt.Errorf("reading phase: %w", err)
	}

	_, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if team == nil {
		b.sendMainMenu(uc, sess, msgNotInTeam)
		return nil
	}
	st := b.freshStatus(uc, team)

	switch {
	case phase == gate.PhaseRegistration:
		b.sendPhotoAsset(uc, "test.png", "🧪 Тестове завдання для вашої команди!")
		b.send(uc, msgTestTaskNotYet, teamMenuKeyboard(st, phase))
	case gate.TestTaskAvailable(phase, st):
		b.sendPhotoAsset(uc, "test.png", "🧪 Тестове завдання для вашої команди!")
		b.sendDocumentAsset(uc, "test_task.pdf", "🧪 Тестове завдання для вашої команди!")
		b.send(uc, "Це ваше тестове завдання! 🧪\nВиконайте його та надішліть відповідь організаторам.",
			teamMenuKeyboard(st, phase))
	default:
		b.send(uc, msgTestTaskClosed, teamMenuKeyboard(st, phase))
	}
	return nil
}

func (b *Bot) handleMainTask(uc *UpdateContext, sess *session.Session) error {
	phase, err := b.gate.Current(uc)
	if err != nil {
		return fmt.Errorf("reading phase: %w", err)
	}

	_, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if team == nil {
		b.sendMainMenu(uc, sess, msgNotInTeam)
		return nil
	}
	st := b.freshStatus(uc, team)

	switch {
	case !st.IsParticipant || !st.TestTaskPassed:
		b.send(uc, msgMainTaskBlocked, teamMenuKeyboard(st, phase))
	case !gate.MainTaskAvailable(phase, st):
		b.send(uc, msgMainTaskClosed, teamMenuKeyboard(st, phase))
	default:
		b.sendDocumentAsset(uc, "main_task.pdf", "🚩 Основне CTF завдання для вашої команди!")
		b.send(uc, "Це ваше основне CTF завдання! Виконайте його та надішліть відповідь організаторам.",
			teamMenuKeyboard(st, phase))
	}
	return nil
}

func (b *Bot) handleLeaveRequest(uc *UpdateContext, sess *session.Session) error {
	_, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if team == nil {
		b.sendMainMenu(uc, sess, msgNotInTeam)
		return nil
	}
	b.send(uc, fmt.Sprintf("Ти впевнений(-а), що хочеш покинути команду *%s*? 😔", team.Name),
		leaveConfirmKeyboard(), telebot.ModeMarkdown)
	sess.State = stateLeaveConfirm
	return nil
}

func (b *Bot) handleLeaveConfirm(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	_, team, err := b.teamFor(uc)
	if err != nil {
		return err
	}
	if team == nil {
		b.sendMainMenu(uc, sess, msgNotInTeam)
		return nil
	}

	switch in.Text {
	case btnLeaveYes:
		left, err := b.teams.Leave(uc, uc.Sender().ID)
		if err != nil {
			if errors.Is(err, teamsvc.ErrNoTeam) {
				b.sendMainMenu(uc, sess, msgNotInTeam)
				return nil
			}
			return fmt.Errorf("leaving team: %w", err)
		}
		phase, _ := b.gate.Current(uc)
		b.send(uc, fmt.Sprintf(
			"Ти покинув(-ла) команду *%s*. 😢\nАле не хвилюйся, ти можеш створити нову або приєднатися до іншої!",
			left.Name,
		), mainMenuKeyboard(false, phase), telebot.ModeMarkdown)
		sess.Reset()
		return nil
	case btnLeaveNo:
		phase, _ := b.gate.Current(uc)
		b.send(uc, "Чудово, ти залишився(-лась) у команді! 💪", teamMenuKeyboard(b.freshStatus(uc, team), phase))
		sess.State = stateTeamMenu
		return nil
	default:
		note := "‼️ Будь ласка, вибери один із варіантів нижче!"
		if in.Media {
			note = msgMediaNote
		}
		b.send(uc, fmt.Sprintf("%s\nТи впевнений(-а), що хочеш покинути команду *%s*? 😔", note, team.Name),
			leaveConfirmKeyboard(), telebot.ModeMarkdown)
		return nil
	}
}
