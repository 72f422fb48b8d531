package bot

import (
	"fmt"
	"strings"

	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/session"
)

const (
	msgAdminWelcome = "Вітаю, ви в адмінпанелі!"
	msgAdminDenied  = "Ви не маєте прав для виконання цієї команди! 🚫"

	adminTeamStatusUsage = "Використовуйте: /set_team_status <team_name> <test_task_status> <is_participant>\n" +
		"Наприклад: /set_team_status Falcons true true"
	adminEventStateUsage = "Використовуйте: /set_event_state <state>\n" +
		"Допустимі стани: registration, test_task, main_task, finished\n" +
		"Наприклад: /set_event_state test_task"
)

func (b *Bot) handleAdminEntry(uc *UpdateContext, sess *session.Session) error {
	uc.L().Infof("received admin entry phrase from user %d", uc.Sender().ID)
	b.send(uc, "Введіть пароль для адмінпанелі:")
	sess.State = stateAdminPassword
	return nil
}

func (b *Bot) handleAdminState(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	switch sess.State {
	case stateAdminPassword:
		if in.Text == b.config.AdminPassword {
			b.sendAdminMenu(uc, sess)
		} else {
			b.send(uc, "Неправильний пароль. Спробуйте ще раз.")
		}
		return nil
	case stateAdminMenu:
		return b.handleAdminMenu(uc, sess, in)
	case stateAdminBroadcast:
		return b.handleAdminBroadcast(uc, sess, in)
	case stateAdminTeamStatus:
		return b.handleAdminTeamStatus(uc, sess, in)
	case stateAdminEventState:
		return b.handleAdminEventState(uc, sess, in)
	}
	return fmt.Errorf("unexpected admin state %q", sess.State)
}

func (b *Bot) sendAdminMenu(uc *UpdateContext, sess *session.Session) {
	b.send(uc, msgAdminWelcome, adminMenuKeyboard())
	sess.State = stateAdminMenu
	sess.Data = nil
}

func (b *Bot) handleAdminMenu(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	switch in.Text {
	case btnAdmBroadcast:
		b.send(uc, "Введіть текст для розсилки:")
		sess.State = stateAdminBroadcast
	case btnAdmTeam:
		b.send(uc, "Введіть команду у форматі:\n"+adminTeamStatusUsage)
		sess.State = stateAdminTeamStatus
	case btnAdmEvent:
		b.send(uc, "Введіть команду у форматі:\n"+adminEventStateUsage)
		sess.State = stateAdminEventState
	case btnAdmExit:
		b.sendMainMenu(uc, sess, "")
	default:
		b.send(uc, msgAdminWelcome+"\n‼️ Будь ласка, вибери один із варіантів нижче!", adminMenuKeyboard())
	}
	return nil
}

func (b *Bot) handleAdminBroadcast(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Text == "" {
		b.send(uc, "Введіть текст для розсилки:")
		return nil
	}

	attempted, failed, err := b.dispatcher.Broadcast(uc, in.Text)
	if err != nil {
		uc.L().Errorf("broadcast failed: %v", err)
		b.send(uc, "Виникла помилка під час розсилки.")
	} else {
		b.send(uc, fmt.Sprintf("Розсилка завершена. Успішно надіслано: %d/%d.", attempted-failed, attempted))
	}

	b.sendAdminMenu(uc, sess)
	return nil
}

func (b *Bot) handleAdminTeamStatus(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if !b.config.IsAdmin(uc.Sender().ID) {
		uc.L().Warnf("user %d attempted /set_team_status without admin rights", uc.Sender().ID)
		b.send(uc, msgAdminDenied)
		b.sendAdminMenu(uc, sess)
		return nil
	}

	args := strings.Fields(in.Text)
	if len(args) != 4 || args[0] != "/set_team_status" {
		b.send(uc, adminTeamStatusUsage)
		return nil
	}
	teamName := args[1]
	testStr, participantStr := strings.ToLower(args[2]), strings.ToLower(args[3])
	if !isBool(testStr) || !isBool(participantStr) {
		b.send(uc, "Значення test_task_status і is_participant повинні бути 'true' або 'false'!")
		return nil
	}

	testPassed, isParticipant := testStr == "true", participantStr == "true"
	if testPassed {
		// A passed test task admits the team, so report what is stored.
		isParticipant = true
	}

	matched, err := b.teams.SetStatusByName(uc, teamName, testPassed, isParticipant)
	if err != nil {
		uc.L().Errorf("failed to update team %q status: %v", teamName, err)
		b.send(uc, "Виникла помилка при оновленні статусу команди! 😓")
	} else if !matched {
		b.send(uc, fmt.Sprintf("Команду %s не знайдено! 😢", teamName))
	} else {
		b.send(uc, fmt.Sprintf("Статус команди %s оновлено: test_task_status=%t, is_participant=%t 🚩",
			teamName, testPassed, isParticipant))
		uc.L().Infof("team %q status updated by admin %d", teamName, uc.Sender().ID)
	}

	b.sendAdminMenu(uc, sess)
	return nil
}

func (b *Bot) handleAdminEventState(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if !b.config.IsAdmin(uc.Sender().ID) {
		uc.L().Warnf("user %d attempted /set_event_state without admin rights", uc.Sender().ID)
		b.send(uc, msgAdminDenied)
		b.sendAdminMenu(uc, sess)
		return nil
	}

	args := strings.Fields(in.Text)
	if len(args) != 2 || args[0] != "/set_event_state" {
		b.send(uc, adminEventStateUsage)
		return nil
	}

	phase, err := gate.ParsePhase(strings.ToLower(args[1]))
	if err != nil {
		b.send(uc, "Невірний стан! Допустимі стани: registration, test_task, main_task, finished")
		return nil
	}

	if err := b.gate.Set(uc, phase); err != nil {
		uc.L().Errorf("failed to update event phase: %v", err)
		b.send(uc, "Виникла помилка при оновленні стану події! 😓")
	} else {
		b.send(uc, fmt.Sprintf("Стан події оновлено: %s ⚙️", phase))
		uc.L().Infof("event phase updated to %q by admin %d", phase, uc.Sender().ID)
	}

	b.sendAdminMenu(uc, sess)
	return nil
}

func isBool(s string) bool {
	return s == "true" || s == "false"
}
