package bot

import (
	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"gopkg.in/telebot.v4"
)

// Top-level button labels shared across menus.
const (
	btnRegister     = "Зареєструватись у CTF-2025! 📝"
	btnReRegister   = "Ще раз зареєструватися 📝"
	btnInfoCTF      = "Інформація про CTF 🚩"
	btnInfoBEST     = "Хто такі BEST Lviv❓"
	btnMyTeam       = "Моя команда 🫱🏻‍🫲🏿"
	btnMainTask     = "CTF завдання 🚩"
	btnBackToMain   = "Повернутися до головного меню"
	btnChatLink     = "👉 Чат учасників 💭"
	btnCreateTeam   = "Створити команду 🫱🏻‍🫲🏿"
	btnJoinTeam     = "Приєднатись до команди 👥"
	btnTestTask     = "🧪 Тестове завдання"
	btnMyCV         = "🏆 Моє CV"
	btnLeaveTeam    = "🚪 Покинути команду"
	btnLeaveYes     = "Так, впевнений(-а) ✅"
	btnLeaveNo      = "Ні, залишитись ❌"
	btnUploadCV     = "🫶🏻 Завантажити нове CV"
	btnViewCV       = "👀 Переглянути моє CV"
	btnBack         = "Назад"
	btnAdmBroadcast = "Розсилка 📢"
	btnAdmTeam      = "Змінити статус команди 🔄"
	btnAdmEvent     = "Змінити стан події ⚙️"
	btnAdmExit      = "Вихід з адмінпанелі 🚪"
)

func replyKeyboard(rows ...[]string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	kb := make([][]telebot.ReplyButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telebot.ReplyButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, telebot.ReplyButton{Text: text})
		}
		kb = append(kb, buttons)
	}
	markup.ReplyKeyboard = kb
	return markup
}

func pairRows(options []string) [][]string {
	var rows [][]string
	for i := 0; i < len(options); i += 2 {
		end := i + 2
		if end > len(options) {
			end = len(options)
		}
		rows = append(rows, options[i:end])
	}
	return rows
}

func mainMenuKeyboard(isParticipant bool, phase gate.Phase) *telebot.ReplyMarkup {
	if phase == gate.PhaseMainTask && isParticipant {
		return replyKeyboard([]string{btnMainTask, btnMyTeam})
	}
	return replyKeyboard(
		[]string{btnInfoCTF, btnInfoBEST},
		[]string{btnMyTeam},
	)
}

func registerKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{btnRegister})
}

func teamMenuKeyboard(st gate.TeamStatus, phase gate.Phase) *telebot.ReplyMarkup {
	var rows [][]string
	if phase == gate.PhaseMainTask && st.IsParticipant && st.TestTaskPassed {
		rows = append(rows, []string{btnMyCV})
	} else {
		rows = append(rows,
			[]string{btnTestTask},
			[]string{btnMyCV},
			[]string{btnLeaveTeam},
		)
	}
	rows = append(rows, []string{btnBackToMain})
	return replyKeyboard(rows...)
}

func noTeamKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard(
		[]string{btnChatLink},
		[]string{btnCreateTeam},
		[]string{btnJoinTeam},
		[]string{btnBackToMain},
	)
}

func backToMainKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{btnBackToMain})
}

func leaveConfirmKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{btnLeaveYes}, []string{btnLeaveNo})
}

func confirmDataKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{fsm.ButtonDataCorrect}, []string{fsm.ButtonDataIncorrect})
}

func cvMenuKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{btnUploadCV}, []string{btnViewCV}, []string{btnBack})
}

func backKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard([]string{btnBack})
}

func adminMenuKeyboard() *telebot.ReplyMarkup {
	return replyKeyboard(
		[]string{btnAdmBroadcast, btnAdmTeam},
		[]string{btnAdmEvent, btnAdmExit},
	)
}

// markupFor maps the engine's allowed-input descriptor to a reply markup.
func markupFor(kb fsm.Keyboard) *telebot.ReplyMarkup {
	switch kb {
	case fsm.KeyboardUniversities:
		return replyKeyboard(pairRows(fsm.Universities)...)
	case fsm.KeyboardCourses:
		return replyKeyboard(pairRows(fsm.Courses)...)
	case fsm.KeyboardSources:
		return replyKeyboard(
			[]string{"Instagram", "LinkedIn"},
			[]string{"TikTok", "Друзі"},
			[]string{"Представники університету", "Живі оголошення/інфостійки"},
			[]string{"Інше"},
		)
	case fsm.KeyboardContact:
		markup := &telebot.ReplyMarkup{
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
		markup.ReplyKeyboard = [][]telebot.ReplyButton{{
			{Text: "Поділитися контактом 📱", Contact: true},
		}}
		return markup
	case fsm.KeyboardCheckData:
		return confirmDataKeyboard()
	case fsm.KeyboardConsent:
		return replyKeyboard([]string{fsm.ButtonConsentAccept}, []string{fsm.ButtonConsentDecline})
	default:
		return nil
	}
}
