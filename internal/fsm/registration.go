package fsm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/session"
)

// Registration FSM states. The flow is strictly forward; the only way back
// is the full restart from check_data.
const (
	StateName          session.State = "registration:name"
	StateAge           session.State = "registration:age"
	StateUniversity    session.State = "registration:university"
	StateNewUniversity session.State = "registration:new_university"
	StateSpecialty     session.State = "registration:specialty"
	StateCourse        session.State = "registration:course"
	StateSource        session.State = "registration:source"
	StateCustomSource  session.State = "registration:custom_source"
	StateContact       session.State = "registration:contact"
	StateCheckData     session.State = "registration:check_data"
	StateDataConsent   session.State = "registration:data_consent"
)

var Universities = []string{"🎓 НУЛП", "🎓 ЛНУ", "🎓 НЛТУ", "🎓 IT STEP", "🎓 УКУ", "Інший"}

var Courses = []string{"1 курс 🤓", "2 курс 🤓", "3 курс 🤓", "4 курс 🤓", "Магістратура 🤓", "Аспірантура 🤓"}

var Sources = []string{
	"Instagram", "LinkedIn", "TikTok", "Друзі",
	"Представники університету", "Живі оголошення/інфостійки", "Інше",
}

const (
	ButtonOtherUniversity = "Інший"
	ButtonOtherSource     = "Інше"
	ButtonDataCorrect     = "Правильно ✅"
	ButtonDataIncorrect   = "Неправильно ❌"
	ButtonConsentAccept   = "✅ Погоджуюсь"
	ButtonConsentDecline  = "❌ Відмовляюсь"
)

const (
	MinAge = 16
	MaxAge = 50
)

// step describes one text-collecting node of the registration flow: how to
// validate the input, where to store it, and where to go next. The contact,
// check-data and consent nodes have structural or side-effecting behavior
// and are handled separately in Advance.
type step struct {
	field   string
	accept  func(text string) (string, bool)
	next    func(value string) session.State
	invalid string
}

var steps = map[session.State]step{
	StateName: {
		field:   "name",
		accept:  acceptName,
		next:    func(string) session.State { return StateAge },
		invalid: "‼️ Упс, я не думаю, що твоє ім’я - набір цифр чи однобуквений нік. 😏 Спробуй ще!",
	},
	StateAge: {
		field:   "age",
		accept:  acceptAge,
		next:    func(string) session.State { return StateUniversity },
		invalid: "‼️ Упс, вік має бути числом від 16 😄. Спробуй ще раз 😏:",
	},
	StateUniversity: {
		field:  "university",
		accept: acceptChoice(Universities),
		next: func(v string) session.State {
			if v == ButtonOtherUniversity {
				return StateNewUniversity
			}
			return StateSpecialty
		},
		invalid: "‼️ Будь ласка, вибери один із варіантів нижче:",
	},
	StateNewUniversity: {
		field:   "university",
		accept:  acceptFreeText,
		next:    func(string) session.State { return StateSpecialty },
		invalid: "‼️ Упс, введи коректну назву університету (не менше 2 символів)! 😅",
	},
	StateSpecialty: {
		field:   "specialty",
		accept:  acceptFreeText,
		next:    func(string) session.State { return StateCourse },
		invalid: "‼️ Упс, введи коректну назву спеціальності (не менше 2 символів). 😏 Спробуй ще!",
	},
	StateCourse: {
		field:   "course",
		accept:  acceptChoice(Courses),
		next:    func(string) session.State { return StateSource },
		invalid: "‼️ Будь ласка, вибери один із варіантів нижче:",
	},
	StateSource: {
		field:  "source",
		accept: acceptChoice(Sources),
		next: func(v string) session.State {
			if v == ButtonOtherSource {
				return StateCustomSource
			}
			return StateContact
		},
		invalid: "‼️ Будь ласка, вибери один із варіантів нижче:",
	},
	StateCustomSource: {
		field:   "source",
		accept:  acceptFreeText,
		next:    func(string) session.State { return StateContact },
		invalid: "‼️ Упс, введи коректне джерело (не менше 2 символів)! 😅",
	},
}

// acceptName: alphabetic after stripping spaces, at least two letters.
func acceptName(text string) (string, bool) {
	name := strings.TrimSpace(text)
	stripped := strings.ReplaceAll(name, " ", "")
	if len([]rune(stripped)) < 2 {
		return "", false
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return name, true
}

// acceptAge: digits only, within [MinAge, MaxAge].
func acceptAge(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	age, err := strconv.Atoi(t)
	if err != nil || age < MinAge || age > MaxAge {
		return "", false
	}
	return strconv.Itoa(age), true
}

func acceptChoice(options []string) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, opt := range options {
			if text == opt {
				return opt, true
			}
		}
		return "", false
	}
}

func acceptFreeText(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if len([]rune(t)) < 2 {
		return "", false
	}
	return t, true
}

// buildParticipant turns the accumulated session fields into a participant
// row. The row is written with consent unset; consent is flipped at the
// final step.
func buildParticipant(sess *session.Session, userID, chatID int64) (*models.Participant, error) {
	age, err := strconv.Atoi(sess.Get("age"))
	if err != nil {
		return nil, fmt.Errorf("parsing accumulated age: %w", err)
	}
	return &models.Participant{
		UserID:      userID,
		Name:        sess.Get("name"),
		Age:         age,
		University:  sess.Get("university"),
		Specialty:   sess.Get("specialty"),
		Course:      sess.Get("course"),
		Source:      sess.Get("source"),
		Phone:       sess.Get("phone"),
		DataConsent: false,
		TeamID:      nil,
		ChatID:      chatID,
	}, nil
}

// Repository is the storage surface the registration engine needs.
type Repository interface {
	UpsertParticipant(ctx context.Context, p *models.Participant) error
	SetDataConsent(ctx context.Context, userID int64) error
}
