package fsm

import (
	"context"
	"fmt"

	"github.com/best-lviv/ctf-bot/internal/session"
)

// Keyboard names the allowed-input descriptor attached to a prompt. The
// transport layer maps it to an actual reply markup.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardUniversities
	KeyboardCourses
	KeyboardSources
	KeyboardContact
	KeyboardCheckData
	KeyboardConsent
)

// Message is one output directive: a prompt plus its keyboard.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// Input is the structural shape of an inbound update, already stripped of
// transport specifics. Contact carries the phone number of a structured
// contact payload; Media flags stickers, photos, videos and animations.
type Input struct {
	Text    string
	Contact string
	Media   bool
}

// Outcome is what a transition produced: the prompts to send and whether
// the flow reached the terminal registered state.
type Outcome struct {
	Replies []Message
	Done    bool
}

const mediaNote = "‼️ Будь ласка, надсилай тільки текст або натискай на кнопки! Не стікери, фото, GIF чи відео."

var prompts = map[session.State]Message{
	StateName:          {Text: "♦️ Введи своє ім'я:"},
	StateAge:           {Text: "Про таке не дуже гарно питати, але все ж 😅 \n♦️ Скільки тобі років? :"},
	StateUniversity:    {Text: "♦️ Введи назву свого університету 🎓", Keyboard: KeyboardUniversities},
	StateNewUniversity: {Text: "Ого, ти з унікального місця! 😄 Введи назву свого університету:"},
	StateSpecialty:     {Text: "♦️ Введи свою спеціальність:"},
	StateCourse:        {Text: "♦️ Вибери свій курс 🤓:", Keyboard: KeyboardCourses},
	StateSource:        {Text: "♦️ Звідки ти дізнався(-лась) про змагання? 📢", Keyboard: KeyboardSources},
	StateCustomSource:  {Text: "Ого, цікаво! Введи, звідки саме ти дізнався(-лась):"},
	StateContact:       {Text: "♦️ Поділись своїм контактом 📱 (натисни кнопку нижче)", Keyboard: KeyboardContact},
	StateCheckData:     {Text: "♦️ Перед тим, як завершити реєстрацію, перевір, чи ти добре ввів(-ела) особисті дані. 😌", Keyboard: KeyboardCheckData},
	StateDataConsent:   {Text: "Чудово! 😊 Тепер підтверди згоду на обробку даних:", Keyboard: KeyboardConsent},
}

// Interstitial replies sent after a step's input was accepted, before the
// next prompt.
var accepted = map[session.State]string{
	StateName:         "Чесно? Це дуже круто 😎",
	StateUniversity:   "Хороший вибір! 🤩",
	StateSpecialty:    "Тільки чесно, сам захотів, чи батьки відправили? 😮‍💨",
	StateSource:       "Реально?? Я так само! 🥳",
	StateCustomSource: "Чудово, додала джерело! 🤓",
}

// Engine drives the registration FSM. It is the only writer of participant
// rows on the registration path.
type Engine struct {
	repo Repository
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Start moves the session to the first step, discarding anything collected
// before.
func (e *Engine) Start(sess *session.Session) Outcome {
	sess.Reset()
	sess.State = StateName
	return Outcome{Replies: []Message{prompts[StateName]}}
}

// InFlow reports whether the state belongs to the registration FSM.
func InFlow(state session.State) bool {
	if _, ok := steps[state]; ok {
		return true
	}
	return state == StateContact || state == StateCheckData || state == StateDataConsent
}

// Advance validates in against the session's current state and transitions.
// Invalid input re-displays the same prompt with a validation note and does
// not change state. Storage errors are returned to the caller, which is
// expected to reset the session to a safe state.
func (e *Engine) Advance(ctx context.Context, sess *session.Session, userID, chatID int64, in Input) (Outcome, error) {
	state := sess.State

	if st, ok := steps[state]; ok {
		return e.advanceStep(sess, state, st, in), nil
	}

	switch state {
	case StateContact:
		return e.advanceContact(ctx, sess, userID, chatID, in)
	case StateCheckData:
		return e.advanceCheckData(sess, in), nil
	case StateDataConsent:
		return e.advanceConsent(ctx, sess, userID, in)
	}

	return Outcome{}, fmt.Errorf("state %q is not a registration state", state)
}

func (e *Engine) advanceStep(sess *session.Session, state session.State, st step, in Input) Outcome {
	if in.Media || in.Text == "" {
		return reprompt(state, mediaNote)
	}
	value, ok := st.accept(in.Text)
	if !ok {
		return reprompt(state, st.invalid)
	}

	sess.Set(st.field, value)
	next := st.next(value)
	sess.State = next

	var replies []Message
	if note, ok := accepted[state]; ok && next != StateNewUniversity && next != StateCustomSource {
		replies = append(replies, Message{Text: note})
	}
	if state == StateAge {
		replies = append(replies,
			Message{Text: fmt.Sprintf("%s - поважна цифра 🧐. Скоро з тобою підемо на пенсію", value)},
			Message{Text: "📌 Май на увазі, участь у наших змаганнях можуть брати лише поточні студенти.\n\n"},
		)
	}
	replies = append(replies, prompts[next])
	return Outcome{Replies: replies}
}

func (e *Engine) advanceContact(ctx context.Context, sess *session.Session, userID, chatID int64, in Input) (Outcome, error) {
	if in.Contact == "" {
		return reprompt(StateContact, "‼️ Упс, будь ласка, натисни 'Поділитися контактом' для надсилання контакту!"), nil
	}

	sess.Set("phone", in.Contact)
	p, err := buildParticipant(sess, userID, chatID)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.repo.UpsertParticipant(ctx, p); err != nil {
		return Outcome{}, fmt.Errorf("persisting participant: %w", err)
	}

	sess.State = StateCheckData
	return Outcome{Replies: []Message{prompts[StateCheckData]}}, nil
}

func (e *Engine) advanceCheckData(sess *session.Session, in Input) Outcome {
	switch in.Text {
	case ButtonDataCorrect:
		sess.State = StateDataConsent
		return Outcome{Replies: []Message{prompts[StateDataConsent]}}
	case ButtonDataIncorrect:
		// Full restart: the participant row persisted at the contact step
		// will be overwritten by the next run of the form.
		return e.Start(sess)
	default:
		return reprompt(StateCheckData, "‼️ Будь ласка, вибери одну з кнопок нижче:")
	}
}

func (e *Engine) advanceConsent(ctx context.Context, sess *session.Session, userID int64, in Input) (Outcome, error) {
	switch in.Text {
	case ButtonConsentAccept:
		if err := e.repo.SetDataConsent(ctx, userID); err != nil {
			return Outcome{}, fmt.Errorf("persisting consent: %w", err)
		}
		sess.Reset()
		return Outcome{
			Replies: []Message{{Text: "Круто! Коли буду готувати атаку на пентагон, буду знати, куди телефонувати😏"}},
			Done:    true,
		}, nil
	case ButtonConsentDecline:
		// No forced path to reject: explain and ask again.
		return Outcome{Replies: []Message{{
			Text: "Наша команда збирає особисту інформацію учасників лише задля загальної статистики події 🥹\n" +
				"Будемо безмежно вдячні, якщо обереш '✅ Погоджуюсь'! 😌",
			Keyboard: KeyboardConsent,
		}}}, nil
	default:
		return reprompt(StateDataConsent, "‼️ Будь ласка, вибери одну з кнопок нижче:"), nil
	}
}

func reprompt(state session.State, note string) Outcome {
	p := prompts[state]
	return Outcome{Replies: []Message{{
		Text:     p.Text + "\n" + note,
		Keyboard: p.Keyboard,
	}}}
}
