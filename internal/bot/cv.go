package bot

import (
	"fmt"

	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"gopkg.in/telebot.v4"
)

const maxCVSize = 20 * 1024 * 1024

const msgCVPitch = "Це потрібно, бо Твоє резюме побачать круті компанії. " +
	"Тому це можливість отримати якусь цікаву пропозицію, яка змінить твоє життя 😉"

func (b *Bot) handleOpenCVMenu(uc *UpdateContext, sess *session.Session) error {
	b.send(uc, msgCVPitch, cvMenuKeyboard())
	sess.State = stateCVMenu
	return nil
}

func (b *Bot) handleCVMenu(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	switch in.Text {
	case btnUploadCV:
		sess.Set("cv_saved", "")
		b.send(uc, "Завантаж своє CV у форматі PDF (максимум 20 МБ). 😄", backKeyboard())
		sess.State = stateCVUpload
		return nil
	case btnViewCV:
		return b.handleViewCV(uc)
	case btnBack:
		_, team, err := b.teamFor(uc)
		if err != nil {
			return err
		}
		if team == nil {
			b.sendMainMenu(uc, sess, msgNotInTeam)
			return nil
		}
		phase, _ := b.gate.Current(uc)
		b.send(uc, b.teamOverview(uc, team), teamMenuKeyboard(b.freshStatus(uc, team), phase))
		sess.State = stateTeamMenu
		return nil
	default:
		note := "‼️ Будь ласка, вибери один із варіантів нижче!"
		if in.Media {
			note = msgMediaNote
		}
		b.send(uc, msgCVPitch+"\n"+note, cvMenuKeyboard())
		return nil
	}
}

func (b *Bot) handleViewCV(uc *UpdateContext) error {
	cv, err := b.storage.GetCV(uc, uc.Sender().ID)
	if err != nil {
		if storage.IsNotFound(err) {
			b.send(uc, "Упс, здається, ти ще не завантажував(-ла) CV! 😅 Спробуй завантажити нове.", cvMenuKeyboard())
			return nil
		}
		return fmt.Errorf("getting cv: %w", err)
	}

	b.send(uc, "Там все чотінько, я перевірила. Ось твоє останнє CV! ❤️‍🔥")
	b.send(uc, &telebot.Document{
		File:     telebot.File{FileID: cv.FileID},
		FileName: cv.FileName,
		Caption:  "Ось твоє CV!",
	}, cvMenuKeyboard())
	return nil
}

// handleCVUpload accepts only a PDF document up to 20 MB; anything else
// re-prompts without changing state.
func (b *Bot) handleCVUpload(uc *UpdateContext, sess *session.Session, in fsm.Input) error {
	if in.Text == btnBack {
		if sess.Get("cv_saved") != "true" {
			b.send(uc, "Файл не було збережено.")
		}
		b.send(uc, msgCVPitch, cvMenuKeyboard())
		sess.State = stateCVMenu
		return nil
	}

	doc := uc.Message().Document
	if doc == nil {
		b.send(uc, "‼️ Будь ласка, завантаж файл у форматі PDF!", backKeyboard())
		return nil
	}
	if doc.MIME != "application/pdf" {
		b.send(uc, "‼️ Файл має бути у форматі PDF!", backKeyboard())
		return nil
	}
	if doc.FileSize > maxCVSize {
		b.send(uc, "‼️ Файл занадто великий! Максимальний розмір — 20 МБ. Спробуй ще раз!", backKeyboard())
		return nil
	}

	if err := b.storage.PutCV(uc, &models.CV{
		UserID:   uc.Sender().ID,
		FileID:   doc.FileID,
		FileName: doc.FileName,
	}); err != nil {
		return fmt.Errorf("saving cv: %w", err)
	}

	sess.Set("cv_saved", "true")
	b.send(uc,
		"Очманіти😳! Твоє CV успішно оновлено! Ти або трішки перебільшуєш свої уміння, "+
			"або десь з десяти років Сіньйор майстер спорту з усіх видів зламів",
		cvMenuKeyboard())
	sess.State = stateCVMenu
	return nil
}
