package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gopkg.in/telebot.v4"
)

// Telegram delivers notifications through the bot API.
type Telegram struct {
	bot telebot.API
}

func NewTelegram(bot telebot.API) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	return t.send(ctx, chatID, text)
}

func (t *Telegram) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, chatID, &telebot.Document{
		File:    telebot.File{FileID: fileID},
		Caption: caption,
	})
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return t.send(ctx, chatID, &telebot.Photo{
		File:    telebot.File{FileID: fileID},
		Caption: caption,
	})
}

func (t *Telegram) send(ctx context.Context, chatID int64, what any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("before send: %w", err)
	}
	_, err := t.bot.Send(telebot.ChatID(chatID), what, telebot.ModeMarkdown)
	return classify(err)
}

// classify maps Telegram "forbidden" responses to ErrUnreachable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var tberr *telebot.Error
	if errors.As(err, &tberr) && tberr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return fmt.Errorf("sending: %w", err)
}
