package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/notify"
	"github.com/sirupsen/logrus"
)

type ParticipantLister interface {
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
}

// Dispatcher fans a message out to every registered participant with a
// known chat. Best effort: per-recipient failures are counted and logged,
// never aborting the batch, and each send carries its own timeout so one
// stuck recipient cannot stall the rest.
type Dispatcher struct {
	store       ParticipantLister
	notifier    notify.Notifier
	sendTimeout time.Duration
}

func New(store ParticipantLister, notifier notify.Notifier, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		store:       store,
		notifier:    notifier,
		sendTimeout: sendTimeout,
	}
}

// Broadcast returns how many deliveries were attempted and how many failed.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) (attempted, failed int, err error) {
	participants, err := d.store.ListParticipants(ctx)
	if err != nil {
		return 0, 0, err
	}

	logger := logrus.WithField("component", "broadcast")

	for _, p := range participants {
		if p.ChatID == 0 {
			logger.Warnf("participant %d has no chat, skipping", p.UserID)
			continue
		}
		attempted++

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		sendErr := d.notifier.SendText(sendCtx, p.ChatID, text)
		cancel()

		switch {
		case sendErr == nil:
		case errors.Is(sendErr, notify.ErrUnreachable):
			logger.Warnf("participant %d is unreachable, skipping", p.UserID)
			failed++
		default:
			logger.Errorf("failed to send broadcast to participant %d: %v", p.UserID, sendErr)
			failed++
		}
	}

	return attempted, failed, nil
}
