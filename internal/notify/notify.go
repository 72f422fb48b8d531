package notify

import (
	"context"
	"errors"
)

// ErrUnreachable marks a recipient that cannot be delivered to at all (the
// user blocked the bot, deleted the account, never started the chat).
// Distinct from transient delivery errors so callers can decide retry
// policy independently of the transport; broadcast counts both as soft
// failures and moves on.
var ErrUnreachable = errors.New("recipient unreachable")

// Notifier is the outbound message surface the core talks to. Failures are
// returned, never panicked; callers are expected to isolate them.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
}
