package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	participants []*models.Participant
	err          error
}

func (f *fakeLister) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return f.participants, f.err
}

type fakeNotifier struct {
	mu          sync.Mutex
	sent        map[int64]int
	unreachable map[int64]bool
	failing     map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		sent:        make(map[int64]int),
		unreachable: make(map[int64]bool),
		failing:     make(map[int64]bool),
	}
}

func (f *fakeNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable[chatID] {
		return fmt.Errorf("sending message: %w", notify.ErrUnreachable)
	}
	if f.failing[chatID] {
		return errors.New("telegram: internal server error")
	}
	f.sent[chatID]++
	return nil
}

func (f *fakeNotifier) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	return nil
}

func (f *fakeNotifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return nil
}

func participantsWithChats(n int) []*models.Participant {
	out := make([]*models.Participant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &models.Participant{UserID: int64(i), ChatID: int64(100 + i)})
	}
	return out
}

func TestBroadcast_AllDelivered(t *testing.T) {
	notifier := newFakeNotifier()
	d := New(&fakeLister{participants: participantsWithChats(5)}, notifier, time.Second)

	attempted, failed, err := d.Broadcast(context.Background(), "Привіт!")
	require.NoError(t, err)
	assert.Equal(t, 5, attempted)
	assert.Equal(t, 0, failed)

	for i := 1; i <= 5; i++ {
		assert.Equal(t, 1, notifier.sent[int64(100+i)])
	}
}

func TestBroadcast_UnreachableRecipientsCountedNotFatal(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.unreachable[103] = true
	notifier.unreachable[107] = true
	d := New(&fakeLister{participants: participantsWithChats(10)}, notifier, time.Second)

	attempted, failed, err := d.Broadcast(context.Background(), "Оновлення розкладу")
	require.NoError(t, err)
	assert.Equal(t, 10, attempted)
	assert.Equal(t, 2, failed)

	// Everyone else got the message exactly once.
	for i := 1; i <= 10; i++ {
		chatID := int64(100 + i)
		if notifier.unreachable[chatID] {
			assert.Zero(t, notifier.sent[chatID])
			continue
		}
		assert.Equal(t, 1, notifier.sent[chatID])
	}
}

func TestBroadcast_TransientFailureDoesNotAbortBatch(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.failing[101] = true
	d := New(&fakeLister{participants: participantsWithChats(3)}, notifier, time.Second)

	attempted, failed, err := d.Broadcast(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 3, attempted)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, notifier.sent[102])
	assert.Equal(t, 1, notifier.sent[103])
}

func TestBroadcast_SkipsParticipantsWithoutChat(t *testing.T) {
	notifier := newFakeNotifier()
	participants := []*models.Participant{
		{UserID: 1, ChatID: 101},
		{UserID: 2, ChatID: 0},
		{UserID: 3, ChatID: 103},
	}
	d := New(&fakeLister{participants: participants}, notifier, time.Second)

	attempted, failed, err := d.Broadcast(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, attempted)
	assert.Equal(t, 0, failed)
}

func TestBroadcast_ListErrorPropagates(t *testing.T) {
	listErr := errors.New("connection refused")
	d := New(&fakeLister{err: listErr}, newFakeNotifier(), time.Second)

	attempted, failed, err := d.Broadcast(context.Background(), "test")
	assert.ErrorIs(t, err, listErr)
	assert.Zero(t, attempted)
	assert.Zero(t, failed)
}
