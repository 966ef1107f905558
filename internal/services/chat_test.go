package services

import (
	"context"
	"testing"

	"aphro-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageStore struct {
	created    []models.Message
	markedRead [][2]string
}

func (f *fakeMessageStore) Create(_ context.Context, msg *models.Message) error {
	f.created = append(f.created, *msg)
	return nil
}

func (f *fakeMessageStore) Conversation(_ context.Context, userID, otherID string, offset, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.created {
		if (m.FromUser == userID && m.ToUser == otherID) || (m.FromUser == otherID && m.ToUser == userID) {
			out = append(out, m)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(_ context.Context, fromUser, toUser string) error {
	f.markedRead = append(f.markedRead, [2]string{fromUser, toUser})
	return nil
}

type fakeMatcher struct {
	pairs map[[2]string]bool
}

func (f *fakeMatcher) IsMatch(_ context.Context, userID, otherID string) (bool, error) {
	return f.pairs[[2]string{userID, otherID}] || f.pairs[[2]string{otherID, userID}], nil
}

type fakePresence struct {
	conns     map[string]*fakeConn
	delivered []interface{}
}

func (f *fakePresence) Register(userID string, conn Conn)   { f.conns[userID] = conn.(*fakeConn) }
func (f *fakePresence) Unregister(userID string, conn Conn) { delete(f.conns, userID) }
func (f *fakePresence) IsOnline(userID string) bool         { _, ok := f.conns[userID]; return ok }

func (f *fakePresence) SendToUser(userID string, message interface{}) error {
	if _, ok := f.conns[userID]; !ok {
		return assert.AnError
	}
	f.delivered = append(f.delivered, message)
	return nil
}

type fakePusher struct {
	notified [][2]string
}

func (f *fakePusher) NotifyMessage(_ context.Context, toUser, fromUser string) {
	f.notified = append(f.notified, [2]string{toUser, fromUser})
}

func newChatFixture(matched bool) (*ChatService, *fakeMessageStore, *fakePresence, *fakePusher) {
	store := &fakeMessageStore{}
	matcher := &fakeMatcher{pairs: map[[2]string]bool{}}
	if matched {
		matcher.pairs[[2]string{"alice", "bob"}] = true
	}
	presence := &fakePresence{conns: make(map[string]*fakeConn)}
	pusher := &fakePusher{}
	return NewChatService(store, matcher, presence, pusher), store, presence, pusher
}

func TestSend_UnmatchedRejected(t *testing.T) {
	svc, store, _, pusher := newChatFixture(false)

	_, err := svc.Send(context.Background(), "alice", "bob", "hey")
	assert.ErrorIs(t, err, ErrNotMatched)
	assert.Empty(t, store.created, "nothing persisted on rejection")
	assert.Empty(t, pusher.notified)
}

func TestSend_PersistsAndDeliversLive(t *testing.T) {
	svc, store, presence, pusher := newChatFixture(true)
	presence.conns["bob"] = &fakeConn{}

	msg, err := svc.Send(context.Background(), "alice", "bob", "hey")
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.FromUser)
	assert.Equal(t, "bob", msg.ToUser)
	assert.Equal(t, "hey", msg.Content)
	assert.False(t, msg.Read)

	require.Len(t, store.created, 1)
	require.Len(t, presence.delivered, 1)
	assert.Equal(t, msg, presence.delivered[0])

	// Push is attempted even though live delivery succeeded.
	require.Len(t, pusher.notified, 1)
	assert.Equal(t, [2]string{"bob", "alice"}, pusher.notified[0])
}

func TestSend_OfflineRecipientStillPersistedAndPushed(t *testing.T) {
	svc, store, presence, pusher := newChatFixture(true)

	msg, err := svc.Send(context.Background(), "alice", "bob", "hey")
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Empty(t, presence.delivered)
	require.Len(t, pusher.notified, 1)
	assert.Equal(t, store.created[0].ID, msg.ID)
}

func TestHistory_PaginatesAndMarksRead(t *testing.T) {
	svc, store, _, _ := newChatFixture(true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, "alice", "bob", "hello")
		require.NoError(t, err)
	}

	messages, err := svc.History(ctx, "bob", "alice", 0, 2)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	// The incoming side of the conversation was marked read.
	require.Len(t, store.markedRead, 1)
	assert.Equal(t, [2]string{"alice", "bob"}, store.markedRead[0])

	messages, err = svc.History(ctx, "bob", "alice", 2, 2)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}
