package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

type fakeChannel struct {
	keys     []string
	messages []amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.keys = append(f.keys, key)
	f.messages = append(f.messages, msg)
	return nil
}

type fakeStores map[int64]*domain.Store

func (f fakeStores) GetStoreByID(id int64) (*domain.Store, error) {
	s, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func decode(t *testing.T, msg amqp.Publishing) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &v))
	return v
}

func TestStoreCreated(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, time.Second)

	store := &domain.Store{ID: 3, StoreName: "晨光书店"}
	creator := &domain.User{Email: "owner@example.com", FullName: "李四"}
	require.NoError(t, p.StoreCreated(context.Background(), store, creator))

	require.Len(t, ch.messages, 1)
	assert.Equal(t, QueueName, ch.keys[0])
	assert.Equal(t, "application/json", ch.messages[0].ContentType)

	body := decode(t, ch.messages[0])
	assert.Equal(t, domain.MailTypeStoreCreated, body["type"])
	assert.Equal(t, "owner@example.com", body["to"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "晨光书店", data["storeName"])
	assert.Equal(t, float64(3), data["storeID"])
}

func TestStatusNotifierPublishesToStoreEmail(t *testing.T) {
	ch := &fakeChannel{}
	n := NewStatusNotifier(NewPublisher(ch, time.Second), fakeStores{
		1: {ID: 1, StoreName: "街角咖啡", Email: "cafe@example.com"},
	})

	asOf := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	require.NoError(t, n.StoreStatusChanged(context.Background(), domain.StoreAvailability{StoreID: 1, IsOpen: true, AsOf: asOf}))

	require.Len(t, ch.messages, 1)
	body := decode(t, ch.messages[0])
	assert.Equal(t, domain.MailTypeStoreStatusChanged, body["type"])
	assert.Equal(t, "cafe@example.com", body["to"])
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["isOpen"])
	assert.Equal(t, "2024-01-08T09:00:00Z", data["asOf"])
}

func TestStatusNotifierSkipsStoreWithoutEmail(t *testing.T) {
	ch := &fakeChannel{}
	n := NewStatusNotifier(NewPublisher(ch, time.Second), fakeStores{1: {ID: 1}})

	require.NoError(t, n.StoreStatusChanged(context.Background(), domain.StoreAvailability{StoreID: 1}))
	assert.Empty(t, ch.messages)
}

func TestStatusNotifierReportsErrors(t *testing.T) {
	n := NewStatusNotifier(NewPublisher(&fakeChannel{}, time.Second), fakeStores{})
	err := n.StoreStatusChanged(context.Background(), domain.StoreAvailability{StoreID: 9})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	boom := errors.New("channel closed")
	n = NewStatusNotifier(NewPublisher(&fakeChannel{err: boom}, time.Second), fakeStores{1: {ID: 1, Email: "a@example.com"}})
	err = n.StoreStatusChanged(context.Background(), domain.StoreAvailability{StoreID: 1})
	assert.ErrorIs(t, err, boom)
}
