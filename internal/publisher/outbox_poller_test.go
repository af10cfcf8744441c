package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boostgg/storefront/internal/orders"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOutboxRepo struct {
	events       []*orders.OutboxEvent
	fetchErr     error
	processedIDs []int64
	markErr      error
}

func (m *mockOutboxRepo) GetUnprocessedEvents(context.Context, int) ([]*orders.OutboxEvent, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.events, nil
}

func (m *mockOutboxRepo) MarkEventAsProcessed(_ context.Context, id int64) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.processedIDs = append(m.processedIDs, id)
	return nil
}

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func testPoller(repo OutboxRepo, w MessageWriter) *OutboxPoller {
	return &OutboxPoller{
		eventTick: time.Millisecond,
		batchSize: 100,
		repo:      repo,
		writer:    w,
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &mockOutboxRepo{events: []*orders.OutboxEvent{
		{ID: 1, AggregateID: "order-a", EventType: "order_created", Payload: []byte(`{"order_id":"order-a"}`)},
		{ID: 2, AggregateID: "order-b", EventType: "order_created", Payload: []byte(`{"order_id":"order-b"}`)},
	}}
	w := &mockWriter{}

	testPoller(repo, w).processUnpublishedEvents(context.Background())

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("order-a"), w.msgs[0].Key)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, []int64{1, 2}, repo.processedIDs)
}

func TestProcessUnpublishedEvents_PublishErrorSkipsMark(t *testing.T) {
	repo := &mockOutboxRepo{events: []*orders.OutboxEvent{
		{ID: 1, AggregateID: "order-a", Payload: []byte(`{}`)},
	}}
	w := &mockWriter{err: errors.New("broker down")}

	testPoller(repo, w).processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processedIDs, "unpublished events must stay unprocessed")
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &mockOutboxRepo{fetchErr: errors.New("db down")}
	w := &mockWriter{}

	testPoller(repo, w).processUnpublishedEvents(context.Background())

	assert.Empty(t, w.msgs)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := &mockOutboxRepo{}
	p := testPoller(repo, &mockWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
