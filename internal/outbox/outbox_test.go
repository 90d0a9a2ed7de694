package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pending []Record
	sent    []int64
	markErr error
}

func (s *fakeStore) FetchPending(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range s.pending {
		if len(out) == limit {
			break
		}
		if !s.isSent(rec.ID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) isSent(id int64) bool {
	for _, v := range s.sent {
		if v == id {
			return true
		}
	}
	return false
}

type fakePublisher struct {
	published []int64
	failOn    int64
}

func (p *fakePublisher) Publish(_ context.Context, rec Record) error {
	if rec.ID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, rec.ID)
	return nil
}

func records(ids ...int64) []Record {
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = Record{ID: id, EventID: uuid.New(), EventType: "order.created", Key: "k"}
	}
	return out
}

func TestRelayOncePublishesInOrder(t *testing.T) {
	store := &fakeStore{pending: records(1, 2, 3)}
	pub := &fakePublisher{}
	relay := NewRelay(store, pub, nil, 0, 10)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 2, 3}, pub.published)
	assert.Equal(t, []int64{1, 2, 3}, store.sent)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayOnceStopsAtFirstFailure(t *testing.T) {
	store := &fakeStore{pending: records(1, 2, 3)}
	pub := &fakePublisher{failOn: 2}
	relay := NewRelay(store, pub, nil, 0, 10)

	n, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.sent)
}

func TestRelayOnceRespectsBatchSize(t *testing.T) {
	store := &fakeStore{pending: records(1, 2, 3)}
	pub := &fakePublisher{}
	relay := NewRelay(store, pub, nil, 0, 2)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelayOnceMarkFailure(t *testing.T) {
	store := &fakeStore{pending: records(1), markErr: errors.New("db down")}
	relay := NewRelay(store, &fakePublisher{}, nil, 0, 10)

	n, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	relay := NewRelay(&fakeStore{}, &fakePublisher{}, nil, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	<-done
}
