package natsx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	failures int
	calls    int
	ids      []string
}

func (f *flakyPublisher) PublishOnce(_ context.Context, _ string, _ []byte, _ map[string]string, msgID string) error {
	f.calls++
	f.ids = append(f.ids, msgID)
	if f.calls <= f.failures {
		return errors.New("nats: timeout")
	}
	return nil
}

func TestSyncPublisherRetriesWithSameID(t *testing.T) {
	fp := &flakyPublisher{failures: 2}
	sp := &NatsxSyncPublisher{P: fp, Retries: 3, Backoff: time.Millisecond}

	err := sp.Publish(context.Background(), "message.created", []byte("{}"), nil, "m-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, fp.calls)
	assert.Equal(t, []string{"m-1", "m-1", "m-1"}, fp.ids)
}

func TestSyncPublisherGivesUp(t *testing.T) {
	fp := &flakyPublisher{failures: 10}
	sp := &NatsxSyncPublisher{P: fp, Retries: 1, Backoff: time.Millisecond}

	err := sp.Publish(context.Background(), "x", nil, nil, "")
	assert.Error(t, err)
	assert.Equal(t, 2, fp.calls)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, Core, ParseMode("core"))
	assert.Equal(t, Core, ParseMode(""))
	assert.Equal(t, JetStream, ParseMode("JS"))
	assert.Equal(t, JetStream, ParseMode("js_push"))
}

func TestNilManager(t *testing.T) {
	var m *NatsManager
	assert.NoError(t, m.Close())
	assert.Error(t, m.RegisterRoute(NatsxRoute{Topic: "a", Subject: "b"}))
	assert.Error(t, m.PublishOnce(context.Background(), "a", nil, nil, ""))
}
