package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream serves canned XAutoClaim pages and records acks
type fakeStream struct {
	mu     sync.Mutex
	pages  map[string]redisPage
	starts []string
	acked  []string
	onRead func()
}

type redisPage struct {
	msgs []redis.XMessage
	next string
}

func (f *fakeStream) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	if f.onRead != nil {
		f.onRead()
	}
	return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
}

func (f *fakeStream) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, a.Start)

	cmd := redis.NewXAutoClaimCmd(ctx)
	page, ok := f.pages[a.Start]
	if !ok {
		cmd.SetVal(nil, "0-0")
		return cmd
	}
	cmd.SetVal(page.msgs, page.next)
	return cmd
}

func (f *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func streamMessage(t *testing.T, id, alertID string) redis.XMessage {
	t.Helper()
	a := alert("High Fire Risk in Bardia")
	a.ID = alertID
	data, err := encode(AlertEvent{Type: AlertCreated, Source: "scan", Alert: *a, PublishedAt: now})
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"data": string(data)}}
}

func newTestConsumer(client StreamGroupClient) *RedisConsumer {
	return NewRedisConsumer(client, "fire_alerts", "alert_notifiers", "notifier-1",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRedisConsumer_ReclaimRetriesPending(t *testing.T) {
	client := &fakeStream{pages: map[string]redisPage{
		"0-0": {
			msgs: []redis.XMessage{streamMessage(t, "1-0", "a1"), streamMessage(t, "2-0", "a2")},
			next: "3-0",
		},
		"3-0": {
			msgs: []redis.XMessage{{ID: "3-0", Values: map[string]interface{}{"data": "{broken"}}},
			next: "0-0",
		},
	}}
	c := newTestConsumer(client)

	var handled []string
	c.reclaim(context.Background(), func(ctx context.Context, e AlertEvent) error {
		handled = append(handled, e.Alert.ID)
		if e.Alert.ID == "a2" {
			return errors.New("smtp: connection refused")
		}
		return nil
	})

	assert.Equal(t, []string{"0-0", "3-0"}, client.starts)
	assert.Equal(t, []string{"a1", "a2"}, handled)
	// a2 stays pending for the next pass, the malformed entry is dropped
	assert.Equal(t, []string{"1-0", "3-0"}, client.acked)
}

func TestRedisConsumer_RunReclaimsBeforeReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeStream{
		pages:  map[string]redisPage{"0-0": {msgs: []redis.XMessage{streamMessage(t, "7-0", "a7")}, next: "0-0"}},
		onRead: cancel,
	}
	c := newTestConsumer(client)
	c.SetReclaim(time.Minute, time.Hour)

	var handled []string
	err := c.Run(ctx, func(ctx context.Context, e AlertEvent) error {
		handled = append(handled, e.Alert.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a7"}, handled)
	assert.Equal(t, []string{"7-0"}, client.acked)
	assert.Equal(t, []string{"0-0"}, client.starts)
}

func TestRedisConsumer_EnsureGroup(t *testing.T) {
	assert.NoError(t, newTestConsumer(&fakeStream{}).EnsureGroup(context.Background()))
}
