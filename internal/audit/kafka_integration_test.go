//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"passgate/pkg/testutil/containers"
)

func TestKafkaStorePublishesEvents(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)

	const topic = "passgate.decisions"

	store, err := NewKafkaStore([]string{rp.Broker}, topic, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	confidence := 0.8
	event := Event{
		ID:         uuid.New(),
		Timestamp:  time.Now().UTC(),
		ClientIP:   "203.0.113.9",
		Browser:    "Chrome/130.0",
		Decision:   DecisionAdmitted,
		Confidence: &confidence,
	}
	require.NoError(t, store.Append(ctx, event))
	require.NoError(t, store.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, event.ID.String(), string(records[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, DecisionAdmitted, got.Decision)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.8, *got.Confidence, 1e-9)
}
