package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/pkg/events"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishKeysByClass(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisherWithWriter(w)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(),
		events.LedgerEvent{Kind: events.KindTransaction, ClassID: "7a", StudentID: "s1", Amount: 50, Balance: 50, OccurredAt: at},
		events.LedgerEvent{Kind: events.KindCorrection, ClassID: "7a", StudentID: "s1", Amount: -50, OccurredAt: at},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "7a", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)
	assert.Equal(t, events.KindCorrection, string(w.msgs[1].Headers[0].Value))

	var decoded events.LedgerEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, int64(50), decoded.Amount)

	require.NoError(t, p.Publish(context.Background()))
	assert.Len(t, w.msgs, 2)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
