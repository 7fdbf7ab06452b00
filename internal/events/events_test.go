package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first") })
	bus.Subscribe(func(e Event) { order = append(order, "second") })

	bus.Emit(Event{Type: ReviewRequested})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_StampsTime(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe(func(e Event) { got = e })

	bus.Emit(Event{Type: ReviewApproved, Review: "r-1"})

	assert.False(t, got.Time.IsZero())
	assert.Equal(t, "r-1", got.Review)
}

func TestJSONEmitter_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewJSONEmitter(&buf)

	require.NoError(t, emitter.Emit(Event{Type: ReviewRequested, Review: "abc", Stage: "prd"}))
	require.NoError(t, emitter.Emit(Event{Type: ReviewRejected, Review: "abc", Payload: map[string]interface{}{"feedback": "add detail"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first JSONEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "review.requested", first.Type)
	assert.Equal(t, "abc", first.Review)
	assert.Equal(t, "prd", first.Stage)

	var second JSONEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "add detail", second.Payload["feedback"])
}

func TestJSONEmitter_WrapsScalarPayload(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewJSONEmitter(&buf)

	require.NoError(t, emitter.Emit(Event{Type: RevisionStarted, Payload: 3}))

	var je JSONEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &je))
	assert.EqualValues(t, 3, je.Payload["value"])
}

func TestLogHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	handler := LogHandler(LogConfig{Writer: &buf})

	handler(Event{Type: ReviewRejected, Stage: "architecture", Review: "r-9"})

	out := buf.String()
	assert.Contains(t, out, "[review.rejected]")
	assert.Contains(t, out, "architecture")
	assert.Contains(t, out, "review=r-9")
}
