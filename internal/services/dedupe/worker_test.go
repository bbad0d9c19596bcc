package dedupe

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

func startWorker(t *testing.T) *Worker {
	t.Helper()
	w := NewWorker(NewEngine(contactConfig()))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

func awaitResponse(t *testing.T, w *Worker) Response {
	t.Helper()
	select {
	case resp := <-w.Responses():
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for worker response")
		return Response{}
	}
}

func TestWorkerDetectDuplicatesEchoesCorrelationID(t *testing.T) {
	w := startWorker(t)
	id := uuid.New()

	w.Requests() <- Request{
		ID:        id,
		Type:      MsgDetectDuplicates,
		NewRecord: record("new", map[string]string{"email": "a@x.com", "name": "Jon Smith"}),
		ExistingRecords: []models.Record{
			record("p1", map[string]string{"email": "a@x.com", "name": "John Smith"}),
		},
	}

	resp := awaitResponse(t, w)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, MsgDuplicatesDetected, resp.Type)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].IsDuplicate)
}

func TestWorkerFastSearch(t *testing.T) {
	w := startWorker(t)
	id := uuid.New()

	w.Requests() <- Request{
		ID:           id,
		Type:         MsgFastSearch,
		TargetRecord: record("t", map[string]string{"name": "Acme Corporation", "email": "info@acme.com"}),
		SearchPool: []models.Record{
			record("p1", map[string]string{"name": "Acme Corporation", "email": "info@acme.com"}),
		},
		Threshold: 85,
	}

	resp := awaitResponse(t, w)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, MsgFastSearchComplete, resp.Type)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].MatchedRecord.ID)
}

func TestWorkerBatchWithProgress(t *testing.T) {
	w := startWorker(t)
	id := uuid.New()

	records := make([]models.Record, 120)
	for i := range records {
		records[i] = record(fmt.Sprintf("rec-%d", i), map[string]string{"name": fmt.Sprintf("user %d", i)})
	}

	w.Requests() <- Request{ID: id, Type: MsgBatchDeduplicate, Records: records}

	resp := awaitResponse(t, w)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, MsgBatchComplete, resp.Type)
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, 120, len(resp.Outcome.Unique)+len(resp.Outcome.Duplicates))

	// The batch finished, so all progress ticks are already buffered.
	var ticks []Progress
	for {
		select {
		case p := <-w.Progress():
			ticks = append(ticks, p)
			continue
		default:
		}
		break
	}
	require.Len(t, ticks, 3)
	assert.Equal(t, 0, ticks[0].Processed)
	assert.Equal(t, 50, ticks[1].Processed)
	assert.Equal(t, 100, ticks[2].Processed)
}

func TestWorkerUnknownMessageType(t *testing.T) {
	w := startWorker(t)
	id := uuid.New()

	w.Requests() <- Request{ID: id, Type: "REINDEX_EVERYTHING"}

	resp := awaitResponse(t, w)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, MsgError, resp.Type)
	assert.Equal(t, "Unknown message type", resp.Error)
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	// A nil engine makes any request panic inside handle; the worker must
	// answer with an ERROR response and stay alive.
	w := NewWorker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	first := uuid.New()
	w.Requests() <- Request{
		ID:              first,
		Type:            MsgDetectDuplicates,
		NewRecord:       record("new", map[string]string{"name": "Jon Smith"}),
		ExistingRecords: []models.Record{record("p1", map[string]string{"name": "John Smith"})},
	}

	resp := awaitResponse(t, w)
	assert.Equal(t, first, resp.ID)
	assert.Equal(t, MsgError, resp.Type)
	assert.NotEmpty(t, resp.Error)

	// Still serving requests after the panic.
	second := uuid.New()
	w.Requests() <- Request{ID: second, Type: "NOPE"}
	resp = awaitResponse(t, w)
	assert.Equal(t, second, resp.ID)
	assert.Equal(t, MsgError, resp.Type)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	w := NewWorker(NewEngine(contactConfig()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}
