package dedupe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paullyd2112/quillswitch-sub006/internal/models"
)

// MessageType tags worker requests and responses.
type MessageType string

const (
	MsgDetectDuplicates MessageType = "DETECT_DUPLICATES"
	MsgBatchDeduplicate MessageType = "BATCH_DEDUPLICATE"
	MsgFastSearch       MessageType = "FAST_DUPLICATE_SEARCH"

	MsgDuplicatesDetected MessageType = "DUPLICATES_DETECTED"
	MsgBatchComplete      MessageType = "BATCH_COMPLETE"
	MsgFastSearchComplete MessageType = "FAST_SEARCH_COMPLETE"
	MsgError              MessageType = "ERROR"
)

// Request is one message to the worker. ID is a caller-supplied correlation
// id, echoed back on the matching response. Only the payload fields for the
// given Type need to be set.
type Request struct {
	ID   uuid.UUID   `json:"id"`
	Type MessageType `json:"type"`

	NewRecord       models.Record   `json:"new_record,omitempty"`
	ExistingRecords []models.Record `json:"existing_records,omitempty"`
	Records         []models.Record `json:"records,omitempty"`
	TargetRecord    models.Record   `json:"target_record,omitempty"`
	SearchPool      []models.Record `json:"search_pool,omitempty"`
	Threshold       float64         `json:"threshold,omitempty"`
}

// Response carries the result for exactly one request, tagged with its
// correlation id. Error is set only when Type is MsgError.
type Response struct {
	ID      uuid.UUID          `json:"id"`
	Type    MessageType        `json:"type"`
	Results []ComparisonResult `json:"results,omitempty"`
	Outcome *BatchOutcome      `json:"outcome,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Worker runs the engine off the caller's goroutine behind a channel mailbox.
// It processes one request at a time; the progress channel carries
// unsolicited batch progress with no correlation id. A panic while handling a
// request becomes an ERROR response instead of killing the worker.
type Worker struct {
	engine    *Engine
	requests  chan Request
	responses chan Response
	progress  chan Progress
}

func NewWorker(engine *Engine) *Worker {
	return &Worker{
		engine:    engine,
		requests:  make(chan Request, 16),
		responses: make(chan Response, 16),
		progress:  make(chan Progress, 16),
	}
}

func (w *Worker) Requests() chan<- Request {
	return w.requests
}

func (w *Worker) Responses() <-chan Response {
	return w.responses
}

func (w *Worker) Progress() <-chan Progress {
	return w.progress
}

// Run serves requests until ctx is done. Cancelling the context is the only
// way to stop the worker; a batch in flight finishes before the loop notices.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			resp := w.handle(req)
			select {
			case w.responses <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) handle(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{ID: req.ID, Type: MsgError, Error: fmt.Sprint(r)}
		}
	}()

	switch req.Type {
	case MsgDetectDuplicates:
		return Response{
			ID:      req.ID,
			Type:    MsgDuplicatesDetected,
			Results: w.engine.DetectDuplicates(req.NewRecord, req.ExistingRecords),
		}
	case MsgBatchDeduplicate:
		outcome := w.engine.BatchDeduplicate(req.Records, w.publishProgress)
		return Response{ID: req.ID, Type: MsgBatchComplete, Outcome: &outcome}
	case MsgFastSearch:
		return Response{
			ID:      req.ID,
			Type:    MsgFastSearchComplete,
			Results: w.engine.FastDuplicateSearch(req.TargetRecord, req.SearchPool, req.Threshold),
		}
	default:
		return Response{ID: req.ID, Type: MsgError, Error: "Unknown message type"}
	}
}

// publishProgress never blocks the batch loop: progress is reporting only,
// and a slow subscriber just misses ticks.
func (w *Worker) publishProgress(p Progress) {
	select {
	case w.progress <- p:
	default:
	}
}
