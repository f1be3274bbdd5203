package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"directoryhub/backend/pkg/models"
)

// Status is what a presentation layer renders for a schema generation.
type Status struct {
	IsLoading bool `json:"isLoading"`
	// Error is empty unless the last completed cycle failed.
	Error    string `json:"error,omitempty"`
	MockMode bool   `json:"mockMode"`
}

// SchemaWorkflow drives one schema request at a time against a
// SchemaGenerator and publishes its progress.
//
// A cycle goes Idle -> Loading -> Idle. Subscribers see exactly two snapshots
// per cycle: one when loading starts and one when it ends.
type SchemaWorkflow struct {
	generator SchemaGenerator
	logger    Logger
	metrics   *serviceMetrics
	sticky    bool

	mu          sync.Mutex
	status      Status
	subscribers map[int]func(Status)
	nextSubID   int
}

// WorkflowOption configures a SchemaWorkflow.
type WorkflowOption func(*SchemaWorkflow)

// WithStickyMockMode keeps MockMode set once any cycle reported it, instead of
// recomputing it from the latest successful response.
func WithStickyMockMode() WorkflowOption {
	return func(w *SchemaWorkflow) {
		w.sticky = true
	}
}

// WithWorkflowLogger sets the logger failures are reported to.
func WithWorkflowLogger(l Logger) WorkflowOption {
	return func(w *SchemaWorkflow) {
		w.logger = orNop(l)
	}
}

// NewSchemaWorkflow creates an idle SchemaWorkflow.
func NewSchemaWorkflow(generator SchemaGenerator, opts ...WorkflowOption) *SchemaWorkflow {
	w := &SchemaWorkflow{
		generator:   generator,
		logger:      nopLogger{},
		metrics:     newServiceMetrics(),
		subscribers: make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Status returns a snapshot of the current state.
func (w *SchemaWorkflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// CanTrigger reports whether a new cycle may start. Presentation layers use
// it to enable or disable their trigger.
func (w *SchemaWorkflow) CanTrigger() bool {
	return !w.Status().IsLoading
}

// Subscribe registers fn for status changes and returns a function that
// removes it. fn runs on the goroutine driving the cycle.
func (w *SchemaWorkflow) Subscribe(fn func(Status)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSubID
	w.nextSubID++
	w.subscribers[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subscribers, id)
	}
}

// Generate runs one cycle and blocks until it completes. On success the
// schema is handed to onSuccess unchanged; on failure the display message is
// handed to onFailure. Either callback may be nil. It returns ErrWorkflowBusy
// without issuing a request when a cycle is already loading, otherwise the
// error of the request, if any.
func (w *SchemaWorkflow) Generate(ctx context.Context, answers models.InterviewAnswers, onSuccess func(json.RawMessage), onFailure func(string)) error {
	if err := w.begin(); err != nil {
		return err
	}
	return w.run(ctx, answers, onSuccess, onFailure)
}

// Start is the non-blocking form of Generate. The busy check happens before
// Start returns; the request runs on its own goroutine and its result is
// delivered on the returned channel.
func (w *SchemaWorkflow) Start(ctx context.Context, answers models.InterviewAnswers, onSuccess func(json.RawMessage), onFailure func(string)) (<-chan error, error) {
	if err := w.begin(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, answers, onSuccess, onFailure)
	}()
	return done, nil
}

func (w *SchemaWorkflow) begin() error {
	w.mu.Lock()
	if w.status.IsLoading {
		w.mu.Unlock()
		return ErrWorkflowBusy
	}
	w.status.IsLoading = true
	w.status.Error = ""
	snapshot := w.status
	subs := w.subscribersLocked()
	w.mu.Unlock()

	publish(subs, snapshot)
	return nil
}

func (w *SchemaWorkflow) run(ctx context.Context, answers models.InterviewAnswers, onSuccess func(json.RawMessage), onFailure func(string)) error {
	previousMock := w.Status().MockMode

	// Until the request succeeds the cycle counts as failed, so loading is
	// cleared with an error even if something below panics.
	final := Status{Error: DefaultFailureMessage, MockMode: previousMock}
	defer func() {
		w.settle(final)
	}()

	resp, err := w.generator.GenerateSchema(ctx, answers)
	if err == nil && resp == nil {
		err = errors.New("schema generator returned no response")
	}
	if err != nil {
		final.Error = FailureMessage(err)
		w.logger.Error("schema generation failed",
			"error", err,
			"directory_type", answers.DirectoryType,
		)
		w.metrics.generation(ctx, "failure", false)
		if onFailure != nil {
			onFailure(final.Error)
		}
		return err
	}

	final.Error = ""
	final.MockMode = resp.MockMode || (w.sticky && previousMock)
	if resp.MockMode {
		w.logger.Warn("schema generated in mock mode", "directory_type", answers.DirectoryType)
	}
	w.metrics.generation(ctx, "success", resp.MockMode)

	if onSuccess != nil {
		onSuccess(resp.Schema)
	}
	return nil
}

// settle ends the cycle. Loading is cleared in the same update that records
// the outcome.
func (w *SchemaWorkflow) settle(final Status) {
	w.mu.Lock()
	final.IsLoading = false
	w.status = final
	subs := w.subscribersLocked()
	w.mu.Unlock()

	publish(subs, final)
}

func (w *SchemaWorkflow) subscribersLocked() []func(Status) {
	subs := make([]func(Status), 0, len(w.subscribers))
	for id := 0; id < w.nextSubID; id++ {
		if fn, ok := w.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func publish(subs []func(Status), s Status) {
	for _, fn := range subs {
		fn(s)
	}
}
