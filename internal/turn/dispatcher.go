package turn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// ErrDispatcherClosed indicates the dispatcher is no longer accepting work.
var ErrDispatcherClosed = errors.New("turn: dispatcher closed")

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Dispatcher routes turns through a queue before invoking the engine. This
// lets the system point at LocalStack SQS during development and swap to AWS
// SQS in production without touching the HTTP handlers.
type Dispatcher struct {
	processor Processor
	queue     queueClient
	logger    *logging.Logger

	cfg dispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending sync.Map // jobID -> chan dispatchResult
}

var _ Processor = (*Dispatcher)(nil)

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

type dispatcherConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*dispatcherConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for receive calls.
func WithReceiveWaitSeconds(seconds int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// NewDispatcher wires a queue-backed dispatcher around the supplied processor.
func NewDispatcher(processor Processor, queue queueClient, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if processor == nil {
		panic("turn: processor cannot be nil")
	}
	if queue == nil {
		panic("turn: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := dispatcherConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		processor: processor,
		queue:     queue,
		logger:    logger,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(i + 1)
	}
	return d
}

// ProcessTurn enqueues the turn and blocks until a worker completes it.
func (d *Dispatcher) ProcessTurn(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	jobID := uuid.NewString()
	payload := queuePayload{ID: jobID, Turn: req}
	// Carry the caller's deadline so workers can honor it and skip jobs whose
	// caller has already given up.
	if deadline, ok := ctx.Deadline(); ok {
		payload.Deadline = deadline
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("turn: encode payload: %w", err)
	}

	resultCh := make(chan dispatchResult, 1)
	d.pending.Store(jobID, resultCh)
	defer d.pending.Delete(jobID)

	if err := d.queue.Send(ctx, string(body)); err != nil {
		return nil, fmt.Errorf("turn: enqueue job: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.response, res.err
	}
}

// Shutdown stops worker goroutines and notifies any pending callers.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	d.pending.Range(func(key, value any) bool {
		if ch, ok := value.(chan dispatchResult); ok {
			select {
			case ch <- dispatchResult{err: ErrDispatcherClosed}:
			default:
			}
		}
		d.pending.Delete(key)
		return true
	})
	return nil
}

func (d *Dispatcher) runWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("turn dispatcher worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("turn dispatcher worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := d.queue.Receive(d.ctx, d.cfg.receiveBatchSize, d.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("failed to receive turn jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			d.handleQueueMessage(msg)
		}
	}
}

func (d *Dispatcher) handleQueueMessage(msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		d.logger.Error("failed to decode turn job", "error", err)
		d.deleteMessage(msg.ReceiptHandle)
		return
	}

	procCtx := d.ctx
	if !payload.Deadline.IsZero() {
		if !time.Now().Before(payload.Deadline) {
			d.logger.Debug("dropping expired turn job", "job_id", payload.ID)
			d.deleteMessage(msg.ReceiptHandle)
			d.deliverResult(payload.ID, nil, context.DeadlineExceeded)
			return
		}
		var cancel context.CancelFunc
		procCtx, cancel = context.WithDeadline(d.ctx, payload.Deadline)
		defer cancel()
	}

	resp, err := d.processor.ProcessTurn(procCtx, payload.Turn)

	d.deleteMessage(msg.ReceiptHandle)
	d.deliverResult(payload.ID, resp, err)
}

func (d *Dispatcher) deleteMessage(receiptHandle string) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Delete(deleteCtx, receiptHandle); err != nil {
		d.logger.Error("failed to delete turn job", "error", err)
	}
}

func (d *Dispatcher) deliverResult(jobID string, resp *Response, err error) {
	value, ok := d.pending.Load(jobID)
	if !ok {
		d.logger.Debug("no waiting caller for turn job", "job_id", jobID)
		return
	}

	ch, ok := value.(chan dispatchResult)
	if !ok {
		d.logger.Error("turn dispatcher pending map corrupted", "job_id", jobID)
		d.pending.Delete(jobID)
		return
	}

	select {
	case ch <- dispatchResult{response: resp, err: err}:
	default:
	}
}

type queuePayload struct {
	ID       string    `json:"id"`
	Turn     Request   `json:"turn"`
	Deadline time.Time `json:"deadline,omitzero"`
}

type dispatchResult struct {
	response *Response
	err      error
}
