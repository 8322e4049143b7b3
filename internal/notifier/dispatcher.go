package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/model"
)

var (
	ErrQueueFull        = errors.New("email queue full")
	ErrDispatcherClosed = errors.New("email dispatcher closed")
)

// Deliverer performs one blocking email send.
type Deliverer interface {
	Deliver(ctx context.Context, msg model.EmailContext) error
}

// Dispatcher hands emails to a fixed pool of workers through a bounded
// queue. Send never blocks the caller and failed sends are not retried.
type Dispatcher struct {
	deliverer   Deliverer
	queue       chan model.EmailContext
	workers     int
	sendTimeout time.Duration
	logger      *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(d Deliverer, workers, queueSize int, logger *zap.SugaredLogger) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		deliverer:   d,
		queue:       make(chan model.EmailContext, queueSize),
		workers:     workers,
		sendTimeout: 15 * time.Second,
		logger:      logger,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
}

// Send enqueues msg. ctx is not used by the worker; emails outlive the
// request that triggered them.
func (d *Dispatcher) Send(_ context.Context, msg model.EmailContext) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for workers to drain it or for ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := d.deliverer.Deliver(ctx, msg); err != nil {
			d.logger.Warnw("email delivery failed",
				"worker", id,
				"notification_id", msg.NotificationID,
				"to", msg.ToEmail,
				"error", err,
			)
		}
		cancel()
	}
}
