package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"marquee/internal/logging"
	"marquee/internal/request"
)

// Dispatcher sends notifications on background goroutines so that request
// handling never blocks on mail delivery. Failures are logged, never
// surfaced to the caller.
type Dispatcher struct {
	service Service
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps a service with detached delivery. A zero timeout
// defaults to 15 seconds per send.
func NewDispatcher(service Service, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		service: service,
		logger:  logging.WithComponent(logger, "notifications"),
		timeout: timeout,
	}
}

// RequestReceived delivers asynchronously and returns immediately.
func (d *Dispatcher) RequestReceived(req *request.Request, to []Recipient) {
	if len(to) == 0 {
		return
	}
	snapshot := *req
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.service.RequestReceived(ctx, &snapshot, to); err != nil {
			d.logger.Warn("request notification failed",
				logging.String("content_id", snapshot.ContentID),
				logging.Error(err))
		}
	}()
}

// Wait blocks until all in-flight notifications finish. Used on shutdown
// and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
