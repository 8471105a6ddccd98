package async

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher runs best-effort work outside the request that triggered it.
// Failures and panics are logged, never returned.
type Dispatcher struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Go executes handler in a new goroutine. The handler gets a context that
// keeps ctx's values but not its cancellation, so it outlives the request.
func (d *Dispatcher) Go(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	logger := d.logger.With(zap.String("task", name))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in async handler", zap.Any("panic", r))
			}
		}()

		if err := handler(bgCtx); err != nil {
			logger.Warn("async handler failed", zap.Error(err))
		}
	}()
}

// Wait blocks until every dispatched handler has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
