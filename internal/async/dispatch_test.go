package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDispatcher(zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	d.Go(ctx, "ok", func(ctx context.Context) error {
		ran.Add(1)
		assert.NoError(t, ctx.Err())
		return nil
	})
	d.Go(ctx, "fails", func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("smtp down")
	})
	d.Go(ctx, "panics", func(ctx context.Context) error {
		ran.Add(1)
		panic("boom")
	})
	d.Wait()

	assert.Equal(t, int32(3), ran.Load())
	assert.Equal(t, 1, logs.FilterMessage("async handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("panic in async handler").Len())
}
