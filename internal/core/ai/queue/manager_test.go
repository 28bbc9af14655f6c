package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, in image.Input) (*product.RecognitionResult, error) {
	return &product.RecognitionResult{ImageDescription: in.FileName}, nil
}

func TestManager_Submit(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 3, MaxSize: 10}, echoHandler)
	m.Start()
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				res, err := m.Submit(context.Background(), image.Input{FileName: "a.jpg"})
				if errors.Is(err, common.ErrQueueFull) {
					time.Sleep(time.Millisecond)
					continue
				}
				assert.NoError(t, err)
				assert.Equal(t, "a.jpg", res.ImageDescription)
				return
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, m.GetQueueStatus().ProcessedCount)
}

func TestManager_QueueFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, func(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
		started <- struct{}{}
		<-release
		return &product.RecognitionResult{}, nil
	})
	m.Start()

	first, err := m.Enqueue(context.Background(), image.Input{})
	require.NoError(t, err)
	<-started

	second, err := m.Enqueue(context.Background(), image.Input{})
	require.NoError(t, err)

	_, err = m.Enqueue(context.Background(), image.Input{})
	assert.ErrorIs(t, err, common.ErrQueueFull)
	assert.Equal(t, 1, m.GetQueueStatus().RejectedCount)

	close(release)
	assert.NoError(t, (<-first).Error)
	assert.NoError(t, (<-second).Error)
	m.Close()
}

func TestManager_ClosedRejects(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, echoHandler)
	m.Start()
	m.Close()
	m.Close()

	_, err := m.Submit(context.Background(), image.Input{})
	assert.ErrorIs(t, err, common.ErrQueueClosed)
}

func TestManager_CloseWithoutStartFailsPending(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 2}, echoHandler)

	ch, err := m.Enqueue(context.Background(), image.Input{})
	require.NoError(t, err)
	m.Close()

	assert.ErrorIs(t, (<-ch).Error, common.ErrQueueClosed)
}

func TestManager_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, func(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
		<-release
		return &product.RecognitionResult{}, nil
	})
	m.Start()
	defer m.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Submit(ctx, image.Input{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_PanicBecomesError(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1}, func(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
		panic("boom")
	})
	m.Start()
	defer m.Close()

	res, err := m.Submit(context.Background(), image.Input{})
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "panicked")

	status := m.GetQueueStatus()
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Equal(t, 1, status.Workers)
}
