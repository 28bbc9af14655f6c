package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Handler 處理單一識別請求
type Handler func(ctx context.Context, in image.Input) (*product.RecognitionResult, error)

// Request 隊列請求
type Request struct {
	Context context.Context
	Input   image.Input
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Recognition *product.RecognitionResult
	Error       error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	RejectedCount  int `json:"rejected_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 有界的識別請求隊列，由固定數量的 worker 消化
type Manager struct {
	config    config.QueueConfig
	handler   Handler
	queue     chan *Request
	wg        sync.WaitGroup
	processed int64
	rejected  int64
	mu        sync.RWMutex
	started   bool
	closed    bool
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig, handler Handler) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	return &Manager{
		config:  cfg,
		handler: handler,
		queue:   make(chan *Request, cfg.MaxSize),
	}
}

// Start 啟動 worker，重複呼叫無效
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true

	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	common.LogInfo("Recognition queue started",
		zap.Int("workers", m.config.Workers),
		zap.Int("max_queue_size", m.config.MaxSize),
	)
}

// Enqueue 將請求加入隊列，隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, in image.Input) (chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, common.ErrQueueClosed
	}

	req := &Request{
		Context: ctx,
		Input:   in,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return req.Result, nil
	default:
		atomic.AddInt64(&m.rejected, 1)
		common.LogWarn("Recognition queue full", zap.Int("max_queue_size", m.config.MaxSize))
		return nil, common.ErrQueueFull
	}
}

// Submit 加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
	ch, err := m.Enqueue(ctx, in)
	if err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.Recognition, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for req := range m.queue {
		if err := req.Context.Err(); err != nil {
			common.LogDebug("Dropping cancelled request", zap.Int("worker", id), zap.Error(err))
			req.Result <- Result{Error: err}
			continue
		}

		rec, err := m.process(req)
		atomic.AddInt64(&m.processed, 1)
		req.Result <- Result{Recognition: rec, Error: err}
	}
}

// process 執行 handler，panic 轉為錯誤
func (m *Manager) process(req *Request) (rec *product.RecognitionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError("Recognition handler panicked", zap.Any("panic", r))
			rec = nil
			err = fmt.Errorf("recognition handler panicked: %v", r)
		}
	}()
	return m.handler(req.Context, req.Input)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		RejectedCount:  int(atomic.LoadInt64(&m.rejected)),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close 停止接收新請求，等待已排隊的請求處理完畢
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	started := m.started
	m.mu.Unlock()

	if !started {
		for req := range m.queue {
			req.Result <- Result{Error: common.ErrQueueClosed}
		}
		return
	}
	m.wg.Wait()
}
