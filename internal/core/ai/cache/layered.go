package cache

import (
	"context"
	"errors"
	"time"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Layered 先查記憶體，再查遠端快取；遠端命中會回填記憶體
type Layered struct {
	memory  *CacheManager
	remote  Remote
	timeout time.Duration
}

// NewLayered 創建兩層快取，remote 為 nil 時等同只有記憶體快取
func NewLayered(memory *CacheManager, remote Remote, timeout time.Duration) *Layered {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Layered{memory: memory, remote: remote, timeout: timeout}
}

// Get 獲取緩存值，遠端錯誤一律視為未命中
func (l *Layered) Get(ctx context.Context, key string) (*product.RecognitionResult, bool) {
	if result, ok := l.memory.Get(ctx, key); ok {
		return result, true
	}
	if l.remote == nil {
		return nil, false
	}

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	result, err := l.remote.Get(rctx, key)
	if err != nil {
		if !errors.Is(err, ErrRemoteMiss) {
			common.LogWarn("Remote cache lookup failed", zap.Error(err))
		}
		return nil, false
	}
	if result.Empty() {
		return nil, false
	}

	l.memory.Set(ctx, key, result)
	common.LogCacheHit("remote", key)
	return result, true
}

// Set 同時寫入兩層快取
func (l *Layered) Set(ctx context.Context, key string, result *product.RecognitionResult) {
	l.memory.Set(ctx, key, result)
	if l.remote == nil || result.Empty() {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.remote.Set(rctx, key, result); err != nil {
		common.LogWarn("Remote cache store failed", zap.Error(err))
	}
}

// Clear 清空兩層快取
func (l *Layered) Clear() {
	l.memory.Clear()
	if l.remote == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*l.timeout)
	defer cancel()

	if err := l.remote.Clear(ctx); err != nil {
		common.LogWarn("Remote cache clear failed", zap.Error(err))
	}
}

// Size 記憶體快取的條目數
func (l *Layered) Size() int {
	return l.memory.Size()
}

// Stats 記憶體快取統計
func (l *Layered) Stats() Stats {
	return l.memory.Stats()
}

// Close 關閉遠端連線
func (l *Layered) Close() error {
	_ = l.memory.Close()
	if l.remote != nil {
		return l.remote.Close()
	}
	return nil
}
