package cache

import (
	"context"
	"sync"
	"time"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultMaxSize 預設最大條目數
	DefaultMaxSize = 100
	// DefaultTTL 預設存活時間
	DefaultTTL = 30 * time.Minute
)

// Store 識別結果快取介面，由識別流程持有
type Store interface {
	Get(ctx context.Context, key string) (*product.RecognitionResult, bool)
	Set(ctx context.Context, key string, result *product.RecognitionResult)
	Clear()
	Size() int
}

// CacheManager 以內容指紋為鍵的記憶體快取，容量與存活時間皆有限制
type CacheManager struct {
	mu      sync.Mutex
	store   map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	seq     uint64
	stats   cacheStats
}

// cacheEntry 緩存條目，只在本套件內使用
type cacheEntry struct {
	result   *product.RecognitionResult
	storedAt time.Time
	seq      uint64
}

type cacheStats struct {
	hits        int64
	misses      int64
	evictions   int64
	expirations int64
	skipped     int64
}

// Stats 快取統計資訊
type Stats struct {
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	TTL         string  `json:"ttl"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	Skipped     int64   `json:"skipped_empty"`
	HitRatio    float64 `json:"hit_ratio"`
}

// Option 快取設定選項
type Option func(*CacheManager)

// WithClock 替換時間來源（測試用）
func WithClock(now func() time.Time) Option {
	return func(m *CacheManager) {
		m.now = now
	}
}

// NewManager 創建新的緩存管理器
func NewManager(maxSize int, ttl time.Duration, opts ...Option) *CacheManager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m := &CacheManager{
		store:   make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
	)

	return m
}

// Get 獲取緩存值，過期條目視為不存在並順便移除
func (m *CacheManager) Get(ctx context.Context, key string) (*product.RecognitionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return nil, false
	}

	if m.expired(entry, m.now()) {
		delete(m.store, key)
		m.stats.expirations++
		m.stats.misses++
		common.LogDebug("快取已過期", zap.Int("remaining_size", len(m.store)))
		return nil, false
	}

	m.stats.hits++
	common.LogCacheHit("memory", key)
	return entry.result, true
}

// Set 設置緩存值；沒有商品的結果不會被儲存
func (m *CacheManager) Set(ctx context.Context, key string, result *product.RecognitionResult) {
	if result.Empty() {
		m.mu.Lock()
		m.stats.skipped++
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanup(now)

	if _, exists := m.store[key]; !exists && len(m.store) >= m.maxSize {
		m.evictOldest()
	}

	m.seq++
	m.store[key] = &cacheEntry{
		result:   result,
		storedAt: now,
		seq:      m.seq,
	}
}

// Clear 清空快取
func (m *CacheManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*cacheEntry)
	common.LogInfo("快取已清空")
}

// Size 目前條目數
func (m *CacheManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// Stats 獲取緩存統計信息
func (m *CacheManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Size:        len(m.store),
		MaxSize:     m.maxSize,
		TTL:         m.ttl.String(),
		Hits:        m.stats.hits,
		Misses:      m.stats.misses,
		Evictions:   m.stats.evictions,
		Expirations: m.stats.expirations,
		Skipped:     m.stats.skipped,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

func (m *CacheManager) expired(entry *cacheEntry, now time.Time) bool {
	return now.Sub(entry.storedAt) > m.ttl
}

// cleanup 清理過期的緩存，呼叫端需持有鎖
func (m *CacheManager) cleanup(now time.Time) int {
	count := 0
	for key, entry := range m.store {
		if m.expired(entry, now) {
			delete(m.store, key)
			count++
		}
	}

	if count > 0 {
		m.stats.expirations += int64(count)
		common.LogDebug("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictOldest 依儲存時間淘汰最舊的條目，呼叫端需持有鎖
func (m *CacheManager) evictOldest() {
	var oldestKey string
	var oldest *cacheEntry

	for key, entry := range m.store {
		if oldest == nil ||
			entry.storedAt.Before(oldest.storedAt) ||
			(entry.storedAt.Equal(oldest.storedAt) && entry.seq < oldest.seq) {
			oldestKey = key
			oldest = entry
		}
	}

	if oldest != nil {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(oldest)", zap.Int("size", len(m.store)))
	}
}

// Close 關閉緩存管理器
func (m *CacheManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
