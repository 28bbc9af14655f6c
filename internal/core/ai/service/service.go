package service

import (
	"context"
	"errors"
	"fmt"

	"pantry-scanner/internal/core/ai/cache"
	"pantry-scanner/internal/core/ai/clarifai"
	"pantry-scanner/internal/core/ai/gemini"
	"pantry-scanner/internal/core/ai/googlevision"
	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/openrouter"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/ai/queue"
	"pantry-scanner/internal/core/normalize"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/core/receipt"
	"pantry-scanner/internal/core/recognition"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// ProviderStatus 識別服務的設定狀態
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Service 組合識別流程、快取、隊列與收據服務，供 API 層使用
type Service struct {
	config       *config.Config
	processor    *image.Processor
	adapters     []provider.Adapter
	memory       *cache.CacheManager
	layered      *cache.Layered
	orchestrator *recognition.Orchestrator
	queue        *queue.Manager
	receipts     *receipt.Service
}

// Option 設定 Service
type Option func(*options)

type options struct {
	adapters      []provider.Adapter
	receiptOpts   []receipt.Option
	recognizeOpts []recognition.Option
}

// WithAdapters 以指定的識別服務取代依設定建立的服務
func WithAdapters(adapters ...provider.Adapter) Option {
	return func(o *options) { o.adapters = adapters }
}

// WithReceiptOptions 傳遞收據服務選項
func WithReceiptOptions(opts ...receipt.Option) Option {
	return func(o *options) { o.receiptOpts = append(o.receiptOpts, opts...) }
}

// WithRecognitionOptions 傳遞識別流程選項
func WithRecognitionOptions(opts ...recognition.Option) Option {
	return func(o *options) { o.recognizeOpts = append(o.recognizeOpts, opts...) }
}

// BuildAdapters 依優先順序建立識別服務：Clarifai、Google Vision、OpenRouter、Gemini
func BuildAdapters(cfg config.ProvidersConfig) []provider.Adapter {
	return []provider.Adapter{
		clarifai.NewClient(cfg.Clarifai),
		googlevision.NewClient(cfg.GoogleVision),
		openrouter.NewClient(cfg.OpenRouter),
		gemini.NewClient(cfg.Gemini),
	}
}

// NewService 創建服務並啟動識別隊列
func NewService(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	adapters := o.adapters
	if adapters == nil {
		adapters = BuildAdapters(cfg.Providers)
	}

	s := &Service{
		config:    cfg,
		processor: image.NewProcessor(cfg.Image.MaxSizeBytes, cfg.Recognition.UploadMaxSide),
		adapters:  adapters,
		receipts:  receipt.NewService(cfg.Receipt, o.receiptOpts...),
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		s.memory = cache.NewManager(cfg.Cache.MaxSize, cfg.Cache.TTL)
		store = s.memory
		if cfg.Cache.RedisEnabled {
			remote, err := cache.NewRedisStore(ctx, cfg.Cache)
			if err != nil {
				common.LogWarn("Redis cache unavailable, using memory cache only", zap.Error(err))
			} else {
				s.layered = cache.NewLayered(s.memory, remote, cfg.Cache.RedisTimeout)
				store = s.layered
			}
		}
	}

	th := cfg.Recognition.Thresholds
	recognizeOpts := append([]recognition.Option{
		recognition.WithNormalizer(normalize.NewNormalizer(normalize.Thresholds{
			Object:  th.Object,
			Label:   th.Label,
			Web:     th.Web,
			Text:    th.Text,
			Concept: th.Concept,
		})),
	}, o.recognizeOpts...)

	s.orchestrator = recognition.NewOrchestrator(recognition.Options{
		AttemptTimeout: cfg.Recognition.AttemptTimeout,
		MaxAttempts:    cfg.Recognition.MaxAttempts,
		MaxResults:     cfg.Recognition.MaxResults,
	}, s.processor, adapters, store, recognizeOpts...)

	s.queue = queue.NewManager(cfg.Queue, s.orchestrator.Recognize)
	s.queue.Start()

	common.LogInfo("Recognition service initialized",
		zap.Strings("configured_providers", s.configuredNames()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("redis_cache", s.layered != nil),
		zap.Int("queue_workers", cfg.Queue.Workers),
	)
	return s, nil
}

// Recognize 驗證圖片後送入隊列等待識別結果
func (s *Service) Recognize(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
	if err := s.processor.Validate(in); err != nil {
		return nil, err
	}
	return s.queue.Submit(ctx, in)
}

// ParseReceipt 驗證並解析收據圖片
func (s *Service) ParseReceipt(ctx context.Context, in image.Input) (product.ReceiptParseResult, error) {
	if err := s.processor.Validate(in); err != nil {
		return product.ReceiptParseResult{}, err
	}
	return s.receipts.ParseReceipt(ctx, in.Data), nil
}

// ParseReceiptText 解析收據文字
func (s *Service) ParseReceiptText(text string) product.ReceiptParseResult {
	return s.receipts.ParseText(text)
}

// MaxImageBytes 允許上傳的最大圖片大小
func (s *Service) MaxImageBytes() int64 {
	return s.processor.MaxSizeBytes()
}

// CacheEnabled 快取是否啟用
func (s *Service) CacheEnabled() bool {
	return s.memory != nil
}

// CacheStats 快取統計；未啟用時回傳零值
func (s *Service) CacheStats() cache.Stats {
	if s.memory == nil {
		return cache.Stats{}
	}
	return s.memory.Stats()
}

// ClearCache 清除所有快取層
func (s *Service) ClearCache() {
	switch {
	case s.layered != nil:
		s.layered.Clear()
	case s.memory != nil:
		s.memory.Clear()
	}
}

// QueueStatus 隊列狀態
func (s *Service) QueueStatus() *queue.Status {
	return s.queue.GetQueueStatus()
}

// Providers 依嘗試順序列出識別服務的設定狀態
func (s *Service) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(s.adapters))
	for _, a := range s.adapters {
		out = append(out, ProviderStatus{Name: a.Name(), Configured: a.Configured()})
	}
	return out
}

func (s *Service) configuredNames() []string {
	var names []string
	for _, a := range s.adapters {
		if a.Configured() {
			names = append(names, a.Name())
		}
	}
	return names
}

// Close 依序關閉隊列、服務連線與快取
func (s *Service) Close() error {
	s.queue.Close()

	var errs []error
	if err := s.orchestrator.Close(); err != nil {
		errs = append(errs, err)
	}
	switch {
	case s.layered != nil:
		if err := s.layered.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	case s.memory != nil:
		_ = s.memory.Close()
	}
	return errors.Join(errs...)
}
