package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantry-scanner/internal/core/ai/cache"
	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/analysis"
	"pantry-scanner/internal/core/normalize"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultAttemptTimeout 單次服務嘗試的預設逾時
const DefaultAttemptTimeout = 12 * time.Second

// Options 識別流程的可調參數
type Options struct {
	// AttemptTimeout 每個服務嘗試各自的逾時
	AttemptTimeout time.Duration
	// MaxAttempts 最多嘗試幾個已設定的服務，0 表示全部
	MaxAttempts int
	// MaxResults 結果上限
	MaxResults int
}

// Orchestrator 依序嘗試各識別服務，並在全部失敗時退回本地分析與示範結果
type Orchestrator struct {
	opts       Options
	processor  *image.Processor
	adapters   []provider.Adapter
	cache      cache.Store
	normalizer *normalize.Normalizer
	analyzer   *analysis.Analyzer
	hasher     *Hasher
	now        func() time.Time
}

// Option 設定 Orchestrator
type Option func(*Orchestrator)

// WithNormalizer 指定正規化器
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *Orchestrator) { o.normalizer = n }
}

// WithAnalyzer 指定本地分析器（測試時可注入固定亂數）
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(o *Orchestrator) { o.analyzer = a }
}

// WithHasher 指定指紋計算器
func WithHasher(h *Hasher) Option {
	return func(o *Orchestrator) { o.hasher = h }
}

// WithClock 指定時鐘
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator 創建識別流程；adapters 的順序即為嘗試順序，store 可為 nil
func NewOrchestrator(opts Options, processor *image.Processor, adapters []provider.Adapter, store cache.Store, options ...Option) *Orchestrator {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = normalize.DefaultMaxResults
	}

	o := &Orchestrator{
		opts:      opts,
		processor: processor,
		adapters:  adapters,
		cache:     store,
		now:       time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	if o.normalizer == nil {
		o.normalizer = normalize.NewNormalizer(normalize.DefaultThresholds())
	}
	if o.analyzer == nil {
		o.analyzer = analysis.NewAnalyzer(nil)
	}
	if o.hasher == nil {
		o.hasher = NewHasher()
	}
	return o
}

// Recognize 識別圖片中的商品；只有驗證錯誤會回傳 error，其餘失敗都會退到下一層
func (o *Orchestrator) Recognize(ctx context.Context, in image.Input) (*product.RecognitionResult, error) {
	start := o.now()

	if err := o.processor.Validate(in); err != nil {
		common.LogWarn("Image rejected", zap.Error(err), zap.String("file_name", in.FileName))
		return nil, err
	}

	key, cacheable := o.fingerprint(in)
	if cacheable && o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok {
			common.LogCacheHit("recognition", key)
			return cached, nil
		}
		common.LogCacheMiss("recognition", key)
	}

	var summaries []product.AttemptSummary
	if attempt, ok := o.tryProviders(ctx, in, &summaries); ok {
		result := o.buildResult(start, attempt.Provider, attempt.Products, attempt.Description, summaries)
		if cacheable && o.cache != nil {
			stored := *result
			stored.CacheHit = true
			o.cache.Set(ctx, key, &stored)
		}
		return result, nil
	}

	an := o.analyzer.Analyze(in.Data, in.FileName)
	if products := o.analyzer.InferProducts(an); len(products) > 0 {
		common.LogInfo("Using heuristic fallback",
			zap.Int("products", len(products)),
			zap.Float64("brightness", an.ColorAnalysis.AverageBrightness),
		)
		desc := fmt.Sprintf("Эвристический анализ: %dx%d, яркость %.0f", an.Width, an.Height, an.ColorAnalysis.AverageBrightness)
		return o.buildResult(start, product.ProviderHeuristic, normalize.Rank(products, o.opts.MaxResults), desc, summaries), nil
	}

	common.LogInfo("Using demo fallback", zap.Bool("decoded", an.Decoded))
	return o.buildResult(start, product.ProviderDemo, DemoProducts(), demoDescription, summaries), nil
}

// fingerprint 計算快取鍵；弱指紋不參與快取
func (o *Orchestrator) fingerprint(in image.Input) (string, bool) {
	key, err := o.hasher.Hash(in.Data, in.FileName)
	if err != nil {
		common.LogWarn("Fingerprint unavailable, cache bypassed", zap.Error(err))
		return key, false
	}
	return key, true
}

// tryProviders 依序嘗試已設定的服務，回傳第一個成功的結果
func (o *Orchestrator) tryProviders(ctx context.Context, in image.Input, summaries *[]product.AttemptSummary) (provider.Attempt, bool) {
	var (
		upload   image.Upload
		prepared bool
		tried    int
	)

	for _, adapter := range o.adapters {
		if !adapter.Configured() {
			continue
		}
		if o.opts.MaxAttempts > 0 && tried >= o.opts.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			common.LogWarn("Request cancelled, skipping remaining providers", zap.Error(ctx.Err()))
			break
		}
		if !prepared {
			upload = o.processor.PrepareUpload(in)
			prepared = true
		}

		tried++
		attempt := o.try(ctx, adapter, upload)
		*summaries = append(*summaries, attempt.Summary())
		common.LogProviderCall(attempt.Provider, attempt.Outcome.String(), attempt.Duration, attempt.Err)

		if attempt.Outcome == provider.OutcomeSuccess {
			return attempt, true
		}
	}
	return provider.Attempt{}, false
}

// try 執行單次服務嘗試：送出、解析、正規化、去重
func (o *Orchestrator) try(ctx context.Context, adapter provider.Adapter, up image.Upload) (attempt provider.Attempt) {
	attempt.Provider = adapter.Name()
	begin := o.now()

	actx, cancel := context.WithTimeout(ctx, o.opts.AttemptTimeout)
	defer cancel()

	defer func() {
		attempt.Duration = o.now().Sub(begin)
		if r := recover(); r != nil {
			attempt.Outcome = provider.OutcomeFailed
			attempt.Products = nil
			attempt.Err = fmt.Errorf("%s panicked: %v", adapter.Name(), r)
		}
	}()

	raw, err := adapter.Send(actx, up)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", adapter.Name(), o.opts.AttemptTimeout, err)
		}
		attempt.Outcome = provider.OutcomeFailed
		attempt.Err = err
		return attempt
	}

	parsed, err := adapter.Parse(raw)
	if err != nil {
		attempt.Outcome = provider.OutcomeFailed
		attempt.Err = err
		return attempt
	}

	products := normalize.DedupAndRank(o.normalizer.Normalize(parsed.Labels), o.opts.MaxResults)
	if len(products) == 0 {
		attempt.Outcome = provider.OutcomeEmpty
		return attempt
	}

	attempt.Outcome = provider.OutcomeSuccess
	attempt.Products = products
	attempt.Description = parsed.Description
	return attempt
}

func (o *Orchestrator) buildResult(start time.Time, providerUsed string, products []product.DetectedProduct, desc string, summaries []product.AttemptSummary) *product.RecognitionResult {
	return &product.RecognitionResult{
		Products:         products,
		ImageDescription: desc,
		Confidence:       product.AverageConfidence(products),
		ProcessingTimeMs: o.now().Sub(start).Milliseconds(),
		ProviderUsed:     providerUsed,
		Attempts:         summaries,
	}
}

// Close 關閉所有服務連線
func (o *Orchestrator) Close() error {
	var errs []error
	for _, a := range o.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}
