package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Base 各服務共用的設定、憑證與限流
type Base struct {
	name    string
	cfg     config.ProviderConfig
	limiter *rate.Limiter
}

// NewBase 創建共用基礎結構
func NewBase(name string, cfg config.ProviderConfig) Base {
	return Base{
		name:    name,
		cfg:     cfg,
		limiter: NewLimiter(cfg.RateLimit),
	}
}

// Name 服務標記
func (b Base) Name() string {
	return b.name
}

// Configured 是否具備憑證
func (b Base) Configured() bool {
	return b.cfg.Configured()
}

// Config 服務設定
func (b Base) Config() config.ProviderConfig {
	return b.cfg
}

// Wait 確認已設定憑證後等待限流器，等待時間計入本次嘗試的逾時
func (b Base) Wait(ctx context.Context) error {
	if !b.Configured() {
		return fmt.Errorf("%s: %w", b.name, common.ErrProviderNotReady)
	}
	if b.limiter == nil {
		return nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", b.name, err)
	}
	return nil
}

// NewLimiter 依每秒請求數建立限流器，rps <= 0 時不限流
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// NewRestClient 建立共用設定的 resty 客戶端，逾時由呼叫端的 context 控制
func NewRestClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "pantry-scanner/1.0")
}

// StatusError 遠端服務回傳非 2xx 狀態
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// CheckResponse 統一處理 resty 回應：傳輸錯誤、非 2xx 與空內容
func CheckResponse(name string, resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", name, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Provider:   name,
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), 300),
		}
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%s: %w", name, common.ErrEmptyProviderReply)
	}
	return body, nil
}

// truncate 截到 n 位元組以內，不切斷多位元組字元
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
