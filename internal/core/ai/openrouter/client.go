package openrouter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter 視覺模型客戶端（代理型服務）
type Client struct {
	provider.Base
	client *resty.Client
}

// Message 消息結構
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart 訊息內容片段（文字或圖片）
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片位址，使用 data URI
type ImageURL struct {
	URL string `json:"url"`
}

// Request 表示 API 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string      `json:"message"`
		Code    interface{} `json:"code"`
	} `json:"error,omitempty"`
}

var dataURIPattern = regexp.MustCompile(`data:image/[a-z+.-]+;base64,[A-Za-z0-9+/=]+`)

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	client := provider.NewRestClient(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("HTTP-Referer", "https://pantry-scanner.local").
		SetHeader("X-Title", "Pantry Scanner")

	return &Client{
		Base:   provider.NewBase(product.ProviderOpenRouter, cfg),
		client: client,
	}
}

// sanitizeResponse 移除回應中的圖片資料，避免寫進日誌
func sanitizeResponse(body string) string {
	return dataURIPattern.ReplaceAllString(body, "[IMAGE_DATA_REMOVED]")
}

// Send 發送 chat/completions 請求
func (c *Client) Send(ctx context.Context, up image.Upload) ([]byte, error) {
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}

	mime := up.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	req := Request{
		Model: c.Config().Model,
		Messages: []Message{{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: provider.ProductPrompt},
				{Type: "image_url", ImageURL: &ImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(up.Data)),
				}},
			},
		}},
		MaxTokens:   c.Config().MaxTokens,
		Temperature: 0.1,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.Int("bytes", len(up.Data)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	body, err := provider.CheckResponse(c.Name(), resp, err)
	if err != nil {
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) {
			statusErr.Body = sanitizeResponse(statusErr.Body)
		}
		return nil, err
	}
	return body, nil
}

// Parse 取出第一個回覆並解析商品 JSON
func (c *Client) Parse(raw []byte) (*provider.Parsed, error) {
	var resp Response
	if err := common.ParseJSONBytes(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openrouter error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openrouter: %w", common.ErrEmptyProviderReply)
	}

	common.LogDebug("OpenRouter reply received",
		zap.String("model", c.Config().Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return provider.ParseProductJSON(content)
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
