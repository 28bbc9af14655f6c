package gemini

import (
	"context"
	"fmt"
	"strings"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// generateFunc 呼叫模型並回傳文字回覆
type generateFunc func(ctx context.Context, up image.Upload) (string, error)

// Client Google Gemini 視覺模型客戶端（最後一層代理服務）
type Client struct {
	provider.Base
	generate generateFunc
}

// NewClient 創建 Gemini 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	c := &Client{Base: provider.NewBase(product.ProviderGemini, cfg)}
	c.generate = c.generateContent
	return c
}

// Send 以提示詞加圖片呼叫 GenerateContent，回傳模型的文字回覆
func (c *Client) Send(ctx context.Context, up image.Upload) ([]byte, error) {
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}

	text, err := c.generate(ctx, up)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini: %w", common.ErrEmptyProviderReply)
	}
	return []byte(text), nil
}

func (c *Client) generateContent(ctx context.Context, up image.Upload) (string, error) {
	cfg := c.Config()

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(cfg.Model)
	maxTokens := int32(cfg.MaxTokens)
	temperature := float32(0.1)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = &maxTokens
	}
	model.ResponseMIMEType = "application/json"

	mime := up.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	common.LogDebug("Sending request to Gemini",
		zap.String("model", cfg.Model),
		zap.Int("bytes", len(up.Data)),
	)

	resp, err := model.GenerateContent(ctx,
		genai.Text(provider.ProductPrompt),
		genai.Blob{MIMEType: mime, Data: up.Data},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		common.LogWarn("Gemini reply truncated by max tokens", zap.String("model", cfg.Model))
	}
	return sb.String(), nil
}

// Parse 解析模型回覆的商品 JSON
func (c *Client) Parse(raw []byte) (*provider.Parsed, error) {
	return provider.ParseProductJSON(string(raw))
}

// Close 每次呼叫都會關閉自己的連線，這裡不需要處理
func (c *Client) Close() error {
	return nil
}
