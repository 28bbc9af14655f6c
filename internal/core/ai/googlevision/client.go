package googlevision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// textConfidence 文字偵測沒有分數，固定給予的信心值
const textConfidence = 0.7

// Client Google Cloud Vision 客戶端，同時請求物件、標籤、網路實體與文字四種面向
type Client struct {
	provider.Base
	client *resty.Client
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image    requestImage `json:"image"`
	Features []feature    `json:"features"`
}

type requestImage struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
	Error     *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type imageResponse struct {
	LocalizedObjectAnnotations []objectAnnotation `json:"localizedObjectAnnotations"`
	LabelAnnotations           []entityAnnotation `json:"labelAnnotations"`
	TextAnnotations            []entityAnnotation `json:"textAnnotations"`
	WebDetection               *webDetection      `json:"webDetection"`
	Error                      *apiError          `json:"error,omitempty"`
}

type objectAnnotation struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	BoundingPoly struct {
		NormalizedVertices []vertex `json:"normalizedVertices"`
	} `json:"boundingPoly"`
}

type vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type entityAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Locale      string  `json:"locale,omitempty"`
}

type webDetection struct {
	WebEntities []struct {
		Description string  `json:"description"`
		Score       float64 `json:"score"`
	} `json:"webEntities"`
	BestGuessLabels []struct {
		Label string `json:"label"`
	} `json:"bestGuessLabels"`
}

// NewClient 創建 Google Vision 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		Base:   provider.NewBase(product.ProviderGoogleVision, cfg),
		client: provider.NewRestClient(cfg.BaseURL),
	}
}

// Send 發送 images:annotate 請求
func (c *Client) Send(ctx context.Context, up image.Upload) ([]byte, error) {
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}

	req := annotateRequest{
		Requests: []annotateImageRequest{{
			Image: requestImage{Content: base64.StdEncoding.EncodeToString(up.Data)},
			Features: []feature{
				{Type: "OBJECT_LOCALIZATION", MaxResults: 20},
				{Type: "LABEL_DETECTION", MaxResults: 20},
				{Type: "WEB_DETECTION", MaxResults: 10},
				{Type: "TEXT_DETECTION", MaxResults: 10},
			},
		}},
	}

	common.LogDebug("Sending request to Google Vision", zap.Int("bytes", len(up.Data)))

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.Config().APIKey).
		SetBody(req).
		Post("/v1/images:annotate")

	return provider.CheckResponse(c.Name(), resp, err)
}

// Parse 合併四種面向的結果為標籤
func (c *Client) Parse(raw []byte) (*provider.Parsed, error) {
	var resp annotateResponse
	if err := common.ParseJSONBytes(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Google Vision response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("google vision error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("google vision: %w", common.ErrEmptyProviderReply)
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("google vision error %d: %s", r.Error.Code, r.Error.Message)
	}

	parsed := &provider.Parsed{}

	for _, obj := range r.LocalizedObjectAnnotations {
		parsed.Labels = append(parsed.Labels, provider.Label{
			Name:        obj.Name,
			Confidence:  obj.Score,
			Facet:       provider.FacetObject,
			BoundingBox: boxFromVertices(obj.BoundingPoly.NormalizedVertices),
		})
	}

	for _, lbl := range r.LabelAnnotations {
		parsed.Labels = append(parsed.Labels, provider.Label{
			Name:       lbl.Description,
			Confidence: lbl.Score,
			Facet:      provider.FacetLabel,
		})
	}

	if r.WebDetection != nil {
		for _, ent := range r.WebDetection.WebEntities {
			if ent.Description == "" {
				continue
			}
			// 網路實體分數沒有上限，壓到 1
			score := ent.Score
			if score > 1 {
				score = 1
			}
			parsed.Labels = append(parsed.Labels, provider.Label{
				Name:       ent.Description,
				Confidence: score,
				Facet:      provider.FacetWeb,
			})
		}
		if len(r.WebDetection.BestGuessLabels) > 0 {
			parsed.Description = r.WebDetection.BestGuessLabels[0].Label
		}
	}

	// 第一筆 textAnnotation 是整張圖的全文，之後才是單字
	for i, txt := range r.TextAnnotations {
		if i == 0 {
			continue
		}
		word := strings.TrimSpace(txt.Description)
		if word == "" {
			continue
		}
		parsed.Labels = append(parsed.Labels, provider.Label{
			Name:       word,
			Confidence: textConfidence,
			Facet:      provider.FacetText,
		})
	}

	return parsed, nil
}

// boxFromVertices 將正規化頂點轉為百分比框
func boxFromVertices(vs []vertex) *product.BoundingBox {
	if len(vs) == 0 {
		return nil
	}
	minX, minY := vs[0].X, vs[0].Y
	maxX, maxY := vs[0].X, vs[0].Y
	for _, v := range vs[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return &product.BoundingBox{
		X:      minX * 100,
		Y:      minY * 100,
		Width:  (maxX - minX) * 100,
		Height: (maxY - minY) * 100,
	}
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
