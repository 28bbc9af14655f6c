package clarifai

import (
	"context"
	"encoding/base64"
	"fmt"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// statusSuccess Clarifai 成功狀態碼
const statusSuccess = 10000

// Client Clarifai 食物模型客戶端（主要的神經網路標籤服務）
type Client struct {
	provider.Base
	client *resty.Client
}

type outputsRequest struct {
	UserAppID userAppID `json:"user_app_id"`
	Inputs    []input   `json:"inputs"`
}

type userAppID struct {
	UserID string `json:"user_id"`
	AppID  string `json:"app_id"`
}

type input struct {
	Data inputData `json:"data"`
}

type inputData struct {
	Image imageData `json:"image"`
}

type imageData struct {
	Base64 string `json:"base64"`
}

type outputsResponse struct {
	Status  status   `json:"status"`
	Outputs []output `json:"outputs"`
}

type status struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

type output struct {
	Status status     `json:"status"`
	Data   outputData `json:"data"`
}

type outputData struct {
	Concepts []concept `json:"concepts"`
	Regions  []region  `json:"regions"`
}

type concept struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type region struct {
	RegionInfo struct {
		BoundingBox *struct {
			TopRow    float64 `json:"top_row"`
			LeftCol   float64 `json:"left_col"`
			BottomRow float64 `json:"bottom_row"`
			RightCol  float64 `json:"right_col"`
		} `json:"bounding_box"`
	} `json:"region_info"`
	Data struct {
		Concepts []concept `json:"concepts"`
	} `json:"data"`
}

// NewClient 創建 Clarifai 客戶端
func NewClient(cfg config.ProviderConfig) *Client {
	client := provider.NewRestClient(cfg.BaseURL).
		SetHeader("Authorization", "Key "+cfg.APIKey)

	return &Client{
		Base:   provider.NewBase(product.ProviderClarifai, cfg),
		client: client,
	}
}

// Send 發送圖片到 Clarifai 模型
func (c *Client) Send(ctx context.Context, up image.Upload) ([]byte, error) {
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}

	req := outputsRequest{
		UserAppID: userAppID{UserID: "clarifai", AppID: "main"},
		Inputs: []input{
			{Data: inputData{Image: imageData{Base64: base64.StdEncoding.EncodeToString(up.Data)}}},
		},
	}

	common.LogDebug("Sending request to Clarifai",
		zap.String("model", c.Config().Model),
		zap.Int("bytes", len(up.Data)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(fmt.Sprintf("/v2/models/%s/outputs", c.Config().Model))

	return provider.CheckResponse(c.Name(), resp, err)
}

// Parse 解析 Clarifai 回應，概念與區域偵測都會轉為標籤
func (c *Client) Parse(raw []byte) (*provider.Parsed, error) {
	var resp outputsResponse
	if err := common.ParseJSONBytes(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Clarifai response: %w", err)
	}
	if resp.Status.Code != statusSuccess {
		return nil, fmt.Errorf("clarifai error %d: %s", resp.Status.Code, resp.Status.Description)
	}

	parsed := &provider.Parsed{}
	for _, out := range resp.Outputs {
		for _, cpt := range out.Data.Concepts {
			parsed.Labels = append(parsed.Labels, provider.Label{
				Name:       cpt.Name,
				Confidence: cpt.Value,
				Facet:      provider.FacetConcept,
			})
		}
		for _, reg := range out.Data.Regions {
			box := reg.RegionInfo.BoundingBox
			for _, cpt := range reg.Data.Concepts {
				label := provider.Label{
					Name:       cpt.Name,
					Confidence: cpt.Value,
					Facet:      provider.FacetObject,
				}
				if box != nil {
					label.BoundingBox = &product.BoundingBox{
						X:      box.LeftCol * 100,
						Y:      box.TopRow * 100,
						Width:  (box.RightCol - box.LeftCol) * 100,
						Height: (box.BottomRow - box.TopRow) * 100,
					}
				}
				parsed.Labels = append(parsed.Labels, label)
			}
		}
	}
	return parsed, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
