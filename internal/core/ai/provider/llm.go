package provider

import (
	"fmt"
	"strings"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"
)

// ProductPrompt 視覺語言模型共用的提示詞
const ProductPrompt = `You are a grocery recognition assistant. List every food product visible in the photo.
Reply with JSON only, no markdown, in this shape:
{"description":"short description of the photo","products":[{"name":"tomato","confidence":0.9,"quantity":2,"unit":"pcs","brand":""}]}
Use English product names, confidence between 0 and 1. Return an empty products list if there is no food.`

type llmReply struct {
	Description string       `json:"description"`
	Products    []llmProduct `json:"products"`
}

type llmProduct struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Quantity   float64 `json:"quantity,omitempty"`
	Unit       string  `json:"unit,omitempty"`
	Brand      string  `json:"brand,omitempty"`
	Freshness  string  `json:"freshness,omitempty"`
}

// ParseProductJSON 解析模型回覆的 JSON，接受物件或單純的陣列，並容忍 markdown 區塊
func ParseProductJSON(content string) (*Parsed, error) {
	jsonStr := common.ExtractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in model reply: %w", common.ErrEmptyProviderReply)
	}

	var reply llmReply
	if strings.HasPrefix(jsonStr, "[") {
		if err := parseLenient(jsonStr, &reply.Products); err != nil {
			return nil, fmt.Errorf("failed to parse product list: %w", err)
		}
	} else if err := parseLenient(jsonStr, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse product reply: %w", err)
	}

	parsed := &Parsed{Description: strings.TrimSpace(reply.Description)}
	for _, p := range reply.Products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		label := Label{
			Name:       name,
			Confidence: clamp01(p.Confidence),
			Facet:      FacetObject,
		}
		if p.Quantity > 0 || p.Unit != "" || p.Brand != "" || p.Freshness != "" {
			label.Attributes = &product.Attributes{
				Freshness: p.Freshness,
				Quantity:  p.Quantity,
				Unit:      p.Unit,
				Brand:     p.Brand,
			}
		}
		parsed.Labels = append(parsed.Labels, label)
	}
	return parsed, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// parseLenient 解析失敗時補上鍵的雙引號再試一次
func parseLenient(s string, v interface{}) error {
	err := common.ParseJSON(s, v)
	if err == nil {
		return nil
	}
	if quoted := common.QuoteJSONKeys(s); quoted != s {
		if retry := common.ParseJSON(quoted, v); retry == nil {
			return nil
		}
	}
	return err
}
