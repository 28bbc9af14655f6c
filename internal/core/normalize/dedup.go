package normalize

import (
	"sort"
	"strings"

	"pantry-scanner/internal/core/product"
)

// DefaultMaxResults 預設結果上限
const DefaultMaxResults = 10

// synonymRoot 每個同義詞對應到所屬組的第一個名稱
var synonymRoot = buildSynonymRoots(synonymGroups)

func buildSynonymRoots(groups [][]string) map[string]string {
	roots := make(map[string]string)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		root := strings.ToLower(g[0])
		for _, name := range g {
			roots[strings.ToLower(name)] = root
		}
	}
	return roots
}

// DedupKey 去重鍵：小寫名稱，同義詞折疊到同一組
func DedupKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if root, ok := synonymRoot[key]; ok {
		return root
	}
	return key
}

// Dedup 合併同名或同義的商品，保留信心值較高者，輸出順序為首次出現的順序
func Dedup(products []product.DetectedProduct) []product.DetectedProduct {
	index := make(map[string]int, len(products))
	out := make([]product.DetectedProduct, 0, len(products))

	for _, p := range products {
		key := DedupKey(p.Name)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, p)
			continue
		}

		kept := out[i]
		if p.Confidence > kept.Confidence {
			kept, p = p, kept
		}
		if kept.BoundingBox == nil {
			kept.BoundingBox = p.BoundingBox
		}
		if kept.Attributes == nil {
			kept.Attributes = p.Attributes
		}
		out[i] = kept
	}
	return out
}

// Rank 依信心值由高到低穩定排序並截斷到上限，limit <= 0 時使用預設上限
func Rank(products []product.DetectedProduct, limit int) []product.DetectedProduct {
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	ranked := make([]product.DetectedProduct, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// DedupAndRank 去重後排序截斷
func DedupAndRank(products []product.DetectedProduct, limit int) []product.DetectedProduct {
	return Rank(Dedup(products), limit)
}
