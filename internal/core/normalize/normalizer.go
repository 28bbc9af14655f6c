package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"github.com/kljensen/snowball"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// minLabelRunes 標籤最短長度
const minLabelRunes = 3

// Thresholds 各面向的信心門檻
type Thresholds struct {
	Object  float64
	Label   float64
	Web     float64
	Text    float64
	Concept float64
}

// DefaultThresholds 預設門檻
func DefaultThresholds() Thresholds {
	return Thresholds{
		Object:  0.5,
		Label:   0.6,
		Web:     0.5,
		Text:    0.6,
		Concept: 0.5,
	}
}

func (t Thresholds) forFacet(f provider.Facet) float64 {
	switch f {
	case provider.FacetObject:
		return t.Object
	case provider.FacetLabel:
		return t.Label
	case provider.FacetWeb:
		return t.Web
	case provider.FacetText:
		return t.Text
	case provider.FacetConcept:
		return t.Concept
	}
	return t.Label
}

// Normalizer 標籤正規化器：過濾、翻譯、分類
type Normalizer struct {
	thresholds Thresholds
	reverse    map[string]string
	stems      map[string]product.Category

	mu        sync.RWMutex
	stemCache map[string]string
}

// NewNormalizer 創建正規化器
func NewNormalizer(thresholds Thresholds) *Normalizer {
	n := &Normalizer{
		thresholds: thresholds,
		reverse:    make(map[string]string, len(translations)),
		stems:      make(map[string]product.Category),
		stemCache:  make(map[string]string),
	}
	for _, ru := range translations {
		n.reverse[strings.ToLower(ru)] = ru
	}
	for cat, words := range stemVocabulary {
		for _, w := range words {
			n.stems[n.stem(w)] = cat
		}
	}
	return n
}

// Normalize 將原始標籤轉為商品，過濾掉低信心、籠統與非食物的標籤
func (n *Normalizer) Normalize(labels []provider.Label) []product.DetectedProduct {
	products := make([]product.DetectedProduct, 0, len(labels))
	for _, l := range labels {
		name := cleanLabel(l.Name)
		if name == "" {
			continue
		}
		if l.Confidence < n.thresholds.forFacet(l.Facet) {
			continue
		}
		lower := strings.ToLower(name)
		if IsGeneric(lower) || !n.IsFoodRelevant(lower) {
			continue
		}

		canonical := n.Translate(name)
		products = append(products, product.DetectedProduct{
			ID:          common.GenerateUUID(),
			Name:        canonical,
			Category:    n.Categorize(canonical),
			Confidence:  l.Confidence,
			BoundingBox: l.BoundingBox,
			Attributes:  l.Attributes,
		})
	}

	common.LogDebug("Labels normalized",
		zap.Int("labels", len(labels)),
		zap.Int("products", len(products)),
	)
	return products
}

// Translate 轉為俄文正規名稱；未知的西里爾字母標籤只做首字大寫，其他原樣保留
func (n *Normalizer) Translate(name string) string {
	name = cleanLabel(name)
	lower := strings.ToLower(name)

	if ru, ok := lookupTranslation(lower); ok {
		return ru
	}
	if ru, ok := n.reverse[lower]; ok {
		return ru
	}
	if isCyrillic(name) {
		return n.capitalize(name)
	}
	return name
}

// Categorize 依序比對分類詞首，找不到時改用詞幹比對，預設 other
func (n *Normalizer) Categorize(name string) product.Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, sub := range rule.substrings {
			if hasWordPrefix(lower, sub) {
				return rule.category
			}
		}
	}
	if cat, ok := n.stemCategory(lower); ok {
		return cat
	}
	return product.CategoryOther
}

// IsFoodRelevant 標籤是否與食物有關：需命中翻譯表或食物關鍵字，且不含排除詞
func (n *Normalizer) IsFoodRelevant(lower string) bool {
	for _, w := range words(lower) {
		if _, excluded := nonFood[w]; excluded {
			return false
		}
	}
	if _, ok := lookupTranslation(lower); ok {
		return true
	}
	if _, ok := n.reverse[lower]; ok {
		return true
	}
	for _, kw := range foodKeywords {
		if matchesKeyword(lower, kw) {
			return true
		}
	}
	return isCyrillic(lower) && n.Categorize(lower) != product.CategoryOther
}

// IsGeneric 太短、純數字或屬於籠統詞彙的標籤
func IsGeneric(lower string) bool {
	if utf8.RuneCountInString(lower) < minLabelRunes {
		return true
	}
	if isNumeric(lower) {
		return true
	}
	_, generic := genericTerms[lower]
	return generic
}

func (n *Normalizer) stemCategory(lower string) (product.Category, bool) {
	for _, w := range words(lower) {
		if !isCyrillic(w) {
			continue
		}
		if cat, ok := n.stems[n.stem(w)]; ok {
			return cat, true
		}
	}
	return "", false
}

func (n *Normalizer) stem(word string) string {
	n.mu.RLock()
	cached, ok := n.stemCache[word]
	n.mu.RUnlock()
	if ok {
		return cached
	}

	stemmed, err := snowball.Stem(word, "russian", true)
	if err != nil {
		stemmed = word
	}

	n.mu.Lock()
	n.stemCache[word] = stemmed
	n.mu.Unlock()
	return stemmed
}

func (n *Normalizer) capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	// Caser 有狀態，不能跨 goroutine 共用
	return cases.Upper(language.Russian).String(string(r)) + cases.Lower(language.Russian).String(name[size:])
}

// lookupTranslation 查翻譯表，找不到時嘗試去掉英文複數字尾
func lookupTranslation(lower string) (string, bool) {
	if ru, ok := translations[lower]; ok {
		return ru, true
	}
	for _, suffix := range []string{"es", "s"} {
		if strings.HasSuffix(lower, suffix) {
			if ru, ok := translations[strings.TrimSuffix(lower, suffix)]; ok {
				return ru, true
			}
		}
	}
	return "", false
}

// cleanLabel 統一 Unicode 形式並合併空白
func cleanLabel(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// hasWordPrefix s 中是否有某個詞以 sub 開頭
func hasWordPrefix(s, sub string) bool {
	for i := 0; i < len(s); {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			return false
		}
		j += i
		if j == 0 {
			return true
		}
		if r, _ := utf8.DecodeLastRuneInString(s[:j]); !unicode.IsLetter(r) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[j:])
		i = j + size
	}
	return false
}

// matchesKeyword 西里爾字母關鍵字是詞幹，比對詞首；拉丁字母關鍵字比對整詞，允許複數字尾
func matchesKeyword(lower, kw string) bool {
	if isCyrillic(kw) {
		return hasWordPrefix(lower, kw)
	}
	for _, w := range words(lower) {
		switch {
		case w == kw, w == kw+"s", w == kw+"es":
			return true
		case strings.HasSuffix(kw, "y") && w == strings.TrimSuffix(kw, "y")+"ies":
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

func isCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '.' || r == ',' || r == ' ' || r == '%' || r == '-':
		default:
			return false
		}
	}
	return hasDigit
}
