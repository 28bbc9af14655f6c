package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pantry-scanner/internal/core/product"
)

// storePattern 商店名稱樣式與正規名稱
type storePattern struct {
	re   *regexp.Regexp
	name string
}

// storePatterns 依序比對，第一個命中者勝出
var storePatterns = []storePattern{
	{wordRe(`пят[её]рочка|5ка`), "Пятерочка"},
	{wordRe(`магнит`), "Магнит"},
	{wordRe(`перекр[её]сток`), "Перекресток"},
	{wordRe(`ашан|auchan`), "Ашан"},
	{wordRe(`лента`), "Лента"},
	{wordRe(`дикси`), "Дикси"},
	{wordRe(`вкусвилл`), "ВкусВилл"},
	{wordRe(`метро|metro`), "Metro"},
	{wordRe(`о'?к[еэ]й|o'?key`), "О'Кей"},
	{wordRe(`верный`), "Верный"},
	{wordRe(`spar|спар`), "Spar"},
}

// storeRe 名稱前後不能緊接其他字母
func wordRe(names string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:` + names + `)(?:[^\p{L}]|$)`)
}

const amountExpr = `(\d+(?:[.,]\d{1,2})?)`

// totalPatterns 依序嘗試，通用的「сумма」只在沒有明確總額標記時使用
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:итого|итог|всего|к\s+оплате|total)\s*[:=]?\s*` + amountExpr),
	regexp.MustCompile(`(?i)сумма\s*[:=]?\s*` + amountExpr),
}

var (
	isoDatePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dottedDate     = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	vatPattern     = wordRe(`ндс|vat`)
	itemPattern    = regexp.MustCompile(`^\s*(?:\d+[.)]\s*)?(.+?)\s*[-–—]\s*` + amountExpr + `\s*(?:руб\.?|р\.?|₽)?\s*$`)
	ordinalPrefix  = regexp.MustCompile(`^\d+[.)]\s*`)
	headerPattern  = regexp.MustCompile(`(?i)кассовый\s+чек|чек\s*№|инн\s*[:№\d]|ккт|фн\s*№|кассир|смена|спасибо|приход`)
)

// Parse 從收據文字解析商店、日期、總額與品項，不做任何 I/O
func Parse(text string) product.ReceiptParseResult {
	result := product.ReceiptParseResult{
		Products: []string{},
		Items:    []product.ReceiptItem{},
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for _, line := range lines {
		if name, ok := matchStore(line); ok {
			result.Store = name
			break
		}
	}

	result.Date = findDate(lines)

	result.Total = findTotal(lines)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isTotalLine(line) || vatPattern.MatchString(line) || headerPattern.MatchString(line) {
			continue
		}
		m := itemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(ordinalPrefix.ReplaceAllString(m[1], ""))
		price, ok := parseAmount(m[2])
		if !hasLetter(name) || !ok {
			continue
		}
		result.Products = append(result.Products, name)
		result.Items = append(result.Items, product.ReceiptItem{Name: name, Price: price})
	}

	return result
}

func matchStore(line string) (string, bool) {
	for _, sp := range storePatterns {
		if sp.re.MatchString(line) {
			return sp.name, true
		}
	}
	return "", false
}

// findTotal 稅額行不算總額
func findTotal(lines []string) *float64 {
	for _, re := range totalPatterns {
		for _, line := range lines {
			if vatPattern.MatchString(line) {
				continue
			}
			if m := re.FindStringSubmatch(line); m != nil {
				if v, ok := parseAmount(m[1]); ok {
					return &v
				}
			}
		}
	}
	return nil
}

func isTotalLine(line string) bool {
	for _, re := range totalPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// findDate 先找 YYYY-MM-DD，找不到再找 DD.MM.YYYY 並轉成 ISO 格式
func findDate(lines []string) string {
	for _, line := range lines {
		for _, m := range isoDatePattern.FindAllString(line, -1) {
			if _, err := time.Parse("2006-01-02", m); err == nil {
				return m
			}
		}
	}
	for _, line := range lines {
		for _, m := range dottedDate.FindAllString(line, -1) {
			if t, err := time.Parse("02.01.2006", m); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return ""
}

// parseAmount 解析金額，小數點可為逗號或句點
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
