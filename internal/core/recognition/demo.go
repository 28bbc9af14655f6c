package recognition

import (
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"
)

// demoDescription 示範結果的說明
const demoDescription = "Демонстрационный результат: распознавание недоступно"

var demoSet = []struct {
	name       string
	category   product.Category
	confidence float64
}{
	{"Хлеб", product.CategoryBakery, 0.50},
	{"Молоко", product.CategoryDairy, 0.45},
	{"Яблоко", product.CategoryFruits, 0.40},
}

// DemoProducts 固定的示範商品，永遠不為空
func DemoProducts() []product.DetectedProduct {
	products := make([]product.DetectedProduct, 0, len(demoSet))
	for _, d := range demoSet {
		products = append(products, product.DetectedProduct{
			ID:         common.GenerateUUID(),
			Name:       d.name,
			Category:   d.category,
			Confidence: d.confidence,
		})
	}
	return products
}
