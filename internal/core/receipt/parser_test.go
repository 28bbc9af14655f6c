package receipt

import (
	"context"
	"errors"
	"testing"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Pyaterochka(t *testing.T) {
	r := Parse("ПЯТЕРОЧКА\n2024-01-15\nМолоко - 85.50\nХлеб - 45.00\nИТОГ: 130.50")

	assert.Equal(t, "Пятерочка", r.Store)
	assert.Equal(t, "2024-01-15", r.Date)
	require.NotNil(t, r.Total)
	assert.InDelta(t, 130.50, *r.Total, 1e-9)
	assert.Equal(t, []string{"Молоко", "Хлеб"}, r.Products)
	assert.Equal(t, []product.ReceiptItem{
		{Name: "Молоко", Price: 85.50},
		{Name: "Хлеб", Price: 45.00},
	}, r.Items)
}

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		store    string
		date     string
		total    *float64
		products []string
	}{
		{
			name:     "dotted date and comma total",
			text:     "Магнит у дома\nЧек № 17 от 03.02.2024\n1. Сыр российский - 320,00\n2) Кефир 2.5% - 79,90\nИТОГО = 399,90",
			store:    "Магнит",
			date:     "2024-02-03",
			total:    floatPtr(399.90),
			products: []string{"Сыр российский", "Кефир 2.5%"},
		},
		{
			name:     "english total keyword",
			text:     "AUCHAN\nApples - 120\nTOTAL 120",
			store:    "Ашан",
			total:    floatPtr(120),
			products: []string{"Apples"},
		},
		{
			name:     "no recognisable fields",
			text:     "random noise\n\n",
			products: []string{},
		},
		{
			name:     "invalid iso date ignored",
			text:     "2024-13-45\nЧай - 99",
			products: []string{"Чай"},
		},
		{
			name:     "hyphenated name",
			text:     "Coca-Cola 0.5 - 89.00",
			products: []string{"Coca-Cola 0.5"},
		},
		{
			name:     "header lines skipped",
			text:     "ИНН 7701234567\nКассир - 1\nБлины - 150",
			products: []string{"Блины"},
		},
		{
			name:     "store name inside item",
			text:     "Спаржа - 199.00\nИТОГ: 199.00",
			total:    floatPtr(199),
			products: []string{"Спаржа"},
		},
		{
			name:     "store name in header",
			text:     "SPAR Мидл Волга\nХлеб - 45.00",
			store:    "Spar",
			products: []string{"Хлеб"},
		},
		{
			name:     "vat line before total",
			text:     "НДС 20% сумма 21.75\nМолоко - 85.50\nИТОГО: 130.50",
			total:    floatPtr(130.50),
			products: []string{"Молоко"},
		},
		{
			name:     "generic sum label as fallback",
			text:     "Хлеб - 45.00\nСумма: 45.00",
			total:    floatPtr(45),
			products: []string{"Хлеб"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.text)
			assert.Equal(t, tt.store, r.Store)
			assert.Equal(t, tt.date, r.Date)
			if tt.total == nil {
				assert.Nil(t, r.Total)
			} else {
				require.NotNil(t, r.Total)
				assert.InDelta(t, *tt.total, *r.Total, 1e-9)
			}
			assert.Equal(t, tt.products, r.Products)
		})
	}
}

func TestParse_FirstStoreWins(t *testing.T) {
	r := Parse("Лента\nПятерочка\n")
	assert.Equal(t, "Лента", r.Store)
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

func TestService_ExtractText(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		source string
		text   string
	}{
		{name: "unconfigured", source: SourceDemo, text: demoText},
		{name: "ocr failure", opts: []Option{WithExtractor(fakeExtractor{err: errors.New("503")})}, source: SourceDemo, text: demoText},
		{name: "ocr blank", opts: []Option{WithExtractor(fakeExtractor{text: "  \n"})}, source: SourceDemo, text: demoText},
		{name: "ocr success", opts: []Option{WithExtractor(fakeExtractor{text: "Хлеб - 40"})}, source: SourceOCR, text: "Хлеб - 40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(config.ReceiptConfig{}, tt.opts...)
			text, source := s.ExtractText(context.Background(), []byte("img"))
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestService_ParseReceipt(t *testing.T) {
	s := NewService(config.ReceiptConfig{})

	r := s.ParseReceipt(context.Background(), []byte("img"))
	assert.Equal(t, SourceDemo, r.Source)
	assert.Equal(t, "Пятерочка", r.Store)
	assert.Equal(t, "2024-01-15", r.Date)
	assert.Len(t, r.Products, 4)
	require.NotNil(t, r.Total)
	assert.InDelta(t, 329.40, *r.Total, 1e-9)

	txt := s.ParseText("Хлеб - 45.00")
	assert.Equal(t, SourceText, txt.Source)
	assert.Equal(t, []string{"Хлеб"}, txt.Products)
}

func TestNewAzureExtractor_RequiresCredentials(t *testing.T) {
	assert.Nil(t, NewAzureExtractor(config.ReceiptConfig{AzureEndpoint: "https://x.cognitiveservices.azure.com"}))
	assert.NotNil(t, NewAzureExtractor(config.ReceiptConfig{AzureEndpoint: "https://x.cognitiveservices.azure.com", AzureKey: "k"}))
}

func floatPtr(v float64) *float64 { return &v }
