package domain

import "time"

type ProductVariant struct {
	Name        string  `json:"name"`
	BasePrice   float64 `json:"basePrice"`
	MarkupPrice float64 `json:"markupPrice"`
	Image       string  `json:"image"`
	Stock       int32   `json:"stock"`
}

type Product struct {
	ID               int64            `json:"id"`
	StoreID          int64            `json:"storeID"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	BasePrice        *float64         `json:"basePrice"`
	MarkupPrice      *float64         `json:"markupPrice"`
	MarkupPercentage float64          `json:"markupPercentage"`
	Stock            int32            `json:"stock"`
	Images           []string         `json:"images"`
	VariantLabel     string           `json:"variantLabel"` // 规格名称，例如“尺码”
	Variants         []ProductVariant `json:"variants"`
	CreatedAt        time.Time        `json:"createdAt"`
	Version          int32            `json:"-"`
}
