// Package domain holds the catalog entities, the denormalized index
// document shapes, and the search criteria/result types.
package domain

import "time"

// Category is a top-level product grouping.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Brand is a product manufacturer or label.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a free-form label attached to products.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SubCategory is a finer grouping below Category.
type SubCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Color is a product color option.
type Color struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

// Media is an image attached to a product.
type Media struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// Product is the catalog-authoritative product row with its associations
// loaded. Category and Brand are nil when detached.
type Product struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	SKU                string        `json:"sku"`
	Description        string        `json:"description"`
	ShortDescription   string        `json:"short_description"`
	Price              float64       `json:"price"`
	CostPrice          float64       `json:"cost_price"`
	PercentageDiscount *int          `json:"percentage_discount,omitempty"`
	Stock              int           `json:"stock"`
	Rating             float64       `json:"rating"`
	Views              int64         `json:"views"`
	QuantitySold       int64         `json:"quantity_sold"`
	ReviewsCount       int64         `json:"reviews_count"`
	CoverImage         string        `json:"cover_image"`
	Category           *Category     `json:"category,omitempty"`
	Brand              *Brand        `json:"brand,omitempty"`
	Tags               []Tag         `json:"tags,omitempty"`
	Colors             []Color       `json:"colors,omitempty"`
	SubCategories      []SubCategory `json:"sub_categories,omitempty"`
	Media              []Media       `json:"product_media,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// DiscountedPrice applies the percentage discount to the list price. Only
// a positive discount changes it; the catalog store is shared, so a bad
// row must not inflate the price.
func (p *Product) DiscountedPrice() float64 {
	if p.PercentageDiscount == nil || *p.PercentageDiscount <= 0 {
		return p.Price
	}
	return p.Price - p.Price*float64(*p.PercentageDiscount)/100
}

// EntityKind names a shared catalog entity for sync fan-out.
type EntityKind string

const (
	KindCategory    EntityKind = "category"
	KindBrand       EntityKind = "brand"
	KindTag         EntityKind = "tag"
	KindColor       EntityKind = "color"
	KindSubCategory EntityKind = "sub_category"
)
