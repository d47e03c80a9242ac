package domain

import (
	"strings"
	"time"
)

// Index names. One shard, zero replicas each; this subsystem is a single
// writer with modest volume.
const (
	IndexProducts   = "products"
	IndexCategories = "categories"
	IndexBrands     = "brands"
	IndexTags       = "tags"
)

// RefDoc is an embedded {id, name} object inside a product document.
type RefDoc struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ColorDoc is a nested color entry with its hex code.
type ColorDoc struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

// MediaDoc is a nested product image entry.
type MediaDoc struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// Completion is the completion-suggester field payload: input strings plus
// a popularity weight.
type Completion struct {
	Input  []string `json:"input"`
	Weight int      `json:"weight"`
}

// ProductDocument is the denormalized product shape stored in the products
// index. Text fields are analyzed with n-grams at index time and plain
// lowercase/asciifolding at search time.
type ProductDocument struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	SKU                string     `json:"sku"`
	Description        string     `json:"description"`
	ShortDescription   string     `json:"short_description"`
	Price              float64    `json:"price"`
	DiscountedPrice    float64    `json:"discounted_price"`
	CostPrice          float64    `json:"cost_price"`
	PercentageDiscount *int       `json:"percentage_discount"`
	Stock              int        `json:"stock"`
	Rating             float64    `json:"rating"`
	Views              int64      `json:"views"`
	QuantitySold       int64      `json:"quantity_sold"`
	CoverImage         string     `json:"cover_image"`
	Category           *RefDoc    `json:"category,omitempty"`
	Brand              *RefDoc    `json:"brand,omitempty"`
	Tags               []RefDoc   `json:"tags"`
	SubCategories      []RefDoc   `json:"sub_categories"`
	Colors             []ColorDoc `json:"colors"`
	Media              []MediaDoc `json:"product_media"`
	NameSuggest        Completion `json:"name_suggest"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BuildProductDocument denormalizes a catalog product into its index
// document. The discounted price is materialized here so range filters and
// display reads never recompute it, and the completion weight follows
// stock so in-stock products rank first in suggestions.
func BuildProductDocument(p *Product) *ProductDocument {
	doc := &ProductDocument{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		SKU:                p.SKU,
		Description:        p.Description,
		ShortDescription:   p.ShortDescription,
		Price:              p.Price,
		DiscountedPrice:    p.DiscountedPrice(),
		CostPrice:          p.CostPrice,
		PercentageDiscount: p.PercentageDiscount,
		Stock:              p.Stock,
		Rating:             p.Rating,
		Views:              p.Views,
		QuantitySold:       p.QuantitySold,
		CoverImage:         p.CoverImage,
		Tags:               make([]RefDoc, 0, len(p.Tags)),
		SubCategories:      make([]RefDoc, 0, len(p.SubCategories)),
		Colors:             make([]ColorDoc, 0, len(p.Colors)),
		Media:              make([]MediaDoc, 0, len(p.Media)),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Category != nil {
		doc.Category = &RefDoc{ID: p.Category.ID, Name: p.Category.Name}
	}
	if p.Brand != nil {
		doc.Brand = &RefDoc{ID: p.Brand.ID, Name: p.Brand.Name}
	}
	for _, t := range p.Tags {
		doc.Tags = append(doc.Tags, RefDoc{ID: t.ID, Name: t.Name})
	}
	for _, sc := range p.SubCategories {
		doc.SubCategories = append(doc.SubCategories, RefDoc{ID: sc.ID, Name: sc.Name})
	}
	for _, c := range p.Colors {
		doc.Colors = append(doc.Colors, ColorDoc{ID: c.ID, Name: c.Name, HexCode: c.HexCode})
	}
	for _, m := range p.Media {
		doc.Media = append(doc.Media, MediaDoc{ID: m.ID, Image: m.Image})
	}
	doc.NameSuggest = buildCompletion(p)
	return doc
}

func buildCompletion(p *Product) Completion {
	inputs := []string{p.Name}
	if p.Slug != "" {
		inputs = append(inputs, strings.ReplaceAll(p.Slug, "-", " "))
	}
	if p.Brand != nil && p.Brand.Name != "" {
		inputs = append(inputs, p.Brand.Name)
	}
	weight := p.Stock
	if weight <= 0 {
		weight = 1
	}
	return Completion{Input: inputs, Weight: weight}
}

// EntityDocument is the shape stored in the categories, brands and tags
// indices.
type EntityDocument struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	ProductCount int64      `json:"product_count"`
	NameSuggest  Completion `json:"name_suggest"`
}

// BuildEntityDocument denormalizes a shared entity, weighting its
// completion entry by how many products reference it.
func BuildEntityDocument(id int64, name, slug string, productCount int64) *EntityDocument {
	weight := int(productCount)
	if weight <= 0 {
		weight = 1
	}
	return &EntityDocument{
		ID:           id,
		Name:         name,
		Slug:         slug,
		ProductCount: productCount,
		NameSuggest:  Completion{Input: []string{name}, Weight: weight},
	}
}
