package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleProduct() *Product {
	return &Product{
		ID:               42,
		Name:             "Trail Runner Pro",
		Slug:             "trail-runner-pro",
		SKU:              "TRA-9X2K1",
		Description:      "Lightweight trail running shoe",
		ShortDescription: "Trail shoe",
		Price:            1000,
		Stock:            7,
		Category:         &Category{ID: 3, Name: "Shoes", Slug: "shoes"},
		Brand:            &Brand{ID: 5, Name: "Nike", Slug: "nike"},
		Tags:             []Tag{{ID: 1, Name: "running"}, {ID: 2, Name: "outdoor"}},
		Colors:           []Color{{ID: 9, Name: "Red", HexCode: "#ff0000"}},
		CreatedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDiscountedPrice_WithDiscount(t *testing.T) {
	p := sampleProduct()
	p.PercentageDiscount = intPtr(10)

	assert.InDelta(t, 900.0, p.DiscountedPrice(), 0.001)
}

func TestDiscountedPrice_NoDiscount(t *testing.T) {
	p := sampleProduct()

	assert.InDelta(t, 1000.0, p.DiscountedPrice(), 0.001)

	p.PercentageDiscount = intPtr(0)
	assert.InDelta(t, 1000.0, p.DiscountedPrice(), 0.001)

	p.PercentageDiscount = intPtr(-10)
	assert.InDelta(t, 1000.0, p.DiscountedPrice(), 0.001, "negative discount must not raise the price")
}

func TestBuildProductDocument_Denormalizes(t *testing.T) {
	p := sampleProduct()
	p.PercentageDiscount = intPtr(25)

	doc := BuildProductDocument(p)

	require.NotNil(t, doc)
	assert.Equal(t, int64(42), doc.ID)
	assert.InDelta(t, 750.0, doc.DiscountedPrice, 0.001)
	require.NotNil(t, doc.Category)
	assert.Equal(t, "Shoes", doc.Category.Name)
	require.NotNil(t, doc.Brand)
	assert.Equal(t, "Nike", doc.Brand.Name)
	require.Len(t, doc.Tags, 2)
	assert.Equal(t, "running", doc.Tags[0].Name)
	require.Len(t, doc.Colors, 1)
	assert.Equal(t, "#ff0000", doc.Colors[0].HexCode)
}

func TestBuildProductDocument_CompletionInputs(t *testing.T) {
	p := sampleProduct()

	doc := BuildProductDocument(p)

	assert.Equal(t, []string{"Trail Runner Pro", "trail runner pro", "Nike"}, doc.NameSuggest.Input)
	assert.Equal(t, 7, doc.NameSuggest.Weight)
}

func TestBuildProductDocument_CompletionWeightFloorsAtOne(t *testing.T) {
	p := sampleProduct()
	p.Stock = 0

	doc := BuildProductDocument(p)

	assert.Equal(t, 1, doc.NameSuggest.Weight)
}

func TestBuildProductDocument_NilReferences(t *testing.T) {
	p := sampleProduct()
	p.Category = nil
	p.Brand = nil

	doc := BuildProductDocument(p)

	assert.Nil(t, doc.Category)
	assert.Nil(t, doc.Brand)
	assert.Equal(t, []string{"Trail Runner Pro", "trail runner pro"}, doc.NameSuggest.Input)
}

func TestBuildEntityDocument_WeightTracksProductCount(t *testing.T) {
	doc := BuildEntityDocument(3, "Shoes", "shoes", 12)
	assert.Equal(t, 12, doc.NameSuggest.Weight)
	assert.Equal(t, int64(12), doc.ProductCount)

	empty := BuildEntityDocument(4, "Hats", "hats", 0)
	assert.Equal(t, 1, empty.NameSuggest.Weight)
}

func TestIsValidSort(t *testing.T) {
	assert.True(t, IsValidSort(""))
	assert.True(t, IsValidSort(SortRelevance))
	assert.True(t, IsValidSort(SortPopular))
	assert.False(t, IsValidSort("cheapest"))
}

func TestIsValidStrategy(t *testing.T) {
	assert.True(t, IsValidStrategy(""))
	assert.True(t, IsValidStrategy(StrategyCombined))
	assert.False(t, IsValidStrategy("regex"))
}
