package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prismcart/search/internal/domain"
)

// SuggestBoosts tunes the combined autocomplete strategy: clause boosts
// and the popularity function-score factors.
type SuggestBoosts struct {
	PhrasePrefix float64
	AndMatch     float64
	Fuzzy        float64
	ViewsFactor  float64
	SoldFactor   float64
}

// DefaultSuggestBoosts favors exact prefix matches over fuzzy ones and
// weighs sales twice as heavily as views.
func DefaultSuggestBoosts() SuggestBoosts {
	return SuggestBoosts{
		PhrasePrefix: 3.0,
		AndMatch:     2.0,
		Fuzzy:        1.0,
		ViewsFactor:  0.1,
		SoldFactor:   0.2,
	}
}

// Suggest runs one autocomplete strategy and maps hits to suggestions.
func (e *Engine) Suggest(ctx context.Context, query, strategy string, limit int) ([]domain.Suggestion, error) {
	body := e.buildSuggestQuery(query, strategy, limit)
	resp, err := e.doSearch(ctx, domain.IndexProducts, body, "suggest")
	if err != nil {
		return nil, err
	}

	suggestions := make([]domain.Suggestion, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc domain.ProductDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		score := 0.0
		if hit.Score != nil {
			score = *hit.Score
		}
		suggestions = append(suggestions, domain.Suggestion{
			Text:    doc.Name,
			Score:   score,
			Product: suggestionProduct(&doc),
		})
	}
	return suggestions, nil
}

func suggestionProduct(doc *domain.ProductDocument) *domain.SuggestionProduct {
	return &domain.SuggestionProduct{
		ID:                 doc.ID,
		Name:               doc.Name,
		Slug:               doc.Slug,
		Price:              doc.Price,
		DiscountedPrice:    doc.DiscountedPrice,
		PercentageDiscount: doc.PercentageDiscount,
		Stock:              doc.Stock,
		Views:              doc.Views,
		QuantitySold:       doc.QuantitySold,
		Rating:             doc.Rating,
		CoverImage:         doc.CoverImage,
		Brand:              doc.Brand,
		Category:           doc.Category,
	}
}

func (e *Engine) buildSuggestQuery(query, strategy string, limit int) map[string]any {
	var q map[string]any
	switch strategy {
	case domain.StrategyNgram:
		q = ngramQuery(query)
	case domain.StrategyWildcard:
		q = wildcardQuery(query)
	case domain.StrategyCombined:
		q = e.combinedQuery(query)
	default:
		q = wordStartQuery(query)
	}
	return map[string]any{
		"query": q,
		"size":  limit,
	}
}

// wordStartQuery matches word prefixes, the cheapest and most predictable
// strategy.
func wordStartQuery(query string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":  query,
			"type":   "phrase_prefix",
			"fields": []string{"name^3", "description^2", "brand.name"},
		},
	}
}

// ngramQuery leans on the index-time n-gram analysis, requiring every
// query term to match.
func ngramQuery(query string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":    query,
			"fields":   []string{"name^3", "description^2", "short_description^2", "brand.name", "category.name"},
			"operator": "and",
		},
	}
}

// wildcardQuery matches the term anywhere in the field. Expensive on large
// indices; offered for exhaustive matching.
func wildcardQuery(query string) map[string]any {
	return map[string]any{
		"query_string": map[string]any{
			"query":            "*" + query + "*",
			"fields":           []string{"name^3", "description^2", "brand.name", "category.name"},
			"analyze_wildcard": false,
		},
	}
}

// combinedQuery blends prefix, exact and fuzzy matching, then multiplies
// the text score by a popularity function over views and sales.
func (e *Engine) combinedQuery(query string) map[string]any {
	should := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"type":   "phrase_prefix",
				"fields": []string{"name^5", "brand.name^3"},
				"boost":  e.boosts.PhrasePrefix,
			},
		},
		map[string]any{
			"multi_match": map[string]any{
				"query":    query,
				"fields":   []string{"name^3", "description^2", "brand.name^2"},
				"operator": "and",
				"boost":    e.boosts.AndMatch,
			},
		},
		map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "brand.name"},
				"fuzziness": "AUTO",
				"boost":     e.boosts.Fuzzy,
			},
		},
	}
	return map[string]any{
		"function_score": map[string]any{
			"query": map[string]any{
				"bool": map[string]any{
					"should":               should,
					"minimum_should_match": 1,
				},
			},
			"functions": []any{
				map[string]any{
					"field_value_factor": map[string]any{
						"field":    "views",
						"factor":   e.boosts.ViewsFactor,
						"modifier": "log1p",
						"missing":  1,
					},
				},
				map[string]any{
					"field_value_factor": map[string]any{
						"field":    "quantity_sold",
						"factor":   e.boosts.SoldFactor,
						"modifier": "log1p",
						"missing":  1,
					},
				},
			},
			"score_mode": "sum",
			"boost_mode": "multiply",
		},
	}
}

// completionSuggest mirrors the completion suggester response shape.
type completionSuggest struct {
	NameSuggest []struct {
		Options []struct {
			Text string `json:"text"`
		} `json:"options"`
	} `json:"name_suggest"`
}

// Complete runs the completion suggester over each managed index,
// returning per-index suggestion groups.
func (e *Engine) Complete(ctx context.Context, prefix string, limit int) ([]domain.CompletionGroup, error) {
	body := map[string]any{
		"suggest": map[string]any{
			"name_suggest": map[string]any{
				"prefix": prefix,
				"completion": map[string]any{
					"field":           "name_suggest",
					"size":            limit,
					"skip_duplicates": true,
				},
			},
		},
	}

	groups := make([]domain.CompletionGroup, 0, len(managedIndices))
	for _, index := range managedIndices {
		resp, err := e.doSearch(ctx, index, body, "complete "+index)
		if err != nil {
			return nil, err
		}
		var cs completionSuggest
		if len(resp.Suggest) > 0 {
			if err := json.Unmarshal(resp.Suggest, &cs); err != nil {
				return nil, fmt.Errorf("decode completion response: %w", err)
			}
		}
		group := domain.CompletionGroup{Index: index, Suggestions: []string{}}
		for _, entry := range cs.NameSuggest {
			for _, opt := range entry.Options {
				group.Suggestions = append(group.Suggestions, opt.Text)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}
