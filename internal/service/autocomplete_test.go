package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismcart/search/internal/domain"
	apperrors "github.com/prismcart/search/pkg/errors"
)

func TestSuggest_ShortQueryReturnsEmptyWithoutIndexCall(t *testing.T) {
	engine := &stubEngine{}
	svc := NewAutocompleteService(engine, nil, testLogger())

	for _, query := range []string{"", "a", " a ", "  "} {
		suggestions, err := svc.Suggest(context.Background(), query, "", 10)
		require.NoError(t, err, "query %q", query)
		assert.Empty(t, suggestions)
	}
	assert.Equal(t, 0, engine.suggestCalls)
}

func TestSuggest_TwoCharactersReachTheIndex(t *testing.T) {
	engine := &stubEngine{suggestions: []domain.Suggestion{{Text: "shoes"}}}
	svc := NewAutocompleteService(engine, nil, testLogger())

	suggestions, err := svc.Suggest(context.Background(), "sh", "", 10)

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "shoes", suggestions[0].Text)
	assert.Equal(t, 1, engine.suggestCalls)
}

func TestSuggest_InvalidStrategy(t *testing.T) {
	svc := NewAutocompleteService(&stubEngine{}, nil, testLogger())

	_, err := svc.Suggest(context.Background(), "sho", "regex", 10)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSuggest_IndexNotReady(t *testing.T) {
	engine := &stubEngine{notReady: true}
	svc := NewAutocompleteService(engine, nil, testLogger())

	_, err := svc.Suggest(context.Background(), "sho", domain.StrategyCombined, 10)

	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
	assert.Equal(t, 0, engine.suggestCalls, "readiness is checked before querying")
}

func TestSuggest_EngineFailureMapsToIndexUnavailable(t *testing.T) {
	engine := &stubEngine{suggestErr: errors.New("connection refused")}
	svc := NewAutocompleteService(engine, nil, testLogger())

	_, err := svc.Suggest(context.Background(), "sho", "", 10)

	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
}

func TestComplete_ShortPrefixShortCircuits(t *testing.T) {
	engine := &stubEngine{notReady: true}
	svc := NewAutocompleteService(engine, nil, testLogger())

	groups, err := svc.Complete(context.Background(), "a", 10)

	require.NoError(t, err, "short prefixes never reach the readiness check")
	assert.Empty(t, groups)
}

func TestComplete_GroupsPassThrough(t *testing.T) {
	engine := &stubEngine{groups: []domain.CompletionGroup{
		{Index: domain.IndexProducts, Suggestions: []string{"Trail Runner"}},
	}}
	svc := NewAutocompleteService(engine, nil, testLogger())

	groups, err := svc.Complete(context.Background(), "tra", 10)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.IndexProducts, groups[0].Index)
}
