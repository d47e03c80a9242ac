package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"zero values default", Params{}, Params{Page: 1, PageSize: 20}},
		{"negative page floors", Params{Page: -3, PageSize: 10}, Params{Page: 1, PageSize: 10}},
		{"oversized page size caps", Params{Page: 2, PageSize: 500}, Params{Page: 2, PageSize: 100}},
		{"valid passes through", Params{Page: 4, PageSize: 50}, Params{Page: 4, PageSize: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, PageSize: 20}.Offset())
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&page_size=25", nil)
	assert.Equal(t, Params{Page: 3, PageSize: 25}, FromRequest(r))

	r = httptest.NewRequest("GET", "/?page=junk&page_size=9999", nil)
	assert.Equal(t, Params{Page: 1, PageSize: 100}, FromRequest(r))

	r = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, Params{Page: 1, PageSize: 20}, FromRequest(r))
}

func TestNewResult_CeilingDivision(t *testing.T) {
	p := Params{Page: 1, PageSize: 20}

	assert.Equal(t, 0, NewResult[int](nil, 0, p).TotalPages)
	assert.Equal(t, 1, NewResult[int](nil, 20, p).TotalPages)
	assert.Equal(t, 2, NewResult[int](nil, 21, p).TotalPages)
	assert.Equal(t, 5, NewResult[int](nil, 100, p).TotalPages)
}
