package helpers

import (
	"net/http/httptest"
	"testing"

	"campusticketing/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  domain.PaginationParams
	}{
		{"", domain.PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}},
		{"?page=3&page_size=10", domain.PaginationParams{Page: 3, PageSize: 10}},
		{"?page=0&page_size=-4", domain.PaginationParams{Page: DefaultPage, PageSize: DefaultPageSize}},
		{"?page=x&page_size=1000", domain.PaginationParams{Page: DefaultPage, PageSize: MaxPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/organizer/events/e/participants"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r))
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 2, PageSize: 20, Total: 41, TotalPages: 3}, NewPaginationMeta(2, 20, 41))
	assert.Equal(t, 0, NewPaginationMeta(1, 0, 5).TotalPages)
}
