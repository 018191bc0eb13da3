package dto

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(rawQuery string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/settlements?"+rawQuery, nil)
	return ParsePagination(c)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, PageSize: 20, Offset: 0}},
		{"page=3&page_size=10", PaginationParams{Page: 3, PageSize: 10, Offset: 20}},
		{"page=0&page_size=-5", PaginationParams{Page: 1, PageSize: 20, Offset: 0}},
		{"page=abc&page_size=1000", PaginationParams{Page: 1, PageSize: 100, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuery(tt.query))
		})
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, PageSize: 20, TotalItems: 0, TotalPages: 0}, NewPagination(1, 20, 0))
	assert.Equal(t, Pagination{Page: 2, PageSize: 20, TotalItems: 41, TotalPages: 3}, NewPagination(2, 20, 41))
	assert.Equal(t, Pagination{Page: 1, PageSize: 10, TotalItems: 10, TotalPages: 1}, NewPagination(1, 10, 10))
}
