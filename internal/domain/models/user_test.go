package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		want               Pagination
	}{
		{"defaults", 0, 0, 0, Pagination{Page: 1, Limit: 10}},
		{"limit capped", 2, 500, 250, Pagination{Page: 2, Limit: 100, Total: 250, TotalPages: 3}},
		{"exact pages", 1, 5, 10, Pagination{Page: 1, Limit: 5, Total: 10, TotalPages: 2}},
		{"huge page", math.MaxInt, 20, 3, Pagination{Page: math.MaxInt / 20, Limit: 20, Total: 3, TotalPages: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPagination(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, (got.Page-1)*got.Limit, 0)
		})
	}
}
