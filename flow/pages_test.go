package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOf(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		items    []int
		page     int
		want     []int
		wantNext bool
		wantOK   bool
	}{
		{name: "first", items: items, page: 0, want: []int{1, 2}, wantNext: true, wantOK: true},
		{name: "last partial", items: items, page: 2, want: []int{5}, wantOK: true},
		{name: "past end", items: items, page: 3},
		{name: "exact multiple past end", items: items[:4], page: 2},
		{name: "negative", items: items, page: -1},
		{name: "huge", items: items, page: math.MaxInt64 / 2},
		{name: "max int", items: items, page: math.MaxInt},
		{name: "empty first page", items: nil, page: 0, wantOK: true},
		{name: "empty second page", items: nil, page: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, ok := pageOf(tt.items, tt.page, 2)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantNext, next)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
