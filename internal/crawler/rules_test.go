package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDiscount(t *testing.T) {
	// Zero points never divide
	for _, price := range []float64{0, 1, 800, 1e9} {
		assert.Equal(t, 0.0, CalculateDiscount(price, 0))
	}

	for _, tt := range []struct {
		price  float64
		points int
	}{
		{800, 1500},
		{1200, 2000},
		{0, 10},
		{99.9, 7},
		{500, 1},
	} {
		assert.Equal(t, tt.price/(float64(tt.points)/10), CalculateDiscount(tt.price, tt.points))
	}

	assert.InDelta(t, 5.3333, CalculateDiscount(800, 1500), 0.0001)
	assert.Equal(t, 6.0, CalculateDiscount(1200, 2000))
}

func TestIsTarget(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount float64
		want     bool
	}{
		{"cheap and high discount", 800, 5.33, true},
		{"discount at threshold", 800, 4.0, false},
		{"price at limit", 1000, 6.0, false},
		{"expensive", 1200, 6.0, false},
		{"low discount", 100, 3.9, false},
		{"no data", 0, 0, false},
		{"just above threshold", 999.99, 4.0001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTarget(tt.price, tt.discount))
		})
	}
}

func TestIsHighDiscount(t *testing.T) {
	assert.True(t, IsHighDiscount(6.0))
	assert.False(t, IsHighDiscount(4.0))
	assert.False(t, IsHighDiscount(0))

	// The display rule ignores price, the target rule does not
	assert.True(t, IsHighDiscount(6.0))
	assert.False(t, IsTarget(1200, 6.0))
}
