package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_Rating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    int
	}{
		{"no reviews", nil, 0},
		{"single review", []int{4}, 4},
		{"exact mean", []int{2, 4}, 3},
		{"mean rounds down", []int{3, 4}, 3},
		{"all fives", []int{5, 5, 5}, 5},
		{"rounds down below half", []int{1, 2, 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{}
			for _, r := range tt.ratings {
				p.Reviews = append(p.Reviews, Review{Rating: r})
			}
			assert.Equal(t, tt.want, p.Rating())
		})
	}
}

func TestProduct_PrimaryImageURL(t *testing.T) {
	t.Run("no images", func(t *testing.T) {
		p := &Product{}
		assert.Nil(t, p.PrimaryImageURL())
	})

	t.Run("first image wins", func(t *testing.T) {
		p := &Product{Images: []Image{
			{URL: "https://cdn.example.com/a.jpg", Position: 0},
			{URL: "https://cdn.example.com/b.jpg", Position: 1},
		}}
		got := p.PrimaryImageURL()
		assert.NotNil(t, got)
		assert.Equal(t, "https://cdn.example.com/a.jpg", *got)
	})
}

func TestProduct_ListItem(t *testing.T) {
	p := &Product{
		ID:       9,
		Name:     "Walnut Desk",
		Price:    decimal.RequireFromString("249.99"),
		Category: "furniture",
		Images:   []Image{{URL: "https://cdn.example.com/desk.jpg"}},
		Reviews:  []Review{{Rating: 5}, {Rating: 4}},
	}

	item := p.ListItem()
	assert.Equal(t, int64(9), item.ID)
	assert.Equal(t, "Walnut Desk", item.Name)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("249.99")))
	assert.Equal(t, 4, item.Rating)
	assert.Equal(t, "https://cdn.example.com/desk.jpg", *item.Image)
}
