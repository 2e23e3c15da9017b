package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/pkg/processor"
)

func paneer(restaurant string, price float64) models.CanonicalMenuItem {
	return models.CanonicalMenuItem{
		RestaurantName: restaurant,
		Category:       "Starters",
		ItemName:       "Paneer Tikka",
		Description:    "Char-grilled cottage cheese",
		Price:          models.Float(price),
		SpecialTags:    []string{"Vegetarian"},
	}
}

func TestDedupe(t *testing.T) {
	a := paneer("Alpha Grill", 250)

	variant := a
	variant.Category = "  STARTERS "
	variant.ItemName = "paneer tikka"
	variant.Description = "different description"

	otherPrice := paneer("Alpha Grill", 260)
	otherRestaurant := paneer("Beta Diner", 250)

	reordered := paneer("Alpha Grill", 250)
	reordered.SpecialTags = []string{"Bestseller", "Vegetarian"}
	reorderedAgain := reordered
	reorderedAgain.SpecialTags = []string{"Vegetarian", "Bestseller"}

	noPrice := a
	noPrice.Price = nil
	zeroPrice := a
	zeroPrice.Price = models.Float(0)

	unique, skipped := processor.Dedupe([]models.CanonicalMenuItem{
		a, variant, otherPrice, otherRestaurant, reordered, reorderedAgain, noPrice, zeroPrice, noPrice,
	})

	assert.Equal(t, 3, skipped)
	require.Len(t, unique, 6)
	assert.Equal(t, "Char-grilled cottage cheese", unique[0].Description, "first occurrence wins")
	assert.Equal(t, 260.0, *unique[1].Price)
	assert.Equal(t, "Beta Diner", unique[2].RestaurantName)
	assert.Nil(t, unique[4].Price)
	assert.Equal(t, 0.0, *unique[5].Price)
}

func TestDedupe_Idempotent(t *testing.T) {
	items := []models.CanonicalMenuItem{paneer("A", 1), paneer("A", 1), paneer("B", 1)}

	once, _ := processor.Dedupe(items)
	twice, skipped := processor.Dedupe(once)

	assert.Equal(t, once, twice)
	assert.Zero(t, skipped)
}

func TestDedupe_RestaurantIsCaseSensitive(t *testing.T) {
	unique, skipped := processor.Dedupe([]models.CanonicalMenuItem{paneer("Oakaz", 1), paneer("oakaz", 1)})
	assert.Len(t, unique, 2)
	assert.Zero(t, skipped)
}

func TestProcessor_ChunkText(t *testing.T) {
	tests := []struct {
		name string
		item models.CanonicalMenuItem
		want string
	}{
		{
			name: "full item",
			item: paneer("Alpha Grill", 250),
			want: "Restaurant: Alpha Grill. Category: Starters. Item: Paneer Tikka. Price: 250. Tags: Vegetarian. Description: Char-grilled cottage cheese",
		},
		{
			name: "missing price, tags and description",
			item: models.CanonicalMenuItem{RestaurantName: "Subway", Category: "Unknown", ItemName: "Tuna Sub"},
			want: "Restaurant: Subway. Category: Unknown. Item: Tuna Sub. Price: N/A. Tags: None.",
		},
		{
			name: "fractional price and several tags",
			item: models.CanonicalMenuItem{
				RestaurantName: "Dominos",
				Category:       "Pizzas",
				ItemName:       "Farmhouse\nPizza",
				Price:          models.Float(1234.5),
				SpecialTags:    []string{"Bestseller", "Vegetarian"},
			},
			want: "Restaurant: Dominos. Category: Pizzas. Item: Farmhouse Pizza. Price: 1234.5. Tags: Bestseller, Vegetarian.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processor.ChunkText(tt.item))
		})
	}
}

func TestProcessor_Process(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{RunID: "run-1"})

	long := paneer("Punjab Grill", 695)
	long.ItemName = "Dal Makhani with Butter Naan"
	long.SpecialTags = nil
	long.Price = nil

	chunks := p.Process(100, []models.CanonicalMenuItem{paneer("Alpha Grill", 250), long})
	require.Len(t, chunks, 2)

	assert.Equal(t, "item_100_Alpha_Grill_Paneer_Tikka", chunks[0].ID)
	assert.Equal(t, "item_101_Punjab_Grill_Dal_Makhani_with_But", chunks[1].ID)

	assert.Equal(t, map[string]string{
		models.MetaRestaurant:  "Alpha Grill",
		models.MetaCategory:    "Starters",
		models.MetaItemName:    "Paneer Tikka",
		models.MetaDescription: "Char-grilled cottage cheese",
		models.MetaPrice:       "250",
		models.MetaTags:        "Vegetarian",
		models.MetaIndexRun:    "run-1",
	}, chunks[0].Metadata)

	assert.Equal(t, "", chunks[1].Metadata[models.MetaPrice])
	assert.Equal(t, "", chunks[1].Metadata[models.MetaTags])
}

func TestProcessor_ChunkIDUsesRunes(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{IDNameLength: 3})

	chunk := p.Chunk(0, models.CanonicalMenuItem{RestaurantName: "Café Uno", ItemName: "Crème brûlée"})
	assert.Equal(t, "item_0_Café_Uno_Crè", chunk.ID)
	_, ok := chunk.Metadata[models.MetaIndexRun]
	assert.False(t, ok)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "250", processor.FormatPrice(250))
	assert.Equal(t, "1234.5", processor.FormatPrice(1234.5))
	assert.Equal(t, "0.99", processor.FormatPrice(0.99))
}
