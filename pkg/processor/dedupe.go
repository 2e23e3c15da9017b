package processor

import (
	"sort"
	"strings"

	"github.com/xhad/menurag/internal/models"
)

// IdentityKey decides when two items are the same menu entry: restaurant
// (exact), category and name (trimmed, case-insensitive), price and the tag set.
type IdentityKey struct {
	Restaurant string
	Category   string
	ItemName   string
	Price      string
	Tags       string
}

func KeyOf(item models.CanonicalMenuItem) IdentityKey {
	price := "null"
	if item.Price != nil {
		price = FormatPrice(*item.Price)
	}

	tags := append([]string(nil), item.SpecialTags...)
	sort.Strings(tags)

	return IdentityKey{
		Restaurant: item.RestaurantName,
		Category:   strings.ToLower(strings.TrimSpace(item.Category)),
		ItemName:   strings.ToLower(strings.TrimSpace(item.ItemName)),
		Price:      price,
		// \x1f cannot appear in a tag, so the join is unambiguous.
		Tags: strings.Join(tags, "\x1f"),
	}
}

// Dedupe keeps the first occurrence of each IdentityKey in input order and
// reports how many later occurrences were skipped.
func Dedupe(items []models.CanonicalMenuItem) ([]models.CanonicalMenuItem, int) {
	seen := make(map[IdentityKey]struct{}, len(items))
	unique := make([]models.CanonicalMenuItem, 0, len(items))
	skipped := 0

	for _, item := range items {
		key := KeyOf(item)
		if _, ok := seen[key]; ok {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}

	return unique, skipped
}
