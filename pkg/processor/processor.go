package processor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xhad/menurag/internal/models"
)

type ProcessorConfig struct {
	// RunID is stamped into every chunk's metadata to identify the build run.
	RunID string
	// IDNameLength caps how many runes of the item name go into a chunk ID.
	IDNameLength int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.IDNameLength == 0 {
		config.IDNameLength = 20
	}

	return Processor{
		config: config,
	}
}

// Process renders one chunk per item. offset is the position of items[0] in
// the full deduplicated list, so IDs stay stable when the list is batched.
func (p *Processor) Process(offset int, items []models.CanonicalMenuItem) []models.IndexedChunk {
	chunks := make([]models.IndexedChunk, 0, len(items))
	for i, item := range items {
		chunks = append(chunks, p.Chunk(offset+i, item))
	}
	return chunks
}

func (p *Processor) Chunk(position int, item models.CanonicalMenuItem) models.IndexedChunk {
	return models.IndexedChunk{
		ID:       p.chunkID(position, item),
		Text:     ChunkText(item),
		Metadata: p.metadata(item),
	}
}

// ChunkText renders the natural-language form that gets embedded:
//
//	Restaurant: R. Category: C. Item: I. Price: P. Tags: a, b. Description: D
//
// Price falls back to N/A and tags to None. The description segment is left
// out when empty.
func ChunkText(item models.CanonicalMenuItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Restaurant: %s. ", cleanText(item.RestaurantName))
	fmt.Fprintf(&b, "Category: %s. ", cleanText(item.Category))
	fmt.Fprintf(&b, "Item: %s. ", cleanText(item.ItemName))

	price := "N/A"
	if item.Price != nil {
		price = FormatPrice(*item.Price)
	}
	fmt.Fprintf(&b, "Price: %s. ", price)

	tags := "None"
	if len(item.SpecialTags) > 0 {
		tags = strings.Join(item.SpecialTags, ", ")
	}
	fmt.Fprintf(&b, "Tags: %s.", tags)

	if desc := cleanText(item.Description); desc != "" {
		fmt.Fprintf(&b, " Description: %s", desc)
	}
	return b.String()
}

// FormatPrice prints the shortest decimal that round-trips, so 250 renders
// as "250" and 1234.5 as "1234.5". Whole prices carry no trailing ".0",
// unlike indexes built by the earlier Python tooling.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func (p *Processor) metadata(item models.CanonicalMenuItem) map[string]string {
	price := ""
	if item.Price != nil {
		price = FormatPrice(*item.Price)
	}

	meta := map[string]string{
		models.MetaRestaurant:  item.RestaurantName,
		models.MetaCategory:    item.Category,
		models.MetaItemName:    item.ItemName,
		models.MetaDescription: item.Description,
		models.MetaPrice:       price,
		models.MetaTags:        strings.Join(item.SpecialTags, ", "),
	}
	if p.config.RunID != "" {
		meta[models.MetaIndexRun] = p.config.RunID
	}
	return meta
}

// chunkID is item_{position}_{restaurant}_{name prefix} with spaces replaced
// by underscores.
func (p *Processor) chunkID(position int, item models.CanonicalMenuItem) string {
	name := []rune(item.ItemName)
	if len(name) > p.config.IDNameLength {
		name = name[:p.config.IDNameLength]
	}
	return fmt.Sprintf("item_%d_%s_%s",
		position,
		strings.ReplaceAll(item.RestaurantName, " ", "_"),
		strings.ReplaceAll(string(name), " ", "_"),
	)
}

// cleanText collapses whitespace, including newlines inside a field.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
