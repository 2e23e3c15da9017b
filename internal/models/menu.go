package models

// CanonicalMenuItem is the normalized shape every restaurant source is converted into.
type CanonicalMenuItem struct {
	RestaurantName string   `json:"restaurant_name"`
	Category       string   `json:"category"`
	ItemName       string   `json:"item_name"`
	Description    string   `json:"description"`
	Price          *float64 `json:"price"`
	SpecialTags    []string `json:"special_tags"`
}

// IndexedChunk is one retrievable unit written to the vector index.
type IndexedChunk struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// RetrievedChunk is a chunk returned by a similarity search, closest first.
type RetrievedChunk struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Metadata keys stored alongside every chunk.
const (
	MetaRestaurant  = "restaurant_name"
	MetaCategory    = "category"
	MetaItemName    = "item_name"
	MetaDescription = "description"
	MetaPrice       = "price"
	MetaTags        = "special_tags"
	MetaIndexRun    = "index_run"
)

// Float returns a pointer to v. Handy for building items with a known price.
func Float(v float64) *float64 {
	return &v
}
