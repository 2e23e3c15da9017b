// Package normalizer converts per-restaurant raw menu documents into
// models.CanonicalMenuItem values.
//
// Each known raw shape has its own Adapter. Normalize probes the adapters in a
// fixed order and parses the document with the first one that matches.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/pkg/tagger"
)

const unknownCategory = "Unknown"

// SourceFormatError reports a source that is not valid JSON or matches no
// known shape. The source is skipped; other sources are unaffected.
type SourceFormatError struct {
	Restaurant string
	Reason     string
}

func (e *SourceFormatError) Error() string {
	return fmt.Sprintf("source %q: %s", e.Restaurant, e.Reason)
}

// Result is the outcome of normalizing one source.
type Result struct {
	Shape   string
	Items   []models.CanonicalMenuItem
	Dropped int
}

type Normalizer struct {
	adapters []Adapter
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Normalizer {
	return NewWithAdapters(DefaultAdapters(), logger)
}

func NewWithAdapters(adapters []Adapter, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{adapters: adapters, logger: logger}
}

// Detect returns the first adapter whose structural markers match.
func (n *Normalizer) Detect(root gjson.Result) (Adapter, bool) {
	for _, a := range n.adapters {
		if a.Match(root) {
			return a, true
		}
	}
	return nil, false
}

// Normalize parses one restaurant's raw document.
func (n *Normalizer) Normalize(restaurant string, data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, &SourceFormatError{Restaurant: restaurant, Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)

	adapter, ok := n.Detect(root)
	if !ok {
		return nil, &SourceFormatError{Restaurant: restaurant, Reason: "no recognizable menu structure"}
	}

	log := n.logger.With(zap.String("restaurant", restaurant), zap.String("shape", adapter.Name()))
	log.Debug("detected menu structure")

	res := &Result{Shape: adapter.Name()}
	for _, rec := range adapter.Records(root) {
		item, ok := n.item(restaurant, rec)
		if !ok {
			res.Dropped++
			continue
		}
		res.Items = append(res.Items, item)
	}

	log.Info("normalized source", zap.Int("items", len(res.Items)), zap.Int("dropped", res.Dropped))
	return res, nil
}

// item converts one record. Records without a name, or whose name equals the
// category, are malformed and dropped.
func (n *Normalizer) item(restaurant string, rec Record) (models.CanonicalMenuItem, bool) {
	name := cleanText(rec.name())
	category := cleanText(rec.Category)
	if category == "" {
		category = unknownCategory
	}
	if name == "" || name == category {
		return models.CanonicalMenuItem{}, false
	}

	priceRaw := field(rec.Item, "price")

	var description string
	if d := field(rec.Item, "description"); d.Type == gjson.String {
		description = d.String()
		if truthy(priceRaw) && strings.TrimSpace(description) == strings.TrimSpace(rawText(priceRaw)) {
			description = ""
		}
		if isPlaceholder(description) {
			description = ""
		}
		description = cleanText(description)
	}

	tags := tagger.Classify(tagger.Input{
		ItemName:   name,
		Tags:       rec.tags(),
		Vegetarian: rec.vegetarian(),
		FilterMode: rec.filterMode(),
	}, category)

	return models.CanonicalMenuItem{
		RestaurantName: restaurant,
		Category:       category,
		ItemName:       name,
		Description:    description,
		Price:          ParsePrice(priceRaw),
		SpecialTags:    tags,
	}, true
}
