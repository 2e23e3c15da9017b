// Package ingest turns the configured restaurant sources into one
// deduplicated list of canonical menu items.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/pkg/config"
	"github.com/xhad/menurag/pkg/metrics"
	"github.com/xhad/menurag/pkg/normalizer"
	"github.com/xhad/menurag/pkg/processor"
)

// ErrNoItems is returned when no source produced a single usable item.
var ErrNoItems = errors.New("no items were consolidated")

// Loader fetches one source's raw bytes.
type Loader interface {
	Load(ctx context.Context, src config.Source) ([]byte, error)
}

// SourceReport describes what one source contributed.
type SourceReport struct {
	Restaurant string `json:"restaurant"`
	Path       string `json:"path"`
	Shape      string `json:"shape,omitempty"`
	Items      int    `json:"items"`
	Dropped    int    `json:"dropped"`
	Error      string `json:"error,omitempty"`
}

type Report struct {
	Sources    []SourceReport `json:"sources"`
	Total      int            `json:"total"`
	Duplicates int            `json:"duplicates"`
	Unique     int            `json:"unique"`
	Output     string         `json:"output,omitempty"`
}

type Ingester struct {
	loader     Loader
	normalizer *normalizer.Normalizer
	logger     *zap.Logger
}

func New(loader Loader, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{loader: loader, normalizer: normalizer.New(logger), logger: logger}
}

// Run loads and normalizes every source in order, then deduplicates across
// all of them. A source that cannot be read or parsed is skipped and noted in
// the report. Run fails only if nothing survives.
func (in *Ingester) Run(ctx context.Context, sources []config.Source) ([]models.CanonicalMenuItem, *Report, error) {
	report := &Report{}
	var all []models.CanonicalMenuItem

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		sr := SourceReport{Restaurant: src.Restaurant, Path: src.Path}
		log := in.logger.With(zap.String("restaurant", src.Restaurant), zap.String("path", src.Path))

		data, err := in.loader.Load(ctx, src)
		if err != nil {
			sr.Error = err.Error()
			report.Sources = append(report.Sources, sr)
			metrics.IngestSourcesTotal.WithLabelValues("load_error").Inc()
			log.Error("failed to load source", zap.Error(err))
			continue
		}

		res, err := in.normalizer.Normalize(src.Restaurant, data)
		if err != nil {
			var sfe *normalizer.SourceFormatError
			if !errors.As(err, &sfe) {
				return nil, report, err
			}
			sr.Error = sfe.Reason
			report.Sources = append(report.Sources, sr)
			metrics.IngestSourcesTotal.WithLabelValues("format_error").Inc()
			log.Warn("skipping source", zap.String("reason", sfe.Reason))
			continue
		}

		sr.Shape = res.Shape
		sr.Items = len(res.Items)
		sr.Dropped = res.Dropped
		report.Sources = append(report.Sources, sr)
		metrics.IngestSourcesTotal.WithLabelValues("ok").Inc()
		metrics.IngestItemsTotal.WithLabelValues("normalized").Add(float64(len(res.Items)))
		metrics.IngestItemsTotal.WithLabelValues("dropped").Add(float64(res.Dropped))

		all = append(all, res.Items...)
	}

	unique, skipped := processor.Dedupe(all)
	report.Total = len(all)
	report.Duplicates = skipped
	report.Unique = len(unique)
	metrics.IngestItemsTotal.WithLabelValues("duplicate").Add(float64(skipped))
	metrics.IngestItemsTotal.WithLabelValues("consolidated").Add(float64(len(unique)))

	in.logger.Info("consolidated menu items",
		zap.Int("unique", len(unique)),
		zap.Int("duplicates", skipped),
	)

	if len(unique) == 0 {
		return nil, report, ErrNoItems
	}
	return unique, report, nil
}

// WriteConsolidated writes items as an indented JSON array, creating parent
// directories as needed. Non-ASCII text is written as-is.
func WriteConsolidated(path string, items []models.CanonicalMenuItem) error {
	if items == nil {
		items = []models.CanonicalMenuItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadConsolidated reads a file written by WriteConsolidated.
func LoadConsolidated(path string) ([]models.CanonicalMenuItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []models.CanonicalMenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}
