// Package data ships the seed quarter bundles compiled into the binary.
// Each file under quarters/ is one complete bundle, the same shape the
// ingest endpoint accepts.
package data

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fxlens/fx-engine/internal/model"
)

//go:embed quarters/*.json
var quarterFS embed.FS

// SeedBundles decodes every embedded bundle, ordered by base quarter.
// The embedded files are authored to pass ingest validation; Validate is
// still run here so a bad edit fails loudly at startup instead of serving
// inconsistent figures.
func SeedBundles() ([]*model.QuarterBundle, error) {
	entries, err := quarterFS.ReadDir("quarters")
	if err != nil {
		return nil, fmt.Errorf("read seed dir: %w", err)
	}

	bundles := make([]*model.QuarterBundle, 0, len(entries))
	for _, e := range entries {
		raw, err := quarterFS.ReadFile("quarters/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		var b model.QuarterBundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode seed %s: %w", e.Name(), err)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("seed %s: %w", e.Name(), err)
		}
		bundles = append(bundles, &b)
	}
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].BaseQuarter.Less(bundles[j].BaseQuarter)
	})
	return bundles, nil
}
