// Package winery owns the static winery dataset: an in-memory,
// read-only list loaded once at startup, either from the embedded
// default file or from a path given in configuration.
package winery

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"terroir/internal/model"
)

//go:embed data/wineries.yaml
var embeddedDataset []byte

type datasetFile struct {
	Wineries []model.Winery `yaml:"wineries"`
}

// Dataset is the loaded winery collection. It is immutable after Load
// and safe for concurrent reads.
type Dataset struct {
	wineries []model.Winery
	byID     map[string]*model.Winery
}

// Load reads the dataset from path, or from the embedded copy when
// path is empty. Duplicate IDs are a dataset authoring error and are
// rejected.
func Load(path string) (*Dataset, error) {
	raw := embeddedDataset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		raw = b
	}

	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if len(file.Wineries) == 0 {
		return nil, fmt.Errorf("dataset contains no wineries")
	}

	ds := &Dataset{
		wineries: file.Wineries,
		byID:     make(map[string]*model.Winery, len(file.Wineries)),
	}
	for i := range ds.wineries {
		w := &ds.wineries[i]
		if w.ID == "" {
			return nil, fmt.Errorf("winery %q has no id", w.Name)
		}
		if _, exists := ds.byID[w.ID]; exists {
			return nil, fmt.Errorf("duplicate winery id %q", w.ID)
		}
		ds.byID[w.ID] = w
	}

	return ds, nil
}

// All returns every winery in dataset order.
func (d *Dataset) All() []model.Winery {
	return d.wineries
}

// ByID looks up a single winery.
func (d *Dataset) ByID(id string) (model.Winery, bool) {
	w, ok := d.byID[id]
	if !ok {
		return model.Winery{}, false
	}
	return *w, true
}

// Filter applies the map UI's filter semantics: a case-insensitive
// substring match of search against name or district, combined with a
// union (any-of) match against the selected variety labels. Empty
// search and no varieties mean no restriction.
func (d *Dataset) Filter(search string, varieties []string) []model.Winery {
	search = strings.ToLower(strings.TrimSpace(search))

	selected := make(map[string]struct{}, len(varieties))
	for _, v := range varieties {
		v = strings.TrimSpace(v)
		if v != "" {
			selected[v] = struct{}{}
		}
	}

	out := []model.Winery{}
	for _, w := range d.wineries {
		if search != "" &&
			!strings.Contains(strings.ToLower(w.Name), search) &&
			!strings.Contains(strings.ToLower(string(w.District)), search) {
			continue
		}

		if len(selected) > 0 {
			match := false
			for _, v := range w.Varieties {
				if _, ok := selected[v]; ok {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}

		out = append(out, w)
	}
	return out
}

// ByVariety returns wineries whose variety list contains a
// case-insensitive substring match of variety, optionally restricted
// to an exact (case-insensitive) district. This is the candidate pool
// for cross-winery searches.
func (d *Dataset) ByVariety(variety, district string) []model.Winery {
	variety = strings.ToLower(strings.TrimSpace(variety))
	if variety == "" {
		return nil
	}

	out := []model.Winery{}
	for _, w := range d.wineries {
		if district != "" && !strings.EqualFold(string(w.District), district) {
			continue
		}
		for _, v := range w.Varieties {
			if strings.Contains(strings.ToLower(v), variety) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// Varieties returns the sorted distinct variety labels across the
// dataset, for the UI's filter dropdown and the query interpreter's
// keyword fallback.
func (d *Dataset) Varieties() []string {
	seen := map[string]struct{}{}
	for _, w := range d.wineries {
		for _, v := range w.Varieties {
			seen[v] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Districts returns the sorted distinct districts present in the
// dataset.
func (d *Dataset) Districts() []string {
	seen := map[string]struct{}{}
	for _, w := range d.wineries {
		seen[string(w.District)] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
