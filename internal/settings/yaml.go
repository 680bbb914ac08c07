package settings

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"basegraph.app/herald/internal/model"
)

// File is the on-disk settings document:
//
//	global:
//	  blocked_terms: ["regex:^promo"]
//	sources:
//	  com.slack:
//	    enabled: false
type File struct {
	Global  *model.SourceSettings           `yaml:"global"`
	Sources map[string]model.SourceSettings `yaml:"sources"`
}

// Entry is one key and its settings, in import order.
type Entry struct {
	Key      string
	Settings model.SourceSettings
}

// ParseYAML reads a settings document. Global comes first, then sources
// sorted by key.
func ParseYAML(r io.Reader) ([]Entry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding settings yaml: %w", err)
	}

	var entries []Entry
	if f.Global != nil {
		entries = append(entries, Entry{Key: model.GlobalSettingsKey, Settings: *f.Global})
	}

	keys := make([]string, 0, len(f.Sources))
	for k := range f.Sources {
		if k == "" || k == model.GlobalSettingsKey {
			return nil, fmt.Errorf("invalid source key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Settings: f.Sources[k]})
	}
	return entries, nil
}
