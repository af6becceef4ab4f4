package scrubber

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"textscrub/internal/model"
)

// Catalog is a nested translation message tree as stored in locale JSON files.
type Catalog map[string]any

// LoadCatalog reads the configured locale file. A missing file yields an
// empty catalog and exists=false.
func (s *Scrubber) LoadCatalog() (cat Catalog, exists bool, err error) {
	data, err := s.fs.ReadFile(s.absOption(s.opts.LocaleFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Catalog{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cat = Catalog{}
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", s.opts.LocaleFile, err)
	}
	return cat, true, nil
}

// Has reports whether the dotted key resolves to a leaf value.
func (c Catalog) Has(key string) bool {
	var cur any = map[string]any(c)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		cur, ok = m[part]
		if !ok {
			return false
		}
	}
	_, isMap := cur.(map[string]any)
	return !isMap
}

// Add sets key to value unless the key already exists. It reports whether
// the catalog changed; a key whose path runs through an existing leaf is a
// conflict.
func (c Catalog) Add(key, value string) (bool, error) {
	parts := strings.Split(key, ".")
	cur := map[string]any(c)
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok {
			m := map[string]any{}
			cur[part] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false, fmt.Errorf("key %s conflicts with existing value at %q", key, part)
		}
		cur = m
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; ok {
		return false, nil
	}
	cur[last] = value
	return true, nil
}

// Keys returns every leaf key in dotted form, sorted.
func (c Catalog) Keys() []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			full := k
			if prefix != "" {
				full = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(full, child)
				continue
			}
			out = append(out, full)
		}
	}
	walk("", c)
	sort.Strings(out)
	return out
}

// updateCatalog records applied keys in the locale file, leaving existing
// entries alone. It does nothing when the locale file does not exist.
func (s *Scrubber) updateCatalog(applied []model.Replacement) error {
	cat, exists, err := s.LoadCatalog()
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	var (
		changed   bool
		conflicts []string
	)
	for _, r := range applied {
		value := r.Text
		if value == "" {
			value = r.OriginalText
		}
		added, err := cat.Add(r.Key, value)
		if err != nil {
			conflicts = append(conflicts, err.Error())
			continue
		}
		changed = changed || added
	}

	if changed {
		data, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return err
		}
		full := s.absOption(s.opts.LocaleFile)
		if err := s.fs.WriteFile(full, append(data, '\n'), 0o644); err != nil {
			return err
		}
	}
	if len(conflicts) > 0 {
		return errors.New(strings.Join(conflicts, "; "))
	}
	return nil
}
