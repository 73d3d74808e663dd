// Package defaults holds class-level field defaults for the text format,
// loaded from YAML tables of the form
//
//	circle:
//	  r: 1
//	text.Drawing:
//	  title: untitled
//
// Keys are registry names or Go type strings, then field names.
package defaults

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/text"
)

// Table maps type names to field defaults.
type Table map[string]map[string]any

var _ text.Defaults = Table(nil)

// Lookup implements text.Defaults.
func (t Table) Lookup(typeName, field string) (any, bool) {
	v, ok := t[typeName][field]
	return v, ok
}

// Load parses one YAML table.
func Load(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

// Merge layers YAML tables, later ones winning, as JSON merge patches:
// a field set to null in a later table removes the default.
func Merge(tables ...[]byte) (Table, error) {
	doc := []byte("{}")
	for i, data := range tables {
		patch, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("defaults: table %d: %w", i, err)
		}
		if len(patch) == 0 || string(patch) == "null" || string(patch) == "null\n" {
			continue
		}
		if doc, err = jsonpatch.MergePatch(doc, patch); err != nil {
			return nil, fmt.Errorf("defaults: table %d: %w", i, err)
		}
		if debug.Text() {
			debug.Logf("defaults: merged table %d: %s\n", i, doc)
		}
	}
	return Load(doc)
}
