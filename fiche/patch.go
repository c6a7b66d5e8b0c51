package fiche

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Operation is a single RFC6902 patch operation against the entities
// document.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// AllowedPointers enumerates every writable JSON pointer of a schema. Row
// counts are schema-fixed, so tabular pointers use concrete indices.
func AllowedPointers(s *Schema) map[string]bool {
	allowed := make(map[string]bool)
	for _, sec := range s.Sections {
		if sec.Tabular() {
			for idx, tmpl := range sec.Rows {
				for _, f := range tmpl.Fields {
					allowed[fmt.Sprintf("/%s/%d/%s", sec.ID, idx, f)] = true
				}
			}
			continue
		}
		for _, f := range sec.Fields {
			allowed["/"+sec.ID+"/"+f.ID] = true
		}
	}
	return allowed
}

// ValidateOperations rejects any operation whose path is outside the allowed
// pointer set. An empty set allows everything.
func ValidateOperations(ops []Operation, allowed map[string]bool) error {
	if len(allowed) == 0 {
		return nil
	}
	for i, op := range ops {
		if !allowed[op.Path] {
			return fmt.Errorf("operation %d: path %q is not a declared field", i, op.Path)
		}
	}
	return nil
}

// Apply mutates the instance through an RFC6902 patch. The document is only
// replaced when the whole patch applies cleanly, so a failed patch leaves the
// instance untouched.
func (i *Instance) Apply(ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	current, err := sonic.Marshal(i.entities)
	if err != nil {
		return fmt.Errorf("failed to marshal current entities: %w", err)
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return fmt.Errorf("failed to decode patch: %w", err)
	}
	modified, err := patch.Apply(current)
	if err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	var next map[string]any
	if err := sonic.Unmarshal(modified, &next); err != nil {
		return fmt.Errorf("patched entities are not a valid document: %w", err)
	}
	i.entities = next
	return nil
}
