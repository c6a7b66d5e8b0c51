package fiche

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Instance is one mutable fiche conforming to a schema. Its content lives in
// a JSON-shaped entities document: flat sections are objects keyed by field
// id, tabular sections are arrays of row objects carrying their localisation.
// Unset fields hold an explicit nil, which is distinct from a meaningful
// empty answer such as "RAS".
//
// An Instance belongs to a single conversation session and is not safe for
// concurrent mutation; the session orchestrator processes turns one at a
// time.
type Instance struct {
	schemaID string
	entities map[string]any
}

// NewEmpty creates an instance with every declared field set to nil.
func NewEmpty(s *Schema) *Instance {
	entities := map[string]any{
		"type": s.ID,
		"nom":  s.Name,
	}
	for _, sec := range s.Sections {
		if sec.Tabular() {
			rows := make([]any, 0, len(sec.Rows))
			for _, tmpl := range sec.Rows {
				row := map[string]any{"localisation": tmpl.Localisation}
				for _, f := range tmpl.Fields {
					row[f] = nil
				}
				rows = append(rows, row)
			}
			entities[sec.ID] = rows
			continue
		}
		values := make(map[string]any, len(sec.Fields))
		for _, f := range sec.Fields {
			values[f.ID] = nil
		}
		entities[sec.ID] = values
	}
	return &Instance{schemaID: s.ID, entities: entities}
}

// FromExtraction seeds an instance from a one-shot document extraction
// payload. Only the legacy défauts fiche supports seeding; any other schema
// fails with ErrSchemaMismatch. Payload keys that do not map onto the schema
// are ignored and the corresponding fields stay unset.
func FromExtraction(s *Schema, payload map[string]any) (*Instance, error) {
	if s.ID != TypeDefauts {
		return nil, fmt.Errorf("fiche type %q cannot be seeded from a document: %w", s.ID, ErrSchemaMismatch)
	}
	return seed(s, payload)
}

// Rehydrate rebuilds an instance from a previously exported entities
// document. Fields absent from the document stay unset, so completion state
// survives an export/import round trip.
func Rehydrate(s *Schema, entities map[string]any) (*Instance, error) {
	return seed(s, entities)
}

func seed(s *Schema, payload map[string]any) (*Instance, error) {
	inst := NewEmpty(s)
	ops, _ := CompileMerge(s, inst, payload)
	if len(ops) > 0 {
		if err := inst.Apply(ops); err != nil {
			return nil, fmt.Errorf("failed to seed fiche %q: %w", s.ID, err)
		}
	}
	return inst, nil
}

func (i *Instance) SchemaID() string {
	return i.schemaID
}

// Entities exposes the live document. Callers must treat it as read-only;
// all mutation goes through Apply.
func (i *Instance) Entities() map[string]any {
	return i.entities
}

// FieldValue returns the value of a flat-section field, or nil when unset.
func (i *Instance) FieldValue(sectionID, fieldID string) any {
	values, ok := i.entities[sectionID].(map[string]any)
	if !ok {
		return nil
	}
	return values[fieldID]
}

// Rows returns the row objects of a tabular section in schema order.
func (i *Instance) Rows(sectionID string) []map[string]any {
	raw, ok := i.entities[sectionID].([]any)
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if row, ok := r.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// RowValue returns one field of the idx-th row of a tabular section.
func (i *Instance) RowValue(sectionID string, idx int, fieldID string) any {
	rows := i.Rows(sectionID)
	if idx < 0 || idx >= len(rows) {
		return nil
	}
	return rows[idx][fieldID]
}

// sortedJSON keeps entity renderings deterministic: sonic's default config
// walks map keys in iteration order, which varies between calls.
var sortedJSON = sonic.Config{SortMapKeys: true}.Froze()

// MarshalEntities renders the entities document as JSON with sorted keys, so
// two calls on the same document return identical bytes. Useful for
// byte-level comparison in tests and for snapshots.
func (i *Instance) MarshalEntities() (string, error) {
	out, err := sortedJSON.MarshalToString(i.entities)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entities: %w", err)
	}
	return out, nil
}
