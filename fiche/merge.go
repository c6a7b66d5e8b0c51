package fiche

import (
	"fmt"
	"log/slog"
	"strings"
)

// CompileMerge turns an extraction payload into patch operations against the
// instance, together with a reference for every field that will be written.
// Merging is additive: only (section, field) pairs present in the payload
// with a non-empty value produce an operation, so fields the oracle did not
// mention keep their current value.
func CompileMerge(s *Schema, inst *Instance, payload map[string]any) ([]Operation, []FieldRef) {
	var ops []Operation
	var refs []FieldRef
	for _, sec := range s.Sections {
		raw, ok := payload[sec.ID]
		if !ok {
			continue
		}
		if sec.Tabular() {
			rowOps, rowRefs := compileRowMerge(&sec, raw)
			ops = append(ops, rowOps...)
			refs = append(refs, rowRefs...)
			continue
		}
		values, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, f := range sec.Fields {
			v, ok := values[f.ID]
			if !ok || EmptyValue(v) {
				continue
			}
			ops = append(ops, Operation{
				Op:    "replace",
				Path:  "/" + sec.ID + "/" + f.ID,
				Value: coerceValue(v),
			})
			refs = append(refs, FieldRef{
				JSONPointer: "/" + sec.ID + "/" + f.ID,
				Section:     sec.ID,
				Field:       f.ID,
				DisplayName: sec.ID + "." + f.ID,
				Required:    f.Required,
			})
		}
	}
	return ops, refs
}

func compileRowMerge(sec *Section, raw any) ([]Operation, []FieldRef) {
	rows, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	var ops []Operation
	var refs []FieldRef
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		loc, _ := row["localisation"].(string)
		idx := resolveRow(sec, loc)
		if idx < 0 {
			slog.Warn("dropping update for unmatched row", "section", sec.ID, "localisation", loc)
			continue
		}
		tmpl := sec.Rows[idx]
		for _, f := range tmpl.Fields {
			v, ok := row[f]
			if !ok || EmptyValue(v) {
				continue
			}
			ops = append(ops, Operation{
				Op:    "replace",
				Path:  fmt.Sprintf("/%s/%d/%s", sec.ID, idx, f),
				Value: coerceValue(v),
			})
			refs = append(refs, FieldRef{
				JSONPointer: fmt.Sprintf("/%s/%d/%s", sec.ID, idx, f),
				Section:     sec.ID,
				Row:         tmpl.Localisation,
				Field:       f,
				DisplayName: tmpl.Localisation + " - " + f,
				Required:    true,
			})
		}
	}
	return ops, refs
}

// resolveRow matches an extracted localisation against the schema's rows:
// exact match first, then best-effort bidirectional substring containment to
// tolerate oracle paraphrase of row names.
func resolveRow(sec *Section, loc string) int {
	if loc == "" {
		return -1
	}
	for i, tmpl := range sec.Rows {
		if tmpl.Localisation == loc {
			return i
		}
	}
	for i, tmpl := range sec.Rows {
		if strings.Contains(tmpl.Localisation, loc) || strings.Contains(loc, tmpl.Localisation) {
			return i
		}
	}
	return -1
}

// coerceValue maps the string forms "true"/"false" onto booleans; anything
// else is written verbatim.
func coerceValue(v any) any {
	if s, ok := v.(string); ok {
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return v
}
