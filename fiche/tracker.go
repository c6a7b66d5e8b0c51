package fiche

import "fmt"

// EmptyValue reports whether a value counts as never answered. Domain
// sentinels such as "RAS" or "Non renseigné" are real answers and count as
// filled; only nil, the empty string and a literal "null" are missing.
func EmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == "" || s == "null"
	}
	return false
}

// FieldRef identifies one fillable field of an instance.
type FieldRef struct {
	JSONPointer string
	Section     string
	Row         string // row localisation, empty for flat sections
	Field       string
	DisplayName string
	Required    bool
}

func (r FieldRef) String() string {
	return r.DisplayName
}

// MissingFields walks the schema in declaration order and returns the
// required flat fields and every tabular (row, field) pair that are still
// unset. Row fields carry no individual obligation flag; all of them count.
func MissingFields(s *Schema, inst *Instance) []FieldRef {
	var missing []FieldRef
	for _, sec := range s.Sections {
		if sec.Tabular() {
			for idx, tmpl := range sec.Rows {
				for _, f := range tmpl.Fields {
					if EmptyValue(inst.RowValue(sec.ID, idx, f)) {
						missing = append(missing, FieldRef{
							JSONPointer: fmt.Sprintf("/%s/%d/%s", sec.ID, idx, f),
							Section:     sec.ID,
							Row:         tmpl.Localisation,
							Field:       f,
							DisplayName: tmpl.Localisation + " - " + f,
							Required:    true,
						})
					}
				}
			}
			continue
		}
		for _, f := range sec.Fields {
			if f.Required && EmptyValue(inst.FieldValue(sec.ID, f.ID)) {
				missing = append(missing, FieldRef{
					JSONPointer: "/" + sec.ID + "/" + f.ID,
					Section:     sec.ID,
					Field:       f.ID,
					DisplayName: sec.Name + " - " + f.Label,
					Required:    true,
				})
			}
		}
	}
	return missing
}

// Percentage returns the fill ratio over every declared (section, field)
// pair. The denominator includes optional fields, so a fiche whose missing
// list is empty can still sit below 100%. This mirrors the historic
// behaviour; do not unify it with MissingFields.
func Percentage(s *Schema, inst *Instance) float64 {
	total, filled := 0, 0
	for _, sec := range s.Sections {
		if sec.Tabular() {
			for idx, tmpl := range sec.Rows {
				for _, f := range tmpl.Fields {
					total++
					if !EmptyValue(inst.RowValue(sec.ID, idx, f)) {
						filled++
					}
				}
			}
			continue
		}
		for _, f := range sec.Fields {
			total++
			if !EmptyValue(inst.FieldValue(sec.ID, f.ID)) {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total) * 100
}
