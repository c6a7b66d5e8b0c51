package fiche

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// ExportJSON renders the snapshot format consumed by downstream tooling:
// the entities document, the completion percentage and the session mode.
func ExportJSON(s *Schema, inst *Instance, mode string) (string, error) {
	doc := map[string]any{
		"entities":              inst.Entities(),
		"completion_percentage": Percentage(s, inst),
		"mode":                  mode,
	}
	out, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal fiche export: %w", err)
	}
	return string(out), nil
}

const bannerWidth = 60

// ExportText renders the fiche as a flat text report, iterating sections and
// fields in schema order. The timestamp is a parameter so the rendering stays
// deterministic.
func ExportText(s *Schema, inst *Instance, exportedAt time.Time) string {
	var sb strings.Builder
	banner := strings.Repeat("=", bannerWidth) + "\n"
	rule := strings.Repeat("-", bannerWidth) + "\n"

	sb.WriteString(banner)
	sb.WriteString(strings.ToUpper(s.Name) + "\n")
	sb.WriteString(banner)
	fmt.Fprintf(&sb, "Exporté le: %s\n", exportedAt.Format("02/01/2006 à 15:04"))
	fmt.Fprintf(&sb, "Complétion: %.0f%%\n", Percentage(s, inst))
	sb.WriteString(banner)
	sb.WriteString("\n")

	for _, sec := range s.Sections {
		sb.WriteString(strings.ToUpper(sec.Name) + "\n")
		sb.WriteString(rule)
		if sec.Tabular() {
			sb.WriteString("\n")
			for idx, tmpl := range sec.Rows {
				fmt.Fprintf(&sb, "- %s\n", tmpl.Localisation)
				for _, f := range tmpl.Fields {
					fmt.Fprintf(&sb, "   %-15s: %s\n", titleCase(f), renderValue(inst.RowValue(sec.ID, idx, f), FieldText))
				}
				sb.WriteString("\n")
			}
			continue
		}
		for _, f := range sec.Fields {
			fmt.Fprintf(&sb, "%-30s: %s\n", f.Label, renderValue(inst.FieldValue(sec.ID, f.ID), f.Type))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(banner)
	sb.WriteString("FIN DE LA FICHE\n")
	sb.WriteString(banner)
	return sb.String()
}

// CompletionSummary renders the per-section fill state with status markers.
func CompletionSummary(s *Schema, inst *Instance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **%s** (%.0f%% complète)\n\n", s.Name, Percentage(s, inst))
	for _, sec := range s.Sections {
		if sec.Tabular() {
			fmt.Fprintf(&sb, "**%s:**\n", sec.Name)
			for idx, tmpl := range sec.Rows {
				filled := 0
				for _, f := range tmpl.Fields {
					if !EmptyValue(inst.RowValue(sec.ID, idx, f)) {
						filled++
					}
				}
				fmt.Fprintf(&sb, "- %s: %s (%d/%d)\n", tmpl.Localisation, statusIcon(filled, len(tmpl.Fields)), filled, len(tmpl.Fields))
			}
			continue
		}
		total, filled := 0, 0
		for _, f := range sec.Fields {
			if !f.Required {
				continue
			}
			total++
			if !EmptyValue(inst.FieldValue(sec.ID, f.ID)) {
				filled++
			}
		}
		fmt.Fprintf(&sb, "%s **%s:** %d/%d\n", statusIcon(filled, total), sec.Name, filled, total)
	}
	return sb.String()
}

func statusIcon(filled, total int) string {
	switch {
	case total > 0 && filled == total:
		return "✅"
	case filled > 0:
		return "⚠️"
	default:
		return "❌"
	}
}

// renderValue localizes a value for the text report. Unset fields render as
// "N/A"; booleans as Oui/Non. A boolean-typed field can also hold a domain
// string (the extraction writes "présente" for a signature), and any such
// non-empty value renders as "Oui", matching the historic report.
func renderValue(v any, t FieldType) string {
	if EmptyValue(v) {
		return "N/A"
	}
	if b, ok := v.(bool); ok {
		if b {
			return "Oui"
		}
		return "Non"
	}
	if t == FieldBoolean {
		return "Oui"
	}
	return fmt.Sprintf("%v", v)
}

// titleCase turns a field id like "temps_passe" into "Temps Passe".
func titleCase(id string) string {
	parts := strings.Split(id, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
