package planner

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/ficheagent/fiche"
)

// GenericPolicy serves any schema: sections in declaration order, fields in
// declaration order, first required-and-missing field wins.
type GenericPolicy struct {
	Schema *fiche.Schema
}

func (p *GenericPolicy) MissingFields(inst *fiche.Instance) []fiche.FieldRef {
	return fiche.MissingFields(p.Schema, inst)
}

func (p *GenericPolicy) NextQuestion(inst *fiche.Instance) (string, bool) {
	for _, sec := range p.Schema.Sections {
		if sec.Tabular() {
			for idx, tmpl := range sec.Rows {
				for _, f := range tmpl.Fields {
					if fiche.EmptyValue(inst.RowValue(sec.ID, idx, f)) {
						return fmt.Sprintf("%s - %s ?", tmpl.Localisation, f), true
					}
				}
			}
			continue
		}
		for _, f := range sec.Fields {
			if f.Required && fiche.EmptyValue(inst.FieldValue(sec.ID, f.ID)) {
				return questionFor(&f), true
			}
		}
	}
	return "", false
}

// questionFor phrases a question by field type.
func questionFor(f *fiche.Field) string {
	switch f.Type {
	case fiche.FieldBoolean:
		return f.Label + " ? (Oui/Non)"
	case fiche.FieldSelect:
		return f.Label + " ? (" + strings.Join(f.Options, "/") + ")"
	case fiche.FieldDate:
		return f.Label + " ? (format JJ/MM/AAAA)"
	default:
		return f.Label + " ?"
	}
}

func (p *GenericPolicy) ExtractionPrompt(inst *fiche.Instance, lastQuestion, userMessage string) string {
	template := make(map[string]any, len(p.Schema.Sections))
	for _, sec := range p.Schema.Sections {
		if sec.Tabular() {
			rows := make([]map[string]string, 0, len(sec.Rows))
			for _, tmpl := range sec.Rows {
				row := map[string]string{"localisation": tmpl.Localisation}
				for _, f := range tmpl.Fields {
					row[f] = "valeur ou null"
				}
				rows = append(rows, row)
			}
			template[sec.ID] = rows
			continue
		}
		fields := make(map[string]string, len(sec.Fields))
		for _, f := range sec.Fields {
			fields[f.ID] = fieldHint(&f)
		}
		template[sec.ID] = fields
	}
	templateJSON, err := sonic.MarshalIndent(template, "", "  ")
	if err != nil {
		templateJSON = []byte("{}")
	}

	return fmt.Sprintf(`Tu es un extracteur d'informations pour une %s.

**CONTEXTE:**
Dernière question posée: "%s"

**MESSAGE UTILISATEUR:**
%s

**STRUCTURE ATTENDUE (retourne UNIQUEMENT les champs mentionnés):**

%s

**RÈGLES:**
- Si l'utilisateur dit "oui", "OK", "d'accord" pour un champ boolean: retourne true
- Si l'utilisateur dit "non", "pas de", "aucun" pour un boolean: retourne false
- Si l'utilisateur dit "RAS", "rien", "rien à signaler": mets "RAS" comme valeur
- Si l'utilisateur dit "pas de", "aucun", "non renseigné": mets "Non renseigné"
- Pour les options OK/NOK/NA: retourne exactement "OK", "NOK" ou "NA"
- Extrait TOUTES les informations pertinentes du message
- Ne retourne QUE les champs mentionnés (ne mets pas tous les champs à null)

**FORMAT:**
Retourne UNIQUEMENT le JSON, rien d'autre (pas de texte avant ou après, pas de markdown).

JSON:`, p.Schema.Name, lastQuestion, userMessage, templateJSON)
}

func fieldHint(f *fiche.Field) string {
	switch f.Type {
	case fiche.FieldBoolean:
		return "true/false/null"
	case fiche.FieldSelect:
		return fmt.Sprintf("'%s' ou null", strings.Join(f.Options, "/"))
	default:
		return "valeur ou null"
	}
}
