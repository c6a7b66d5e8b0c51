package planner

import (
	"fmt"
	"strings"

	"github.com/tbxark/ficheagent/fiche"
)

const (
	defautsHeaderSection = "mise_en_service"
	defautsTableSection  = "tableau_defauts"
	rowFieldAnomalies    = "anomalies"
	rowFieldTemps        = "temps_passe"
)

// DefautsPolicy drives the legacy défauts fiche. Header fields are asked
// first in a fixed priority order, then the defect table row by row, always
// anomalies before time spent. The planner never advances to the next row
// while the current row still misses one of its two fields.
type DefautsPolicy struct {
	Schema *fiche.Schema
}

// defautsHeaderQuestions is the hardcoded priority order of header fields,
// with their phrasing.
var defautsHeaderQuestions = []struct {
	id       string
	question string
}{
	{"nom_chantier", "Quel est le nom du chantier ?"},
	{"ao", "Quel est le numéro d'Appel d'Offres (AO) ?"},
	{"num_chantier", "Quel est le numéro de chantier ?"},
	{"nom_technicien", "Qui est le technicien intervenant ?"},
	{"date", "Quelle est la date d'intervention ? (format JJ/MM/AAAA)"},
	{"signature", "Le document a-t-il été signé ?"},
}

// MissingFields flags every header field that is unset, required or not,
// plus every unset (row, field) pair of the defect table. Time-spent entries
// display as "temps" to match the report wording.
func (p *DefautsPolicy) MissingFields(inst *fiche.Instance) []fiche.FieldRef {
	var missing []fiche.FieldRef
	header, _ := p.Schema.Section(defautsHeaderSection)
	for _, f := range header.Fields {
		if fiche.EmptyValue(inst.FieldValue(defautsHeaderSection, f.ID)) {
			missing = append(missing, fiche.FieldRef{
				JSONPointer: "/" + defautsHeaderSection + "/" + f.ID,
				Section:     defautsHeaderSection,
				Field:       f.ID,
				DisplayName: f.ID,
				Required:    true,
			})
		}
	}
	table, _ := p.Schema.Section(defautsTableSection)
	for idx, tmpl := range table.Rows {
		for _, f := range tmpl.Fields {
			if fiche.EmptyValue(inst.RowValue(defautsTableSection, idx, f)) {
				name := f
				if f == rowFieldTemps {
					name = "temps"
				}
				missing = append(missing, fiche.FieldRef{
					JSONPointer: fmt.Sprintf("/%s/%d/%s", defautsTableSection, idx, f),
					Section:     defautsTableSection,
					Row:         tmpl.Localisation,
					Field:       f,
					DisplayName: tmpl.Localisation + " - " + name,
					Required:    true,
				})
			}
		}
	}
	return missing
}

func (p *DefautsPolicy) NextQuestion(inst *fiche.Instance) (string, bool) {
	for _, hq := range defautsHeaderQuestions {
		if fiche.EmptyValue(inst.FieldValue(defautsHeaderSection, hq.id)) {
			return hq.question, true
		}
	}
	table, _ := p.Schema.Section(defautsTableSection)
	for idx, tmpl := range table.Rows {
		if fiche.EmptyValue(inst.RowValue(defautsTableSection, idx, rowFieldAnomalies)) {
			return fmt.Sprintf("Pour la section '%s', as-tu rencontré des anomalies ? (RAS si rien à signaler)", tmpl.Localisation), true
		}
		if fiche.EmptyValue(inst.RowValue(defautsTableSection, idx, rowFieldTemps)) {
			return fmt.Sprintf("Combien de temps as-tu passé sur '%s' ?", tmpl.Localisation), true
		}
	}
	return "", false
}

func (p *DefautsPolicy) ExtractionPrompt(inst *fiche.Instance, lastQuestion, userMessage string) string {
	table, _ := p.Schema.Section(defautsTableSection)
	var rowRules strings.Builder
	var rowNames []string
	for _, tmpl := range table.Rows {
		rowNames = append(rowNames, tmpl.Localisation)
		fmt.Fprintf(&rowRules, "- Si la dernière question mentionne \"%s\", alors localisation = \"%s\"\n", tmpl.Localisation, tmpl.Localisation)
	}

	return fmt.Sprintf(`Tu es un extracteur d'informations pour des fiches de défauts.

**CONTEXTE DE LA CONVERSATION:**
Dernière question posée: "%s"

Extrait UNIQUEMENT les informations pertinentes du message suivant et retourne un JSON.

**MESSAGE DE L'UTILISATEUR:**
%s

**STRUCTURE ATTENDUE (retourne UNIQUEMENT les champs mentionnés):**

{
  "mise_en_service": {
    "nom_chantier": "valeur ou null",
    "ao": "valeur ou null",
    "num_chantier": "valeur ou null",
    "nom_technicien": "valeur ou null",
    "date": "valeur ou null",
    "signature": "présente/absente/null"
  },
  "tableau_defauts": [
    {
      "localisation": "une de: %s",
      "anomalies": "texte ou RAS ou null",
      "temps_passe": "durée ou null"
    }
  ]
}

**RÈGLES IMPORTANTES:**
- Si l'utilisateur dit "RAS", "rien", "rien à signaler", "pas de problème", "aucun", mets "RAS"
- Si l'utilisateur dit "pas d'AO", "pas de", "aucun", "non", mets "Non renseigné"
- Pour le temps: "5 minutes" → "5 min", "1 heure" → "1h", "RAS" → "0 min", "rien" → "0 min"
- Pour la signature: "oui", "signée" → "présente", "non", "pas encore" → "absente"

**DÉTECTION DE LA SECTION (TRÈS IMPORTANT):**
%s- TOUJOURS renseigner le champ "localisation" quand tu détectes une anomalie ou un temps pour le tableau

**EXEMPLES:**
Question: "Pour la section 'Partie DC', as-tu rencontré des anomalies ?"
Réponse utilisateur: "RAS"
→ {"tableau_defauts": [{"localisation": "Partie DC", "anomalies": "RAS", "temps_passe": null}]}

Question: "Combien de temps as-tu passé sur 'Partie AC' ?"
Réponse utilisateur: "5 minutes"
→ {"tableau_defauts": [{"localisation": "Partie AC", "anomalies": null, "temps_passe": "5 min"}]}

- Ne retourne QUE les champs explicitement mentionnés dans le message
- Retourne UNIQUEMENT le JSON, rien d'autre (pas de texte avant ou après)

RETOURNE LE JSON:`, lastQuestion, userMessage, strings.Join(rowNames, "/"), rowRules.String())
}
