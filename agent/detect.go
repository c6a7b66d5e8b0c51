package agent

import (
	"strings"

	"github.com/tbxark/ficheagent/fiche"
)

// detectionRules maps user phrasings to fiche types, checked in order.
// Défauts comes first: its full title mentions "mise en service" too, so the
// Contrôle MES patterns must not get a chance to claim it. Numeric answers
// match the menu shown by Registry.FormatList.
var detectionRules = []struct {
	ficheType string
	patterns  []string
}{
	{fiche.TypeDefauts, []string{"défaut", "defaut", "relevé", "releve", "1"}},
	{fiche.TypeControleMES, []string{"contrôle", "controle", "mise en service", "mes", "2"}},
	{fiche.TypeElectriciens, []string{"électricien", "electricien", "3"}},
	{fiche.TypePoseurs, []string{"poseur", "4"}},
}

// DetectFicheType matches a user message against known fiche type keywords.
// It returns false when nothing matches; the caller should then re-ask.
func DetectFicheType(message string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return "", false
	}
	for _, rule := range detectionRules {
		for _, pattern := range rule.patterns {
			// Short patterns ("2", "mes") only match the whole message,
			// otherwise "mes défauts" would land on the wrong fiche.
			if len(pattern) <= 3 {
				if normalized == pattern {
					return rule.ficheType, true
				}
				continue
			}
			if strings.Contains(normalized, pattern) {
				return rule.ficheType, true
			}
		}
	}
	return "", false
}
