package agent

import (
	"fmt"
	"strings"

	"github.com/tbxark/ficheagent/fiche"
)

// SystemPrompt builds the conversational system prompt for the current mode.
// It drives the assistant's chat replies, not the extraction calls.
func (m *Manager) SystemPrompt() string {
	switch m.mode {
	case ModeSelection:
		return fmt.Sprintf(`Tu es un assistant pour les techniciens d'installations solaires.
Ta première tâche est d'aider l'utilisateur à choisir le type de fiche à remplir.

Types de fiches disponibles:
%s
Demande à l'utilisateur quel type de fiche il souhaite remplir. Il peut répondre par le numéro ou le nom.
Reste bref et professionnel. Réponds toujours en français.`, m.registry.FormatList())
	case ModeCompletion:
		return m.conversationPrompt("Tu complètes une fiche pré-remplie depuis un document scanné. Seuls les champs manquants restent à demander.")
	default:
		return m.conversationPrompt("Tu remplis une fiche vierge en posant les questions une par une.")
	}
}

func (m *Manager) conversationPrompt(modeLine string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Tu es un assistant pour les techniciens d'installations solaires.
%s

Fiche en cours: %s
%s

RÈGLES GÉNÉRALES:
- Pose UNE seule question à la fois
- Reste bref: une phrase de confirmation, puis la question suivante
- Ne reformule pas les réponses de l'utilisateur
- Réponds toujours en français
`, modeLine, m.schema.Name, m.schema.Description)

	if rules := specificRules(m.schema.ID); rules != "" {
		b.WriteString("\nRÈGLES SPÉCIFIQUES À CETTE FICHE:\n")
		b.WriteString(rules)
	}
	return b.String()
}

// specificRules returns per-fiche guidance carried into the system prompt.
func specificRules(ficheType string) string {
	switch ficheType {
	case fiche.TypeDefauts:
		return `- "RAS" est une réponse valide pour les anomalies (rien à signaler)
- Les temps se notent en minutes ou heures ("5 min", "1h")
- Parcours le tableau section par section, anomalies puis temps passé
- La signature se note "présente" ou "absente"`
	case fiche.TypeControleMES:
		return `- Les mesures électriques se notent avec leur unité (V, A, Ω)
- Les contrôles se valident par Oui/Non
- Pour les onduleurs absents, "Non renseigné" est une réponse valide`
	case fiche.TypeElectriciens:
		return `- Les sections de câbles se notent en mm²
- Les contrôles de conformité se valident par Oui/Non`
	case fiche.TypePoseurs:
		return `- Les quantités de panneaux sont des nombres entiers
- Les contrôles de pose se valident par Oui/Non`
	default:
		return ""
	}
}

// InitialMessage is the first assistant message after a fiche type is chosen.
func (m *Manager) InitialMessage() string {
	if m.mode == ModeSelection {
		return fmt.Sprintf("Bonjour ! Quel type de fiche souhaites-tu remplir ?\n\n%s\nRéponds par le numéro ou le nom de la fiche.", m.registry.FormatList())
	}

	missing := len(m.policy.MissingFields(m.instance))
	question, _ := m.NextQuestion()
	if m.mode == ModeCompletion {
		return fmt.Sprintf("J'ai pré-rempli la fiche \"%s\" depuis le document scanné (%d champ(s) restant(s)).\n\n%s", m.schema.Name, missing, question)
	}
	return fmt.Sprintf("C'est parti pour la fiche \"%s\" (%d champ(s) à remplir).\n\n%s", m.schema.Name, missing, question)
}
