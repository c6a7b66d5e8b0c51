// Package planner decides what to ask next for a fiche under completion and
// owns the per-type extraction prompt. Each fiche type is served by a Policy:
// the legacy défauts fiche has a dedicated tabular policy, every other type
// shares the generic schema-driven one.
package planner

import "github.com/tbxark/ficheagent/fiche"

// Policy is the per-fiche-type strategy.
type Policy interface {
	// MissingFields lists the fields this fiche type still requires, in the
	// order they should be asked.
	MissingFields(inst *fiche.Instance) []fiche.FieldRef

	// NextQuestion returns the single next question to ask. ok is false when
	// the fiche is complete and the caller should switch to a
	// confirmation/modification prompt.
	NextQuestion(inst *fiche.Instance) (question string, ok bool)

	// ExtractionPrompt builds the one-shot extraction directive sent to the
	// oracle for a user turn. lastQuestion disambiguates answers that do not
	// name their target field.
	ExtractionPrompt(inst *fiche.Instance, lastQuestion, userMessage string) string
}

// ForSchema selects the policy for a fiche type.
func ForSchema(s *fiche.Schema) Policy {
	if s.ID == fiche.TypeDefauts {
		return &DefautsPolicy{Schema: s}
	}
	return &GenericPolicy{Schema: s}
}
