package planner

import (
	"strings"
	"testing"

	"github.com/tbxark/ficheagent/fiche"
)

func defautsFixture(t *testing.T) (*fiche.Schema, *DefautsPolicy, *fiche.Instance) {
	t.Helper()
	s, err := fiche.NewRegistry().Get(fiche.TypeDefauts)
	if err != nil {
		t.Fatal(err)
	}
	return s, &DefautsPolicy{Schema: s}, fiche.NewEmpty(s)
}

func answer(t *testing.T, inst *fiche.Instance, pointer string, value any) {
	t.Helper()
	if err := inst.Apply([]fiche.Operation{{Op: "replace", Path: pointer, Value: value}}); err != nil {
		t.Fatal(err)
	}
}

func TestDefautsHeaderQuestionOrder(t *testing.T) {
	t.Parallel()
	_, pol, inst := defautsFixture(t)

	steps := []struct {
		want    string
		pointer string
		value   any
	}{
		{"Quel est le nom du chantier ?", "/mise_en_service/nom_chantier", "Chantier Nord"},
		{"Quel est le numéro d'Appel d'Offres (AO) ?", "/mise_en_service/ao", "AO-2026-17"},
		{"Quel est le numéro de chantier ?", "/mise_en_service/num_chantier", "CH-042"},
		{"Qui est le technicien intervenant ?", "/mise_en_service/nom_technicien", "A. Bernard"},
		{"Quelle est la date d'intervention ? (format JJ/MM/AAAA)", "/mise_en_service/date", "15/04/2026"},
		{"Le document a-t-il été signé ?", "/mise_en_service/signature", true},
	}
	for _, step := range steps {
		q, ok := pol.NextQuestion(inst)
		if !ok {
			t.Fatal("expected a question")
		}
		if q != step.want {
			t.Fatalf("question: got %q, want %q", q, step.want)
		}
		answer(t, inst, step.pointer, step.value)
	}

	// Header done, the table starts with the first row's anomalies.
	q, ok := pol.NextQuestion(inst)
	if !ok {
		t.Fatal("expected the first table question")
	}
	if q != "Pour la section 'Partie DC', as-tu rencontré des anomalies ? (RAS si rien à signaler)" {
		t.Errorf("first table question: got %q", q)
	}
}

// A row is finished (anomalies then time spent) before the next row starts,
// even when a later row already has data.
func TestDefautsRowOrderNeverSkips(t *testing.T) {
	t.Parallel()
	_, pol, inst := defautsFixture(t)

	for _, step := range []struct {
		pointer string
		value   any
	}{
		{"/mise_en_service/nom_chantier", "Chantier Nord"},
		{"/mise_en_service/ao", "Non renseigné"},
		{"/mise_en_service/num_chantier", "CH-042"},
		{"/mise_en_service/nom_technicien", "A. Bernard"},
		{"/mise_en_service/date", "15/04/2026"},
		{"/mise_en_service/signature", false},
		// The user volunteered data for a later row.
		{"/tableau_defauts/2/anomalies", "Passerelle HS"},
	} {
		answer(t, inst, step.pointer, step.value)
	}

	q, _ := pol.NextQuestion(inst)
	if !strings.Contains(q, "'Partie DC'") || !strings.Contains(q, "anomalies") {
		t.Fatalf("expected Partie DC anomalies first, got %q", q)
	}

	answer(t, inst, "/tableau_defauts/0/anomalies", "RAS")
	q, _ = pol.NextQuestion(inst)
	if q != "Combien de temps as-tu passé sur 'Partie DC' ?" {
		t.Fatalf("expected Partie DC time question, got %q", q)
	}

	answer(t, inst, "/tableau_defauts/0/temps_passe", "0 min")
	q, _ = pol.NextQuestion(inst)
	if !strings.Contains(q, "'Partie AC'") {
		t.Fatalf("expected Partie AC next, got %q", q)
	}
}

// The défauts policy reports every header field as expected, including the
// optional ones the schema does not require.
func TestDefautsMissingFieldsCoversOptionalHeader(t *testing.T) {
	t.Parallel()
	_, pol, inst := defautsFixture(t)

	missing := pol.MissingFields(inst)
	if len(missing) != 16 {
		t.Fatalf("expected 16 missing fields, got %d", len(missing))
	}

	byName := make(map[string]bool, len(missing))
	for _, ref := range missing {
		byName[ref.DisplayName] = true
	}
	for _, want := range []string{"ao", "signature", "Partie DC - anomalies", "Divers / Remarques - temps"} {
		if !byName[want] {
			t.Errorf("missing list should contain %q: %v", want, missing)
		}
	}
}

func TestDefautsExtractionPrompt(t *testing.T) {
	t.Parallel()
	_, pol, inst := defautsFixture(t)

	lastQ := "Pour la section 'Partie AC', as-tu rencontré des anomalies ? (RAS si rien à signaler)"
	prompt := pol.ExtractionPrompt(inst, lastQ, "RAS, rien à signaler")

	for _, want := range []string{
		lastQ,
		"RAS, rien à signaler",
		`Si la dernière question mentionne "Partie AC", alors localisation = "Partie AC"`,
		"Liaison Equipotentielle / Mesure de terre",
		"tableau_defauts",
		"RETOURNE LE JSON:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}
