package planner

import (
	"strings"
	"testing"

	"github.com/tbxark/ficheagent/fiche"
)

func testChecklistSchema() *fiche.Schema {
	return &fiche.Schema{
		ID:   "checklist",
		Name: "Fiche de Contrôle",
		Sections: []fiche.Section{
			{
				ID:   "identite",
				Name: "Identité",
				Fields: []fiche.Field{
					{ID: "nom_chantier", Label: "Nom du chantier", Type: fiche.FieldText, Required: true},
					{ID: "date", Label: "Date d'intervention", Type: fiche.FieldDate, Required: true},
					{ID: "commentaire", Label: "Commentaire", Type: fiche.FieldTextarea},
				},
			},
			{
				ID:   "controles",
				Name: "Contrôles",
				Fields: []fiche.Field{
					{ID: "terre", Label: "Mesure de terre conforme", Type: fiche.FieldBoolean, Required: true},
					{ID: "etat", Label: "État général", Type: fiche.FieldSelect, Options: []string{"OK", "NOK", "NA"}, Required: true},
				},
			},
		},
	}
}

func TestGenericQuestionPhrasing(t *testing.T) {
	t.Parallel()
	s := testChecklistSchema()
	pol := ForSchema(s)
	inst := fiche.NewEmpty(s)

	steps := []struct {
		pointer string
		answer  any
		want    string
	}{
		{"/identite/nom_chantier", "Chantier Nord", "Nom du chantier ?"},
		{"/identite/date", "01/06/2026", "Date d'intervention ? (format JJ/MM/AAAA)"},
		{"/controles/terre", true, "Mesure de terre conforme ? (Oui/Non)"},
		{"/controles/etat", "OK", "État général ? (OK/NOK/NA)"},
	}
	for _, step := range steps {
		q, ok := pol.NextQuestion(inst)
		if !ok {
			t.Fatalf("expected a question before answering %q", step.pointer)
		}
		if q != step.want {
			t.Errorf("question: got %q, want %q", q, step.want)
		}
		if err := inst.Apply([]fiche.Operation{{Op: "replace", Path: step.pointer, Value: step.answer}}); err != nil {
			t.Fatal(err)
		}
	}

	// All required fields answered; the optional textarea does not keep the
	// conversation going.
	if q, ok := pol.NextQuestion(inst); ok {
		t.Errorf("fiche is complete, got question %q", q)
	}
}

func TestGenericFreshFlatSection(t *testing.T) {
	t.Parallel()
	s := &fiche.Schema{
		ID:   "identite_seule",
		Name: "Identité",
		Sections: []fiche.Section{{
			ID:   "identite",
			Name: "Identité",
			Fields: []fiche.Field{
				{ID: "nom", Label: "Nom", Type: fiche.FieldText, Required: true},
				{ID: "prenom", Label: "Prénom", Type: fiche.FieldText, Required: true},
				{ID: "societe", Label: "Société", Type: fiche.FieldText, Required: true},
			},
		}},
	}
	pol := ForSchema(s)
	inst := fiche.NewEmpty(s)

	if got := fiche.Percentage(s, inst); got != 0 {
		t.Errorf("fresh form: expected 0%%, got %.2f", got)
	}
	if missing := pol.MissingFields(inst); len(missing) != 3 {
		t.Errorf("expected 3 missing fields, got %v", missing)
	}
	if q, ok := pol.NextQuestion(inst); !ok || q != "Nom ?" {
		t.Errorf("first question: got %q", q)
	}
}

func TestGenericPolicySelection(t *testing.T) {
	t.Parallel()
	r := fiche.NewRegistry()

	s, err := r.Get(fiche.TypeControleMES)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ForSchema(s).(*GenericPolicy); !ok {
		t.Error("controle_mes should use the generic policy")
	}

	s, err = r.Get(fiche.TypeDefauts)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ForSchema(s).(*DefautsPolicy); !ok {
		t.Error("defauts should use the dedicated policy")
	}
}

func TestGenericExtractionPrompt(t *testing.T) {
	t.Parallel()
	s := testChecklistSchema()
	pol := ForSchema(s)
	inst := fiche.NewEmpty(s)

	prompt := pol.ExtractionPrompt(inst, "Mesure de terre conforme ? (Oui/Non)", "oui tout est bon")

	for _, want := range []string{
		"Mesure de terre conforme ? (Oui/Non)",
		"oui tout est bon",
		"true/false/null",
		"'OK/NOK/NA' ou null",
		"Retourne UNIQUEMENT le JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}
