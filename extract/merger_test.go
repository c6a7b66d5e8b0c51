package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/ficheagent/fiche"
	"github.com/tbxark/ficheagent/planner"
)

// fakeChatModel replays canned responses and records the prompts it saw.
type fakeChatModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(input) > 0 {
		f.prompts = append(f.prompts, input[len(input)-1].Content)
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return schema.AssistantMessage("{}", nil), nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return schema.AssistantMessage(reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func defautsFixture(t *testing.T) (*fiche.Schema, planner.Policy, *fiche.Instance) {
	t.Helper()
	s, err := fiche.NewRegistry().Get(fiche.TypeDefauts)
	if err != nil {
		t.Fatal(err)
	}
	return s, planner.ForSchema(s), fiche.NewEmpty(s)
}

func TestMergerUpdateFillsFields(t *testing.T) {
	t.Parallel()
	s, pol, inst := defautsFixture(t)
	cm := &fakeChatModel{replies: []string{
		"```json\n{\"tableau_defauts\": [{\"localisation\": \"Partie DC\", \"anomalies\": \"RAS\", \"temps_passe\": null}]}\n```",
	}}
	m := NewMerger(cm)

	lastQ := "Pour la section 'Partie DC', as-tu rencontré des anomalies ? (RAS si rien à signaler)"
	updated, err := m.Update(context.Background(), s, pol, inst, "RAS", lastQ)
	if err != nil {
		t.Fatal(err)
	}
	if len(updated) != 1 || updated[0].Row != "Partie DC" {
		t.Fatalf("expected one Partie DC update, got %v", updated)
	}
	if v := inst.RowValue("tableau_defauts", 0, "anomalies"); v != "RAS" {
		t.Errorf("anomalies: got %v", v)
	}
	if !strings.Contains(cm.lastPrompt(), lastQ) {
		t.Error("extraction prompt should carry the last question")
	}
	if !strings.Contains(cm.lastPrompt(), "RAS") {
		t.Error("extraction prompt should carry the user message")
	}
}

func TestMergerUpdateCoercesBooleans(t *testing.T) {
	t.Parallel()
	s, pol, inst := defautsFixture(t)
	cm := &fakeChatModel{replies: []string{
		`{"mise_en_service": {"signature": "true"}}`,
	}}
	m := NewMerger(cm)

	if _, err := m.Update(context.Background(), s, pol, inst, "oui c'est signé", "Le document a-t-il été signé ?"); err != nil {
		t.Fatal(err)
	}
	if v, ok := inst.FieldValue("mise_en_service", "signature").(bool); !ok || !v {
		t.Errorf("signature should be boolean true, got %v", inst.FieldValue("mise_en_service", "signature"))
	}
}

func TestMergerUnparseableResponseLeavesInstanceUnchanged(t *testing.T) {
	t.Parallel()
	s, pol, inst := defautsFixture(t)
	cm := &fakeChatModel{replies: []string{"Je ne peux pas répondre à cette question."}}
	m := NewMerger(cm)

	before, err := inst.MarshalEntities()
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Update(context.Background(), s, pol, inst, "???", "Quel est le nom du chantier ?")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	after, err := inst.MarshalEntities()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("a failed extraction must not modify the instance")
	}
}

func TestMergerGenerateError(t *testing.T) {
	t.Parallel()
	s, pol, inst := defautsFixture(t)
	wantErr := errors.New("upstream unavailable")
	m := NewMerger(&fakeChatModel{err: wantErr})

	_, err := m.Update(context.Background(), s, pol, inst, "RAS", "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestMergerEmptyPayloadIsNoop(t *testing.T) {
	t.Parallel()
	s, pol, inst := defautsFixture(t)
	m := NewMerger(&fakeChatModel{replies: []string{"{}"}})

	updated, err := m.Update(context.Background(), s, pol, inst, "bonjour", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no updates, got %v", updated)
	}
}

func TestDocumentExtractor(t *testing.T) {
	t.Parallel()
	cm := &fakeChatModel{replies: []string{
		`{"mise_en_service": {"nom_chantier": "Centrale Les Oliviers"}, "tableau_defauts": []}`,
	}}
	e := NewDocumentExtractor(cm)

	payload, err := e.Extract(context.Background(), "FICHE RELEVES DES DEFAUTS\nChantier: Centrale Les Oliviers")
	if err != nil {
		t.Fatal(err)
	}
	sec, ok := payload["mise_en_service"].(map[string]any)
	if !ok || sec["nom_chantier"] != "Centrale Les Oliviers" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if !strings.Contains(cm.lastPrompt(), "Centrale Les Oliviers") {
		t.Error("document text should be embedded in the prompt")
	}
}
