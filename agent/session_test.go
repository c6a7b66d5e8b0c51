package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewMemorySessionStore()
	ctx := WithSession(context.Background(), "tech-42")

	snap := &Snapshot{Version: "1.0", Mode: ModeCreation, FicheType: "defauts"}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.FicheType != "defauts" || got.Mode != ModeCreation {
		t.Errorf("unexpected snapshot: %+v", got)
	}

	// Another session sees nothing.
	other := WithSession(context.Background(), "tech-7")
	if _, ok, _ := s.Load(other); ok {
		t.Error("sessions must be isolated")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Error("snapshot should be gone after Clear")
	}
}

func TestSessionStoreRequiresKey(t *testing.T) {
	t.Parallel()
	s := NewMemorySessionStore()

	err := s.Save(context.Background(), &Snapshot{Version: "1.0"})
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	_, _, err = s.Load(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestHistoryAppendDeduplicates(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistoryStore(nil)
	ctx := WithSession(context.Background(), "tech-42")

	if _, err := h.Append(ctx, schema.UserMessage("RAS"), schema.UserMessage("RAS")); err != nil {
		t.Fatal(err)
	}
	hist, err := h.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("consecutive duplicates should collapse, got %d messages", len(hist))
	}
}

func TestHistoryCompaction(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistoryStore(nil)
	ctx := WithSession(context.Background(), "tech-42")

	hist, err := h.Append(ctx,
		schema.UserMessage("RAS"),
		nil,
		schema.UserMessage("RAS"),
		schema.AssistantMessage("Combien de temps ?", nil),
		schema.UserMessage("RAS"),
	)
	if err != nil {
		t.Fatal(err)
	}
	// nils vanish and consecutive duplicates collapse, but the same answer
	// to a later question is kept.
	if len(hist) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(hist))
	}
	if hist[2].Content != "RAS" {
		t.Errorf("tail message: got %q", hist[2].Content)
	}
}

func TestHistoryTrimKeepsSystemAndTail(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistoryStore(KeepSystemLastNTrimmer{N: 2})
	ctx := WithSession(context.Background(), "tech-42")

	msgs := []*schema.Message{
		schema.SystemMessage("tu remplis une fiche"),
		schema.UserMessage("premier"),
		schema.AssistantMessage("question 1", nil),
		schema.UserMessage("deuxième"),
		schema.AssistantMessage("question 2", nil),
	}
	if _, err := h.Append(ctx, msgs...); err != nil {
		t.Fatal(err)
	}
	hist, err := h.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected system + last 2, got %d messages", len(hist))
	}
	if hist[0].Role != schema.System {
		t.Error("system message should survive trimming")
	}
	if hist[len(hist)-1].Content != "question 2" {
		t.Errorf("tail message: got %q", hist[len(hist)-1].Content)
	}
}
