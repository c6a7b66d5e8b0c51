// Package extract turns free-form user messages and scanned documents into
// structured fiche updates, using a chat model as the extraction oracle.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/ficheagent/fiche"
	"github.com/tbxark/ficheagent/planner"
)

const defaultMergeTimeout = 45 * time.Second

// Merger asks the model to extract fiche fields from a user message and
// merges the result into an instance. Each update is additive: a merge never
// clears a field that already holds a value, and a failed merge leaves the
// instance untouched.
type Merger struct {
	model   model.BaseChatModel
	timeout time.Duration
}

type Option func(*Merger)

// WithTimeout overrides the per-call extraction timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Merger) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewMerger(cm model.BaseChatModel, opts ...Option) *Merger {
	m := &Merger{
		model:   cm,
		timeout: defaultMergeTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Update extracts field values from userMessage and applies them to inst.
// lastQuestion is the question the user is answering; it anchors ambiguous
// replies like "RAS" or "5 minutes" to the right field. It returns the
// fields that were newly filled.
func (m *Merger) Update(ctx context.Context, s *fiche.Schema, pol planner.Policy, inst *fiche.Instance, userMessage, lastQuestion string) ([]fiche.FieldRef, error) {
	prompt := pol.ExtractionPrompt(inst, lastQuestion, userMessage)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("extract: generate: %w", err)
	}

	payload, err := DecodeJSONResponse(resp.Content)
	if err != nil {
		return nil, err
	}

	ops, updated := fiche.CompileMerge(s, inst, payload)
	if len(ops) == 0 {
		return nil, nil
	}
	if err := fiche.ValidateOperations(ops, fiche.AllowedPointers(s)); err != nil {
		return nil, fmt.Errorf("extract: validate merge: %w", err)
	}
	if err := inst.Apply(ops); err != nil {
		return nil, fmt.Errorf("extract: apply merge: %w", err)
	}
	slog.Debug("merged extraction", "schema", s.ID, "fields", len(updated))
	return updated, nil
}
