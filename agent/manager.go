// Package agent ties the fiche registry, question planning and extraction
// together behind a conversation manager. One Manager handles one fiche at a
// time; sessions and history are stored separately so a manager can be
// rebuilt from a snapshot.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/ficheagent/extract"
	"github.com/tbxark/ficheagent/fiche"
	"github.com/tbxark/ficheagent/planner"
)

// Mode is the conversation phase.
type Mode string

const (
	// ModeSelection means no fiche type has been chosen yet.
	ModeSelection Mode = "selection"
	// ModeCreation fills an empty fiche question by question.
	ModeCreation Mode = "creation"
	// ModeCompletion fills the gaps of a fiche seeded from a scanned document.
	ModeCompletion Mode = "completion"
)

// ErrNoFicheSelected is returned by operations that need an active fiche
// while the manager is still in selection mode.
var ErrNoFicheSelected = errors.New("agent: no fiche selected")

type Manager struct {
	registry *fiche.Registry
	merger   *extract.Merger
	docs     *extract.DocumentExtractor

	mode         Mode
	schema       *fiche.Schema
	policy       planner.Policy
	instance     *fiche.Instance
	lastQuestion string
}

func NewManager(registry *fiche.Registry, merger *extract.Merger, docs *extract.DocumentExtractor) *Manager {
	return &Manager{
		registry: registry,
		merger:   merger,
		docs:     docs,
		mode:     ModeSelection,
	}
}

// NewManagerFromModel wires a manager with the default registry and both
// extractors sharing the same chat model.
func NewManagerFromModel(cm model.BaseChatModel) *Manager {
	return NewManager(
		fiche.NewRegistry(),
		extract.NewMerger(cm),
		extract.NewDocumentExtractor(cm),
	)
}

func (m *Manager) Mode() Mode {
	return m.mode
}

func (m *Manager) Schema() *fiche.Schema {
	return m.schema
}

func (m *Manager) Registry() *fiche.Registry {
	return m.registry
}

// SetFicheType starts a fresh fiche of the given type in creation mode.
func (m *Manager) SetFicheType(ficheTypeID string) error {
	s, err := m.registry.Get(ficheTypeID)
	if err != nil {
		return err
	}
	m.schema = s
	m.policy = planner.ForSchema(s)
	m.instance = fiche.NewEmpty(s)
	m.mode = ModeCreation
	m.refreshQuestion()
	slog.Info("fiche started", "type", s.ID, "mode", m.mode)
	return nil
}

// SeedFromDocument extracts a scanned document and starts the fiche in
// completion mode, pre-filled with whatever the extraction recognized. When
// the extraction payload does not fit the schema, the fiche starts empty
// instead of failing the conversation.
func (m *Manager) SeedFromDocument(ctx context.Context, ficheTypeID, documentText string) error {
	s, err := m.registry.Get(ficheTypeID)
	if err != nil {
		return err
	}
	payload, err := m.docs.Extract(ctx, documentText)
	if err != nil {
		return fmt.Errorf("agent: extract document: %w", err)
	}
	inst, err := fiche.FromExtraction(s, payload)
	if err != nil {
		if !errors.Is(err, fiche.ErrSchemaMismatch) {
			return fmt.Errorf("agent: seed fiche: %w", err)
		}
		slog.Warn("document payload does not fit schema, starting empty", "type", s.ID, "err", err)
		inst = fiche.NewEmpty(s)
	}
	m.schema = s
	m.policy = planner.ForSchema(s)
	m.instance = inst
	m.mode = ModeCompletion
	m.refreshQuestion()
	slog.Info("fiche seeded from document", "type", s.ID, "completion", m.Percentage())
	return nil
}

// UserTurn processes one user message. In selection mode it tries to detect
// the fiche type; otherwise it runs the extraction pipeline and merges the
// result. It returns the fields the message filled. A reply the model could
// not turn into JSON is not an error: the turn fills nothing and the
// conversation continues.
func (m *Manager) UserTurn(ctx context.Context, message string) ([]fiche.FieldRef, error) {
	if m.mode == ModeSelection {
		ficheType, ok := DetectFicheType(message)
		if !ok {
			return nil, nil
		}
		if err := m.SetFicheType(ficheType); err != nil {
			return nil, err
		}
		return nil, nil
	}

	updated, err := m.merger.Update(ctx, m.schema, m.policy, m.instance, message, m.lastQuestion)
	if err != nil {
		var parseErr *extract.ParseError
		if errors.As(err, &parseErr) {
			slog.Warn("unparseable extraction response", "raw", parseErr.Raw, "err", parseErr.Err)
			return nil, nil
		}
		return nil, err
	}
	m.refreshQuestion()
	return updated, nil
}

// NextQuestion returns the next question to ask. ok is false when the fiche
// is complete or no fiche is active.
func (m *Manager) NextQuestion() (string, bool) {
	if m.policy == nil {
		return "", false
	}
	return m.policy.NextQuestion(m.instance)
}

func (m *Manager) MissingFields() []fiche.FieldRef {
	if m.policy == nil {
		return nil
	}
	return m.policy.MissingFields(m.instance)
}

func (m *Manager) Percentage() float64 {
	if m.instance == nil {
		return 0
	}
	return fiche.Percentage(m.schema, m.instance)
}

func (m *Manager) IsComplete() bool {
	if m.policy == nil {
		return false
	}
	return len(m.policy.MissingFields(m.instance)) == 0
}

func (m *Manager) CompletionSummary() (string, error) {
	if m.instance == nil {
		return "", ErrNoFicheSelected
	}
	return fiche.CompletionSummary(m.schema, m.instance), nil
}

func (m *Manager) ExportText(now time.Time) (string, error) {
	if m.instance == nil {
		return "", ErrNoFicheSelected
	}
	return fiche.ExportText(m.schema, m.instance, now), nil
}

func (m *Manager) ExportJSON() (string, error) {
	if m.instance == nil {
		return "", ErrNoFicheSelected
	}
	return fiche.ExportJSON(m.schema, m.instance, string(m.mode))
}

// Instance exposes the live fiche, mainly for inspection and tests.
func (m *Manager) Instance() *fiche.Instance {
	return m.instance
}

// Reset returns the manager to selection mode, dropping the current fiche.
func (m *Manager) Reset() {
	m.mode = ModeSelection
	m.schema = nil
	m.policy = nil
	m.instance = nil
	m.lastQuestion = ""
}

func (m *Manager) refreshQuestion() {
	if q, ok := m.policy.NextQuestion(m.instance); ok {
		m.lastQuestion = q
	} else {
		m.lastQuestion = ""
	}
}
