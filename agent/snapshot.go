package agent

import (
	"fmt"
	"time"

	"github.com/tbxark/ficheagent/fiche"
	"github.com/tbxark/ficheagent/planner"
)

const snapshotVersion = "1.0"

// Snapshot is the serializable state of a Manager. It captures everything
// needed to resume a conversation in another process.
type Snapshot struct {
	Version      string         `json:"version"`
	Mode         Mode           `json:"mode"`
	FicheType    string         `json:"fiche_type,omitempty"`
	Entities     map[string]any `json:"entities,omitempty"`
	LastQuestion string         `json:"last_question,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

func (m *Manager) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:      snapshotVersion,
		Mode:         m.mode,
		LastQuestion: m.lastQuestion,
		Timestamp:    time.Now(),
	}
	if m.schema != nil {
		snap.FicheType = m.schema.ID
		snap.Entities = m.instance.Entities()
	}
	return snap
}

// Restore replaces the manager state with a snapshot. The snapshot's
// entities are rehydrated against the current schema, so a fiche saved
// before a schema change picks up any newly added fields as empty.
func (m *Manager) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("agent: restore: nil snapshot")
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("agent: restore: unsupported snapshot version %q", snap.Version)
	}
	if snap.FicheType == "" {
		m.Reset()
		return nil
	}
	s, err := m.registry.Get(snap.FicheType)
	if err != nil {
		return fmt.Errorf("agent: restore: %w", err)
	}
	inst, err := fiche.Rehydrate(s, snap.Entities)
	if err != nil {
		return fmt.Errorf("agent: restore: %w", err)
	}
	m.schema = s
	m.policy = planner.ForSchema(s)
	m.instance = inst
	m.mode = snap.Mode
	if m.mode == ModeSelection {
		m.mode = ModeCreation
	}
	m.lastQuestion = snap.LastQuestion
	if m.lastQuestion == "" {
		m.refreshQuestion()
	}
	return nil
}
