package fiche

import "errors"

var (
	// ErrUnknownFicheType is returned when a fiche type id is not registered.
	ErrUnknownFicheType = errors.New("unknown fiche type")

	// ErrSchemaMismatch is returned when an extraction payload is applied to a
	// schema that does not support seeding.
	ErrSchemaMismatch = errors.New("extraction payload does not match schema")
)
