package core

import (
	"errors"
	"fmt"

	"pdxgraph/internal/registry"
)

var (
	// ErrReferentialIntegrity marks a lookup of an entity no earlier stage created.
	ErrReferentialIntegrity = errors.New("referential integrity failure")
	// ErrStageOrder is returned when a stage needs an entity kind no earlier stage produces.
	ErrStageOrder = errors.New("stage order violation")
	// ErrValidationFailed is returned by Load when structural validation is a gate and fails.
	ErrValidationFailed = errors.New("structural validation failed")
	// ErrNoProvider is returned when the provider metadata table has no data row.
	ErrNoProvider = errors.New("provider metadata has no data row")
)

// NotFoundError reports a missing cross-table dependency. It aborts the load.
type NotFoundError struct {
	Kind  registry.Kind
	Key   string
	Stage string
	Table string
	Row   int
}

func (e *NotFoundError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %q not found (stage %s, %s line %d)", e.Kind, e.Key, e.Stage, e.Table, e.Row)
	}
	return fmt.Sprintf("%s %q not found (stage %s)", e.Kind, e.Key, e.Stage)
}

// Unwrap lets errors.Is match ErrReferentialIntegrity.
func (e *NotFoundError) Unwrap() error { return ErrReferentialIntegrity }

// MissingTableError reports a required stage input absent from the table set.
type MissingTableError struct {
	Stage string
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("stage %s: required table %s is missing", e.Stage, e.Table)
}
