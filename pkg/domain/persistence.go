package domain

import "context"

// GraphTransaction accepts fully built aggregates within one atomic write.
type GraphTransaction interface {
	SavePatient(*Patient) error
	SaveModel(*ModelCreation) error
}

// ReferenceStore looks up or creates the shared reference entities a load
// links to. Implementations must return the same entity for the same
// natural key across calls.
type ReferenceStore interface {
	Term(ctx context.Context, kind TermKind, name string) (*Term, error)
	HostStrain(ctx context.Context, name, symbol string) (*HostStrain, error)
	ExternalURL(ctx context.Context, kind URLKind, url string) (*ExternalURL, error)
	Group(ctx context.Context, kind GroupKind, name, detail string) (*Group, error)
}

// GraphStore is the persistence collaborator of a load.
type GraphStore interface {
	ReferenceStore
	RunInTransaction(ctx context.Context, fn func(GraphTransaction) error) error
	Close(ctx context.Context) error
}

// MarkerQuery carries the context of one marker lookup.
type MarkerQuery struct {
	Source               string
	DataSource           string
	ModelID              string
	Symbol               string
	CharacterizationType CharacterizationType
	Platform             string
}

// MarkerResolution is the outcome of a lookup. Marker is nil when the symbol
// could not be resolved; Note carries an informational message either way.
type MarkerResolution struct {
	Marker *Marker `json:"marker,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Resolved reports whether a canonical marker was found.
func (r MarkerResolution) Resolved() bool { return r.Marker != nil }

// MarkerResolver maps free-text marker symbols to canonical markers.
// Errors are infrastructure failures; an unknown symbol is an unresolved
// result, not an error.
type MarkerResolver interface {
	Resolve(ctx context.Context, q MarkerQuery) (MarkerResolution, error)
}
