// Package memory provides an in-memory graph store used for tests,
// dry runs and as the working set of the snapshotting SQL stores.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"pdxgraph/pkg/domain"
)

// Compile-time contract assertion ensuring Store satisfies the graph store contract.
var _ domain.GraphStore = (*Store)(nil)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory store closed")

// Snapshot is a point-in-time copy of the store contents, in insertion order.
type Snapshot struct {
	Patients    []*domain.Patient       `json:"patients"`
	Models      []*domain.ModelCreation `json:"models"`
	Terms       []*domain.Term          `json:"terms"`
	HostStrains []*domain.HostStrain    `json:"host_strains"`
	URLs        []*domain.ExternalURL   `json:"urls"`
	Groups      []*domain.Group         `json:"groups"`
}

// Buckets names the snapshot sections in persistence order.
var Buckets = []string{"patients", "models", "terms", "host_strains", "urls", "groups"}

// Target returns a pointer to the snapshot field stored under bucket.
func (s *Snapshot) Target(bucket string) (any, bool) {
	switch bucket {
	case "patients":
		return &s.Patients, true
	case "models":
		return &s.Models, true
	case "terms":
		return &s.Terms, true
	case "host_strains":
		return &s.HostStrains, true
	case "urls":
		return &s.URLs, true
	case "groups":
		return &s.Groups, true
	default:
		return nil, false
	}
}

// ordered is an id-indexed collection remembering first insertion order.
type ordered[T any] struct {
	order []string
	items map[string]T
}

func newOrdered[T any]() ordered[T] {
	return ordered[T]{items: make(map[string]T)}
}

func (o *ordered[T]) put(id string, v T) {
	if _, ok := o.items[id]; !ok {
		o.order = append(o.order, id)
	}
	o.items[id] = v
}

func (o *ordered[T]) get(id string) (T, bool) {
	v, ok := o.items[id]
	return v, ok
}

func (o *ordered[T]) values() []T {
	out := make([]T, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.items[id])
	}
	return out
}

type state struct {
	patients    ordered[*domain.Patient]
	models      ordered[*domain.ModelCreation]
	terms       ordered[*domain.Term]
	hostStrains ordered[*domain.HostStrain]
	urls        ordered[*domain.ExternalURL]
	groups      ordered[*domain.Group]
}

func newState() state {
	return state{
		patients:    newOrdered[*domain.Patient](),
		models:      newOrdered[*domain.ModelCreation](),
		terms:       newOrdered[*domain.Term](),
		hostStrains: newOrdered[*domain.HostStrain](),
		urls:        newOrdered[*domain.ExternalURL](),
		groups:      newOrdered[*domain.Group](),
	}
}

// Store keeps saved aggregates and reference entities in memory. Saved
// aggregates are stored by reference.
type Store struct {
	mu     sync.RWMutex
	state  state
	closed bool
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// ExportState copies the current contents.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Patients:    s.state.patients.values(),
		Models:      s.state.models.values(),
		Terms:       s.state.terms.values(),
		HostStrains: s.state.hostStrains.values(),
		URLs:        s.state.urls.values(),
		Groups:      s.state.groups.values(),
	}
}

// ImportState replaces the contents with snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	st := newState()
	for _, p := range snapshot.Patients {
		st.patients.put(p.ID, p)
	}
	for _, m := range snapshot.Models {
		st.models.put(m.ID, m)
	}
	for _, t := range snapshot.Terms {
		st.terms.put(t.ID, t)
	}
	for _, h := range snapshot.HostStrains {
		st.hostStrains.put(h.ID, h)
	}
	for _, u := range snapshot.URLs {
		st.urls.put(u.ID, u)
	}
	for _, g := range snapshot.Groups {
		st.groups.put(g.ID, g)
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Patient returns a saved patient by id.
func (s *Store) Patient(id string) (*domain.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.patients.get(id)
}

// Model returns a saved model by id.
func (s *Store) Model(id string) (*domain.ModelCreation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.models.get(id)
}

// Term implements domain.ReferenceStore.
func (s *Store) Term(_ context.Context, kind domain.TermKind, name string) (*domain.Term, error) {
	t := domain.NewTerm(kind, name)
	return getOrPut(s, &s.state.terms, t.ID, t)
}

// HostStrain implements domain.ReferenceStore.
func (s *Store) HostStrain(_ context.Context, name, symbol string) (*domain.HostStrain, error) {
	h := domain.NewHostStrain(name, symbol)
	return getOrPut(s, &s.state.hostStrains, h.ID, h)
}

// ExternalURL implements domain.ReferenceStore.
func (s *Store) ExternalURL(_ context.Context, kind domain.URLKind, url string) (*domain.ExternalURL, error) {
	u := domain.NewExternalURL(kind, url)
	return getOrPut(s, &s.state.urls, u.ID, u)
}

// Group implements domain.ReferenceStore.
func (s *Store) Group(_ context.Context, kind domain.GroupKind, name, detail string) (*domain.Group, error) {
	g := domain.NewGroup(kind, name, detail)
	return getOrPut(s, &s.state.groups, g.ID, g)
}

func getOrPut[T any](s *Store, o *ordered[T], id string, v T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		var zero T
		return zero, ErrClosed
	}
	if existing, ok := o.get(id); ok {
		return existing, nil
	}
	o.put(id, v)
	return v, nil
}

type transaction struct {
	patients []*domain.Patient
	models   []*domain.ModelCreation
}

func (tx *transaction) SavePatient(p *domain.Patient) error {
	if p == nil || p.ID == "" {
		return errors.New("patient id required")
	}
	tx.patients = append(tx.patients, p)
	return nil
}

func (tx *transaction) SaveModel(m *domain.ModelCreation) error {
	if m == nil || m.ID == "" {
		return errors.New("model id required")
	}
	tx.models = append(tx.models, m)
	return nil
}

// RunInTransaction applies the writes of fn atomically; nothing is applied
// when fn fails.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.GraphTransaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &transaction{}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, p := range tx.patients {
		s.state.patients.put(p.ID, p)
	}
	for _, m := range tx.models {
		s.state.models.put(m.ID, m)
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// EncodeBucket marshals the snapshot section stored under bucket.
func (s *Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	target, ok := s.Target(bucket)
	if !ok {
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
	return json.Marshal(target)
}

// DecodeBucket unmarshals payload into the snapshot section named bucket.
// Unknown buckets are ignored.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	target, ok := s.Target(bucket)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
