// Package neo4jstore writes loaded PDX aggregates into Neo4j as nodes and
// relationships, merging on natural ids so reloads are idempotent.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"

	"pdxgraph/internal/infra/persistence/memory"
	"pdxgraph/internal/platform/neo4jdb"
	"pdxgraph/pkg/domain"
)

var _ domain.GraphStore = (*Store)(nil)

// Writer executes statements atomically. *neo4jdb.Client satisfies it.
type Writer interface {
	Write(ctx context.Context, stmts ...neo4jdb.Statement) error
}

type schemaWriter interface {
	EnsureSchema(ctx context.Context, stmts ...neo4jdb.Statement)
}

type closer interface {
	Close(ctx context.Context) error
}

// Store resolves reference entities in memory and pushes each committed
// transaction to Neo4j in one write.
type Store struct {
	*memory.Store
	writer Writer
}

// New wraps writer. When writer also manages schema, uniqueness constraints
// are created up front.
func New(ctx context.Context, writer Writer) (*Store, error) {
	if writer == nil {
		return nil, errors.New("neo4jstore: writer required")
	}
	if sw, ok := writer.(schemaWriter); ok {
		sw.EnsureSchema(ctx, constraints()...)
	}
	return &Store{Store: memory.NewStore(), writer: writer}, nil
}

type collector struct {
	patients []*domain.Patient
	models   []*domain.ModelCreation
}

func (c *collector) SavePatient(p *domain.Patient) error {
	if p == nil || p.ID == "" {
		return errors.New("patient id required")
	}
	c.patients = append(c.patients, p)
	return nil
}

func (c *collector) SaveModel(m *domain.ModelCreation) error {
	if m == nil || m.ID == "" {
		return errors.New("model id required")
	}
	c.models = append(c.models, m)
	return nil
}

// Statements renders the MERGE statements for the given aggregates.
func Statements(patients []*domain.Patient, models []*domain.ModelCreation) []neo4jdb.Statement {
	g := newGraph()
	for _, p := range patients {
		g.addPatient(p)
	}
	for _, m := range models {
		g.addModel(m)
	}
	return g.statements()
}

// RunInTransaction collects the writes of fn and sends them to Neo4j. The
// in-memory view is updated only after the remote write succeeds.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.GraphTransaction) error) error {
	c := &collector{}
	if err := fn(c); err != nil {
		return err
	}
	if len(c.patients) == 0 && len(c.models) == 0 {
		return nil
	}
	if err := s.writer.Write(ctx, Statements(c.patients, c.models)...); err != nil {
		return fmt.Errorf("neo4j write: %w", err)
	}
	return s.Store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
		for _, p := range c.patients {
			if err := tx.SavePatient(p); err != nil {
				return err
			}
		}
		for _, m := range c.models {
			if err := tx.SaveModel(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the writer when it owns a connection.
func (s *Store) Close(ctx context.Context) error {
	_ = s.Store.Close(ctx)
	if cl, ok := s.writer.(closer); ok {
		return cl.Close(ctx)
	}
	return nil
}
