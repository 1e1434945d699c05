package core

import (
	"context"
	"fmt"

	"pdxgraph/internal/registry"
	"pdxgraph/internal/table"
	"pdxgraph/pkg/domain"
)

// RunContext carries the state of one load through the pipeline. It is
// owned by a single load and never shared.
type RunContext struct {
	Provider string
	Tables   table.Set
	Registry *registry.Registry
	Refs     domain.ReferenceStore
	Resolver domain.MarkerResolver
	Report   *Report

	log     Logger
	metrics MetricsRecorder
	clock   Clock

	stage  string
	rows   int
	failed int
}

func (rc *RunContext) begin(stage string) {
	rc.stage = stage
	rc.rows, rc.failed = 0, 0
}

func (rc *RunContext) end() (int, int) {
	rows, failed := rc.rows, rc.failed
	rc.stage = ""
	return rows, failed
}

// Stage returns the name of the executing stage.
func (rc *RunContext) Stage() string { return rc.stage }

func (rc *RunContext) table(name string) (*table.Table, bool) {
	return rc.Tables.Get(name)
}

// forEachRow visits every row of t. fn returning a non-nil error aborts the stage.
func (rc *RunContext) forEachRow(t *table.Table, fn func(table.Row) error) error {
	for _, row := range t.Rows() {
		rc.rows++
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// skip records that row contributed nothing.
func (rc *RunContext) skip(row table.Row, format string, args ...any) {
	rc.failed++
	rc.issue(row, SeverityWarning, fmt.Sprintf(format, args...))
}

// note records an informational message about row.
func (rc *RunContext) note(row table.Row, msg string) {
	rc.issue(row, SeverityInfo, msg)
}

func (rc *RunContext) issue(row table.Row, sev Severity, msg string) {
	issue := RowIssue{Stage: rc.stage, Table: row.Table().Name(), Row: row.Line(), Severity: sev, Message: msg}
	rc.Report.AddIssue(issue)
	kv := []any{"stage", issue.Stage, "table", issue.Table, "row", issue.Row}
	if sev == SeverityInfo {
		rc.log.Info(msg, kv...)
		return
	}
	rc.log.Warn(msg, kv...)
}

func (rc *RunContext) notFound(kind registry.Kind, key string, row table.Row) error {
	err := &NotFoundError{Kind: kind, Key: key, Stage: rc.stage, Table: row.Table().Name(), Row: row.Line()}
	rc.log.Error("referential integrity failure", "stage", rc.stage, "table", err.Table, "row", err.Row, "kind", kind, "key", key)
	return err
}

func (rc *RunContext) provider() (*domain.Provider, error) {
	p, ok := rc.Registry.Provider()
	if !ok {
		return nil, &NotFoundError{Kind: domain.EntityProvider, Key: registry.NoKey.String(), Stage: rc.stage}
	}
	return p, nil
}

// model looks up the model a row references; absence is fatal.
func (rc *RunContext) model(row table.Row) (*domain.ModelCreation, error) {
	id := row.String(colModelID)
	m, ok := rc.Registry.Models.Get(registry.NewKey(id))
	if !ok {
		return nil, rc.notFound(domain.EntityModel, id, row)
	}
	return m, nil
}

// patient looks up the patient a row references; absence is fatal.
func (rc *RunContext) patient(row table.Row) (*domain.Patient, error) {
	id := row.String(colPatientID)
	p, ok := rc.Registry.Patients.Get(registry.NewKey(id))
	if !ok {
		return nil, rc.notFound(domain.EntityPatient, id, row)
	}
	return p, nil
}

// term returns the shared reference term, asking the store once per load.
// An empty name yields no term.
func (rc *RunContext) term(ctx context.Context, kind domain.TermKind, name string) (*domain.Term, error) {
	if name == "" {
		return nil, nil
	}
	t, _, err := rc.Registry.Terms.GetOrCreate(registry.NewKey(string(kind), name), func() (*domain.Term, error) {
		return rc.Refs.Term(ctx, kind, name)
	})
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return t, nil
}

func (rc *RunContext) hostStrain(ctx context.Context, name, symbol string) (*domain.HostStrain, error) {
	if symbol == "" {
		return nil, nil
	}
	h, _, err := rc.Registry.HostStrains.GetOrCreate(registry.NewKey(symbol), func() (*domain.HostStrain, error) {
		return rc.Refs.HostStrain(ctx, name, symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("host strain %q: %w", symbol, err)
	}
	return h, nil
}

func (rc *RunContext) externalURL(ctx context.Context, kind domain.URLKind, url string) (*domain.ExternalURL, error) {
	u, _, err := rc.Registry.URLs.GetOrCreate(registry.NewKey(string(kind), url), func() (*domain.ExternalURL, error) {
		return rc.Refs.ExternalURL(ctx, kind, url)
	})
	if err != nil {
		return nil, fmt.Errorf("external url: %w", err)
	}
	return u, nil
}

func (rc *RunContext) group(ctx context.Context, kind domain.GroupKind, name, detail string) (*domain.Group, error) {
	g, _, err := rc.Registry.Groups.GetOrCreate(registry.NewKey(string(kind), name, detail), func() (*domain.Group, error) {
		return rc.Refs.Group(ctx, kind, name, detail)
	})
	if err != nil {
		return nil, fmt.Errorf("%s group %q: %w", kind, name, err)
	}
	return g, nil
}

// platform returns the provider's platform for (kind, name).
func (rc *RunContext) platform(kind domain.CharacterizationType, name string) (*domain.Platform, error) {
	p, err := rc.provider()
	if err != nil {
		return nil, err
	}
	pl, _, err := rc.Registry.Platforms.GetOrCreate(registry.NewKey(string(kind), name), func() (*domain.Platform, error) {
		return domain.NewPlatform(kind, name, p.Abbreviation), nil
	})
	return pl, err
}
