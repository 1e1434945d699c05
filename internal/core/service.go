package core

import (
	"context"
	"errors"
	"fmt"

	"pdxgraph/internal/registry"
	"pdxgraph/internal/table"
	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger       Logger
	metrics      MetricsRecorder
	clock        Clock
	fileSet      *validation.FileSetSpecification
	stages       []Stage
	requireValid bool
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		metrics: NoopMetrics{},
		clock:   systemClock{},
		fileSet: validation.PDXFileSet(),
		stages:  DefaultStages(),
	}
}

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the report clock.
func WithClock(c Clock) Option {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFileSet replaces the structural validation specification.
func WithFileSet(spec *validation.FileSetSpecification) Option {
	return func(o *serviceOptions) {
		if spec != nil {
			o.fileSet = spec
		}
	}
}

// WithStages replaces the construction stages.
func WithStages(stages ...Stage) Option {
	return func(o *serviceOptions) { o.stages = stages }
}

// WithRequireValid makes Load refuse table sets with structural defects.
func WithRequireValid(v bool) Option {
	return func(o *serviceOptions) { o.requireValid = v }
}

// Service validates provider table sets and builds them into the graph store.
type Service struct {
	store    domain.GraphStore
	resolver domain.MarkerResolver
	pipeline *Pipeline
	opts     serviceOptions
}

// NewService constructs a service. The stage order is checked here.
func NewService(store domain.GraphStore, resolver domain.MarkerResolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("graph store required")
	}
	if resolver == nil {
		return nil, errors.New("marker resolver required")
	}
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p, err := NewPipeline(o.stages...)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, resolver: resolver, pipeline: p, opts: o}, nil
}

// Store returns the graph store.
func (s *Service) Store() domain.GraphStore { return s.store }

// Validate runs the structural checks and logs every defect.
func (s *Service) Validate(provider string, tables table.Set) []validation.TableValidationError {
	defects := validation.Validate(tables, s.opts.fileSet, provider)
	for _, d := range defects {
		s.opts.logger.Warn("validation defect", "provider", provider, "kind", d.Kind, "table", d.Table, "column", d.Column, "row", d.Row)
	}
	return defects
}

// Load validates tables, runs every stage against a fresh registry and
// emits the result. The report is returned even when the load fails.
func (s *Service) Load(ctx context.Context, provider string, tables table.Set) (*Report, error) {
	start := s.opts.clock.Now()
	report := NewReport(provider, start)
	log := s.opts.logger

	report.Validation = s.Validate(provider, tables)
	err := s.load(ctx, provider, tables, report)
	report.FinishedAt = s.opts.clock.Now()
	s.opts.metrics.Observe(ctx, "load", err == nil, report.FinishedAt.Sub(start))
	if err != nil {
		report.Error = err.Error()
		log.Error("load failed", "provider", provider, "error", err)
		return report, err
	}
	log.Info("load complete", "provider", provider, "patients", report.Counts[string(domain.EntityPatient)],
		"models", report.Counts[string(domain.EntityModel)], "issues", len(report.Issues))
	return report, nil
}

func (s *Service) load(ctx context.Context, provider string, tables table.Set, report *Report) error {
	if s.opts.requireValid && !validation.Passes(report.Validation) {
		return fmt.Errorf("%w: %d defects", ErrValidationFailed, len(report.Validation))
	}
	reg := registry.New()
	rc := &RunContext{
		Provider: provider,
		Tables:   tables,
		Registry: reg,
		Refs:     s.store,
		Resolver: s.resolver,
		Report:   report,
		log:      s.opts.logger,
		metrics:  s.opts.metrics,
		clock:    s.opts.clock,
	}
	if err := s.pipeline.Run(ctx, rc); err != nil {
		return err
	}
	stats, err := Emit(ctx, reg, s.store)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	for k, n := range reg.Counts() {
		report.Counts[string(k)] = n
	}
	report.Counts[string(domain.EntityCharacterization)] = stats.Characterizations
	report.Counts["molecular_data"] = stats.MolecularData
	return nil
}
