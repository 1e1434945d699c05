package core

import (
	"context"
	"fmt"
	"strings"

	"pdxgraph/internal/registry"
)

// TableInput is one table a stage reads.
type TableInput struct {
	Name     string
	Optional bool
}

// StageSpec declares a stage's inputs and outputs. Needs lists the entity
// kinds the stage dereferences; each must be produced by an earlier stage.
type StageSpec struct {
	Name             string
	Tables           []TableInput
	Needs            []registry.Kind
	Produces         []registry.Kind
	RunWithoutTables bool
}

// StageFunc builds or mutates entities for one stage.
type StageFunc func(ctx context.Context, rc *RunContext) error

// Stage pairs a declaration with its implementation.
type Stage struct {
	StageSpec
	Run StageFunc
}

// Pipeline is an ordered, validated sequence of stages.
type Pipeline struct {
	stages []Stage
}

// NewPipeline checks that stage names are unique and that every stage only
// needs kinds produced by stages before it.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	produced := make(map[registry.Kind]string)
	names := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		if st.Name == "" || st.Run == nil {
			return nil, fmt.Errorf("stage %q: name and run func required", st.Name)
		}
		if _, dup := names[st.Name]; dup {
			return nil, fmt.Errorf("duplicate stage %s", st.Name)
		}
		names[st.Name] = struct{}{}
		var missing []string
		for _, k := range st.Needs {
			if _, ok := produced[k]; !ok {
				missing = append(missing, string(k))
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: stage %s needs %s before any stage produces it", ErrStageOrder, st.Name, strings.Join(missing, ", "))
		}
		for _, k := range st.Produces {
			if _, ok := produced[k]; !ok {
				produced[k] = st.Name
			}
		}
	}
	return &Pipeline{stages: append([]Stage(nil), stages...)}, nil
}

// Stages returns the stage declarations in execution order.
func (p *Pipeline) Stages() []StageSpec {
	out := make([]StageSpec, len(p.stages))
	for i, st := range p.stages {
		out[i] = st.StageSpec
	}
	return out
}

// Run executes every stage in order. A missing required table or a stage
// error aborts the run; skipped stages are recorded on the report.
func (p *Pipeline) Run(ctx context.Context, rc *RunContext) error {
	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		present := 0
		for _, in := range st.Tables {
			if _, ok := rc.Tables.Get(in.Name); ok {
				present++
				continue
			}
			if !in.Optional {
				return &MissingTableError{Stage: st.Name, Table: in.Name}
			}
		}
		if len(st.Tables) > 0 && present == 0 && !st.RunWithoutTables {
			rc.log.Info("stage skipped, no input tables", "stage", st.Name)
			rc.Report.AddStage(StageReport{Name: st.Name, Skipped: true})
			continue
		}

		rc.begin(st.Name)
		start := rc.clock.Now()
		err := st.Run(ctx, rc)
		dur := rc.clock.Now().Sub(start)
		rows, failed := rc.end()
		rc.metrics.Observe(ctx, "stage."+st.Name, err == nil, dur)
		rc.metrics.CountRows(st.Name, rows, failed)
		rc.Report.AddStage(StageReport{Name: st.Name, Rows: rows, Failed: failed, Duration: dur})
		if err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
		rc.log.Debug("stage complete", "stage", st.Name, "rows", rows, "failed", failed)
	}
	return nil
}
