package core

import (
	"context"
	"fmt"

	"pdxgraph/internal/registry"
	"pdxgraph/pkg/domain"
)

// EmitStats counts what emission handed to the store.
type EmitStats struct {
	Patients          int
	Models            int
	Characterizations int
	MolecularData     int
}

// canonicalizeSample serializes the marker association of every
// characterization of s.
func canonicalizeSample(s *domain.Sample, stats *EmitStats) error {
	if s == nil {
		return nil
	}
	for _, mc := range s.Characterizations {
		ma := mc.Association()
		if _, err := ma.Canonicalize(); err != nil {
			return fmt.Errorf("canonicalize %s: %w", mc.ID, err)
		}
		stats.Characterizations++
		stats.MolecularData += len(ma.Data)
	}
	return nil
}

// Emit canonicalizes molecular data and saves every patient, then every
// model, in registry order within one store transaction.
func Emit(ctx context.Context, reg *registry.Registry, store domain.GraphStore) (EmitStats, error) {
	var stats EmitStats
	patients := reg.Patients.Values()
	models := reg.Models.Values()

	for _, p := range patients {
		for _, snap := range p.Snapshots {
			for _, s := range snap.Samples {
				if err := canonicalizeSample(s, &stats); err != nil {
					return stats, err
				}
			}
		}
	}
	for _, m := range models {
		for _, sp := range m.Specimens {
			if err := canonicalizeSample(sp.Sample, &stats); err != nil {
				return stats, err
			}
		}
	}

	err := store.RunInTransaction(ctx, func(tx domain.GraphTransaction) error {
		for _, p := range patients {
			if err := tx.SavePatient(p); err != nil {
				return fmt.Errorf("save patient %s: %w", p.ExternalID, err)
			}
		}
		for _, m := range models {
			if err := tx.SaveModel(m); err != nil {
				return fmt.Errorf("save model %s: %w", m.SourcePDXID, err)
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	stats.Patients, stats.Models = len(patients), len(models)
	return stats, nil
}
