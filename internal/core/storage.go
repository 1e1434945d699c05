package core

import (
	"context"
	"fmt"

	"pdxgraph/internal/infra/persistence/memory"
	"pdxgraph/internal/infra/persistence/neo4jstore"
	"pdxgraph/internal/infra/persistence/postgres"
	"pdxgraph/internal/infra/persistence/sqlite"
	"pdxgraph/internal/platform/logger"
	"pdxgraph/internal/platform/neo4jdb"
	"pdxgraph/pkg/domain"
)

// StorageDriver identifies a concrete graph store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / dry runs)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageNeo4j    StorageDriver = "neo4j"    // Neo4j graph database
)

// StorageConfig selects and configures the graph store.
type StorageConfig struct {
	Driver      StorageDriver  `yaml:"driver"`
	SQLitePath  string         `yaml:"sqlite_path"`
	PostgresDSN string         `yaml:"postgres_dsn"`
	Neo4j       neo4jdb.Config `yaml:"neo4j"`
}

// OpenGraphStore opens the store named by cfg.Driver. An empty driver means sqlite.
func OpenGraphStore(ctx context.Context, cfg StorageConfig, log *logger.Logger) (domain.GraphStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case StorageNeo4j:
		if log == nil {
			log = logger.NewNop()
		}
		client, err := neo4jdb.New(ctx, cfg.Neo4j, log)
		if err != nil {
			return nil, err
		}
		return neo4jstore.New(ctx, client)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
