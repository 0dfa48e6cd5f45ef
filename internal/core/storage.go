package core

import (
	"fmt"
	"os"

	"estatecore/internal/infra/persistence/memory"
	"estatecore/internal/infra/persistence/postgres"
	"estatecore/internal/infra/persistence/sqlite"
	"estatecore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// DefaultRulesEngine returns an engine carrying the store-side rules every
// driver enforces.
func DefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusTransitionRule())
	engine.Register(RecordValidationRule())
	return engine
}

// OpenStore selects a backend using environment variables. Defaults to
// sqlite when unset.
//
//	ESTATECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ESTATECORE_SQLITE_PATH: path to sqlite file (default ./estatecore.db)
//	ESTATECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenStore(engine *domain.RulesEngine) (domain.Store, error) {
	if engine == nil {
		engine = DefaultRulesEngine()
	}
	driver := os.Getenv("ESTATECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("ESTATECORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("ESTATECORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
