// Package postgres provides a durable backend store that snapshots the
// in-memory state into a PostgreSQL table as JSON after every successful
// write.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"estatecore/internal/infra/persistence/memory"
	"estatecore/pkg/domain"
)

var _ domain.Store = (*Store)(nil)

var pgBuckets = []string{"owners", "documents"}

// Store wraps the in-memory store and mirrors its state into PostgreSQL.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects using the pgx stdlib driver, ensures the state table
// exists, hydrates from any existing snapshot, and returns the store.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	return newStoreDriver("pgx", dsn, engine)
}

// NewStoreWithDriver is like NewStore but with an explicit database/sql
// driver name. Integration tests use it with a stub driver.
func NewStoreWithDriver(driver, dsn string, engine *domain.RulesEngine) (*Store, error) {
	return newStoreDriver(driver, dsn, engine)
}

func newStoreDriver(driver, dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case "owners":
			if err := json.Unmarshal(payload, &snapshot.Owners); err != nil {
				return fmt.Errorf("decode owners: %w", err)
			}
		case "documents":
			if err := json.Unmarshal(payload, &snapshot.Documents); err != nil {
				return fmt.Errorf("decode documents: %w", err)
			}
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range pgBuckets {
		var data []byte
		switch bucket {
		case "owners":
			data, err = json.Marshal(snapshot.Owners)
		case "documents":
			data, err = json.Marshal(snapshot.Documents)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *Store) persistOr(op string) error {
	if err := s.persist(); err != nil {
		return domain.WrapError(domain.KindServer, op, err)
	}
	return nil
}

// CreateOwner stores a new product owner and snapshots state.
func (s *Store) CreateOwner(ctx context.Context, owner domain.ProductOwner) (domain.ProductOwner, error) {
	created, err := s.Store.CreateOwner(ctx, owner)
	if err != nil {
		return domain.ProductOwner{}, err
	}
	if err := s.persistOr("owner.create"); err != nil {
		return domain.ProductOwner{}, err
	}
	return created, nil
}

// UpdateOwner applies a field patch and snapshots state.
func (s *Store) UpdateOwner(ctx context.Context, id string, patch domain.OwnerPatch) (domain.ProductOwner, error) {
	updated, err := s.Store.UpdateOwner(ctx, id, patch)
	if err != nil {
		return domain.ProductOwner{}, err
	}
	if err := s.persistOr("owner.update"); err != nil {
		return domain.ProductOwner{}, err
	}
	return updated, nil
}

// UpdateOwnerStatus moves an owner to a new status and snapshots state.
func (s *Store) UpdateOwnerStatus(ctx context.Context, id string, next domain.Status) (domain.ProductOwner, error) {
	updated, err := s.Store.UpdateOwnerStatus(ctx, id, next)
	if err != nil {
		return domain.ProductOwner{}, err
	}
	if err := s.persistOr("owner.update_status"); err != nil {
		return domain.ProductOwner{}, err
	}
	return updated, nil
}

// RemoveOwner deletes an owner and snapshots state.
func (s *Store) RemoveOwner(ctx context.Context, id string) error {
	if err := s.Store.RemoveOwner(ctx, id); err != nil {
		return err
	}
	return s.persistOr("owner.remove")
}

// CreateDocument stores a new legal document and snapshots state.
func (s *Store) CreateDocument(ctx context.Context, doc domain.LegalDocument) (domain.LegalDocument, error) {
	created, err := s.Store.CreateDocument(ctx, doc)
	if err != nil {
		return domain.LegalDocument{}, err
	}
	if err := s.persistOr("document.create"); err != nil {
		return domain.LegalDocument{}, err
	}
	return created, nil
}

// UpdateDocument applies a field patch and snapshots state.
func (s *Store) UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.LegalDocument, error) {
	updated, err := s.Store.UpdateDocument(ctx, id, patch)
	if err != nil {
		return domain.LegalDocument{}, err
	}
	if err := s.persistOr("document.update"); err != nil {
		return domain.LegalDocument{}, err
	}
	return updated, nil
}

// UpdateDocumentStatus moves a document to a new status and snapshots state.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, next domain.Status) (domain.LegalDocument, error) {
	updated, err := s.Store.UpdateDocumentStatus(ctx, id, next)
	if err != nil {
		return domain.LegalDocument{}, err
	}
	if err := s.persistOr("document.update_status"); err != nil {
		return domain.LegalDocument{}, err
	}
	return updated, nil
}

// RemoveDocument deletes a document and snapshots state.
func (s *Store) RemoveDocument(ctx context.Context, id string) error {
	if err := s.Store.RemoveDocument(ctx, id); err != nil {
		return err
	}
	return s.persistOr("document.remove")
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
