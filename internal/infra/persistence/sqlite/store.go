// Package sqlite provides a durable backend store that snapshots the
// in-memory state to a single SQLite table as JSON after every successful
// write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"estatecore/internal/infra/persistence/memory"
	"estatecore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.Store = (*Store)(nil)

var sqliteBuckets = []string{"owners", "documents"}

// Store wraps the in-memory store and mirrors its state into SQLite.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path, hydrates the in-memory
// state from any existing snapshot, and returns the store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "estatecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
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
	for _, bucket := range sqliteBuckets {
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
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// persistOr wraps write results: the write already committed in memory, so
// a failed snapshot turns into a classified server error.
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
