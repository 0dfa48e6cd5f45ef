package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"estatecore/internal/core"
	"estatecore/internal/infra/persistence/sqlite"
	"estatecore/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estate.db")
	ctx := context.Background()

	store, err := sqlite.NewStore(path, core.DefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := store.CreateOwner(ctx, domain.ProductOwner{EstateID: "e1", FirstName: "A", LastName: "Abbott"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	b, err := store.CreateOwner(ctx, domain.ProductOwner{EstateID: "e1", FirstName: "B", LastName: "Baker"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	doc, err := store.CreateDocument(ctx, domain.LegalDocument{EstateID: "e1", Type: "will", DocumentDate: "2020-01-15"})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if _, err := store.UpdateOwnerStatus(ctx, b.ID, domain.OwnerLapsed); err != nil {
		t.Fatalf("lapse: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(path, core.DefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	owners, err := reopened.ListOwners(ctx, "e1")
	if err != nil {
		t.Fatalf("list owners: %v", err)
	}
	if len(owners) != 2 || owners[0].ID != a.ID || owners[1].ID != b.ID {
		t.Fatalf("owner order lost across reopen: %+v", owners)
	}
	if owners[1].Status != domain.OwnerLapsed {
		t.Fatalf("status lost across reopen: %s", owners[1].Status)
	}
	docs, err := reopened.ListDocuments(ctx, "e1")
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("documents lost across reopen: %+v", docs)
	}
}

func TestRemovePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estate.db")
	ctx := context.Background()

	store, err := sqlite.NewStore(path, core.DefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	owner, err := store.CreateOwner(ctx, domain.ProductOwner{EstateID: "e1", FirstName: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RemoveOwner(ctx, owner.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(path, core.DefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	owners, err := reopened.ListOwners(ctx, "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("removed owner resurrected: %+v", owners)
	}
}

func TestRejectedWriteDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estate.db")
	ctx := context.Background()

	store, err := sqlite.NewStore(path, core.DefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	_, err = store.CreateOwner(ctx, domain.ProductOwner{EstateID: "e1", FirstName: "A", Email: "bad-email"})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("create with bad email = %v, want validation", err)
	}
	owners, err := store.ListOwners(ctx, "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("rejected owner committed: %+v", owners)
	}
}
