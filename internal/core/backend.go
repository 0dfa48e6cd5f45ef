package core

import (
	"context"

	"estatecore/pkg/domain"
)

// Patch is a partial field update the backend understands. Apply mirrors
// the backend's effect locally for the optimistic apply.
type Patch[T any] interface {
	Apply(*T)
}

// Backend is the transport-facing surface the session mutates through. One
// adapter exists per entity kind, bridging the generic session to the
// per-entity domain.Store methods. Every call reports failure as a
// classified *domain.Error.
type Backend[T domain.Record[T]] interface {
	List(ctx context.Context, estateID string) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	UpdateFields(ctx context.Context, id string, patch Patch[T]) (T, error)
	UpdateStatus(ctx context.Context, id string, next domain.Status) (T, error)
	Remove(ctx context.Context, id string) error
}

type ownerBackend struct {
	store domain.Store
}

// OwnerBackend adapts a domain.Store to the product owner session surface.
func OwnerBackend(store domain.Store) Backend[domain.ProductOwner] {
	return ownerBackend{store: store}
}

func (b ownerBackend) List(ctx context.Context, estateID string) ([]domain.ProductOwner, error) {
	return b.store.ListOwners(ctx, estateID)
}

func (b ownerBackend) Create(ctx context.Context, owner domain.ProductOwner) (domain.ProductOwner, error) {
	return b.store.CreateOwner(ctx, owner)
}

func (b ownerBackend) UpdateFields(ctx context.Context, id string, patch Patch[domain.ProductOwner]) (domain.ProductOwner, error) {
	p, ok := patch.(domain.OwnerPatch)
	if !ok {
		return domain.ProductOwner{}, domain.NewError(domain.KindValidation, "owner.update", "unsupported patch type")
	}
	return b.store.UpdateOwner(ctx, id, p)
}

func (b ownerBackend) UpdateStatus(ctx context.Context, id string, next domain.Status) (domain.ProductOwner, error) {
	return b.store.UpdateOwnerStatus(ctx, id, next)
}

func (b ownerBackend) Remove(ctx context.Context, id string) error {
	return b.store.RemoveOwner(ctx, id)
}

type documentBackend struct {
	store domain.Store
}

// DocumentBackend adapts a domain.Store to the legal document session
// surface.
func DocumentBackend(store domain.Store) Backend[domain.LegalDocument] {
	return documentBackend{store: store}
}

func (b documentBackend) List(ctx context.Context, estateID string) ([]domain.LegalDocument, error) {
	return b.store.ListDocuments(ctx, estateID)
}

func (b documentBackend) Create(ctx context.Context, doc domain.LegalDocument) (domain.LegalDocument, error) {
	return b.store.CreateDocument(ctx, doc)
}

func (b documentBackend) UpdateFields(ctx context.Context, id string, patch Patch[domain.LegalDocument]) (domain.LegalDocument, error) {
	p, ok := patch.(domain.DocumentPatch)
	if !ok {
		return domain.LegalDocument{}, domain.NewError(domain.KindValidation, "document.update", "unsupported patch type")
	}
	return b.store.UpdateDocument(ctx, id, p)
}

func (b documentBackend) UpdateStatus(ctx context.Context, id string, next domain.Status) (domain.LegalDocument, error) {
	return b.store.UpdateDocumentStatus(ctx, id, next)
}

func (b documentBackend) Remove(ctx context.Context, id string) error {
	return b.store.RemoveDocument(ctx, id)
}
