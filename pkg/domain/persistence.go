package domain

import "context"

// Store is the backend collaborator the mutation session talks to. Every
// method reports failure as a classified *Error so the session can decide
// rollback messaging; transport details are the implementation's concern.
type Store interface {
	ListOwners(ctx context.Context, estateID string) ([]ProductOwner, error)
	CreateOwner(ctx context.Context, owner ProductOwner) (ProductOwner, error)
	UpdateOwner(ctx context.Context, id string, patch OwnerPatch) (ProductOwner, error)
	UpdateOwnerStatus(ctx context.Context, id string, next Status) (ProductOwner, error)
	RemoveOwner(ctx context.Context, id string) error

	ListDocuments(ctx context.Context, estateID string) ([]LegalDocument, error)
	CreateDocument(ctx context.Context, doc LegalDocument) (LegalDocument, error)
	UpdateDocument(ctx context.Context, id string, patch DocumentPatch) (LegalDocument, error)
	UpdateDocumentStatus(ctx context.Context, id string, next Status) (LegalDocument, error)
	RemoveDocument(ctx context.Context, id string) error
}
