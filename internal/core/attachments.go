package core

import (
	"context"
	"io"
	"path"
	"time"

	"estatecore/internal/infra/blob"
	"estatecore/pkg/domain"
)

// AttachmentService links scanned files in the blob store to legal document
// records by writing the attachment key through the backend store.
type AttachmentService struct {
	blobs  blob.Store
	store  domain.Store
	logger Logger
}

// NewAttachmentService wires a blob backend and the record store together.
func NewAttachmentService(blobs blob.Store, store domain.Store, opts ...Option) *AttachmentService {
	s := newSettings(opts...)
	return &AttachmentService{blobs: blobs, store: store, logger: s.logger}
}

// attachmentKey builds a deterministic, collision-free object key per
// document. One attachment per document; a second upload is rejected.
func attachmentKey(doc domain.LegalDocument, filename string) string {
	return path.Join("estates", doc.EstateID, "documents", doc.ID, path.Base(filename))
}

// Attach uploads the file and records its key on the document. Returns the
// updated document as persisted by the store.
func (a *AttachmentService) Attach(ctx context.Context, doc domain.LegalDocument, filename, contentType string, r io.Reader) (domain.LegalDocument, blob.Info, error) {
	if doc.AttachmentKey != "" {
		return domain.LegalDocument{}, blob.Info{}, domain.NewError(domain.KindConflict, "attachment.upload", "document already has an attachment")
	}
	key := attachmentKey(doc, filename)
	info, err := a.blobs.Put(ctx, key, r, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"estate_id": doc.EstateID, "document_id": doc.ID},
	})
	if err != nil {
		return domain.LegalDocument{}, blob.Info{}, domain.WrapError(domain.KindServer, "attachment.upload", err)
	}
	updated, err := a.store.UpdateDocument(ctx, doc.ID, domain.DocumentPatch{AttachmentKey: &key})
	if err != nil {
		// keep storage consistent with the record when the store write fails
		if _, delErr := a.blobs.Delete(ctx, key); delErr != nil {
			a.logger.Warn("orphaned attachment after failed record update", "key", key, "error", delErr)
		}
		return domain.LegalDocument{}, blob.Info{}, err
	}
	a.logger.Info("attachment stored", "document_id", doc.ID, "key", key, "size", info.Size)
	return updated, info, nil
}

// Open returns the attachment content and metadata for a document.
func (a *AttachmentService) Open(ctx context.Context, doc domain.LegalDocument) (blob.Info, io.ReadCloser, error) {
	if doc.AttachmentKey == "" {
		return blob.Info{}, nil, domain.NewError(domain.KindNotFound, "attachment.open", "document has no attachment")
	}
	info, rc, err := a.blobs.Get(ctx, doc.AttachmentKey)
	if err != nil {
		return blob.Info{}, nil, domain.WrapError(domain.KindServer, "attachment.open", err)
	}
	return info, rc, nil
}

// Detach removes the stored file and clears the key on the document.
func (a *AttachmentService) Detach(ctx context.Context, doc domain.LegalDocument) (domain.LegalDocument, error) {
	if doc.AttachmentKey == "" {
		return domain.LegalDocument{}, domain.NewError(domain.KindNotFound, "attachment.detach", "document has no attachment")
	}
	if _, err := a.blobs.Delete(ctx, doc.AttachmentKey); err != nil {
		return domain.LegalDocument{}, domain.WrapError(domain.KindServer, "attachment.detach", err)
	}
	empty := ""
	updated, err := a.store.UpdateDocument(ctx, doc.ID, domain.DocumentPatch{AttachmentKey: &empty})
	if err != nil {
		return domain.LegalDocument{}, err
	}
	a.logger.Info("attachment removed", "document_id", doc.ID, "key", doc.AttachmentKey)
	return updated, nil
}

// DownloadURL returns a time-limited URL for the attachment, when the
// backend supports pre-signing.
func (a *AttachmentService) DownloadURL(ctx context.Context, doc domain.LegalDocument, expiry time.Duration) (string, error) {
	if doc.AttachmentKey == "" {
		return "", domain.NewError(domain.KindNotFound, "attachment.url", "document has no attachment")
	}
	url, err := a.blobs.PresignURL(ctx, doc.AttachmentKey, blob.SignedURLOptions{Method: "GET", Expiry: expiry})
	if err != nil {
		return "", domain.WrapError(domain.KindServer, "attachment.url", err)
	}
	return url, nil
}
