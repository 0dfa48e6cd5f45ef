package core

import (
	"context"
	"io"
	"strings"
	"testing"

	"estatecore/internal/infra/blob"
	"estatecore/internal/infra/persistence/memory"
	"estatecore/pkg/domain"
)

func newAttachmentFixture(t *testing.T) (*AttachmentService, domain.LegalDocument, blob.Store) {
	t.Helper()
	store := memory.NewStore(DefaultRulesEngine())
	doc, err := store.CreateDocument(context.Background(), domain.LegalDocument{
		EstateID: "estate-1", Type: "will", DocumentDate: "2020-01-15", Status: domain.DocumentSigned,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	blobs := blob.NewMemory()
	return NewAttachmentService(blobs, store), doc, blobs
}

func TestAttachStoresFileAndRecordsKey(t *testing.T) {
	svc, doc, blobs := newAttachmentFixture(t)
	updated, info, err := svc.Attach(context.Background(), doc, "will.pdf", "application/pdf", strings.NewReader("scanned bytes"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if updated.AttachmentKey == "" || updated.AttachmentKey != info.Key {
		t.Fatalf("attachment key mismatch: doc=%q info=%q", updated.AttachmentKey, info.Key)
	}
	if info.ContentType != "application/pdf" || info.Size != int64(len("scanned bytes")) {
		t.Fatalf("unexpected info %+v", info)
	}
	stored, err := blobs.Head(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if stored.Metadata["document_id"] != doc.ID {
		t.Fatalf("metadata missing document id: %+v", stored.Metadata)
	}
}

func TestAttachRejectsSecondAttachment(t *testing.T) {
	svc, doc, _ := newAttachmentFixture(t)
	updated, _, err := svc.Attach(context.Background(), doc, "will.pdf", "application/pdf", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	_, _, err = svc.Attach(context.Background(), updated, "will-v2.pdf", "application/pdf", strings.NewReader("b"))
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("second attach = %v, want conflict", err)
	}
}

func TestOpenRoundTripsContent(t *testing.T) {
	svc, doc, _ := newAttachmentFixture(t)
	updated, _, err := svc.Attach(context.Background(), doc, "will.pdf", "application/pdf", strings.NewReader("scanned bytes"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	_, rc, err := svc.Open(context.Background(), updated)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "scanned bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestOpenWithoutAttachment(t *testing.T) {
	svc, doc, _ := newAttachmentFixture(t)
	if _, _, err := svc.Open(context.Background(), doc); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("open without attachment = %v, want not found", err)
	}
}

func TestDetachDeletesBlobAndClearsKey(t *testing.T) {
	svc, doc, blobs := newAttachmentFixture(t)
	updated, info, err := svc.Attach(context.Background(), doc, "will.pdf", "application/pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	cleared, err := svc.Detach(context.Background(), updated)
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if cleared.AttachmentKey != "" {
		t.Fatalf("attachment key not cleared: %q", cleared.AttachmentKey)
	}
	if _, err := blobs.Head(context.Background(), info.Key); err == nil {
		t.Fatal("blob should be deleted after detach")
	}
}

func TestDownloadURLUnsupportedDriver(t *testing.T) {
	svc, doc, _ := newAttachmentFixture(t)
	updated, _, err := svc.Attach(context.Background(), doc, "will.pdf", "application/pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	// the memory driver cannot presign; the service classifies it as a
	// server-side failure
	if _, err := svc.DownloadURL(context.Background(), updated, 0); !domain.IsKind(err, domain.KindServer) {
		t.Fatalf("download url = %v, want server error", err)
	}
}
