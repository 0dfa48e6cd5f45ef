package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"estatecore/internal/infra/blob/core"
)

func TestMockPutGetRoundTrip(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	info, err := store.Put(ctx, "estates/e1/documents/d1/will.pdf", strings.NewReader("scan"),
		core.PutOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 4 {
		t.Fatalf("size = %d", info.Size)
	}
	got, rc, err := store.Get(ctx, "estates/e1/documents/d1/will.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "scan" {
		t.Fatalf("content = %q", data)
	}
	if got.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", got.ContentType)
	}
}

func TestMockPutRejectsExistingKey(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("second put must fail: create-only semantics")
	}
}

func TestMockListByPrefix(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	for _, key := range []string{"a/1", "a/2", "b/1"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "a/1" || infos[1].Key != "a/2" {
		t.Fatalf("list = %+v", infos)
	}
}

func TestMockDeleteAndHead(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Head(ctx, "k"); err == nil {
		t.Fatal("head after delete should fail")
	}
}

func TestMockPresignURL(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	url, err := store.PresignURL(ctx, "k", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "mock-bucket") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("url = %q", url)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("PUT presign = %v, want ErrUnsupported", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("missing bucket should be rejected")
	}
}

func TestDriverIdentifiers(t *testing.T) {
	if newMockStore().Driver() != core.DriverS3 {
		t.Fatal("driver mismatch")
	}
}
