package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"estatecore/internal/infra/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	info, err := store.Put(ctx, "k", strings.NewReader("payload"), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 {
		t.Fatalf("size = %d", info.Size)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" {
		t.Fatalf("content = %q", data)
	}
}

func TestPutDuplicateKey(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("duplicate put must fail")
	}
}

func TestDeleteAndList(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"a/1", "a/2", "b/1"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "a/")
	if err != nil || len(infos) != 2 {
		t.Fatalf("list = %v, %v", infos, err)
	}
	existed, err := store.Delete(ctx, "a/1")
	if err != nil || !existed {
		t.Fatalf("delete = %v existed=%v", err, existed)
	}
	existed, _ = store.Delete(ctx, "a/1")
	if existed {
		t.Fatal("second delete should report missing")
	}
}

func TestMetadataIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"k": "v"}
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := store.Head(ctx, "k")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	info.Metadata["k"] = "tampered"
	again, _ := store.Head(ctx, "k")
	if again.Metadata["k"] != "v" {
		t.Fatalf("stored metadata aliased: %+v", again.Metadata)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); err != core.ErrUnsupported {
		t.Fatalf("presign = %v, want ErrUnsupported", err)
	}
}
