package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	t.Setenv("ESTATECORE_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s, want memory", store.Driver())
	}
}

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("ESTATECORE_BLOB_DRIVER", "")
	t.Setenv("ESTATECORE_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s, want fs", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("ESTATECORE_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("unknown driver should be rejected")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("ESTATECORE_BLOB_DRIVER", "s3")
	t.Setenv("ESTATECORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("s3 driver without bucket should be rejected")
	}
}
