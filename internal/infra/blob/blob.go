// Package blob re-exports the attachment storage abstractions and selects a
// backend from the environment.
package blob

import (
	"context"
	"fmt"
	"os"

	"estatecore/internal/infra/blob/core"
	fsstore "estatecore/internal/infra/blob/fs"
	memorystore "estatecore/internal/infra/blob/memory"
	s3store "estatecore/internal/infra/blob/s3"
)

type (
	// Driver identifies an attachment backend driver.
	Driver = core.Driver
	// PutOptions configures an attachment write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored attachment metadata.
	Info = core.Info
	// Store is the interface attachment backends implement.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation is not supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// NewFilesystem returns a filesystem attachment store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// NewMemory returns an in-memory attachment store for tests.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed attachment store.
func NewS3(ctx context.Context, cfg s3store.Config) (Store, error) { return s3store.New(ctx, cfg) }

// Open selects an attachment store from environment variables.
//
//	ESTATECORE_BLOB_DRIVER:  fs|s3|memory (default fs)
//	ESTATECORE_BLOB_FS_ROOT: directory root when driver=fs (default ./attachments)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("ESTATECORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("ESTATECORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
