package ports

import (
	"context"
	"io"

	"go.trai.ch/qpm/internal/core/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

// Registry resolves package requests to tarball URLs.
type Registry interface {
	// ResolveLatest resolves the version tagged latest.
	ResolveLatest(ctx context.Context, name string) (domain.ResolvedPackage, error)
	// ResolveVersion resolves an exact version.
	ResolveVersion(ctx context.Context, name, version string) (domain.ResolvedPackage, error)
	// Resolve routes a request to ResolveLatest or ResolveVersion by its selector.
	Resolve(ctx context.Context, req domain.PackageRequest) (domain.ResolvedPackage, error)
}

// TarballFetcher streams a remote archive.
type TarballFetcher interface {
	// Fetch opens the tarball at url. The caller closes the returned reader.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Extractor unpacks a gzip-compressed tar stream.
type Extractor interface {
	// Extract writes the regular files and directories of r below dest,
	// stripping the archive's top-level directory.
	Extract(r io.Reader, dest string) error
}
