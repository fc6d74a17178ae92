package ports

import (
	"context"

	"go.trai.ch/qpm/internal/core/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// PackageCache maps resolved packages to directories shared across projects.
// Every method takes the cache root it operates on, normally Project.CacheRoot.
type PackageCache interface {
	// PathFor returns the cache directory of pkg below cacheRoot. It performs no I/O.
	PathFor(cacheRoot string, pkg domain.ResolvedPackage) string
	// Exists reports whether path is present on disk.
	Exists(path string) bool
	// Populate fills the cache entry of pkg with fill unless it already exists.
	// Concurrent calls for one entry run fill once and share its result.
	Populate(ctx context.Context, cacheRoot string, pkg domain.ResolvedPackage, fill func(dir string) error) (string, error)
	// Remove deletes every cached version of name and returns the removed entry names.
	Remove(cacheRoot, name string) ([]string, error)
	// Entries lists the cache entry names.
	Entries(cacheRoot string) ([]string, error)
	// Clear removes every cache entry.
	Clear(cacheRoot string) error
}

// Linker materializes cache entries into a project's node_modules.
type Linker interface {
	// Link replaces the slot of the package name below projectRoot with a link
	// to cacheDir. It returns the slot path.
	Link(cacheDir, projectRoot, name string) (string, error)
	// Unlink removes the slot of name. It reports false when there was nothing to remove.
	Unlink(projectRoot, name string) (bool, error)
	// Status reports whether the slot of name is installed, missing or broken.
	Status(projectRoot, name string) domain.InstallStatus
}
