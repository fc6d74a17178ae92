package ports

import "go.trai.ch/qpm/internal/core/domain"

//go:generate mockgen -source=project.go -destination=mocks/mock_project.go -package=mocks

// ProjectStore opens the manifest and lockfile of a project.
type ProjectStore interface {
	// Open loads package.json and package-lock.json from root.
	// A missing lockfile is replaced by the default document.
	Open(root string) (ProjectSession, error)
	// ReadManifest loads the package.json at path.
	ReadManifest(path string) (*domain.Manifest, error)
	// Init writes a bare package.json and the default lockfile when they are missing.
	Init(root string, manifest *domain.Manifest) error
}

// ProjectSession is the single owner of a project's manifest and lockfile
// during one operation. All methods are safe for concurrent use.
type ProjectSession interface {
	// Manifest returns a snapshot of the manifest.
	Manifest() *domain.Manifest
	// AddDependency inserts or overwrites name in dependencies.
	AddDependency(name, version string) error
	// RemoveDependency deletes name from dependencies and devDependencies.
	RemoveDependency(name string) (bool, error)
	// UpsertLock inserts or overwrites the lock entry of name.
	UpsertLock(name string, entry domain.LockEntry)
	// LockEntry returns the lock entry of name.
	LockEntry(name string) (domain.LockEntry, bool)
	// RemoveLock deletes the lock entry of name.
	RemoveLock(name string) bool
	// Flush writes every changed document back to disk.
	Flush() error
}
