// Package manifest reads and writes package.json and package-lock.json.
package manifest

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/qpm/internal/adapters/fs"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.ProjectStore on the local filesystem.
type Store struct{}

var _ ports.ProjectStore = (*Store)(nil)

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Open loads both documents of the project at root into a Session.
func (s *Store) Open(root string) (ports.ProjectSession, error) {
	session, err := Open(root)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ReadManifest loads the package.json at path.
func (s *Store) ReadManifest(path string) (*domain.Manifest, error) {
	return readManifest(path)
}

// Init writes manifest and the default lockfile below root. Documents that
// already exist are left alone.
func (s *Store) Init(root string, manifest *domain.Manifest) error {
	project := domain.Project{Root: root}

	if !exists(project.ManifestPath()) {
		if manifest == nil {
			manifest = domain.NewManifest()
		}
		if err := writeManifest(project.ManifestPath(), manifest); err != nil {
			return err
		}
	} else {
		existing, err := readManifest(project.ManifestPath())
		if err != nil {
			return err
		}
		manifest = existing
	}

	if exists(project.LockPath()) {
		return nil
	}
	return writeLockfile(project.LockPath(), domain.NewLockfile(projectName(root, manifest)))
}

// locks serializes read-modify-write cycles on one document path.
var locks sync.Map

func lockPath(path string) func() {
	v, _ := locks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// AddDependency records name at version in the package.json at path.
func AddDependency(path, name, version string) error {
	defer lockPath(path)()

	m, err := readManifest(path)
	if err != nil {
		return domain.WithPackage(err, name)
	}
	if err := m.SetDependency(name, version); err != nil {
		return manifestError(err, path, name, "failed to update dependencies")
	}
	return writeManifest(path, m)
}

// RemoveDependency deletes name from the package.json at path.
func RemoveDependency(path, name string) (bool, error) {
	defer lockPath(path)()

	m, err := readManifest(path)
	if err != nil {
		return false, domain.WithPackage(err, name)
	}
	removed, err := m.RemoveDependency(name)
	if err != nil {
		return false, manifestError(err, path, name, "failed to update dependencies")
	}
	if !removed {
		return false, nil
	}
	return true, writeManifest(path, m)
}

// UpsertLock records entry for name in the lockfile at path, creating the
// default document when none exists.
func UpsertLock(path, name string, entry domain.LockEntry) error {
	defer lockPath(path)()

	lock, err := readLockfile(path, filepath.Base(filepath.Dir(path)))
	if err != nil {
		return domain.WithPackage(err, name)
	}
	lock.Upsert(name, entry)
	return writeLockfile(path, lock)
}

func readManifest(path string) (*domain.Manifest, error) {
	//nolint:gosec // path is the project manifest chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, &domain.Error{
				Kind: domain.KindManifest,
				Err:  zerr.With(zerr.Wrap(domain.ErrManifestMissing, "failed to read manifest"), "path", path),
			}
		}
		return nil, manifestError(err, path, "", "failed to read manifest")
	}
	m, err := domain.ParseManifest(data)
	if err != nil {
		return nil, manifestError(err, path, "", "failed to parse manifest")
	}
	return m, nil
}

func writeManifest(path string, m *domain.Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return manifestError(err, path, "", "failed to encode manifest")
	}
	if err := fs.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", path), "failed to write manifest")
	}
	return nil
}

// readLockfile returns the default document when path does not exist.
func readLockfile(path, name string) (*domain.Lockfile, error) {
	//nolint:gosec // path is the project lockfile chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return domain.NewLockfile(name), nil
		}
		return nil, manifestError(err, path, "", "failed to read lockfile")
	}
	lock, err := domain.ParseLockfile(data)
	if err != nil {
		return nil, manifestError(err, path, "", "failed to parse lockfile")
	}
	return lock, nil
}

func writeLockfile(path string, lock *domain.Lockfile) error {
	data, err := lock.Marshal()
	if err != nil {
		return manifestError(err, path, "", "failed to encode lockfile")
	}
	if err := fs.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", path), "failed to write lockfile")
	}
	return nil
}

func manifestError(err error, path, pkg, msg string) error {
	return &domain.Error{
		Kind:    domain.KindManifest,
		Package: pkg,
		Err:     zerr.With(zerr.Wrap(err, msg), "path", path),
	}
}

// projectName is the manifest name, or the project folder when it has none.
func projectName(root string, m *domain.Manifest) string {
	if m != nil && m.Name() != "" {
		return m.Name()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
