package manifest

import (
	"errors"
	"maps"
	"sync"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
)

// Session owns a project's manifest and lockfile for one operation. Every
// mutation happens in memory; Flush writes each changed document once.
type Session struct {
	manifestPath string
	lockPath     string

	mu            sync.Mutex
	manifest      *domain.Manifest
	lock          *domain.Lockfile
	manifestDirty bool
	lockDirty     bool
}

var _ ports.ProjectSession = (*Session)(nil)

// Open loads package.json and package-lock.json from root. A missing manifest
// fails with ErrManifestMissing; a missing lockfile starts from the default.
func Open(root string) (*Session, error) {
	project := domain.Project{Root: root}

	m, err := readManifest(project.ManifestPath())
	if err != nil {
		return nil, err
	}
	lock, err := readLockfile(project.LockPath(), projectName(root, m))
	if err != nil {
		return nil, err
	}

	return &Session{
		manifestPath: project.ManifestPath(),
		lockPath:     project.LockPath(),
		manifest:     m,
		lock:         lock,
	}, nil
}

// Manifest returns a copy of the in-memory manifest.
func (s *Session) Manifest() *domain.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest.Clone()
}

// LockEntry returns the lock entry of name.
func (s *Session) LockEntry(name string) (domain.LockEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lock.Dependencies[name]
	if ok {
		entry.Dependencies = maps.Clone(entry.Dependencies)
	}
	return entry, ok
}

// AddDependency inserts or overwrites name in dependencies.
func (s *Session) AddDependency(name, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.manifest.SetDependency(name, version); err != nil {
		return manifestError(err, s.manifestPath, name, "failed to update dependencies")
	}
	s.manifestDirty = true
	return nil
}

// RemoveDependency deletes name from dependencies and devDependencies.
func (s *Session) RemoveDependency(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.manifest.RemoveDependency(name)
	if err != nil {
		return false, manifestError(err, s.manifestPath, name, "failed to update dependencies")
	}
	if removed {
		s.manifestDirty = true
	}
	return removed, nil
}

// UpsertLock inserts or overwrites the lock entry of name.
func (s *Session) UpsertLock(name string, entry domain.LockEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lock.Upsert(name, entry)
	s.lockDirty = true
}

// RemoveLock deletes the lock entry of name.
func (s *Session) RemoveLock(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lock.Remove(name) {
		return false
	}
	s.lockDirty = true
	return true
}

// Flush writes the documents changed since Open or the previous Flush. A
// failed manifest write does not stop the lockfile write; both errors are
// returned and the failed document stays dirty.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	if s.manifestDirty {
		defer lockPath(s.manifestPath)()
		if err := writeManifest(s.manifestPath, s.manifest); err != nil {
			errs = errors.Join(errs, err)
		} else {
			s.manifestDirty = false
		}
	}
	if s.lockDirty {
		defer lockPath(s.lockPath)()
		if err := writeLockfile(s.lockPath, s.lock); err != nil {
			errs = errors.Join(errs, err)
		} else {
			s.lockDirty = false
		}
	}
	return errs
}
