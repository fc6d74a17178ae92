// Package cas implements the shared package cache: one immutable directory per
// resolved name and version, reused by every project on the machine.
package cas

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Store implements ports.PackageCache below <cacheRoot>/node_modules.
type Store struct {
	group singleflight.Group
}

var _ ports.PackageCache = (*Store)(nil)

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Dir returns the directory holding the cache entries of cacheRoot.
func (s *Store) Dir(cacheRoot string) string {
	return domain.Project{CacheRoot: filepath.Clean(cacheRoot)}.CacheModulesDir()
}

// PathFor returns <cacheRoot>/node_modules/<name>-<version>. Scoped names nest
// one level below their scope directory.
func (s *Store) PathFor(cacheRoot string, pkg domain.ResolvedPackage) string {
	return filepath.Join(s.Dir(cacheRoot), filepath.FromSlash(pkg.EntryName()))
}

// Exists reports whether path is an existing directory.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Populate runs fill against a staging directory and renames it into place.
// An entry that already exists is returned untouched; when another process
// wins the rename, its entry is kept and the staging copy is discarded.
func (s *Store) Populate(ctx context.Context, cacheRoot string, pkg domain.ResolvedPackage, fill func(dir string) error) (string, error) {
	target := s.PathFor(cacheRoot, pkg)

	v, err, _ := s.group.Do(target, func() (any, error) {
		if s.Exists(target) {
			return target, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		parent := filepath.Dir(target)
		if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
			return "", domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", parent), "failed to create cache directory")
		}

		staging, err := os.MkdirTemp(parent, domain.StagingPrefix+"*")
		if err != nil {
			return "", domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", parent), "failed to create staging directory")
		}

		if err := fill(staging); err != nil {
			_ = os.RemoveAll(staging)
			return "", err
		}

		if err := os.Rename(staging, target); err != nil {
			_ = os.RemoveAll(staging)
			if s.Exists(target) {
				return target, nil
			}
			return "", domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", target), "failed to commit cache entry")
		}
		return target, nil
	})
	if err != nil {
		return "", domain.WithPackage(err, pkg.Name)
	}
	return v.(string), nil
}

// Remove deletes every cached version of name. An entry belongs to name when
// it is "<name>-<version>" and its package.json, if readable, names the same
// package; "abc-1.0.0-1.0.0" is never taken for a version of "abc" when it
// holds "abc-1.0.0".
func (s *Store) Remove(cacheRoot, name string) ([]string, error) {
	entries, err := s.Entries(cacheRoot)
	if err != nil {
		return nil, err
	}

	dir := s.Dir(cacheRoot)
	var removed []string
	for _, entry := range entries {
		path := filepath.Join(dir, filepath.FromSlash(entry))
		if !holds(path, entry, name) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", path), "failed to remove cache entry")
		}
		removed = append(removed, entry)
	}
	return removed, nil
}

// Entries lists the cache entry names in sorted order. Scoped entries are
// reported as "@scope/<name>-<version>"; staging directories are skipped.
func (s *Store) Entries(cacheRoot string) ([]string, error) {
	dir := s.Dir(cacheRoot)
	top, err := readDirs(dir)
	if err != nil {
		return nil, err
	}

	var entries []string
	for _, name := range top {
		if !strings.HasPrefix(name, "@") {
			entries = append(entries, name)
			continue
		}
		scoped, err := readDirs(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, child := range scoped {
			entries = append(entries, name+"/"+child)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// Clear removes the whole cache directory.
func (s *Store) Clear(cacheRoot string) error {
	dir := s.Dir(cacheRoot)
	if err := os.RemoveAll(dir); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", dir), "failed to clear cache")
	}
	return nil
}

func holds(path, entry, name string) bool {
	version, ok := strings.CutPrefix(entry, name+"-")
	if !ok || !domain.IsExactVersion(version) {
		return false
	}
	data, err := os.ReadFile(filepath.Join(path, domain.ManifestFileName))
	if err != nil {
		return true
	}
	m, err := domain.ParseManifest(data)
	if err != nil || m.Name() == "" {
		return true
	}
	return m.Name() == name
}

func readDirs(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", dir), "failed to read cache directory")
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), domain.StagingPrefix) {
			continue
		}
		names = append(names, item.Name())
	}
	return names, nil
}
