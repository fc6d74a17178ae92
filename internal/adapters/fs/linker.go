// Package fs materializes cache entries into a project's node_modules.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Linker implements ports.Linker with directory symlinks.
type Linker struct{}

var _ ports.Linker = (*Linker)(nil)

// NewLinker creates a new Linker.
func NewLinker() *Linker {
	return &Linker{}
}

// Link replaces the slot of the package name with a symlink to cacheDir.
// Whatever occupied the slot before is removed first.
func (l *Linker) Link(cacheDir, projectRoot, name string) (string, error) {
	slot := domain.Project{Root: projectRoot}.SlotPath(name)

	if err := os.RemoveAll(slot); err != nil {
		return "", linkError(err, name, slot, "failed to clear slot")
	}
	if err := os.MkdirAll(filepath.Dir(slot), domain.DirPerm); err != nil {
		return "", linkError(err, name, slot, "failed to create modules directory")
	}

	target, err := filepath.Abs(cacheDir)
	if err != nil {
		return "", linkError(err, name, slot, "failed to resolve cache path")
	}
	if err := os.Symlink(target, slot); err != nil {
		return "", linkError(zerr.With(err, "target", target), name, slot, "failed to create link")
	}
	return slot, nil
}

// Unlink removes the slot of name, whether it is a link or a directory.
func (l *Linker) Unlink(projectRoot, name string) (bool, error) {
	slot := domain.Project{Root: projectRoot}.SlotPath(name)

	if _, err := os.Lstat(slot); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, linkError(err, name, slot, "failed to inspect slot")
	}
	if err := os.RemoveAll(slot); err != nil {
		return false, linkError(err, name, slot, "failed to remove slot")
	}

	// Drop the scope directory once its last package is gone.
	if scope, _, ok := strings.Cut(name, "/"); ok {
		_ = os.Remove(domain.Project{Root: projectRoot}.SlotPath(scope))
	}
	return true, nil
}

// Status reports whether the slot exists and resolves to a directory.
func (l *Linker) Status(projectRoot, name string) domain.InstallStatus {
	slot := domain.Project{Root: projectRoot}.SlotPath(name)

	if _, err := os.Lstat(slot); err != nil {
		return domain.StatusMissing
	}
	info, err := os.Stat(slot)
	if err != nil || !info.IsDir() {
		return domain.StatusBroken
	}
	return domain.StatusInstalled
}

func linkError(err error, name, slot, msg string) error {
	return &domain.Error{
		Kind:    domain.KindFilesystem,
		Package: name,
		Err:     zerr.With(zerr.Wrap(err, msg), "slot", slot),
	}
}
