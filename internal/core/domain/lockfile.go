package domain

import (
	"bytes"
	"encoding/json"

	"go.trai.ch/zerr"
)

const (
	// LockfileVersion is the lockfileVersion written to new lockfiles.
	LockfileVersion = 3

	// DefaultProjectVersion is the version given to a project without one.
	DefaultProjectVersion = "1.0.0"
)

// Lockfile is a package-lock.json document.
type Lockfile struct {
	Name            string               `json:"name"`
	Version         string               `json:"version"`
	LockfileVersion int                  `json:"lockfileVersion"`
	Requires        bool                 `json:"requires"`
	Dependencies    map[string]LockEntry `json:"dependencies"`
}

// LockEntry records one installed package.
// Dependencies holds the package's own declared dependencies, name to selector.
type LockEntry struct {
	Version      string            `json:"version"`
	Resolved     string            `json:"resolved"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewLockfile returns the default lock document for a project.
func NewLockfile(projectName string) *Lockfile {
	return &Lockfile{
		Name:            projectName,
		Version:         DefaultProjectVersion,
		LockfileVersion: LockfileVersion,
		Requires:        true,
		Dependencies:    map[string]LockEntry{},
	}
}

// ParseLockfile decodes a package-lock.json document.
func ParseLockfile(data []byte) (*Lockfile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrManifestNotObject
	}
	var lock Lockfile
	if err := json.Unmarshal(trimmed, &lock); err != nil {
		return nil, zerr.With(zerr.Wrap(ErrManifestNotObject, "malformed lockfile"), "cause", err.Error())
	}
	if lock.Dependencies == nil {
		lock.Dependencies = map[string]LockEntry{}
	}
	return &lock, nil
}

// Upsert inserts or overwrites the entry for name.
func (l *Lockfile) Upsert(name string, entry LockEntry) {
	if entry.Dependencies == nil {
		entry.Dependencies = map[string]string{}
	}
	if l.Dependencies == nil {
		l.Dependencies = map[string]LockEntry{}
	}
	l.Dependencies[name] = entry
}

// Remove deletes the entry for name and reports whether it existed.
func (l *Lockfile) Remove(name string) bool {
	if _, ok := l.Dependencies[name]; !ok {
		return false
	}
	delete(l.Dependencies, name)
	return true
}

// Marshal renders the lockfile with two-space indentation and a trailing newline.
func (l *Lockfile) Marshal() ([]byte, error) {
	return marshalDocument(l)
}
