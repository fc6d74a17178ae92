package domain

import (
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// LatestTag is the dist-tag resolved when no exact version is requested.
const LatestTag = "latest"

// SelectorKind tells the registry client which endpoint serves a request.
type SelectorKind uint8

const (
	// SelectorLatest resolves the latest dist-tag.
	SelectorLatest SelectorKind = iota
	// SelectorExact resolves a pinned version through the version endpoint.
	SelectorExact
	// SelectorRange is a semver range. Ranges are not solved and resolve as latest.
	SelectorRange
)

// Selector is the version part of a package request.
type Selector struct {
	Raw  string
	Kind SelectorKind
}

// ParseSelector classifies a raw version selector.
func ParseSelector(raw string) Selector {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == LatestTag:
		return Selector{Raw: raw, Kind: SelectorLatest}
	case IsExactVersion(raw):
		return Selector{Raw: strings.TrimPrefix(raw, "v"), Kind: SelectorExact}
	default:
		return Selector{Raw: raw, Kind: SelectorRange}
	}
}

// Version returns the pinned version for exact selectors and "" otherwise.
func (s Selector) Version() string {
	if s.Kind == SelectorExact {
		return s.Raw
	}
	return ""
}

// IsExactVersion reports whether v is a full semantic version such as 1.2.3 or 1.2.3-beta.1.
func IsExactVersion(v string) bool {
	if v == "" {
		return false
	}
	canonical := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(canonical) {
		return false
	}
	// semver.IsValid accepts the shorthands v1 and v1.2.
	return strings.Count(strings.SplitN(canonical, "-", 2)[0], ".") == 2
}

// PackageRequest is a package name with its requested version selector.
type PackageRequest struct {
	Name     string
	Selector Selector
}

// String renders the request in name@selector form.
func (r PackageRequest) String() string {
	if r.Selector.Raw == "" {
		return r.Name
	}
	return r.Name + "@" + r.Selector.Raw
}

// ParseRequest splits "name@selector" into a PackageRequest.
// A leading "@" belongs to a scoped name, so "@scope/pkg@1.0.0" yields
// name "@scope/pkg" and selector "1.0.0".
func ParseRequest(input string) (PackageRequest, error) {
	input = strings.TrimSpace(input)
	name, selector := input, ""
	if i := strings.LastIndex(input, "@"); i > 0 {
		name, selector = input[:i], input[i+1:]
	}
	if err := validateName(name); err != nil {
		return PackageRequest{}, zerr.With(err, "input", input)
	}
	return PackageRequest{Name: name, Selector: ParseSelector(selector)}, nil
}

// NewRequest builds a request from a name and a raw selector, as found in a manifest.
func NewRequest(name, selector string) (PackageRequest, error) {
	if err := validateName(name); err != nil {
		return PackageRequest{}, zerr.With(err, "name", name)
	}
	return PackageRequest{Name: name, Selector: ParseSelector(selector)}, nil
}

func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") ||
		strings.ContainsAny(name, "\\ ") {
		return zerr.Wrap(ErrInvalidPackageName, "bad name")
	}
	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := strings.Cut(name[1:], "/")
		if !ok || scope == "" || pkg == "" || strings.Contains(pkg, "/") {
			return zerr.Wrap(ErrInvalidPackageName, "bad scoped name")
		}
		return nil
	}
	if strings.Contains(name, "/") {
		return zerr.Wrap(ErrInvalidPackageName, "unscoped name contains a slash")
	}
	return nil
}

// ResolvedPackage is the immutable result of resolving a request against the registry.
type ResolvedPackage struct {
	Name       string
	Version    string
	TarballURL string
}

// EntryName is the canonical cache directory name, "<name>-<version>".
func (p ResolvedPackage) EntryName() string {
	return CacheEntryName(p.Name, p.Version)
}

// CacheEntryName joins a package name and version into a cache directory name.
func CacheEntryName(name, version string) string {
	return name + "-" + version
}

// SlotName trims the version suffix from a cache entry name, yielding the
// project-local directory name. It cuts at the first "-" followed by a valid
// semantic version so that prerelease suffixes stay with the version, and
// falls back to the last "-".
func SlotName(entryName string) string {
	for i := 0; i < len(entryName); i++ {
		if entryName[i] != '-' || i == 0 {
			continue
		}
		if IsExactVersion(entryName[i+1:]) {
			return entryName[:i]
		}
	}
	if i := strings.LastIndex(entryName, "-"); i > 0 {
		return entryName[:i]
	}
	return entryName
}

// SplitEntryName splits a cache entry name into package name and version.
func SplitEntryName(entryName string) (name, version string) {
	name = SlotName(entryName)
	if name == entryName {
		return name, ""
	}
	return name, entryName[len(name)+1:]
}
