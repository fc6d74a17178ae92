package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

// Kind classifies a failure at a component boundary.
type Kind uint8

const (
	// KindUnknown is the zero kind for errors that were never classified.
	KindUnknown Kind = iota
	// KindNetwork covers an unreachable registry and failed downloads.
	KindNetwork
	// KindMetadata covers unparseable registry responses and missing tarball URLs.
	KindMetadata
	// KindNotFound is returned when the registry does not know a package or version.
	KindNotFound
	// KindArchive covers corrupt streams and unsafe archive entries.
	KindArchive
	// KindFilesystem covers directory creation, write and link failures.
	KindFilesystem
	// KindManifest covers missing or malformed package.json and package-lock.json.
	KindManifest
)

var (
	// ErrNetwork matches every error of KindNetwork.
	ErrNetwork = zerr.New("network error")

	// ErrMetadata matches every error of KindMetadata.
	ErrMetadata = zerr.New("metadata error")

	// ErrNotFound matches every error of KindNotFound.
	ErrNotFound = zerr.New("package not found")

	// ErrArchive matches every error of KindArchive.
	ErrArchive = zerr.New("archive error")

	// ErrFilesystem matches every error of KindFilesystem.
	ErrFilesystem = zerr.New("filesystem error")

	// ErrManifest matches every error of KindManifest.
	ErrManifest = zerr.New("manifest error")

	// ErrNoDistributionURL is returned when a resolved version carries no tarball URL.
	ErrNoDistributionURL = zerr.New("no distribution url")

	// ErrNoLatestTag is returned when registry metadata has no latest dist-tag.
	ErrNoLatestTag = zerr.New("no latest dist-tag")

	// ErrManifestMissing is returned when package.json does not exist.
	ErrManifestMissing = zerr.New("package.json not found")

	// ErrManifestNotObject is returned when package.json or package-lock.json is not a JSON object.
	ErrManifestNotObject = zerr.New("document is not a JSON object")

	// ErrUnsafeArchivePath is returned when an archive entry resolves outside the destination.
	ErrUnsafeArchivePath = zerr.New("archive entry escapes destination")

	// ErrInvalidPackageName is returned when a request has an empty or malformed name.
	ErrInvalidPackageName = zerr.New("invalid package name")

	// ErrNoPackagesSpecified is returned when add or remove is called without names.
	ErrNoPackagesSpecified = zerr.New("no packages specified")

	// ErrScriptNotFound is returned when package.json has no script with the requested name.
	ErrScriptNotFound = zerr.New("script not found")

	// ErrUnknownSetting is returned when config get/set names an unknown key.
	ErrUnknownSetting = zerr.New("unknown setting")

	// ErrInvalidSetting is returned when a setting value cannot be parsed.
	ErrInvalidSetting = zerr.New("invalid setting value")

	// ErrConfigWriteFailed is returned when the settings file cannot be written.
	ErrConfigWriteFailed = zerr.New("failed to write settings")

	// ErrConfigReadFailed is returned when the settings file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read settings")

	// ErrProjectAlreadyInitialized is returned by init when package.json already exists.
	ErrProjectAlreadyInitialized = zerr.New("package.json already exists")
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindMetadata:
		return "metadata"
	case KindNotFound:
		return "not_found"
	case KindArchive:
		return "archive"
	case KindFilesystem:
		return "filesystem"
	case KindManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindMetadata:
		return ErrMetadata
	case KindNotFound:
		return ErrNotFound
	case KindArchive:
		return ErrArchive
	case KindFilesystem:
		return ErrFilesystem
	case KindManifest:
		return ErrManifest
	default:
		return nil
	}
}

// Error is the tagged error carried across component boundaries.
// It matches the kind sentinel under errors.Is and unwraps to its cause.
type Error struct {
	Kind    Kind
	Package string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message()
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

// Message returns the error text without its cause chain.
func (e *Error) Message() string {
	if e.Package == "" {
		return e.Kind.String() + " error"
	}
	return e.Package + ": " + e.Kind.String() + " error"
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError returns a tagged error with the given kind and message.
func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: zerr.New(msg)}
}

// WrapError tags err with kind and wraps it with msg.
// A nil err yields nil.
func WrapError(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: zerr.Wrap(err, msg)}
}

// WithPackage attaches the offending package name to err.
// An error that already names a package keeps its original name.
func WithPackage(err error, name string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Package != "" {
			return err
		}
		if de == err {
			cp := *de
			cp.Package = name
			return &cp
		}
	}
	return &Error{Kind: KindOf(err), Package: name, Err: err}
}

// KindOf returns the kind of the first tagged error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// PackageOf returns the package named by the first tagged error in err's chain.
func PackageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Package
	}
	return ""
}
