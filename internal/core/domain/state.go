package domain

// TaskState is the lifecycle of one package install task.
type TaskState uint8

const (
	// StateRequested is the initial state.
	StateRequested TaskState = iota
	// StateResolving means the registry is being queried.
	StateResolving
	// StateCacheHit means the cache entry already existed.
	StateCacheHit
	// StateDownloading means the tarball is being fetched and extracted.
	StateDownloading
	// StateLinked means the local slot points at the cache entry.
	StateLinked
	// StateManifestRecorded means manifest and lock carry the package.
	StateManifestRecorded
	// StateDependenciesDiscovered means the nested manifest was read.
	StateDependenciesDiscovered
	// StateDone means the package and all its children completed.
	StateDone
	// StateFailed means a transition failed.
	StateFailed
)

// String returns the state name used in logs and span attributes.
func (s TaskState) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateResolving:
		return "resolving"
	case StateCacheHit:
		return "cache_hit"
	case StateDownloading:
		return "downloading"
	case StateLinked:
		return "linked"
	case StateManifestRecorded:
		return "manifest_recorded"
	case StateDependenciesDiscovered:
		return "dependencies_discovered"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InstallStatus describes a declared dependency as found on disk.
type InstallStatus uint8

const (
	// StatusMissing means no local slot exists.
	StatusMissing InstallStatus = iota
	// StatusInstalled means the slot exists and resolves to a directory.
	StatusInstalled
	// StatusBroken means the slot is a link whose target is gone.
	StatusBroken
)

// String returns the status label printed by list.
func (s InstallStatus) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusBroken:
		return "broken"
	default:
		return "missing"
	}
}

// PackageStatus is one row of the list command.
type PackageStatus struct {
	Name     string
	Selector string
	Version  string
	Status   InstallStatus
}
