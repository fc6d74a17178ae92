package domain

import "path/filepath"

const (
	// ModulesDirName is the dependency directory in projects and in the cache root.
	ModulesDirName = "node_modules"

	// BinDirName is the executables directory inside ModulesDirName.
	BinDirName = ".bin"

	// ManifestFileName is the project manifest.
	ManifestFileName = "package.json"

	// LockFileName is the project lockfile.
	LockFileName = "package-lock.json"

	// MetadataDirName holds cached registry metadata inside the cache root.
	MetadataDirName = ".metadata"

	// StagingPrefix prefixes temporary directories used while populating the cache.
	StagingPrefix = ".staging-"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the permission for extracted files with any execute bit (rwxr-xr-x).
	ExecPerm = 0o755
)

// Project is the explicit context of every core operation.
type Project struct {
	// Root is the project directory holding package.json.
	Root string
	// CacheRoot is the shared cache location reused across projects.
	CacheRoot string
}

// ModulesDir returns <root>/node_modules.
func (p Project) ModulesDir() string {
	return filepath.Join(p.Root, ModulesDirName)
}

// SlotPath returns the local slot for a package name.
func (p Project) SlotPath(name string) string {
	return filepath.Join(p.Root, ModulesDirName, filepath.FromSlash(name))
}

// ManifestPath returns <root>/package.json.
func (p Project) ManifestPath() string {
	return filepath.Join(p.Root, ManifestFileName)
}

// LockPath returns <root>/package-lock.json.
func (p Project) LockPath() string {
	return filepath.Join(p.Root, LockFileName)
}

// CacheModulesDir returns <cacheRoot>/node_modules.
func (p Project) CacheModulesDir() string {
	return filepath.Join(p.CacheRoot, ModulesDirName)
}

// MetadataDir returns <cacheRoot>/.metadata.
func (p Project) MetadataDir() string {
	return filepath.Join(p.CacheRoot, MetadataDirName)
}
