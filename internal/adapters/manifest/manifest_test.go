package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/manifest"
	"go.trai.ch/qpm/internal/core/domain"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), domain.FilePerm))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestSession_FlushWritesBothDocuments(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{"name":"demo","private":true,"scripts":{"test":"node test.js && echo <ok>"}}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)

	require.NoError(t, session.AddDependency("left-pad", "1.3.0"))
	require.NoError(t, session.AddDependency("is-odd", "3.0.1"))
	session.UpsertLock("left-pad", domain.LockEntry{
		Version:  "1.3.0",
		Resolved: "https://registry.test/-/tarballs/left-pad-1.3.0.tgz",
	})
	session.UpsertLock("is-odd", domain.LockEntry{
		Version:      "3.0.1",
		Resolved:     "https://registry.test/-/tarballs/is-odd-3.0.1.tgz",
		Dependencies: map[string]string{"is-number": "^6.0.0"},
	})

	_, err = os.Stat(project.LockPath())
	require.True(t, errors.Is(err, os.ErrNotExist), "nothing is written before Flush")

	require.NoError(t, session.Flush())

	g := goldie.New(t)
	g.Assert(t, "session_manifest", readFile(t, project.ManifestPath()))
	g.Assert(t, "session_lockfile", readFile(t, project.LockPath()))
}

func TestSession_OverwriteNeverDuplicates(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)
	require.NoError(t, session.AddDependency("a", "1.0.0"))
	require.NoError(t, session.AddDependency("a", "2.0.0"))
	session.UpsertLock("a", domain.LockEntry{Version: "1.0.0"})
	session.UpsertLock("a", domain.LockEntry{Version: "2.0.0"})
	require.NoError(t, session.Flush())

	m, err := manifest.NewStore().ReadManifest(project.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2.0.0"}, m.Dependencies())

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	require.Len(t, lock.Dependencies, 1)
	assert.Equal(t, "2.0.0", lock.Dependencies["a"].Version)
}

func TestSession_DefaultLockfileNamedAfterFolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "my-app")
	require.NoError(t, os.MkdirAll(root, domain.DirPerm))
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)
	session.UpsertLock("x", domain.LockEntry{Version: "1.0.0"})
	require.NoError(t, session.Flush())

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Equal(t, "my-app", lock.Name)
	assert.Equal(t, domain.DefaultProjectVersion, lock.Version)
	assert.Equal(t, domain.LockfileVersion, lock.LockfileVersion)
	assert.True(t, lock.Requires)
}

func TestSession_Remove(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{"dependencies":{"a":"1.0.0","b":"1.0.0"},"devDependencies":{"a":"1.0.0"}}`)
	writeFile(t, project.LockPath(), `{"name":"p","version":"1.0.0","lockfileVersion":3,"requires":true,"dependencies":{"a":{"version":"1.0.0","resolved":"u","dependencies":{}}}}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)

	entry, ok := session.LockEntry("a")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", entry.Version)

	removed, err := session.RemoveDependency("a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, session.RemoveLock("a"))

	removed, err = session.RemoveDependency("ghost")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, session.RemoveLock("ghost"))

	require.NoError(t, session.Flush())

	m, err := manifest.NewStore().ReadManifest(project.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "1.0.0"}, m.Dependencies())
	assert.Empty(t, m.DevDependencies())

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Empty(t, lock.Dependencies)
}

func TestSession_FlushSkipsUnchangedDocuments(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	original := "{\"name\":   \"untouched\"}"
	writeFile(t, project.ManifestPath(), original)

	session, err := manifest.Open(root)
	require.NoError(t, err)
	session.UpsertLock("x", domain.LockEntry{Version: "1.0.0"})
	require.NoError(t, session.Flush())

	assert.Equal(t, original, string(readFile(t, project.ManifestPath())))
	assert.FileExists(t, project.LockPath())
}

func TestSession_FlushWritesLockfileWhenManifestFails(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{"name":"demo"}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)
	require.NoError(t, session.AddDependency("left-pad", "1.3.0"))
	session.UpsertLock("left-pad", domain.LockEntry{Version: "1.3.0"})

	// A directory in place of package.json makes the manifest rename fail.
	require.NoError(t, os.Remove(project.ManifestPath()))
	require.NoError(t, os.MkdirAll(filepath.Join(project.ManifestPath(), "blocker"), domain.DirPerm))

	err = session.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFilesystem))

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", lock.Dependencies["left-pad"].Version)

	require.NoError(t, os.RemoveAll(project.ManifestPath()))
	require.NoError(t, session.Flush(), "the manifest stays pending after a failed write")
	m, err := domain.ParseManifest(readFile(t, project.ManifestPath()))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", m.Dependencies()["left-pad"])
}

func TestSession_ConcurrentMutations(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{}`)

	session, err := manifest.Open(root)
	require.NoError(t, err)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, session.AddDependency(name, "1.0.0"))
			session.UpsertLock(name, domain.LockEntry{Version: "1.0.0"})
		}()
	}
	wg.Wait()
	require.NoError(t, session.Flush())

	m, err := manifest.NewStore().ReadManifest(project.ManifestPath())
	require.NoError(t, err)
	assert.Len(t, m.Dependencies(), len(names))

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Len(t, lock.Dependencies, len(names))
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		_, err := manifest.Open(t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrManifest))
		assert.True(t, errors.Is(err, domain.ErrManifestMissing))
	})

	for name, body := range map[string]string{
		"array":   `[]`,
		"string":  `"x"`,
		"invalid": `{"name":`,
	} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, domain.Project{Root: root}.ManifestPath(), body)

			_, err := manifest.Open(root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrManifest))
			assert.True(t, errors.Is(err, domain.ErrManifestNotObject))
		})
	}

	t.Run("malformed lockfile", func(t *testing.T) {
		root := t.TempDir()
		project := domain.Project{Root: root}
		writeFile(t, project.ManifestPath(), `{}`)
		writeFile(t, project.LockPath(), `{"dependencies": 3}`)

		_, err := manifest.Open(root)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrManifest))
	})
}

func TestStandaloneMutations(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	writeFile(t, project.ManifestPath(), `{"name":"solo"}`)

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manifest.AddDependency(project.ManifestPath(), name, "1.0.0"))
			assert.NoError(t, manifest.UpsertLock(project.LockPath(), name, domain.LockEntry{Version: "1.0.0"}))
		}()
	}
	wg.Wait()

	m, err := manifest.NewStore().ReadManifest(project.ManifestPath())
	require.NoError(t, err)
	assert.Len(t, m.Dependencies(), 4)
	assert.Equal(t, "solo", m.Name())

	removed, err := manifest.RemoveDependency(project.ManifestPath(), "a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = manifest.RemoveDependency(project.ManifestPath(), "a")
	require.NoError(t, err)
	assert.False(t, removed)

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Len(t, lock.Dependencies, 4)

	err = manifest.AddDependency(filepath.Join(root, "missing.json"), "x", "1.0.0")
	require.Error(t, err)
	assert.Equal(t, "x", domain.PackageOf(err))
}

func TestStore_Init(t *testing.T) {
	root := t.TempDir()
	project := domain.Project{Root: root}
	store := manifest.NewStore()

	require.NoError(t, store.Init(root, nil))
	assert.Equal(t, "{}\n", string(readFile(t, project.ManifestPath())))

	lock, err := domain.ParseLockfile(readFile(t, project.LockPath()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), lock.Name)
	assert.Empty(t, lock.Dependencies)

	// Existing documents are kept.
	writeFile(t, project.ManifestPath(), `{"name":"kept"}`)
	custom := domain.NewManifest()
	require.NoError(t, custom.SetField("name", "other"))
	require.NoError(t, store.Init(root, custom))
	assert.JSONEq(t, `{"name":"kept"}`, string(readFile(t, project.ManifestPath())))
}

func TestStore_InitNamesLockAfterManifest(t *testing.T) {
	root := t.TempDir()
	m := domain.NewManifest()
	require.NoError(t, m.SetField("name", "from-manifest"))

	require.NoError(t, manifest.NewStore().Init(root, m))

	lock, err := domain.ParseLockfile(readFile(t, domain.Project{Root: root}.LockPath()))
	require.NoError(t, err)
	assert.Equal(t, "from-manifest", lock.Name)
}
