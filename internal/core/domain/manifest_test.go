package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/core/domain"
)

func TestParseManifest_RejectsNonObject(t *testing.T) {
	for _, doc := range []string{"", "[]", "\"x\"", "42", "{not json"} {
		_, err := domain.ParseManifest([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, domain.ErrManifestNotObject), doc)
	}
}

func TestManifest_SetDependency(t *testing.T) {
	m, err := domain.ParseManifest([]byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, m.SetDependency("left-pad", "1.3.0"))
	require.NoError(t, m.SetDependency("left-pad", "1.3.1"))

	assert.Equal(t, map[string]string{"left-pad": "1.3.1"}, m.Dependencies())

	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"dependencies\": {\n    \"left-pad\": \"1.3.1\"\n  }\n}\n", string(out))
}

func TestManifest_PreservesUnknownFields(t *testing.T) {
	m, err := domain.ParseManifest([]byte(`{"name":"app","private":true,"scripts":{"test":"echo ok"}}`))
	require.NoError(t, err)

	require.NoError(t, m.SetDependency("x", "1.0.0"))

	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"private": true`)
	assert.Equal(t, "app", m.Name())
	assert.Equal(t, map[string]string{"test": "echo ok"}, m.Scripts())
}

func TestManifest_RemoveDependency(t *testing.T) {
	m, err := domain.ParseManifest([]byte(`{
		"dependencies": {"x": "1.0.0", "y": "2.0.0"},
		"devDependencies": {"x": "1.0.0", "z": "3.0.0"}
	}`))
	require.NoError(t, err)

	removed, err := m.RemoveDependency("x")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, map[string]string{"y": "2.0.0"}, m.Dependencies())
	assert.Equal(t, map[string]string{"z": "3.0.0"}, m.DevDependencies())

	removed, err = m.RemoveDependency("never-installed")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestManifest_DeclaredDependencies(t *testing.T) {
	m, err := domain.ParseManifest([]byte(`{
		"dependencies": {"b": "^1.0.0", "shared": "1.0.0"},
		"devDependencies": {"a": "2.0.0", "shared": "0.9.0"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []domain.Dependency{
		{Name: "a", Selector: "2.0.0"},
		{Name: "b", Selector: "^1.0.0"},
		{Name: "shared", Selector: "1.0.0"},
	}, m.DeclaredDependencies())
}

func TestLockfile_Upsert(t *testing.T) {
	lock := domain.NewLockfile("app")
	lock.Upsert("x", domain.LockEntry{Version: "1.0.0", Resolved: "https://r/x-1.0.0.tgz"})
	lock.Upsert("x", domain.LockEntry{Version: "1.0.1", Resolved: "https://r/x-1.0.1.tgz"})

	require.Len(t, lock.Dependencies, 1)
	assert.Equal(t, "1.0.1", lock.Dependencies["x"].Version)
	assert.NotNil(t, lock.Dependencies["x"].Dependencies)
	assert.Equal(t, 3, lock.LockfileVersion)
	assert.True(t, lock.Requires)

	assert.True(t, lock.Remove("x"))
	assert.False(t, lock.Remove("x"))
}

func TestParseLockfile(t *testing.T) {
	lock, err := domain.ParseLockfile([]byte(`{"name":"app","version":"1.0.0","lockfileVersion":3,"requires":true}`))
	require.NoError(t, err)
	assert.NotNil(t, lock.Dependencies)
	assert.Equal(t, "app", lock.Name)

	_, err = domain.ParseLockfile([]byte(`[]`))
	require.Error(t, err)
}
