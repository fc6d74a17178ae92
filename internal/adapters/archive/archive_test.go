package archive_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/archive"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/testutil"
)

func TestExtractor_StripsWrappingDirectory(t *testing.T) {
	dest := t.TempDir()
	data := testutil.Tarball(t,
		testutil.Entry{Name: "package/", Typeflag: tar.TypeDir},
		testutil.Entry{Name: "package/package.json", Body: `{"name":"left-pad"}`},
		testutil.Entry{Name: "package/lib/index.js", Body: "module.exports = 1"},
	)

	require.NoError(t, archive.NewExtractor().Extract(bytes.NewReader(data), dest))

	manifest, err := os.ReadFile(filepath.Join(dest, "package.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"left-pad"}`, string(manifest))

	assert.FileExists(t, filepath.Join(dest, "lib", "index.js"))
	assert.NoDirExists(t, filepath.Join(dest, "package"))
}

func TestExtractor_AnyWrapperName(t *testing.T) {
	dest := t.TempDir()
	data := testutil.Tarball(t, testutil.Entry{Name: "node/README.md", Body: "hi"})

	require.NoError(t, archive.NewExtractor().Extract(bytes.NewReader(data), dest))
	assert.FileExists(t, filepath.Join(dest, "README.md"))
}

func TestExtractor_DropsNonRegularEntries(t *testing.T) {
	dest := t.TempDir()
	data := testutil.Tarball(t,
		testutil.Entry{Name: "package/ok.txt", Body: "ok"},
		testutil.Entry{Name: "package/link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"},
		testutil.Entry{Name: "package/hard", Typeflag: tar.TypeLink, Linkname: "package/ok.txt"},
		testutil.Entry{Name: "package/fifo", Typeflag: tar.TypeFifo},
	)

	require.NoError(t, archive.NewExtractor().Extract(bytes.NewReader(data), dest))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok.txt", entries[0].Name())
	assert.True(t, entries[0].Type().IsRegular())
}

func TestExtractor_RejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "dest")
	data := testutil.Tarball(t, testutil.Entry{Name: "package/../../escaped.txt", Body: "x"})

	err := archive.NewExtractor().Extract(bytes.NewReader(data), dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArchive))
	assert.True(t, errors.Is(err, domain.ErrUnsafeArchivePath))
	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
}

func TestExtractor_CreatesParentsWithoutDirEntries(t *testing.T) {
	dest := t.TempDir()
	data := testutil.Tarball(t, testutil.Entry{Name: "package/a/b/c.txt", Body: "deep"})

	require.NoError(t, archive.NewExtractor().Extract(bytes.NewReader(data), dest))

	body, err := os.ReadFile(filepath.Join(dest, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(body))
}

func TestExtractor_NormalizesModes(t *testing.T) {
	dest := t.TempDir()
	data := testutil.Tarball(t,
		testutil.Entry{Name: "package/bin/cli.js", Body: "#!/usr/bin/env node", Mode: 0o777},
		testutil.Entry{Name: "package/data.json", Body: "{}", Mode: 0o600},
	)

	require.NoError(t, archive.NewExtractor().Extract(bytes.NewReader(data), dest))

	info, err := os.Stat(filepath.Join(dest, "bin", "cli.js"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.ExecPerm), info.Mode().Perm()&domain.ExecPerm)
	assert.NotZero(t, info.Mode().Perm()&0o100)

	info, err = os.Stat(filepath.Join(dest, "data.json"))
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o111)
}

func TestExtractor_CorruptStream(t *testing.T) {
	err := archive.NewExtractor().Extract(bytes.NewReader([]byte("not gzip")), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArchive))

	data := testutil.Tarball(t, testutil.Entry{Name: "package/a.txt", Body: "abcdefghij"})
	err = archive.NewExtractor().Extract(bytes.NewReader(data[:len(data)/2]), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArchive))
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.tgz" {
			_, _ = w.Write([]byte("payload"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := archive.NewFetcher(server.Client())

	rc, err := fetcher.Fetch(context.Background(), server.URL+"/ok.tgz")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(body))

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.tgz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
}

func TestFetcher_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := archive.NewFetcher(nil).Fetch(context.Background(), url+"/x.tgz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
}
