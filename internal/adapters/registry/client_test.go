package registry_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/registry"
	"go.trai.ch/qpm/internal/core/domain"
)

// MockRoundTripper is a helper to mock http.Client behavior.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{RoundTripFunc: handler},
	}
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newClient(t *testing.T, handler func(req *http.Request) (*http.Response, error), opts ...registry.Option) *registry.Client {
	t.Helper()
	opts = append([]registry.Option{
		registry.WithHTTPClient(newMockClient(handler)),
		registry.WithRetry(3, time.Millisecond),
	}, opts...)
	return registry.NewClient("https://registry.test/", opts...)
}

const leftPadPackument = `{
	"name": "left-pad",
	"distTags": {"latest": "1.3.0"},
	"versions": {
		"1.1.0": {"name": "left-pad", "version": "1.1.0", "dist": {"tarball": "https://registry.test/left-pad/-/left-pad-1.1.0.tgz"}},
		"1.3.0": {"name": "left-pad", "version": "1.3.0", "dist": {"tarball": "https://registry.test/left-pad/-/left-pad-1.3.0.tgz"}}
	}
}`

func TestClient_ResolveLatest(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://registry.test/left-pad", req.URL.String())
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		return respond(http.StatusOK, leftPadPackument), nil
	})

	pkg, err := client.ResolveLatest(context.Background(), "left-pad")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolvedPackage{
		Name:       "left-pad",
		Version:    "1.3.0",
		TarballURL: "https://registry.test/left-pad/-/left-pad-1.3.0.tgz",
	}, pkg)
}

func TestClient_ResolveLatest_NPMDistTags(t *testing.T) {
	client := newClient(t, func(_ *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, strings.Replace(leftPadPackument, `"distTags"`, `"dist-tags"`, 1)), nil
	})

	pkg, err := client.ResolveLatest(context.Background(), "left-pad")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", pkg.Version)
}

func TestClient_ResolveVersion(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://registry.test/left-pad/1.1.0", req.URL.String())
		return respond(http.StatusOK,
			`{"name":"left-pad","version":"1.1.0","dist":{"tarball":"https://registry.test/left-pad-1.1.0.tgz"}}`), nil
	})

	pkg, err := client.ResolveVersion(context.Background(), "left-pad", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, "https://registry.test/left-pad-1.1.0.tgz", pkg.TarballURL)
	assert.Equal(t, "1.1.0", pkg.Version)
}

func TestClient_ResolveRoutesBySelector(t *testing.T) {
	var paths []string
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.EscapedPath())
		if strings.HasSuffix(req.URL.Path, "/1.1.0") {
			return respond(http.StatusOK,
				`{"name":"left-pad","version":"1.1.0","dist":{"tarball":"https://registry.test/a.tgz"}}`), nil
		}
		return respond(http.StatusOK, leftPadPackument), nil
	})

	for _, input := range []string{"left-pad", "left-pad@latest", "left-pad@1.1.0", "left-pad@^1.0.0"} {
		req, err := domain.ParseRequest(input)
		require.NoError(t, err)
		_, err = client.Resolve(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"/left-pad", "/left-pad", "/left-pad/1.1.0", "/left-pad"}, paths)
}

func TestClient_ScopedNameIsEscaped(t *testing.T) {
	client := newClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/@types%2Fnode", req.URL.EscapedPath())
		return respond(http.StatusOK, `{
			"dist-tags": {"latest": "20.0.0"},
			"versions": {"20.0.0": {"dist": {"tarball": "https://registry.test/node.tgz"}}}
		}`), nil
	})

	pkg, err := client.ResolveLatest(context.Background(), "@types/node")
	require.NoError(t, err)
	assert.Equal(t, "@types/node", pkg.Name)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantErr  error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantKind: domain.ErrNotFound},
		{name: "bad json", status: http.StatusOK, body: `{not json`, wantKind: domain.ErrMetadata},
		{name: "no latest tag", status: http.StatusOK, body: `{"versions":{}}`, wantKind: domain.ErrMetadata, wantErr: domain.ErrNoLatestTag},
		{
			name:     "no tarball",
			status:   http.StatusOK,
			body:     `{"distTags":{"latest":"1.0.0"},"versions":{"1.0.0":{"dist":{}}}}`,
			wantKind: domain.ErrMetadata,
			wantErr:  domain.ErrNoDistributionURL,
		},
		{name: "forbidden", status: http.StatusForbidden, body: ``, wantKind: domain.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(_ *http.Request) (*http.Response, error) {
				return respond(tt.status, tt.body), nil
			})

			_, err := client.ResolveLatest(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), err.Error())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			}
			assert.Equal(t, "x", domain.PackageOf(err))
		})
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(_ *http.Request) (*http.Response, error) {
		switch calls.Add(1) {
		case 1:
			return nil, errors.New("connection reset")
		case 2:
			return respond(http.StatusBadGateway, ""), nil
		default:
			return respond(http.StatusOK, leftPadPackument), nil
		}
	})

	pkg, err := client.ResolveLatest(context.Background(), "left-pad")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", pkg.Version)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(_ *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})

	_, err := client.ResolveLatest(context.Background(), "left-pad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_CanceledBackoffReportsLastFailure(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(_ *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusServiceUnavailable, ""), nil
	}, registry.WithRetry(3, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ResolveLatest(ctx, "left-pad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "registry returned 503")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(_ *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusNotFound, ""), nil
	})

	_, err := client.ResolveVersion(context.Background(), "ghost", "1.0.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MetadataCache(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	handler := func(_ *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusOK, `{"dist":{"tarball":"https://registry.test/x-1.0.0.tgz"}}`), nil
	}

	first := newClient(t, handler, registry.WithMetadataCache(dir))
	pkg, err := first.ResolveVersion(context.Background(), "x", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "https://registry.test/x-1.0.0.tgz", pkg.TarballURL)

	second := newClient(t, handler, registry.WithMetadataCache(dir))
	pkg, err = second.ResolveVersion(context.Background(), "x", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "https://registry.test/x-1.0.0.tgz", pkg.TarballURL)

	assert.Equal(t, int32(1), calls.Load())

	_, err = second.ResolveVersion(context.Background(), "x", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
