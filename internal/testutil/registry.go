package testutil

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/mod/semver"
)

// Registry is an in-memory npm registry served over HTTP.
type Registry struct {
	server   *httptest.Server
	mu       sync.RWMutex
	packages map[string]map[string]*release
	failing  map[string]int
	requests atomic.Int64
	tarballs atomic.Int64
}

type release struct {
	name         string
	version      string
	dependencies map[string]string
	tarball      []byte
}

// NewRegistry starts a fake registry that is closed with the test.
func NewRegistry(t testing.TB) *Registry {
	t.Helper()

	reg := &Registry{
		packages: map[string]map[string]*release{},
		failing:  map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(reg.count)
	r.Get("/-/tarballs/{file}", reg.serveTarball)
	r.Get("/{name}/{version}", reg.serveVersion)
	r.Get("/{name}", reg.servePackument)

	reg.server = httptest.NewServer(r)
	t.Cleanup(reg.server.Close)
	return reg
}

// URL is the registry base URL.
func (r *Registry) URL() string {
	return r.server.URL
}

// Client returns an HTTP client bound to the server.
func (r *Registry) Client() *http.Client {
	return r.server.Client()
}

// Requests is the number of HTTP requests served so far.
func (r *Registry) Requests() int64 {
	return r.requests.Load()
}

// TarballDownloads is the number of tarball requests served so far.
func (r *Registry) TarballDownloads() int64 {
	return r.tarballs.Load()
}

// Publish adds name@version with the given dependencies. The tarball wraps a
// package.json and files under "package/".
func (r *Registry) Publish(t testing.TB, name, version string, deps map[string]string, files map[string]string) {
	t.Helper()

	manifest := map[string]any{"name": name, "version": version}
	if len(deps) > 0 {
		manifest["dependencies"] = deps
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}

	entries := []Entry{{Name: "package/package.json", Body: string(raw)}}
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		entries = append(entries, Entry{Name: "package/" + n, Body: files[n]})
	}

	r.PublishTarball(name, version, deps, Tarball(t, entries...))
}

// PublishTarball adds name@version served with a prebuilt tarball.
func (r *Registry) PublishTarball(name, version string, deps map[string]string, tarball []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.packages[name] == nil {
		r.packages[name] = map[string]*release{}
	}
	r.packages[name][version] = &release{
		name:         name,
		version:      version,
		dependencies: maps.Clone(deps),
		tarball:      tarball,
	}
}

// FailNext makes the next n metadata requests for name answer 500.
func (r *Registry) FailNext(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[name] = n
}

// TarballURL is the URL the registry advertises for name@version.
func (r *Registry) TarballURL(name, version string) string {
	return r.server.URL + "/-/tarballs/" + url.PathEscape(name+"-"+version+".tgz")
}

func (r *Registry) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.requests.Add(1)
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) failure(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[name] > 0 {
		r.failing[name]--
		return true
	}
	return false
}

func (r *Registry) servePackument(w http.ResponseWriter, req *http.Request) {
	name := param(req, "name")
	if r.failure(name) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}

	r.mu.RLock()
	releases, ok := r.packages[name]
	if !ok {
		r.mu.RUnlock()
		http.NotFound(w, req)
		return
	}

	versions := map[string]any{}
	latest := ""
	for v, rel := range releases {
		versions[v] = r.versionDoc(rel)
		if latest == "" || semver.Compare("v"+v, "v"+latest) > 0 {
			latest = v
		}
	}
	r.mu.RUnlock()

	writeJSON(w, map[string]any{
		"name":     name,
		"distTags": map[string]string{"latest": latest},
		"versions": versions,
	})
}

func (r *Registry) serveVersion(w http.ResponseWriter, req *http.Request) {
	name := param(req, "name")
	if r.failure(name) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}

	r.mu.RLock()
	rel, ok := r.packages[name][param(req, "version")]
	r.mu.RUnlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, r.versionDoc(rel))
}

func (r *Registry) serveTarball(w http.ResponseWriter, req *http.Request) {
	r.tarballs.Add(1)
	file := strings.TrimSuffix(param(req, "file"), ".tgz")

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, releases := range r.packages {
		for version, rel := range releases {
			if name+"-"+version == file {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write(rel.tarball)
				return
			}
		}
	}
	http.NotFound(w, req)
}

func (r *Registry) versionDoc(rel *release) map[string]any {
	doc := map[string]any{
		"name":    rel.name,
		"version": rel.version,
		"dist":    map[string]string{"tarball": r.TarballURL(rel.name, rel.version)},
	}
	if len(rel.dependencies) > 0 {
		doc["dependencies"] = rel.dependencies
	}
	return doc
}

// param returns the unescaped route parameter; scoped names arrive as @scope%2Fname.
func param(req *http.Request, key string) string {
	raw := chi.URLParam(req, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}
