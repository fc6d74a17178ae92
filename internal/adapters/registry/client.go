// Package registry implements ports.Registry against an npm-compatible registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
	maxMetadataSize = 64 << 20
)

// packument is the document served at GET /{name}.
type packument struct {
	Name string `json:"name"`
	// DistTags is the documented field name; NPMDistTags is what npmjs.org sends.
	DistTags    map[string]string     `json:"distTags"`
	NPMDistTags map[string]string     `json:"dist-tags"`
	Versions    map[string]versionDoc `json:"versions"`
}

func (p *packument) tag(name string) string {
	if v := p.DistTags[name]; v != "" {
		return v
	}
	return p.NPMDistTags[name]
}

// versionDoc is the document served at GET /{name}/{version}.
type versionDoc struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dist    struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMetadataCache caches exact-version documents below dir.
func WithMetadataCache(dir string) Option {
	return func(cl *Client) {
		if dir != "" {
			cl.cache = &diskCache{dir: dir}
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff for transient failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

// Client implements ports.Registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *diskCache
	attempts   int
	delay      time.Duration
}

var _ ports.Registry = (*Client)(nil)

// NewClient creates a registry client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		attempts:   defaultAttempts,
		delay:      defaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve routes latest and range selectors to ResolveLatest and exact versions to ResolveVersion.
func (c *Client) Resolve(ctx context.Context, req domain.PackageRequest) (domain.ResolvedPackage, error) {
	if req.Selector.Kind == domain.SelectorExact {
		return c.ResolveVersion(ctx, req.Name, req.Selector.Version())
	}
	return c.ResolveLatest(ctx, req.Name)
}

// ResolveLatest reads the latest dist-tag and that version's tarball URL.
func (c *Client) ResolveLatest(ctx context.Context, name string) (domain.ResolvedPackage, error) {
	body, err := c.get(ctx, c.baseURL+"/"+escapeName(name))
	if err != nil {
		return domain.ResolvedPackage{}, domain.WithPackage(err, name)
	}

	var doc packument
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.ResolvedPackage{}, domain.WithPackage(
			domain.WrapError(domain.KindMetadata, err, "failed to decode package metadata"), name)
	}

	latest := doc.tag(domain.LatestTag)
	if latest == "" {
		return domain.ResolvedPackage{}, domain.WithPackage(
			domain.WrapError(domain.KindMetadata, domain.ErrNoLatestTag, "failed to resolve latest"), name)
	}

	version, ok := doc.Versions[latest]
	if !ok || version.Dist.Tarball == "" {
		return domain.ResolvedPackage{}, domain.WithPackage(
			domain.WrapError(domain.KindMetadata, zerr.With(zerr.Wrap(domain.ErrNoDistributionURL, name), "version", latest),
				"failed to resolve latest"), name)
	}

	return domain.ResolvedPackage{Name: name, Version: latest, TarballURL: version.Dist.Tarball}, nil
}

// ResolveVersion queries the version endpoint directly.
func (c *Client) ResolveVersion(ctx context.Context, name, version string) (domain.ResolvedPackage, error) {
	if c.cache != nil {
		if doc, ok := c.cache.load(c.baseURL, name, version); ok {
			return domain.ResolvedPackage{Name: name, Version: version, TarballURL: doc.Dist.Tarball}, nil
		}
	}

	body, err := c.get(ctx, c.baseURL+"/"+escapeName(name)+"/"+url.PathEscape(version))
	if err != nil {
		return domain.ResolvedPackage{}, domain.WithPackage(err, name)
	}

	var doc versionDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.ResolvedPackage{}, domain.WithPackage(
			domain.WrapError(domain.KindMetadata, err, "failed to decode version metadata"), name)
	}
	if doc.Dist.Tarball == "" {
		return domain.ResolvedPackage{}, domain.WithPackage(
			domain.WrapError(domain.KindMetadata, zerr.With(zerr.Wrap(domain.ErrNoDistributionURL, name), "version", version),
				"failed to resolve version"), name)
	}

	if c.cache != nil {
		doc.Name, doc.Version = name, version
		// A failed cache write only costs a request next time.
		_ = c.cache.store(c.baseURL, doc)
	}

	return domain.ResolvedPackage{Name: name, Version: version, TarballURL: doc.Dist.Tarball}, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	err := retry(ctx, c.attempts, c.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return domain.WrapError(domain.KindNetwork, err, "failed to build registry request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return domain.WrapError(domain.KindNetwork, err, "registry request canceled")
			}
			return transient(domain.WrapError(domain.KindNetwork, err, "registry unreachable"))
		}
		defer func() { _ = resp.Body.Close() }()

		if err := statusError(resp.StatusCode, target); err != nil {
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
		if err != nil {
			return transient(domain.WrapError(domain.KindNetwork, err, "failed to read registry response"))
		}
		return nil
	})
	return body, err
}

func statusError(code int, target string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return &domain.Error{
			Kind: domain.KindNotFound,
			Err:  zerr.With(zerr.New("registry returned 404"), "url", target),
		}
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return transient(&domain.Error{
			Kind: domain.KindNetwork,
			Err:  zerr.With(zerr.New(fmt.Sprintf("registry returned %d", code)), "url", target),
		})
	default:
		return &domain.Error{
			Kind: domain.KindNetwork,
			Err:  zerr.With(zerr.New(fmt.Sprintf("registry returned %d", code)), "url", target),
		}
	}
}

// escapeName keeps scoped names in one path segment: @scope/pkg becomes @scope%2Fpkg.
func escapeName(name string) string {
	return url.PathEscape(name)
}
