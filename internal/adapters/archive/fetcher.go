// Package archive fetches and unpacks package tarballs.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Fetcher implements ports.TarballFetcher over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

var _ ports.TarballFetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher. A nil client means http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{httpClient: client}
}

// Fetch opens the tarball at url and streams its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WrapError(domain.KindNetwork, zerr.With(err, "url", url), "failed to build tarball request")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.KindNetwork, zerr.With(err, "url", url), "failed to download tarball")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &domain.Error{
			Kind: domain.KindNetwork,
			Err:  zerr.With(zerr.New(fmt.Sprintf("tarball download returned %d", resp.StatusCode)), "url", url),
		}
	}

	return resp.Body, nil
}
