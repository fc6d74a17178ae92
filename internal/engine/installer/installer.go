// Package installer implements the concurrent, recursive package install and
// its inverse.
package installer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Option configures an Installer.
type Option func(*Installer)

// WithConcurrency caps concurrent fetch and extract work. Zero means unbounded.
func WithConcurrency(n int) Option {
	return func(i *Installer) {
		if n > 0 {
			i.fetchSlots = semaphore.NewWeighted(int64(n))
		}
	}
}

// Installer materializes packages into projects.
type Installer struct {
	registry  ports.Registry
	fetcher   ports.TarballFetcher
	extractor ports.Extractor
	cache     ports.PackageCache
	linker    ports.Linker
	projects  ports.ProjectStore
	logger    ports.Logger
	tracer    ports.Tracer
	metrics   ports.Metrics

	fetchSlots *semaphore.Weighted
}

var _ ports.PackageInstaller = (*Installer)(nil)

// NewInstaller creates a new Installer.
func NewInstaller(
	registry ports.Registry,
	fetcher ports.TarballFetcher,
	extractor ports.Extractor,
	cache ports.PackageCache,
	linker ports.Linker,
	projects ports.ProjectStore,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
	opts ...Option,
) *Installer {
	i := &Installer{
		registry:  registry,
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		linker:    linker,
		projects:  projects,
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install installs every request and, recursively, their dependencies into
// project. Failures never cancel sibling tasks; every task error is returned
// joined. The manifest and lockfile are written once, after all tasks finish.
func (i *Installer) Install(ctx context.Context, project domain.Project, requests []domain.PackageRequest) error {
	if len(requests) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	session, err := i.projects.Open(project.Root)
	if err != nil {
		return err
	}

	r := &run{
		Installer:    i,
		id:           uuid.NewString(),
		project:      project,
		session:      session,
		materialized: make(map[string]struct{}),
	}

	ctx, span := i.tracer.Start(ctx, "install")
	defer span.End()
	span.SetAttribute("run_id", r.id)
	span.SetAttribute("project", project.Root)

	i.logger.Debug("install started", "run_id", r.id, "project", project.Root, "requests", len(requests))

	r.installAll(ctx, requests)

	if err := session.Flush(); err != nil {
		r.fail("", err)
	}

	err = errors.Join(r.errs...)
	span.RecordError(err)
	i.logger.Debug("install finished", "run_id", r.id, "failures", len(r.errs))
	return err
}

// run is the state shared by the tasks of one Install call.
type run struct {
	*Installer

	id      string
	project domain.Project
	session ports.ProjectSession
	flight  singleflight.Group

	mu           sync.Mutex
	materialized map[string]struct{}
	errs         []error
}

type acquired struct {
	pkg  domain.ResolvedPackage
	deps map[string]string
}

// installAll runs one task per request and waits for all of them. Tasks
// report failures through fail, so one failing task never stops its siblings.
func (r *run) installAll(ctx context.Context, requests []domain.PackageRequest) {
	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Go(func() {
			r.install(ctx, req)
		})
	}
	wg.Wait()
}

func (r *run) install(ctx context.Context, req domain.PackageRequest) {
	name := req.Name
	r.transition(name, domain.StateRequested)

	if r.isMaterialized(name) {
		r.logger.Debug("already materialized in this run", "run_id", r.id, "package", name)
		return
	}
	if r.linker.Status(r.project.Root, name) == domain.StatusInstalled {
		r.logger.Debug("already installed", "run_id", r.id, "package", name)
		return
	}

	// Only the task whose closure runs owns the package; concurrent callers
	// for the same name return once the owner has linked it.
	owner := false
	v, err, _ := r.flight.Do(name, func() (any, error) {
		owner = true
		return r.acquire(ctx, req)
	})
	if !owner {
		return
	}
	if err != nil {
		r.transition(name, domain.StateFailed)
		r.fail(name, err)
		return
	}

	res := v.(acquired)
	children := make([]domain.PackageRequest, 0, len(res.deps))
	for depName, selector := range res.deps {
		child, err := domain.NewRequest(depName, selector)
		if err != nil {
			r.fail(depName, domain.WrapError(domain.KindManifest, err, "invalid dependency of "+name))
			continue
		}
		children = append(children, child)
	}

	r.installAll(ctx, children)
	r.transition(name, domain.StateDone)
}

// acquire resolves req, populates the cache entry, links it and records it.
func (r *run) acquire(ctx context.Context, req domain.PackageRequest) (acquired, error) {
	name := req.Name
	ctx, span := r.tracer.Start(ctx, "install "+name)
	defer span.End()
	span.SetAttribute("run_id", r.id)
	span.SetAttribute("selector", req.Selector.Raw)

	r.transition(name, domain.StateResolving)
	if req.Selector.Kind == domain.SelectorRange {
		r.logger.Warn("version ranges are not solved, installing latest", "package", name, "selector", req.Selector.Raw)
	}
	pkg, err := r.registry.Resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return acquired{}, err
	}
	span.SetAttribute("version", pkg.Version)

	dir := r.cache.PathFor(r.project.CacheRoot, pkg)
	if r.cache.Exists(dir) {
		r.transition(name, domain.StateCacheHit)
		span.SetAttribute("cache_hit", true)
		r.metrics.PackageInstalled(true)
	} else {
		r.transition(name, domain.StateDownloading)
		span.SetAttribute("cache_hit", false)
		if dir, err = r.populate(ctx, pkg); err != nil {
			span.RecordError(err)
			return acquired{}, err
		}
		r.metrics.PackageInstalled(false)
	}

	if slot, err := r.linker.Link(dir, r.project.Root, pkg.Name); err != nil {
		r.logger.Warn("failed to link package", "package", name, "error", err.Error())
	} else {
		r.transition(name, domain.StateLinked)
		r.logger.Debug("linked", "run_id", r.id, "package", name, "slot", slot)
	}
	r.markMaterialized(name)

	deps := r.declaredDependencies(dir, name)

	if err := r.session.AddDependency(name, pkg.Version); err != nil {
		span.RecordError(err)
		return acquired{}, err
	}
	r.session.UpsertLock(name, domain.LockEntry{
		Version:      pkg.Version,
		Resolved:     pkg.TarballURL,
		Dependencies: deps,
	})
	r.transition(name, domain.StateManifestRecorded)

	r.transition(name, domain.StateDependenciesDiscovered)
	return acquired{pkg: pkg, deps: deps}, nil
}

// populate downloads and extracts pkg into its cache entry while holding a
// fetch slot.
func (r *run) populate(ctx context.Context, pkg domain.ResolvedPackage) (string, error) {
	if r.fetchSlots != nil {
		if err := r.fetchSlots.Acquire(ctx, 1); err != nil {
			return "", domain.WithPackage(domain.WrapError(domain.KindNetwork, err, "canceled waiting for a fetch slot"), pkg.Name)
		}
		defer r.fetchSlots.Release(1)
	}

	start := time.Now()
	dir, err := r.cache.Populate(ctx, r.project.CacheRoot, pkg, func(staging string) error {
		body, err := r.fetcher.Fetch(ctx, pkg.TarballURL)
		if err != nil {
			return err
		}
		defer func() { _ = body.Close() }()
		return r.extractor.Extract(body, staging)
	})
	r.metrics.ObserveFetch(time.Since(start).Seconds())
	if err != nil {
		return "", domain.WithPackage(err, pkg.Name)
	}
	return dir, nil
}

// declaredDependencies reads the package's own manifest. A missing or
// malformed manifest declares nothing.
func (r *run) declaredDependencies(dir, name string) map[string]string {
	m, err := r.projects.ReadManifest(filepath.Join(dir, domain.ManifestFileName))
	if err != nil {
		r.logger.Debug("no readable package manifest", "run_id", r.id, "package", name, "error", err.Error())
		return map[string]string{}
	}
	return m.Dependencies()
}

func (r *run) isMaterialized(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.materialized[name]
	return ok
}

func (r *run) markMaterialized(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materialized[name] = struct{}{}
}

func (r *run) fail(name string, err error) {
	if name != "" {
		err = domain.WithPackage(err, name)
	}
	r.metrics.InstallFailed(domain.KindOf(err).String())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *run) transition(name string, state domain.TaskState) {
	r.logger.Debug("task state", "run_id", r.id, "package", name, "state", state.String())
}

// Remove deletes the local slot of every name and strips it from the
// manifest and lockfile. Missing slots and manifest keys are not errors.
func (i *Installer) Remove(ctx context.Context, project domain.Project, names []string) error {
	return i.remove(ctx, project, names, false)
}

// Uninstall is Remove followed by deleting every cached version of each name.
func (i *Installer) Uninstall(ctx context.Context, project domain.Project, names []string) error {
	return i.remove(ctx, project, names, true)
}

func (i *Installer) remove(ctx context.Context, project domain.Project, names []string, purge bool) error {
	if len(names) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	_, span := i.tracer.Start(ctx, "remove")
	defer span.End()
	span.SetAttribute("packages", names)

	session, err := i.projects.Open(project.Root)
	if err != nil {
		if !errors.Is(err, domain.ErrManifestMissing) {
			return err
		}
		i.logger.Warn("no manifest found, only removing local packages", "project", project.Root)
		session = nil
	}

	var errs []error
	for _, name := range names {
		unlinked, err := i.linker.Unlink(project.Root, name)
		if err != nil {
			errs = append(errs, err)
		} else if !unlinked {
			i.logger.Debug("package not installed", "package", name)
		}

		if session != nil {
			removed, err := session.RemoveDependency(name)
			switch {
			case err != nil:
				errs = append(errs, err)
			case !removed:
				i.logger.Warn("package not found in manifest", "package", name)
			}
			session.RemoveLock(name)
		}

		if purge {
			entries, err := i.cache.Remove(project.CacheRoot, name)
			if err != nil {
				errs = append(errs, domain.WithPackage(err, name))
			} else if len(entries) > 0 {
				i.logger.Debug("purged cache entries", "package", name, "entries", len(entries))
			}
		}
	}

	if session != nil {
		if err := session.Flush(); err != nil {
			errs = append(errs, err)
		}
	}

	err = errors.Join(errs...)
	span.RecordError(err)
	if err != nil {
		return zerr.Wrap(err, "remove failed")
	}
	return nil
}
