// Package app implements the application layer for qpm.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	installer ports.PackageInstaller
	projects  ports.ProjectStore
	cache     ports.PackageCache
	linker    ports.Linker
	runner    ports.ScriptRunner
	settings  ports.SettingsStore
	logger    ports.Logger
	tracer    ports.Tracer
	metrics   ports.Metrics
}

// New creates a new App instance.
func New(
	installer ports.PackageInstaller,
	projects ports.ProjectStore,
	cache ports.PackageCache,
	linker ports.Linker,
	runner ports.ScriptRunner,
	settings ports.SettingsStore,
	log ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *App {
	return &App{
		installer: installer,
		projects:  projects,
		cache:     cache,
		linker:    linker,
		runner:    runner,
		settings:  settings,
		logger:    log,
		tracer:    tracer,
		metrics:   metrics,
	}
}

// Add installs the named packages into the project at dir, creating a bare
// package.json and lockfile first when they are missing.
func (a *App) Add(ctx context.Context, dir string, inputs []string) error {
	if len(inputs) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	requests := make([]domain.PackageRequest, 0, len(inputs))
	var errs []error
	for _, in := range inputs {
		req, err := domain.ParseRequest(in)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		requests = append(requests, req)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	project, err := a.project(dir)
	if err != nil {
		return err
	}
	if err := a.projects.Init(project.Root, nil); err != nil {
		return zerr.Wrap(err, "failed to prepare project")
	}

	if err := a.installer.Install(ctx, project, requests); err != nil {
		return err
	}
	a.logger.Info("packages added", "count", len(requests))
	return nil
}

// Install installs every dependency declared in the project's package.json.
func (a *App) Install(ctx context.Context, dir string) error {
	project, err := a.project(dir)
	if err != nil {
		return err
	}

	m, err := a.projects.ReadManifest(project.ManifestPath())
	if err != nil {
		return err
	}

	declared := m.DeclaredDependencies()
	if len(declared) == 0 {
		a.logger.Info("no dependencies declared")
		return nil
	}

	requests := make([]domain.PackageRequest, 0, len(declared))
	var errs []error
	for _, dep := range declared {
		req, err := domain.NewRequest(dep.Name, dep.Selector)
		if err != nil {
			errs = append(errs, domain.WithPackage(domain.WrapError(domain.KindManifest, err, "invalid dependency"), dep.Name))
			continue
		}
		requests = append(requests, req)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := a.installer.Install(ctx, project, requests); err != nil {
		return err
	}
	a.logger.Info("dependencies installed", "count", len(requests))
	return nil
}

// RemoveOptions configuration for the Remove method.
type RemoveOptions struct {
	// Purge also deletes every cached version of the packages.
	Purge bool
}

// Remove uninstalls the named packages from the project at dir.
func (a *App) Remove(ctx context.Context, dir string, names []string, opts RemoveOptions) error {
	if len(names) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	project, err := a.project(dir)
	if err != nil {
		return err
	}

	if opts.Purge {
		return a.installer.Uninstall(ctx, project, names)
	}
	return a.installer.Remove(ctx, project, names)
}

// List reports the on-disk status of every declared dependency, sorted by name.
func (a *App) List(_ context.Context, dir string) ([]domain.PackageStatus, error) {
	project, err := a.project(dir)
	if err != nil {
		return nil, err
	}

	session, err := a.projects.Open(project.Root)
	if err != nil {
		return nil, err
	}

	declared := session.Manifest().DeclaredDependencies()
	out := make([]domain.PackageStatus, 0, len(declared))
	for _, dep := range declared {
		status := domain.PackageStatus{
			Name:     dep.Name,
			Selector: dep.Selector,
			Status:   a.linker.Status(project.Root, dep.Name),
		}
		if entry, ok := session.LockEntry(dep.Name); ok {
			status.Version = entry.Version
		}
		out = append(out, status)
	}
	return out, nil
}

// CacheEntries lists the packages in the shared cache.
func (a *App) CacheEntries(_ context.Context) ([]string, error) {
	settings, err := a.settings.Load()
	if err != nil {
		return nil, err
	}
	return a.cache.Entries(settings.ProjectAt("").CacheRoot)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// All also removes the package cache.
	All bool
}

// Clean removes the registry metadata cache and, with All, the package cache.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	settings, err := a.settings.Load()
	if err != nil {
		return err
	}
	project := settings.ProjectAt("")

	var errs error

	a.logger.Info("removing metadata cache", "path", project.MetadataDir())
	if err := os.RemoveAll(project.MetadataDir()); err != nil {
		errs = errors.Join(errs, domain.WrapError(domain.KindFilesystem, err, "failed to remove metadata cache"))
	}

	if options.All {
		a.logger.Info("removing package cache", "path", project.CacheModulesDir())
		if err := a.cache.Clear(project.CacheRoot); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

// InitOptions are the package.json fields written by Init.
type InitOptions struct {
	Name        string
	Version     string
	Description string
	Main        string
	Author      string
	License     string
}

// DefaultInitOptions returns the defaults offered for a project in dir.
func DefaultInitOptions(dir string) InitOptions {
	name := filepath.Base(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		name = filepath.Base(abs)
	}
	return InitOptions{
		Name:    name,
		Version: domain.DefaultProjectVersion,
		Main:    "index.js",
		License: "ISC",
	}
}

// Init writes a package.json and the default lockfile into dir. It refuses to
// overwrite an existing package.json and returns the manifest path.
func (a *App) Init(_ context.Context, dir string, opts InitOptions) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve project directory")
	}
	project := domain.Project{Root: root}

	if _, err := os.Stat(project.ManifestPath()); err == nil {
		return "", zerr.With(zerr.Wrap(domain.ErrProjectAlreadyInitialized, "init"), "path", project.ManifestPath())
	}

	m := domain.NewManifest()
	fields := []struct {
		key   string
		value any
	}{
		{"name", opts.Name},
		{"version", opts.Version},
		{"description", opts.Description},
		{"main", opts.Main},
		{"scripts", map[string]string{"test": `echo "Error: no test specified" && exit 1`}},
		{"author", opts.Author},
		{"license", opts.License},
	}
	for _, f := range fields {
		if err := m.SetField(f.key, f.value); err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to build package.json"), "field", f.key)
		}
	}

	if err := a.projects.Init(root, m); err != nil {
		return "", err
	}
	a.logger.Info("project initialized", "path", project.ManifestPath())
	return project.ManifestPath(), nil
}

// RunScript executes scripts[name] from the project's package.json.
func (a *App) RunScript(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve project directory")
	}
	project := domain.Project{Root: root}

	m, err := a.projects.ReadManifest(project.ManifestPath())
	if err != nil {
		return err
	}

	script, ok := m.Scripts()[name]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrScriptNotFound, name), "script", name)
	}

	a.logger.Debug("running script", "script", name, "command", script)
	return a.runner.Run(ctx, root, script, args, stdout, stderr)
}

// Setting is one effective configuration value.
type Setting struct {
	Key   string
	Value string
}

// ConfigList returns every setting in display order.
func (a *App) ConfigList() ([]Setting, error) {
	out := make([]Setting, 0, len(domain.SettingKeys))
	for _, key := range domain.SettingKeys {
		v, err := a.settings.Get(key)
		if err != nil {
			return nil, err
		}
		out = append(out, Setting{Key: key, Value: v})
	}
	return out, nil
}

// ConfigGet returns the effective value of one setting.
func (a *App) ConfigGet(key string) (string, error) {
	return a.settings.Get(key)
}

// ConfigSet persists one setting.
func (a *App) ConfigSet(key, value string) error {
	if err := a.settings.Set(key, value); err != nil {
		return err
	}
	a.logger.Info("setting saved", "key", key, "path", a.settings.Path())
	return nil
}

// Close writes collected metrics and flushes the tracer.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.metrics.Flush(), a.tracer.Shutdown(ctx))
}

func (a *App) project(dir string) (domain.Project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return domain.Project{}, zerr.Wrap(err, "failed to resolve project directory")
	}
	settings, err := a.settings.Load()
	if err != nil {
		return domain.Project{}, err
	}
	return settings.ProjectAt(root), nil
}
