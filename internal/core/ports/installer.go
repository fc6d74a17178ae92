package ports

import (
	"context"

	"go.trai.ch/qpm/internal/core/domain"
)

//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks

// PackageInstaller installs packages into a project and removes them again.
type PackageInstaller interface {
	// Install materializes requests and their dependencies, then records them
	// in the manifest and lockfile.
	Install(ctx context.Context, project domain.Project, requests []domain.PackageRequest) error
	// Remove deletes the local slots and strips names from the manifest and lockfile.
	Remove(ctx context.Context, project domain.Project, names []string) error
	// Uninstall is Remove followed by deleting the cached versions of names.
	Uninstall(ctx context.Context, project domain.Project, names []string) error
}
