package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Extractor implements ports.Extractor for gzip-compressed tar streams.
type Extractor struct{}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks r below dest. Only regular files and directories are
// written; symlinks, hard links, devices and FIFOs are dropped. The first path
// component of every entry is stripped.
func (e *Extractor) Extract(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return domain.WrapError(domain.KindArchive, err, "failed to open gzip stream")
	}
	defer func() { _ = gz.Close() }()

	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", dest), "failed to create directory")
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return domain.WrapError(domain.KindArchive, err, "failed to read archive entry")
		}

		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}

		rel, ok := stripFirstComponent(hdr.Name)
		if !ok {
			continue
		}

		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}

		if hdr.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", target), "failed to create directory")
			}
			continue
		}

		if err := writeFile(tr, target, hdr.FileInfo().Mode()); err != nil {
			return err
		}
	}
}

// stripFirstComponent drops the archive's wrapping directory. Entries that
// name only that directory report false.
func stripFirstComponent(name string) (string, bool) {
	name = strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/")
	_, rest, found := strings.Cut(name, "/")
	if !found || path.Clean(rest) == "." {
		return "", false
	}
	return rest, true
}

// safeJoin joins rel below dest and rejects results outside dest.
func safeJoin(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	within, err := filepath.Rel(dest, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", &domain.Error{
			Kind: domain.KindArchive,
			Err:  zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, rel), "dest", dest),
		}
	}
	return target, nil
}

func writeFile(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", target), "failed to create directory")
	}

	perm := os.FileMode(domain.FilePerm)
	if mode&0o111 != 0 {
		perm = domain.ExecPerm
	}

	//nolint:gosec // target is checked by safeJoin
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", target), "failed to create file")
	}

	//nolint:gosec // package tarballs are bounded by the registry
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return domain.WrapError(domain.KindArchive, zerr.With(err, "path", target), "failed to extract file")
	}
	if err := f.Close(); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", target), "failed to write file")
	}
	return nil
}
