package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/qpm/internal/adapters/fs"
	"go.trai.ch/qpm/internal/core/domain"
)

// diskCache stores version documents for exact versions. A published version
// never changes, so entries do not expire.
type diskCache struct {
	dir string
}

func (c *diskCache) path(base, name, version string) string {
	sum := xxhash.Sum64String(base + "\x00" + name + "@" + version)
	return filepath.Join(c.dir, strconv.FormatUint(sum, 16)+".json")
}

func (c *diskCache) load(base, name, version string) (versionDoc, bool) {
	//nolint:gosec // path is built from the cache dir and a hash
	data, err := os.ReadFile(c.path(base, name, version))
	if err != nil {
		return versionDoc{}, false
	}
	var doc versionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return versionDoc{}, false
	}
	if doc.Name != name || doc.Version != version || doc.Dist.Tarball == "" {
		return versionDoc{}, false
	}
	return doc, true
}

func (c *diskCache) store(base string, doc versionDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return fs.WriteFileAtomic(c.path(base, doc.Name, doc.Version), data, domain.FilePerm)
}
