package judge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// installedSentinel marks a package version directory as fully installed;
// its absence means an install is in progress or was interrupted.
const installedSentinel = ".piston-installed"

// pkgMetadata is the optional per-version metadata file
// (<pkgdir>/pkg-info.json) carrying aliases and environment variables —
// the registry has no other source for data spec §3 requires on Runtime
// beyond what's derivable from the directory layout itself (language,
// version, pkgdir, compiled).
type pkgMetadata struct {
	Aliases []string          `json:"aliases"`
	EnvVars map[string]string `json:"env_vars"`
}

// Registry enumerates installed language packages, spec §4.A. Discovery
// itself (what the HTTP/package-manager layer triggers) is out of scope
// per spec §1; Registry only implements the read side the core consumes.
type Registry struct {
	logger hclog.Logger

	mu       sync.RWMutex
	dataDir  string
	runtimes []*Runtime
}

// NewRegistry scans dataDir/packages/<language>/<version> once at
// construction time. Callers that need live updates call Rescan.
func NewRegistry(dataDir string, logger hclog.Logger) (*Registry, error) {
	r := &Registry{
		logger:  logger.Named("registry"),
		dataDir: dataDir,
	}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rescan re-walks the packages directory and replaces the in-memory
// runtime list atomically.
func (r *Registry) Rescan() error {
	root := filepath.Join(r.dataDir, "packages")
	languages, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		r.mu.Lock()
		r.runtimes = nil
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var runtimes []*Runtime
	for _, lang := range languages {
		if !lang.IsDir() {
			continue
		}
		langDir := filepath.Join(root, lang.Name())
		versions, err := os.ReadDir(langDir)
		if err != nil {
			r.logger.Warn("failed to read language directory", "language", lang.Name(), "error", err)
			continue
		}
		for _, ver := range versions {
			if !ver.IsDir() {
				continue
			}
			pkgDir := filepath.Join(langDir, ver.Name())
			if _, err := os.Stat(filepath.Join(pkgDir, installedSentinel)); err != nil {
				continue
			}
			rt := &Runtime{
				Language: lang.Name(),
				Version:  ver.Name(),
				PkgDir:   pkgDir,
				EnvVars:  map[string]string{},
			}
			if _, err := os.Stat(filepath.Join(pkgDir, "compile")); err == nil {
				rt.Compiled = true
			}
			if meta, err := readPkgMetadata(pkgDir); err == nil {
				rt.Aliases = meta.Aliases
				rt.EnvVars = meta.EnvVars
			}
			runtimes = append(runtimes, rt)
		}
	}

	r.mu.Lock()
	r.runtimes = runtimes
	r.mu.Unlock()
	r.logger.Debug("rescanned runtime packages", "count", len(runtimes))
	return nil
}

func readPkgMetadata(pkgDir string) (pkgMetadata, error) {
	var meta pkgMetadata
	b, err := os.ReadFile(filepath.Join(pkgDir, "pkg-info.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// All returns every installed runtime.
func (r *Registry) All() []*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Runtime, len(r.runtimes))
	copy(out, r.runtimes)
	return out
}

// Lookup finds a runtime by exact (language, version), or by alias when
// version is empty.
func (r *Registry) Lookup(language, version string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.runtimes {
		if version != "" {
			if rt.Language == language && rt.Version == version {
				return rt, true
			}
			continue
		}
		if rt.HasAlias(language) {
			return rt, true
		}
	}
	return nil, false
}

// LookupAlias finds the runtime any alias string resolves to.
func (r *Registry) LookupAlias(alias string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.runtimes {
		if rt.HasAlias(alias) {
			return rt, true
		}
	}
	return nil, false
}
