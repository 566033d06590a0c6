package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/mmdc"
	"github.com/l3aro/go-sclass/pkg/cache"
	"github.com/l3aro/go-sclass/pkg/collections"
	"github.com/l3aro/go-sclass/pkg/filter"
)

// Status values shared by every component check.
const (
	StatusReady    = "ready"
	StatusWarning  = "warning"
	StatusError    = "error"
	StatusDisabled = "disabled"
)

// ComponentStatus represents the health status of one component.
type ComponentStatus struct {
	Name   string
	Detail string // path, command or summary shown next to the status
	Status string // "ready", "warning", "error", "disabled"
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Config         ComponentStatus
	Collections    ComponentStatus
	Renderer       ComponentStatus
	Cache          ComponentStatus
}

// Components returns the component statuses in display order.
func (r *HealthCheckResult) Components() []ComponentStatus {
	return []ComponentStatus{r.Config, r.Collections, r.Renderer, r.Cache}
}

// Healthy reports whether no component is in error.
func (r *HealthCheckResult) Healthy() bool {
	for _, c := range r.Components() {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	return check(cfg, savedPath, effectivePath, mmdc.New(cfg.RenderTimeout)), nil
}

func check(cfg *config.Config, savedPath, effectivePath string, renderer *mmdc.Renderer) *HealthCheckResult {
	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Config = checkConfig(cfg)
	result.Collections = checkCollections(cfg)
	result.Renderer = checkRenderer(cfg, renderer)
	result.Cache = checkCache(cfg)

	return result
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".sclass")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

func checkConfig(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{
		Name:   "config",
		Detail: fmt.Sprintf("format %s, theme %s", cfg.Output.Format, cfg.Output.Theme),
	}
	if err := cfg.Validate(); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	status.Status = StatusReady
	return status
}

// checkCollections loads the collection tables and reports excluded
// collections nobody defines.
func checkCollections(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "collections", Detail: "built-in"}
	if cfg.CollectionsDir != "" {
		status.Detail = cfg.CollectionsDir
		if info, err := os.Stat(cfg.CollectionsDir); err != nil || !info.IsDir() {
			status.Status = StatusError
			status.Error = fmt.Sprintf("collections directory not found: %s", cfg.CollectionsDir)
			return status
		}
	}

	table, err := collections.Load(cfg.CollectionsDir)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	status.Detail = fmt.Sprintf("%s (%d: %s)", status.Detail, len(table.Names()), strings.Join(table.Names(), ", "))

	policy, err := filter.NewPolicy(cfg.Exclude, table)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	if missing := policy.MissingCollections(); len(missing) > 0 {
		status.Status = StatusWarning
		status.Error = fmt.Sprintf("unknown collections ignored: %s", strings.Join(missing, ", "))
		return status
	}

	status.Status = StatusReady
	return status
}

// checkRenderer looks for the Mermaid CLI launcher. It is only needed for
// formats other than mmd, so a missing launcher is a warning otherwise.
func checkRenderer(cfg *config.Config, renderer *mmdc.Renderer) ComponentStatus {
	status := ComponentStatus{Name: "mmdc", Detail: renderer.Command}

	path, err := renderer.Available()
	if err != nil {
		status.Error = err.Error()
		if cfg.Output.Format == config.FormatMermaid {
			status.Status = StatusWarning
		} else {
			status.Status = StatusError
		}
		return status
	}

	status.Detail = path
	status.Status = StatusReady
	return status
}

func checkCache(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "cache"}
	if cfg.CacheDir == "" {
		status.Status = StatusDisabled
		return status
	}

	path := filepath.Join(cfg.CacheDir, cache.FileName)
	status.Detail = path

	c, err := cache.New(cache.Options{MaxEntries: cfg.CacheSize})
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	if err := cache.LoadFromFile(c, path); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Detail = fmt.Sprintf("%s (%d entries)", path, c.Len())
	status.Status = StatusReady
	return status
}
