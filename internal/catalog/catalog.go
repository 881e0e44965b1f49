// Package catalog serves drill summaries from a YAML file maintained by the
// drill library.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"planboard/internal/domain"
	"planboard/internal/fswatch"
)

type file struct {
	Drills []domain.DrillSummary `yaml:"drills"`
}

// FileCatalog implements domain.DrillCatalog over a YAML file of the form
//
//	drills:
//	  - id: rondo-4v2
//	    title: Rondo 4v2
//	    durationMinutes: 12
//	    intensity: high
//	    mediaRef: media/rondo.mp4
type FileCatalog struct {
	path string
	log  *slog.Logger

	mu     sync.RWMutex
	drills map[string]domain.DrillSummary
}

// Open loads the catalog at path.
func Open(path string, log *slog.Logger) (*FileCatalog, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &FileCatalog{path: path, log: log, drills: map[string]domain.DrillSummary{}}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the file. On error the previous contents are kept.
func (c *FileCatalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	drills, err := parse(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.drills = drills
	c.mu.Unlock()
	c.log.Info("drill catalog loaded", "path", c.path, "drills", len(drills))
	return nil
}

func parse(raw []byte) (map[string]domain.DrillSummary, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	out := make(map[string]domain.DrillSummary, len(f.Drills))
	for i, d := range f.Drills {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("parse catalog: drill #%d has no id", i+1)
		}
		if _, dup := out[d.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate drill id %q", d.ID)
		}
		if d.DurationMinutes < 0 {
			return nil, fmt.Errorf("parse catalog: drill %q has negative duration", d.ID)
		}
		out[d.ID] = d
	}
	return out, nil
}

func (c *FileCatalog) LookupDrill(id string) (domain.DrillSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drills[id]
	return d, ok
}

// List returns every drill ordered by title, then id.
func (c *FileCatalog) List() []domain.DrillSummary {
	c.mu.RLock()
	out := make([]domain.DrillSummary, 0, len(c.drills))
	for _, d := range c.drills {
		out = append(out, d)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Watch reloads the catalog whenever the file changes.
func (c *FileCatalog) Watch() (*fswatch.Watcher, error) {
	w, err := fswatch.New(func(string) {
		if err := c.Reload(); err != nil {
			c.log.Warn("drill catalog reload failed", "path", c.path, "error", err)
		}
	}, 100*time.Millisecond, c.log)
	if err != nil {
		return nil, err
	}
	if err := w.WatchFile(c.path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
