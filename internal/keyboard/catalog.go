// Package keyboard loads the ordered collection of daily keyboard sets.
package keyboard

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/perchsync/internal/apperr"
	"github.com/starford/perchsync/internal/metrics"
)

// Set is one keyboard layout the game can show for a day.
type Set struct {
	Name string   `yaml:"name" json:"name"`
	Rows []string `yaml:"rows" json:"rows"`
}

// Validate validates the set.
func (s *Set) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Rows, validation.Required, validation.Each(validation.Required)),
	)
}

type file struct {
	Sets []Set `yaml:"sets"`
}

// Parse decodes and validates a keyboard set file. Order is preserved:
// it is the order the day index selects from.
func Parse(data []byte) ([]Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidKeyboard, err)
	}
	seen := make(map[string]struct{}, len(f.Sets))
	for i := range f.Sets {
		s := &f.Sets[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: set %d: %v", apperr.ErrInvalidKeyboard, i, err)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate set name %q", apperr.ErrInvalidKeyboard, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return f.Sets, nil
}

// Catalog holds the current keyboard sets loaded from a YAML file.
// It is safe for concurrent use.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	sets     []Set
	checksum string
}

// NewCatalog creates an empty catalog backed by path. Call Reload to read it.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	return &Catalog{path: path, logger: logger}
}

// NewStaticCatalog returns a catalog holding sets, not backed by any file.
func NewStaticCatalog(sets []Set) *Catalog {
	return &Catalog{sets: sets, logger: slog.Default()}
}

// Path returns the backing file path.
func (c *Catalog) Path() string { return c.path }

// Sets returns a copy of the loaded sets.
func (c *Catalog) Sets() []Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Set, len(c.sets))
	copy(out, c.sets)
	return out
}

// Checksum returns the hex SHA-256 of the file content last loaded.
func (c *Catalog) Checksum() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checksum
}

// Reload reads the backing file. It reports whether the content changed.
// A missing file empties the catalog; an invalid file keeps the previous sets.
func (c *Catalog) Reload() (bool, error) {
	if c.path == "" {
		return false, nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("keyboard: set file not found", slog.String("path", c.path))
		return c.swap(nil, ""), nil
	}
	if err != nil {
		metrics.KeyboardReloadsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("keyboard: read %s: %w", c.path, err)
	}

	sum := sha256.Sum256(data)
	cs := hex.EncodeToString(sum[:])
	if cs == c.Checksum() {
		metrics.KeyboardReloadsTotal.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	sets, err := Parse(data)
	if err != nil {
		metrics.KeyboardReloadsTotal.WithLabelValues("error").Inc()
		return false, err
	}

	metrics.KeyboardReloadsTotal.WithLabelValues("ok").Inc()
	c.logger.Info("keyboard: sets loaded", slog.String("path", c.path), slog.Int("count", len(sets)))
	return c.swap(sets, cs), nil
}

func (c *Catalog) swap(sets []Set, cs string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := cs != c.checksum
	c.sets = sets
	c.checksum = cs
	metrics.KeyboardSets.Set(float64(len(sets)))
	return changed
}
