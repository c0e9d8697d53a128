package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

type versionedSchema interface {
	applyDefaults()
	validateVersion() error
}

// document is one TOML file guarded by a process-wide lock for its path.
type document struct {
	path  string
	label string
	mu    *sync.RWMutex
}

func newDocument(path, label string) (*document, error) {
	if path == "" {
		return nil, fmt.Errorf("%s path is empty", label)
	}

	normalized, err := normalizePath(path, label)
	if err != nil {
		return nil, err
	}

	return &document{path: normalized, label: label, mu: lockForPath(normalized)}, nil
}

// read decodes the file into out. A missing file leaves out at its defaults.
func (d *document) read(out versionedSchema) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			out.applyDefaults()
			return nil
		}
		return fmt.Errorf("read %s file: %w", d.label, err)
	}

	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s file: %w", d.label, err)
	}
	if err := out.validateVersion(); err != nil {
		return err
	}
	out.applyDefaults()

	return nil
}

func (d *document) write(in versionedSchema) error {
	in.applyDefaults()

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s directory: %w", d.label, err)
	}

	data, err := toml.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s file: %w", d.label, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+d.label+"-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", d.label, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp %s file: %w", d.label, err)
	}

	if err := tempFile.Chmod(fileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp %s file: %w", d.label, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", d.label, err)
	}

	if err := os.Rename(tempName, d.path); err != nil {
		return fmt.Errorf("replace %s file: %w", d.label, err)
	}

	cleanup = false

	if err := os.Chmod(d.path, fileMode); err != nil {
		return fmt.Errorf("chmod %s file: %w", d.label, err)
	}

	return nil
}

func normalizePath(path, label string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", label, err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimePtr(raw string) *time.Time {
	parsed := parseTime(raw)
	if parsed.IsZero() {
		return nil
	}

	return &parsed
}

func formatTimePtr(value *time.Time) string {
	if value == nil {
		return ""
	}

	return formatTime(*value)
}
