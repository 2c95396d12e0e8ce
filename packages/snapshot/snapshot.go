// Package snapshot stores expected values next to case files and compares
// later runs against them.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gocmp "github.com/google/go-cmp/cmp"
)

const (
	// Dir is the directory, beside the case file, that holds snapshot files.
	Dir = "__snapshots__"
	// Ext is the snapshot file extension.
	Ext = ".snap.json"
)

// Manager loads, compares and writes snapshots. It is safe for concurrent
// use.
type Manager struct {
	update bool

	mu    sync.Mutex
	cache map[string]map[string]any // snapshot file -> key -> value
}

// NewManager returns a Manager. In update mode missing and mismatching
// snapshots are written instead of failing.
func NewManager(update bool) *Manager {
	return &Manager{
		update: update,
		cache:  make(map[string]map[string]any),
	}
}

// Result is the outcome of one comparison.
type Result struct {
	Passed   bool
	Message  string
	Key      string
	Expected any
	Actual   any
	// Diff is set on mismatch, in go-cmp's (-expected +actual) form.
	Diff       string
	IsNew      bool
	WasUpdated bool
}

// Compare checks actual against the snapshot stored for caseFile under
// caseName and name. name is optional.
func (m *Manager) Compare(caseFile, caseName, name string, actual any) *Result {
	actual = normalize(actual)
	key := Key(caseName, name, actual)
	result := &Result{Key: key, Actual: actual}
	path := FilePath(caseFile)

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots, err := m.load(path)
	if err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	expected, exists := snapshots[key]
	switch {
	case !exists && !m.update:
		result.Message = "snapshot does not exist (run with --update-snapshots to create)"
		return result
	case !exists:
		snapshots[key] = actual
		if err := m.save(path, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = actual
		result.Message = "new snapshot created"
		return result
	}

	result.Expected = expected
	if gocmp.Equal(expected, actual) {
		result.Passed = true
		return result
	}

	if m.update {
		snapshots[key] = actual
		if err := m.save(path, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to update snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result
	}

	result.Diff = gocmp.Diff(expected, actual)
	result.Message = "snapshot mismatch"
	return result
}

// FilePath returns the snapshot file for a case file, e.g.
// "cases/users.factcheck.yaml" -> "cases/__snapshots__/users.snap.json".
func FilePath(caseFile string) string {
	base := filepath.Base(caseFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".factcheck")
	return filepath.Join(filepath.Dir(caseFile), Dir, base+Ext)
}

// Key returns the key a snapshot is stored under.
func Key(caseName, name string, value any) string {
	if name != "" {
		return caseName + "::" + name
	}
	if caseName != "" {
		return caseName
	}
	hash := sha256.Sum256(fmt.Appendf(nil, "%v", value))
	return "anon_" + hex.EncodeToString(hash[:8])
}

func (m *Manager) load(path string) (map[string]any, error) {
	if cached, ok := m.cache[path]; ok {
		return cached, nil
	}
	snapshots := make(map[string]any)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &snapshots); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	m.cache[path] = snapshots
	return snapshots, nil
}

func (m *Manager) save(path string, snapshots map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// normalize round-trips v through JSON so that values compare the same
// before and after being stored (ints become float64, structs become maps).
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
