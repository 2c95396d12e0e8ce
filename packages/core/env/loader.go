package env

import (
	"fmt"
	"maps"
	"os"
	"strings"
)

// MergeVariables merges sources left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		maps.Copy(result, src)
	}
	return result
}

// LoadSystemEnv returns the process environment variables whose names start
// with prefix, keyed by the rest of the name. An empty prefix returns all
// of them.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
			result[name] = value
		}
	}
	return result
}

// ParseAssignments parses NAME=value pairs, as given to --var.
func ParseAssignments(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &AssignmentError{Pair: p}
		}
		result[key] = value
	}
	return result, nil
}

// AssignmentError reports a malformed NAME=value pair.
type AssignmentError struct {
	Pair string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("invalid variable assignment %q, expected NAME=value", e.Pair)
}
