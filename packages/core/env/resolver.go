package env

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/factcheck/packages/builtin"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc receives warnings about placeholders that could not be resolved.
type WarnFunc func(format string, args ...any)

// Resolver substitutes placeholders. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	dotenv    map[string]string
	funcs     *builtin.Registry
	warnFunc  WarnFunc
}

// NewResolver returns a Resolver with no variables.
func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		dotenv:    make(map[string]string),
		funcs:     builtin.NewRegistry(),
	}
}

// SetWarnFunc sets the function called for unresolved placeholders.
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

// SetVariables adds vars, replacing existing names.
func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.Copy(r.variables, vars)
}

// SetVariable sets one variable.
func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetDotEnv sets fallback values for {{$NAME}} placeholders. The process
// environment wins over these.
func (r *Resolver) SetDotEnv(values map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.Copy(r.dotenv, values)
}

// Variable returns the value of a variable.
func (r *Resolver) Variable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve substitutes every placeholder in input. Unresolved placeholders
// are left as they are and reported to the WarnFunc.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := r.lookup(expr); ok {
			return v
		}
		return match
	})
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		if val, ok := os.LookupEnv(name); ok {
			return val, true
		}
		r.mu.RLock()
		val, ok := r.dotenv[name]
		r.mu.RUnlock()
		if ok {
			return val, true
		}
		r.warn("unresolved environment variable: $%s", name)
		return "", false
	}

	if builtin.IsCall(expr) {
		val, err := r.funcs.Call(expr)
		if err != nil {
			r.warn("function call %s failed: %v", expr, err)
			return "", false
		}
		return val, true
	}

	if val, ok := r.Variable(expr); ok {
		return fmt.Sprint(val), true
	}
	r.warn("unresolved variable: %s", expr)
	return "", false
}

// ResolveValue resolves placeholders in every string inside v, descending
// into slices and maps. Other values are returned unchanged.
func (r *Resolver) ResolveValue(v any) any {
	switch x := v.(type) {
	case string:
		return r.Resolve(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = r.ResolveValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = r.ResolveValue(e)
		}
		return out
	default:
		return v
	}
}

// Unresolved returns the placeholders in input that Resolve would leave in
// place, in order of appearance.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if r.resolvable(expr) || slices.Contains(names, expr) {
			continue
		}
		names = append(names, expr)
	}
	return names
}

func (r *Resolver) resolvable(expr string) bool {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.dotenv[name]
		return ok
	}
	if builtin.IsCall(expr) {
		_, err := r.funcs.Call(expr)
		return err == nil
	}
	_, ok := r.Variable(expr)
	return ok
}
