package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownFunction is returned by Call for a name with no registered
// function.
var ErrUnknownFunction = errors.New("unknown function")

// Func computes a placeholder value from its arguments.
type Func func(args []string) (string, error)

// Registry maps function names to implementations.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a Registry with the default functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["upper"] = unary(strings.ToUpper)
	r.funcs["lower"] = unary(strings.ToLower)
	r.funcs["trim"] = unary(strings.TrimSpace)
	r.funcs["repeat"] = funcRepeat
	r.funcs["base64"] = unary(func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	})
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = unary(func(s string) string {
		sum := md5.Sum([]byte(s))
		return hex.EncodeToString(sum[:])
	})
	r.funcs["sha256"] = unary(func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	})
	r.funcs["urlEncode"] = unary(url.QueryEscape)
	r.funcs["urlDecode"] = funcURLDecode
	r.funcs["uuid"] = func([]string) (string, error) {
		return uuid.New().String(), nil
	}
	r.funcs["now"] = func([]string) (string, error) {
		return time.Now().UTC().Format(time.RFC3339), nil
	}
	r.funcs["date"] = funcDate
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the form name(args).
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(expr)
}

// Call evaluates expr, which must have the form name(args).
func (r *Registry) Call(expr string) (string, error) {
	m := funcCallPattern.FindStringSubmatch(expr)
	if m == nil {
		return "", fmt.Errorf("not a function call: %s", expr)
	}
	fn, ok := r.funcs[m[1]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, m[1])
	}
	var args []string
	if m[2] != "" {
		args = parseArgs(m[2])
	}
	out, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", m[1], err)
	}
	return out, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(args, strings.TrimSpace(current.String()))
}

func unary(fn func(string) string) Func {
	return func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(args[0]), nil
	}
}

func funcRepeat(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return "", fmt.Errorf("count %q is not a non-negative integer", args[1])
	}
	return strings.Repeat(args[0], n), nil
}

func funcBase64Decode(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func funcURLDecode(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return url.QueryUnescape(args[0])
}

func funcDate(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	return time.Now().UTC().Format(layout), nil
}
