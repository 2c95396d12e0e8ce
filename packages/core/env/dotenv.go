package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var dotEnvKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// DotEnvError reports a line of a .env file that is not an assignment.
type DotEnvError struct {
	Path string
	Line int
	Msg  string
}

func (e *DotEnvError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// LoadDotEnv reads the .env file at path. Values are meant for {{$NAME}}
// placeholders; nothing is exported to the process environment.
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()
	return ParseDotEnv(file, path)
}

// ParseDotEnv parses NAME=value lines. Blank lines and # comments are
// skipped and an "export " prefix is allowed. Double-quoted values may use
// Go escapes such as \n; single-quoted values are taken literally; an
// unquoted value ends at " #". A later assignment wins over an earlier one.
func ParseDotEnv(r io.Reader, path string) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fail := func(format string, args ...any) error {
			return &DotEnvError{Path: path, Line: lineNo, Msg: fmt.Sprintf(format, args...)}
		}

		line = strings.TrimPrefix(line, "export ")
		key, raw, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fail("expected NAME=value")
		}
		key = strings.TrimSpace(key)
		if !dotEnvKey.MatchString(key) {
			return nil, fail("invalid name %q", key)
		}
		value, err := dotEnvValue(strings.TrimSpace(raw))
		if err != nil {
			return nil, fail("%s: %v", key, err)
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return values, nil
}

func dotEnvValue(raw string) (string, error) {
	switch {
	case strings.HasPrefix(raw, `"`):
		end := closingQuote(raw)
		if end < 0 {
			return "", fmt.Errorf("unterminated double quote")
		}
		return strconv.Unquote(raw[:end+1])
	case strings.HasPrefix(raw, "'"):
		end := strings.IndexByte(raw[1:], '\'')
		if end < 0 {
			return "", fmt.Errorf("unterminated single quote")
		}
		return raw[1 : end+1], nil
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	return raw, nil
}

// closingQuote returns the index of the unescaped '"' ending s, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
