package env

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDotEnv(t *testing.T) {
	src := `# credentials for the users database
DB_PATH=fixtures/users.db
export GREETING="hello\tkurt"
PATTERN='^k.rt$'
OWNER=kurt # inline comment
HASH=abc#def
EMPTY=
GREETING="hi"
`
	got, err := ParseDotEnv(strings.NewReader(src), ".env")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DB_PATH":  "fixtures/users.db",
		"GREETING": "hi",
		"PATTERN":  `^k.rt$`,
		"OWNER":    "kurt",
		"HASH":     "abc#def",
		"EMPTY":    "",
	}, got)
}

func TestParseDotEnv_QuotedValues(t *testing.T) {
	tests := map[string]string{
		`A="a \"quoted\" word"`:     `a "quoted" word`,
		`A="line\nbreak" # note`:    "line\nbreak",
		`A='no \n escapes'`:         `no \n escapes`,
		`A=" spaces kept "`:         " spaces kept ",
		`A='# not a comment'`:       "# not a comment",
		`A=postgres://u:p@h/db?x=1`: "postgres://u:p@h/db?x=1",
	}
	for line, want := range tests {
		t.Run(line, func(t *testing.T) {
			got, err := ParseDotEnv(strings.NewReader(line), ".env")
			require.NoError(t, err)
			assert.Equal(t, want, got["A"])
		})
	}
}

func TestParseDotEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"no assignment", "A=1\nJUST_A_NAME\n", 2, "expected NAME=value"},
		{"bad name", "1ST=x", 1, `invalid name "1ST"`},
		{"empty name", "=x", 1, `invalid name ""`},
		{"open double quote", "\n\nA=\"abc", 3, "unterminated double quote"},
		{"open single quote", "A='abc", 1, "unterminated single quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDotEnv(strings.NewReader(tt.src), "test.env")
			var envErr *DotEnvError
			require.True(t, errors.As(err, &envErr), "got %v", err)
			assert.Equal(t, tt.line, envErr.Line)
			assert.Contains(t, envErr.Msg, tt.msg)
			assert.Contains(t, err.Error(), "test.env:")
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WHO=kurt\n"), 0644))

	got, err := LoadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"WHO": "kurt"}, got)

	_, err = LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadDotEnv_FeedsResolver(t *testing.T) {
	values, err := ParseDotEnv(strings.NewReader("FACTCHECK_DOTENV_ONLY=from-file\n"), ".env")
	require.NoError(t, err)

	r := NewResolver()
	r.SetDotEnv(values)
	assert.Equal(t, "from-file", r.Resolve("{{$FACTCHECK_DOTENV_ONLY}}"))
	assert.Empty(t, r.Unresolved("{{$FACTCHECK_DOTENV_ONLY}}"))
}
