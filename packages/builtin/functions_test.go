package builtin

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		expr string
		want string
	}{
		{"upper(kurt)", "KURT"},
		{"lower(KURT)", "kurt"},
		{"trim(' a ')", "a"},
		{"repeat(ab, 3)", "ababab"},
		{"repeat(x, 0)", ""},
		{"base64(hello)", "aGVsbG8="},
		{"base64Decode(aGVsbG8=)", "hello"},
		{"md5(hello)", "5d41402abc4b2a76b9719d911017c592"},
		{"sha256(hello)", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{"urlEncode('a b&c')", "a+b%26c"},
		{"urlDecode(a+b%26c)", "a b&c"},
		{`upper("a, b")`, "A, B"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Call(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_CallUUID(t *testing.T) {
	got, err := NewRegistry().Call("uuid()")
	require.NoError(t, err)
	_, err = uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRegistry_CallErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("nope(1)")
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	_, err = r.Call("repeat(a, -1)")
	assert.Error(t, err)

	_, err = r.Call("upper(a, b)")
	assert.Error(t, err)

	_, err = r.Call("plain")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("twice", func(args []string) (string, error) { return args[0] + args[0], nil })
	got, err := r.Call("twice(ab)")
	require.NoError(t, err)
	assert.Equal(t, "abab", got)
	assert.Contains(t, r.Names(), "twice")
}

func TestIsCall(t *testing.T) {
	assert.True(t, IsCall("uuid()"))
	assert.True(t, IsCall("repeat(a, 2)"))
	assert.False(t, IsCall("name"))
	assert.False(t, IsCall("$HOME"))
}
