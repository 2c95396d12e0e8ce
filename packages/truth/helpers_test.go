package truth

import (
	"testing"

	"github.com/abdul-hamid-achik/factcheck/packages/failure"
	"github.com/stretchr/testify/assert"
)

// expectFailure runs fn against a capturing Checker and returns the single
// failure it reported.
func expectFailure(t *testing.T, fn func(ck *Checker)) *failure.Failure {
	t.Helper()
	return failure.ExpectFailure(t, func(s failure.Strategy) {
		fn(New(s))
	})
}

func assertFailureKeys(t *testing.T, f *failure.Failure, keys ...string) {
	t.Helper()
	assert.Equal(t, keys, f.Keys(), "message:\n%s", f.Error())
}

func assertFailureValue(t *testing.T, f *failure.Failure, key, value string) {
	t.Helper()
	got, ok := f.Value(key)
	if assert.True(t, ok, "no fact %q in:\n%s", key, f.Error()) {
		assert.Equal(t, value, got)
	}
}

// expectNoFailure runs fn against a collecting Checker and fails t if fn
// reported anything.
func expectNoFailure(t *testing.T, fn func(ck *Checker)) {
	t.Helper()
	c := failure.NewCollector()
	fn(New(c))
	assert.NoError(t, c.Err())
}

// failureCount reports how many failures fn produced.
func failureCount(fn func(ck *Checker)) int {
	c := failure.NewCollector()
	fn(New(c))
	return c.Len()
}
