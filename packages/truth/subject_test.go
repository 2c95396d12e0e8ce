package truth

import (
	"errors"
	"testing"

	"github.com/abdul-hamid-achik/factcheck/packages/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func TestSubject_IsEqualTo(t *testing.T) {
	ck := Assert(t)
	ck.That(point{1, 2}).IsEqualTo(point{1, 2})
	ck.That([]string{"a"}).IsEqualTo([]string{"a"})
	ck.That(nil).IsEqualTo(nil)

	f := expectFailure(t, func(ck *Checker) { ck.That(3).IsEqualTo(4) })
	assertFailureKeys(t, f, "expected", "but was")
	assertFailureValue(t, f, "expected", "4")
	assertFailureValue(t, f, "but was", "3")
}

func TestSubject_IsEqualToDiff(t *testing.T) {
	f := expectFailure(t, func(ck *Checker) {
		ck.That(point{1, 2}).IsEqualTo(point{1, 3})
	})
	assertFailureKeys(t, f, "expected", "but was", "diff (-expected +actual)")
	d, _ := f.Value("diff (-expected +actual)")
	assert.Contains(t, d, "-")
	assert.Contains(t, d, "+")
}

func TestSubject_Nil(t *testing.T) {
	var p *point
	ck := Assert(t)
	ck.That(p).IsNil()
	ck.That(nil).IsNil()
	ck.That(&point{}).IsNotNil()

	f := expectFailure(t, func(ck *Checker) { ck.That(1).IsNil() })
	assertFailureKeys(t, f, "expected", "but was")
	assertFailureValue(t, f, "expected", "null")

	f = expectFailure(t, func(ck *Checker) { ck.That(p).IsNotNil() })
	assertFailureKeys(t, f, "expected not to be null")
}

func TestSubject_IsIn(t *testing.T) {
	Assert(t).That("b").IsIn("a", "b")
	Assert(t).That("c").IsNotIn("a", "b")
	Assert(t).That(1).IsNotEqualTo(2)

	f := expectFailure(t, func(ck *Checker) { ck.That("c").IsIn("a", "b") })
	assertFailureValue(t, f, "expected any of", "[a, b]")

	f = expectFailure(t, func(ck *Checker) { ck.That("a").IsNotIn("a", "b") })
	assertFailureValue(t, f, "expected not to be any of", "[a, b]")

	f = expectFailure(t, func(ck *Checker) { ck.That(1).IsNotEqualTo(1) })
	assertFailureKeys(t, f, "expected not to be")
}

func TestSubject_CheckNestsPaths(t *testing.T) {
	f := expectFailure(t, func(ck *Checker) {
		s := ck.String("kurt")
		s.Check("bytes()").Int(4).Subject.Check("twice()").Int(8).IsEqualTo(9)
	})
	assertFailureValue(t, f, "value of", "string.bytes().twice()")
	assertFailureValue(t, f, "string was", "kurt")
}

func TestSubject_FailureMessageLayout(t *testing.T) {
	f := expectFailure(t, func(ck *Checker) { ck.String("kurt").HasLength(5) })
	assert.Equal(t,
		"value of  : string.length()\nexpected  : 5\nbut was   : 4\nstring was: kurt",
		f.Error())
	assert.True(t, errors.Is(f, failure.ErrAssertionFailed))
}

func TestChecker_Strategies(t *testing.T) {
	c := failure.NewCollector()
	ck := New(c)
	ck.Int(1).IsEqualTo(2)
	ck.Int(3).IsEqualTo(3)
	ck.Int(5).IsEqualTo(6)
	require.Equal(t, 2, c.Len())

	assert.PanicsWithError(t, "expected: 2\nbut was : 1", func() {
		New(failure.Panic()).Int(1).IsEqualTo(2)
	})
}

func TestChecker_NilStrategy(t *testing.T) {
	defer func() {
		var usage *UsageError
		err, _ := recover().(error)
		assert.True(t, errors.As(err, &usage))
	}()
	New(nil)
}

func TestChecker_WithMessageDoesNotMutate(t *testing.T) {
	c := failure.NewCollector()
	base := New(c)
	_ = base.WithMessage("first")
	base.Int(1).IsEqualTo(2)
	assert.Equal(t, []string{"expected", "but was"}, c.Last().Keys())
}

func TestExpectContinuesAfterFailure(t *testing.T) {
	c := failure.NewCollector()
	ck := New(c)
	ck.String("a").IsEmpty()
	ck.String("").IsNotEmpty()
	assert.Equal(t, 2, c.Len())
	expectNoFailure(t, func(ck *Checker) { ck.String("a").IsNotEmpty() })
}
