package truth

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineRecorder is a testing.TB that resolves helper frames the way the
// testing package does and records where Fatal was reported from.
type lineRecorder struct {
	testing.TB
	helpers map[string]bool
	file    string
	line    int
}

func newLineRecorder() *lineRecorder {
	return &lineRecorder{helpers: make(map[string]bool)}
}

func (r *lineRecorder) Helper() {
	var pc [1]uintptr
	runtime.Callers(2, pc[:])
	frame, _ := runtime.CallersFrames(pc[:]).Next()
	r.helpers[frame.Function] = true
}

func (r *lineRecorder) Fatal(args ...any) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !r.helpers[frame.Function] {
			r.file, r.line = frame.File, frame.Line
			return
		}
		if !more {
			return
		}
	}
}

func thisFile(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return file
}

func TestAssert_ReportsCallerLine(t *testing.T) {
	file := thisFile(t)

	tests := []struct {
		name string
		fn   func(ck *Checker) int
	}{
		{
			name: "derived length",
			fn: func(ck *Checker) int {
				_, _, line, _ := runtime.Caller(0)
				ck.String("kurt").HasLength(5)
				return line + 1
			},
		},
		{
			name: "string predicate",
			fn: func(ck *Checker) int {
				_, _, line, _ := runtime.Caller(0)
				ck.String("kurt").Matches("b")
				return line + 1
			},
		},
		{
			name: "in order",
			fn: func(ck *Checker) int {
				_, _, line, _ := runtime.Caller(0)
				Ints(ck, []int{2, 1}).ContainsExactly(1, 2).InOrder()
				return line + 1
			},
		},
		{
			name: "comparable",
			fn: func(ck *Checker) int {
				_, _, line, _ := runtime.Caller(0)
				ck.Int(1).IsInClosedRange(2, 3)
				return line + 1
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newLineRecorder()
			want := tt.fn(Assert(rec))
			assert.Equal(t, file, rec.file)
			assert.Equal(t, want, rec.line)
		})
	}
}

func TestChecker_TWithoutTest(t *testing.T) {
	assert.NotPanics(t, func() {
		Assert(t).That(1).Checker().T().Helper()
		failureCount(func(ck *Checker) { ck.T().Helper() })
	})
}
