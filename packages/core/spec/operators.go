package spec

import (
	"fmt"
	"slices"
	"sort"
)

// ArgKind describes the value an operator takes.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgAny
	ArgInt
	ArgElement
	ArgList
	ArgPair
	ArgString
	ArgOptionalString
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "no value (or true)"
	case ArgAny:
		return "any value"
	case ArgInt:
		return "an integer"
	case ArgElement:
		return "one element"
	case ArgList:
		return "a list"
	case ArgPair:
		return "a list of two values"
	case ArgString:
		return "a string"
	case ArgOptionalString:
		return "an optional name"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// Operator describes one expectation operator.
type Operator struct {
	Name    string
	Arg     ArgKind
	Sources []Source
	// InOrder reports whether the inOrder modifier applies.
	InOrder bool
	Doc     string
}

var (
	textual  = []Source{SourceString, SourceJSON}
	iterable = []Source{SourceInts, SourceStrings, SourceQuery}
	all      = []Source{SourceString, SourceInts, SourceStrings, SourceJSON, SourceQuery}
)

var operators = map[string]Operator{}

func register(ops ...Operator) {
	for _, op := range ops {
		operators[op.Name] = op
	}
}

func init() {
	register(
		Operator{Name: "equals", Arg: ArgAny, Sources: all, Doc: "is equal to the value"},
		Operator{Name: "notEquals", Arg: ArgAny, Sources: all, Doc: "is not equal to the value"},
		Operator{Name: "isNull", Arg: ArgNone, Sources: all, Doc: "is null"},
		Operator{Name: "isNotNull", Arg: ArgNone, Sources: all, Doc: "is not null"},
		Operator{Name: "isIn", Arg: ArgList, Sources: textual, Doc: "is one of the values"},
		Operator{Name: "isNotIn", Arg: ArgList, Sources: textual, Doc: "is none of the values"},
		Operator{Name: "matchesSnapshot", Arg: ArgOptionalString, Sources: all, Doc: "equals the stored snapshot"},

		Operator{Name: "hasLength", Arg: ArgInt, Sources: textual, Doc: "has the number of characters"},
		Operator{Name: "startsWith", Arg: ArgString, Sources: textual, Doc: "starts with the prefix"},
		Operator{Name: "endsWith", Arg: ArgString, Sources: textual, Doc: "ends with the suffix"},
		Operator{Name: "matches", Arg: ArgString, Sources: textual, Doc: "fully matches the pattern"},
		Operator{Name: "doesNotMatch", Arg: ArgString, Sources: textual, Doc: "does not fully match the pattern"},
		Operator{Name: "containsMatch", Arg: ArgString, Sources: textual, Doc: "contains a match for the pattern"},
		Operator{Name: "doesNotContainMatch", Arg: ArgString, Sources: textual, Doc: "contains no match for the pattern"},
		Operator{Name: "isAtLeast", Arg: ArgString, Sources: textual, Doc: "sorts at or after the value"},
		Operator{Name: "isAtMost", Arg: ArgString, Sources: textual, Doc: "sorts at or before the value"},
		Operator{Name: "isGreaterThan", Arg: ArgString, Sources: textual, Doc: "sorts after the value"},
		Operator{Name: "isLessThan", Arg: ArgString, Sources: textual, Doc: "sorts before the value"},
		Operator{Name: "isInRange", Arg: ArgPair, Sources: textual, Doc: "sorts within [low, high]"},

		Operator{Name: "isEmpty", Arg: ArgNone, Sources: all, Doc: "is empty"},
		Operator{Name: "isNotEmpty", Arg: ArgNone, Sources: all, Doc: "is not empty"},
		Operator{Name: "contains", Arg: ArgElement, Sources: all, Doc: "contains the substring or element"},
		Operator{Name: "doesNotContain", Arg: ArgElement, Sources: all, Doc: "does not contain the substring or element"},

		Operator{Name: "hasSize", Arg: ArgInt, Sources: iterable, Doc: "has the number of elements"},
		Operator{Name: "containsAnyOf", Arg: ArgList, Sources: iterable, Doc: "contains at least one of the elements"},
		Operator{Name: "containsNoneOf", Arg: ArgList, Sources: iterable, Doc: "contains none of the elements"},
		Operator{Name: "containsAtLeast", Arg: ArgList, Sources: iterable, InOrder: true, Doc: "contains all of the elements"},
		Operator{Name: "containsExactly", Arg: ArgList, Sources: iterable, InOrder: true, Doc: "contains exactly the elements"},
		Operator{Name: "containsNoDuplicates", Arg: ArgNone, Sources: iterable, Doc: "has no repeated elements"},

		Operator{Name: "isValid", Arg: ArgNone, Sources: []Source{SourceJSON}, Doc: "is well-formed JSON"},
		Operator{Name: "hasPath", Arg: ArgString, Sources: []Source{SourceJSON}, Doc: "has the path"},
		Operator{Name: "doesNotHavePath", Arg: ArgString, Sources: []Source{SourceJSON}, Doc: "does not have the path"},
		Operator{Name: "matchesSchema", Arg: ArgString, Sources: []Source{SourceJSON}, Doc: "validates against the schema file"},
	)
}

// LookupOperator returns the operator with the given name.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operators[name]
	return op, ok
}

// Operators returns every operator sorted by name.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operators))
	for _, op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Supports reports whether op applies to source.
func (op Operator) Supports(source Source) bool {
	return slices.Contains(op.Sources, source)
}
