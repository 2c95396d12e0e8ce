package fact

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Fact is a key with an optional value.
type Fact struct {
	Key      string
	Value    string
	HasValue bool
}

// New returns a fact whose value is the rendering of v.
func New(key string, v any) Fact {
	return Fact{Key: key, Value: Render(v), HasValue: true}
}

// Simple returns a fact without a value, e.g. "expected to be empty".
func Simple(key string) Fact {
	return Fact{Key: key}
}

func (f Fact) String() string {
	if !f.HasValue {
		return f.Key
	}
	return f.Key + ": " + f.Value
}

// Render formats a value the way it appears in failure messages. Nil values
// render as "null" and strings render without quotes.
func Render(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case *string:
		if val == nil {
			return "null"
		}
		return *val
	case *regexp.Regexp:
		if val == nil {
			return "null"
		}
		return val.String()
	case error:
		return val.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
	case reflect.Slice:
		if rv.IsNil() {
			return "null"
		}
		return renderList(rv)
	case reflect.Array:
		return renderList(rv)
	}
	return fmt.Sprintf("%v", v)
}

func renderList(rv reflect.Value) string {
	items := make([]string, rv.Len())
	for i := range items {
		items[i] = Render(rv.Index(i).Interface())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Format renders facts one per line. Keys of valued facts are padded so the
// colons line up. If any value spans several lines, every valued fact is
// written as "key:" followed by its value indented on the next lines.
func Format(facts []Fact) string {
	longest := 0
	multiline := false
	for _, f := range facts {
		if !f.HasValue {
			continue
		}
		if n := utf8.RuneCountInString(f.Key); n > longest {
			longest = n
		}
		if strings.Contains(f.Value, "\n") {
			multiline = true
		}
	}

	var b strings.Builder
	for i, f := range facts {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case !f.HasValue:
			b.WriteString(f.Key)
		case multiline:
			b.WriteString(f.Key)
			b.WriteString(":\n")
			b.WriteString(indent(f.Value))
		default:
			b.WriteString(f.Key)
			b.WriteString(strings.Repeat(" ", longest-utf8.RuneCountInString(f.Key)))
			b.WriteString(": ")
			b.WriteString(f.Value)
		}
	}
	return b.String()
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
