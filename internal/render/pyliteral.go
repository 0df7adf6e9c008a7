package render

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Python value shapes that Go types cannot express on their own.
type (
	// pyTuple renders as a tuple.
	pyTuple []any
	// pyDict renders as a dict with keys in slice order.
	pyDict []pyItem
	// pyExpr is emitted verbatim, for names bound by imports.
	pyExpr string
)

type pyItem struct {
	Key   string
	Value any
}

const pyIndent = "    "

// pyLiteral encodes v as Python source. Maps with string keys are emitted
// with sorted keys, slices as lists, nil and nil pointers as None.
func pyLiteral(v any) (string, error) {
	var b strings.Builder
	if err := writePy(&b, v, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writePy(b *strings.Builder, v any, depth int) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("None")
		return nil
	case pyExpr:
		b.WriteString(string(t))
		return nil
	case pyTuple:
		return writeSeq(b, []any(t), "(", ")", len(t) == 1, depth)
	case pyDict:
		keys := make([]string, len(t))
		values := make([]any, len(t))
		for i, item := range t {
			keys[i], values[i] = item.Key, item.Value
		}
		return writeDict(b, keys, values, depth)
	case string:
		b.WriteString(pyString(t))
		return nil
	case bool:
		if t {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString("None")
			return nil
		}
		return writePy(b, rv.Elem().Interface(), depth)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
		return nil
	case reflect.String:
		b.WriteString(pyString(rv.String()))
		return nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return writeSeq(b, items, "[", "]", false, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("python literal: unsupported map key %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		}
		return writeDict(b, keys, values, depth)
	}
	return fmt.Errorf("python literal: unsupported type %T", v)
}

func writeSeq(b *strings.Builder, items []any, lead, tail string, trailingComma bool, depth int) error {
	if len(items) == 0 {
		b.WriteString(lead + tail)
		return nil
	}
	if trailingComma && isScalar(items[0]) {
		b.WriteString(lead)
		if err := writePy(b, items[0], depth); err != nil {
			return err
		}
		b.WriteString("," + tail)
		return nil
	}
	b.WriteString(lead + "\n")
	for _, item := range items {
		b.WriteString(strings.Repeat(pyIndent, depth+1))
		if err := writePy(b, item, depth+1); err != nil {
			return err
		}
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat(pyIndent, depth) + tail)
	return nil
}

func writeDict(b *strings.Builder, keys []string, values []any, depth int) error {
	if len(keys) == 0 {
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{\n")
	for i, k := range keys {
		b.WriteString(strings.Repeat(pyIndent, depth+1))
		b.WriteString(pyString(k))
		b.WriteString(": ")
		if err := writePy(b, values[i], depth+1); err != nil {
			return err
		}
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat(pyIndent, depth) + "}")
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case pyTuple, pyDict:
		return false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return false
	}
	return true
}

// pyString quotes s as a single quoted Python 3 string literal. Non-ASCII
// printable characters are kept as is; the module declares utf-8.
func pyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
