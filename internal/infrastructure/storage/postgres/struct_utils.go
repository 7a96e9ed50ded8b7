package postgres

import (
	"reflect"
	"strings"
	"sync"
)

// fieldInfo caches the mapping from struct fields to db columns.
type fieldInfo struct {
	index  []int
	column string
}

var typeCache sync.Map // reflect.Type -> []fieldInfo

func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	collectFields(t, nil, &fields)
	typeCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, parent []int, out *[]fieldInfo) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		index := append(append([]int{}, parent...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, index, out)
			continue
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		column, _, _ := strings.Cut(tag, ",")
		if column == "" {
			continue
		}

		*out = append(*out, fieldInfo{index: index, column: column})
	}
}

// ExtractDBColumns returns the db column names declared by T's struct tags,
// including those of embedded structs.
func ExtractDBColumns[T any]() []string {
	var zero T
	t := reflect.TypeOf(zero)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := fieldsOf(t)
	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.column)
	}
	return columns
}

// StructToMap converts a tagged struct into a column -> value map suitable
// for squirrel's SetMap. Nil pointer fields map to nil.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	fields := fieldsOf(rv.Type())
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		fv := rv.FieldByIndex(f.index)
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			m[f.column] = nil
			continue
		}
		m[f.column] = fv.Interface()
	}
	return m
}
