package request

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/99designs/gqlgen/graphql"

	"github.com/Yamashou/gqlfetcher/enuminput"
	"github.com/Yamashou/gqlfetcher/fetcher"
	"github.com/Yamashou/gqlfetcher/textwriter"
)

// Literal renders v as an inline GraphQL value of graphQLType. Enum values are
// written unquoted and input objects are rendered field by field, using md to find
// the enum and input types of nested fields.
func Literal(md *enuminput.Metadata, graphQLType string, v any) (fetcher.Literal, error) {
	w := textwriter.New("")
	if err := writeLiteral(w, md, graphQLType, v); err != nil {
		return "", err
	}

	return fetcher.Literal(w.String()), nil
}

func writeLiteral(w *textwriter.Writer, md *enuminput.Metadata, graphQLType string, v any) error {
	graphQLType = strings.TrimSuffix(strings.TrimSpace(graphQLType), "!")
	if v == nil {
		w.Text("null")
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			w.Text("null")
			return nil
		}
		rv = rv.Elem()
	}

	if strings.HasPrefix(graphQLType, "[") {
		return writeList(w, md, strings.TrimSuffix(strings.TrimPrefix(graphQLType, "["), "]"), rv)
	}

	if metaType, ok := md.Type(graphQLType); ok {
		switch metaType.Kind() {
		case enuminput.KindEnum:
			if rv.Kind() != reflect.String {
				return fmt.Errorf("enum %s needs a string value, got %T", graphQLType, v)
			}
			w.Text(rv.String())
			return nil
		case enuminput.KindInput:
			return writeObject(w, md, graphQLType, metaType, rv)
		}
	}

	return writeScalar(w, md, rv)
}

func writeList(w *textwriter.Writer, md *enuminput.Metadata, elemType string, rv reflect.Value) error {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return writeLiteral(w, md, elemType, rv.Interface())
	}

	var err error
	w.Scope(textwriter.Scope{Type: textwriter.Array}, func() {
		for i := 0; i < rv.Len() && err == nil; i++ {
			w.Separator()
			err = writeLiteral(w, md, elemType, rv.Index(i).Interface())
		}
	})

	return err
}

// writeObject writes an input object. metaType is nil for maps of unknown type.
func writeObject(w *textwriter.Writer, md *enuminput.Metadata, typeName string, metaType *enuminput.MetaType, rv reflect.Value) error {
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("input %s needs a map with string keys, got %s", typeName, rv.Type())
	}

	keys := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		keys = append(keys, key.String())
	}
	slices.Sort(keys)

	var err error
	w.Scope(textwriter.Scope{Type: textwriter.Block}, func() {
		for _, key := range keys {
			if err != nil {
				return
			}
			w.Separator()
			w.Text(key + ": ")
			fieldType := ""
			if metaType != nil {
				if fieldMeta, ok := metaType.Field(key); ok {
					fieldType = fieldMeta.Name()
				}
			}
			err = writeLiteral(w, md, fieldType, rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface())
		}
	})

	return err
}

func writeScalar(w *textwriter.Writer, md *enuminput.Metadata, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.String:
		var buf bytes.Buffer
		graphql.MarshalString(rv.String()).MarshalGQL(&buf)
		w.Text(buf.String())
	case reflect.Bool:
		w.Text(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.Text(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		w.Text(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("float %v has no GraphQL literal", f)
		}
		w.Text(strconv.FormatFloat(f, 'g', -1, rv.Type().Bits()))
	case reflect.Slice, reflect.Array:
		return writeList(w, md, "", rv)
	case reflect.Map:
		return writeObject(w, md, rv.Type().String(), nil, rv)
	default:
		return fmt.Errorf("unsupported literal value of type %s", rv.Type())
	}

	return nil
}
