package commonauth

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/validation"
)

// check inspects one raw value and returns a message when it fails.
type check func(v any) string

type fieldSpec struct {
	name     string
	required bool
	checks   []check
}

type sectionSpec struct {
	name   string
	fields []fieldSpec
}

var tokenFields = []fieldSpec{
	{name: "tokens", required: true, checks: []check{isObject, keysMatch(tokenKeyPattern), valuesAre(isString, nonEmpty)}},
	{name: "additionalCredentials", checks: []check{isObject}},
}

// optionsSchema is the shape of the raw options map. Checks of a field run
// in order and stop at the first failure; keys not listed are rejected.
// A nil value counts as absent.
var optionsSchema = []sectionSpec{
	{name: string(KindJWT), fields: []fieldSpec{
		{name: "publicKey", required: true, checks: []check{isString, nonEmpty}},
		{name: "nonExpiringIds", checks: []check{isArray, itemsAre(isString), uniqueItems}},
	}},
	{name: string(KindBearer), fields: tokenFields},
	{name: string(KindPlan3Key), fields: tokenFields},
	{name: keyDefaultAuth, fields: []fieldSpec{
		{name: "strategies", checks: []check{isArray, itemsAre(isString, nonEmpty), uniqueItems}},
		{name: "mode", checks: []check{isString, oneOf(auth.Modes...)}},
	}},
}

// checkShape validates raw against optionsSchema and returns every failing
// field, sorted by schema order and then by key.
func checkShape(raw map[string]any) []validation.FieldError {
	v := validation.New()
	known := make(map[string]bool, len(optionsSchema))
	for _, section := range optionsSchema {
		known[section.name] = true
		value := raw[section.name]
		if value == nil {
			continue
		}
		checkSection(v.At(section.name), section, value)
	}
	rejectUnknown(v, raw, known)
	return v.Errors()
}

func checkSection(v *validation.Validator, section sectionSpec, value any) {
	obj, ok := asObject(value)
	if !ok {
		v.AddError("", "must be an object")
		return
	}
	known := make(map[string]bool, len(section.fields))
	for _, f := range section.fields {
		known[f.name] = true
		fv := obj[f.name]
		if fv == nil {
			v.Check(!f.required, f.name, "is required")
			continue
		}
		for _, c := range f.checks {
			if msg := c(fv); msg != "" {
				v.AddError(f.name, msg)
				break
			}
		}
	}
	rejectUnknown(v, obj, known)
}

func rejectUnknown(v *validation.Validator, obj map[string]any, known map[string]bool) {
	var unknown []string
	for k, val := range obj {
		if !known[k] && val != nil {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		v.AddError(k, "is not allowed")
	}
}

func isString(v any) string {
	if _, ok := v.(string); !ok {
		return "must be a string"
	}
	return ""
}

func nonEmpty(v any) string {
	if s, _ := v.(string); s == "" {
		return "must not be empty"
	}
	return ""
}

func isObject(v any) string {
	if _, ok := asObject(v); !ok {
		return "must be an object"
	}
	return ""
}

func isArray(v any) string {
	if _, ok := asArray(v); !ok {
		return "must be an array"
	}
	return ""
}

func oneOf[T ~string](allowed ...T) check {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return func(v any) string {
		s, _ := v.(string)
		for _, a := range names {
			if s == a {
				return ""
			}
		}
		return "must be one of: " + strings.Join(names, ", ")
	}
}

func itemsAre(checks ...check) check {
	return func(v any) string {
		items, _ := asArray(v)
		for i, item := range items {
			for _, c := range checks {
				if msg := c(item); msg != "" {
					return fmt.Sprintf("item %d %s", i, msg)
				}
			}
		}
		return ""
	}
}

func uniqueItems(v any) string {
	items, _ := asArray(v)
	seen := make(map[any]bool, len(items))
	for i, item := range items {
		if t := reflect.TypeOf(item); t != nil && !t.Comparable() {
			continue
		}
		if seen[item] {
			return fmt.Sprintf("item %d is a duplicate value", i)
		}
		seen[item] = true
	}
	return ""
}

func keysMatch(pattern *regexp.Regexp) check {
	return func(v any) string {
		obj, _ := asObject(v)
		for _, k := range sortedKeys(obj) {
			if !pattern.MatchString(k) {
				return fmt.Sprintf("key %q does not match %s", k, pattern)
			}
		}
		return ""
	}
}

func valuesAre(checks ...check) check {
	return func(v any) string {
		obj, _ := asObject(v)
		for _, k := range sortedKeys(obj) {
			for _, c := range checks {
				if msg := c(obj[k]); msg != "" {
					return fmt.Sprintf("value of %q %s", k, msg)
				}
			}
		}
		return ""
	}
}

// asObject accepts any map with string keys.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asArray accepts any slice or array except byte slices.
func asArray(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
