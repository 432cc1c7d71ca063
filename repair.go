package toolbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// trailingCommaFixer strips the comma variants models commonly emit before a
// closing brace or bracket.
var trailingCommaFixer = strings.NewReplacer(", }", "}", ",}", "}", ", ]", "]", ",]", "]")

// repairJSON fixes trailing commas in an argument payload the model got wrong.
// Valid payloads pass through untouched. A successful repair is reported as a
// soft error; an unrepairable payload fails with a ClientError parse error.
func repairJSON(raw []byte) ([]byte, []error, error) {
	if gjson.ValidBytes(raw) {
		return raw, nil, nil
	}
	fixed := []byte(trailingCommaFixer.Replace(string(raw)))
	if gjson.ValidBytes(fixed) {
		return fixed, []error{fmt.Errorf("fixed trailing comma in arguments")}, nil
	}
	var v any
	err := json.Unmarshal(raw, &v)
	if err == nil {
		// gjson is stricter than encoding/json on some inputs; trust the decoder.
		return raw, nil, nil
	}
	return nil, nil, wrapJSONParseError(err)
}

// coerceListArguments rewrites string values into lists for fields the schema
// declares as arrays: models occasionally send `"a, b"` instead of `["a","b"]`.
// The string is parsed as JSON first, then split on commas. Each coercion is
// reported as a soft error. The args map is modified in place.
func coerceListArguments(args map[string]any, schema map[string]any) []error {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	var soft []error
	for key, val := range args {
		s, ok := val.(string)
		if !ok {
			continue
		}
		prop, ok := props[key].(map[string]any)
		if !ok || !schemaWantsArray(prop) {
			continue
		}
		args[key] = splitStringToList(s)
		soft = append(soft, fmt.Errorf("coerced string to list for field %s", key))
	}
	return soft
}

// schemaWantsArray reports whether a property schema accepts an array,
// directly or through anyOf/oneOf (e.g. optional list fields).
func schemaWantsArray(prop map[string]any) bool {
	if typeIncludesArray(prop["type"]) {
		return true
	}
	for _, combiner := range []string{"anyOf", "oneOf"} {
		alts, ok := prop[combiner].([]any)
		if !ok {
			continue
		}
		for _, alt := range alts {
			if m, ok := alt.(map[string]any); ok && typeIncludesArray(m["type"]) {
				return true
			}
		}
	}
	return false
}

// typeIncludesArray matches both forms a "type" keyword takes: a scalar
// ("array") and a list of alternatives (["null","array"], as generated for
// slice fields, which are nullable).
func typeIncludesArray(typ any) bool {
	switch t := typ.(type) {
	case string:
		return t == "array"
	case []any:
		for _, alt := range t {
			if alt == "array" {
				return true
			}
		}
	case []string:
		for _, alt := range t {
			if alt == "array" {
				return true
			}
		}
	}
	return false
}

// splitStringToList converts a string representation of a list into a list:
// JSON parse first, comma split as fallback.
func splitStringToList(s string) []any {
	var parsed []any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		return parsed
	}
	parts := strings.Split(s, ",")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
