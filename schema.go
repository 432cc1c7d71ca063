package toolbox

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Definition is the read-only projection of a registered tool for the LLM
// request: name, description, and the argument JSON Schema. Registry exports
// definitions in registration order.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

var (
	typeSchemasMu sync.RWMutex
	typeSchemas   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType maps a custom Go type to a JSON Schema type/format in generated schemas.
// emptyInstance is a value of the type to register (e.g. uuid.UUID{}); it must not be nil.
// jsonType is the JSON Schema type (e.g. "string", "number"); it must not be empty.
// format is optional (e.g. "uuid", "date-time"). Pointer fields (*T) use the same
// mapping as T; call RegisterType once for the value type, at application startup
// before the first NewTool or NewExtractor.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("toolbox: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("toolbox: RegisterType jsonType must not be empty")
	}
	typeSchemasMu.Lock()
	defer typeSchemasMu.Unlock()
	typeSchemas[reflect.TypeOf(emptyInstance)] = &jsonschema.Schema{Type: jsonType, Format: format}
}

// snapshotTypeSchemas copies the registered type mappings for jsonschema.ForOptions.
// Safe for concurrent use with RegisterType.
func snapshotTypeSchemas() map[reflect.Type]*jsonschema.Schema {
	typeSchemasMu.RLock()
	defer typeSchemasMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(typeSchemas))
	for t, s := range typeSchemas {
		if s != nil {
			out[t] = s.CloneSchemas()
		}
	}
	return out
}

var errNilSchema = errors.New("schema reflection returned nil")

// generateSchema produces a JSON Schema map and a resolved validator for type T.
// Called once per tool construction. strict applies additionalProperties: false
// and makes every property required (OpenAI Structured Outputs).
func generateSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	schema, err := jsonschema.For[T](&jsonschema.ForOptions{TypeSchemas: snapshotTypeSchemas()})
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		return nil, nil, errNilSchema
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return nil, nil, err
	}
	enrichFromStructTags(schemaMap, reflect.TypeOf(*new(T)))
	if strict {
		applyStrictMode(schemaMap)
	}
	cleanSchema(schemaMap)
	resolved, err := compileSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// enrichFromStructTags adds description and enum from struct tags to root-level
// properties. typ may be a pointer; the json tag (first part before comma) is
// matched against property keys.
func enrichFromStructTags(schemaMap map[string]any, typ reflect.Type) {
	if schemaMap == nil || typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return
	}
	byJSONName := make(map[string]reflect.StructField, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		byJSONName[name] = field
	}
	for key, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		field, ok := byJSONName[key]
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			parts := strings.Split(enumTag, ",")
			enum := make([]any, len(parts))
			for i, p := range parts {
				enum[i] = strings.TrimSpace(p)
			}
			prop["enum"] = enum
		}
	}
}

// walkSchema recursively visits every map node in the schema tree (including $defs and definitions).
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if node, ok := item.(map[string]any); ok {
					walkSchema(node, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false and a full required list
// for every object in the schema.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(node map[string]any) {
		props, isObj := node["properties"].(map[string]any)
		if !isObj {
			return
		}
		node["additionalProperties"] = false
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		if len(required) > 0 {
			node["required"] = required
		}
	})
}

// cleanSchema removes noise the LLM does not need and that can break resolution:
// title annotations, and id/$id so resolution does not depend on them.
// It recurses manually instead of using walkSchema: the "properties" container is
// keyed by property names, so a property literally named "title" must survive.
func cleanSchema(node map[string]any) {
	delete(node, "title")
	delete(node, "id")
	delete(node, "$id")
	for key, val := range node {
		switch v := val.(type) {
		case map[string]any:
			if key == "properties" || key == "$defs" || key == "definitions" {
				for _, sub := range v {
					if subNode, ok := sub.(map[string]any); ok {
						cleanSchema(subNode)
					}
				}
				continue
			}
			cleanSchema(v)
		case []any:
			for _, item := range v {
				if subNode, ok := item.(map[string]any); ok {
					cleanSchema(subNode)
				}
			}
		}
	}
}

// compileSchema compiles a raw JSON Schema map into a resolved validator. The map is not mutated.
func compileSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
