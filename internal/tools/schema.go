package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

// GenerateSchema reflects a Go input struct (json-tagged) into a JSON Schema
// document, the way internal/config does for its YAML config type.
func GenerateSchema(name string, v any) json.RawMessage {
	r := &invopop.Reflector{
		FieldNameTag:              "json",
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(v)
	schema.Title = name
	b, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

var (
	compileMu    sync.Mutex
	compileCache = map[string]*jsonschema.Schema{}
)

// compile compiles and caches a schema keyed by tool name so repeated
// invocations don't re-parse it.
func compile(toolName string, schema json.RawMessage) (*jsonschema.Schema, error) {
	compileMu.Lock()
	defer compileMu.Unlock()

	if cached, ok := compileCache[toolName]; ok {
		return cached, nil
	}

	compiler := jsonschema.NewCompiler()
	resourceName := toolName + ".schema.json"
	if err := compiler.AddResource(resourceName, stringsReader(string(schema))); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compileCache[toolName] = compiled
	return compiled, nil
}

// Validate checks input against tool's schema, returning a descriptive
// SchemaError-flavored error on mismatch (spec §7 SchemaError).
func Validate(toolName string, schema json.RawMessage, input json.RawMessage) error {
	compiled, err := compile(toolName, schema)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("decode tool input: %w", err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("tool input invalid: %w", err)
	}
	return nil
}
