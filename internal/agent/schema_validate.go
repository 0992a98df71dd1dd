package agent

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache compiles each Tool's JSON Schema once and reuses it across
// calls; a model may invoke the same tool many times within one session.
var schemaCache sync.Map // map[string]*jsonschema.Schema, keyed by tool name

// validateToolArgs checks args against tool's declared JSON Schema before
// Execute runs, so a malformed or missing-required-field call from the
// model surfaces as a clear validation error instead of an ad hoc
// unmarshal failure inside the tool itself.
func validateToolArgs(tool Tool, args []byte) error {
	schema, err := compiledSchema(tool)
	if err != nil {
		// A tool with an unparseable schema is a configuration defect, not
		// a per-call failure; let Execute run rather than blocking every
		// call on it.
		return nil
	}

	decoded, err := jsonschema.UnmarshalJSON(bytes.NewReader(args))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("arguments do not match %s's schema: %w", tool.Name(), err)
	}
	return nil
}

func compiledSchema(tool Tool) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(tool.Name()); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiler := jsonschema.NewCompiler()
	url := tool.Name() + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(tool.Schema())); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", tool.Name(), err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", tool.Name(), err)
	}

	schemaCache.Store(tool.Name(), schema)
	return schema, nil
}
