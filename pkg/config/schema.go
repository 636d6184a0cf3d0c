package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "chainlint.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add config schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Schema returns the JSON schema config files are validated against.
func Schema() string {
	return schemaJSON
}

// ValidateFile checks a config file against the schema. Unknown keys and
// out-of-range values are reported with their JSON pointer.
func ValidateFile(path string) error {
	k, err := loadKoanf(path)
	if err != nil {
		return err
	}
	return validateRaw(path, k.Raw())
}

func validateRaw(source string, raw map[string]interface{}) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so numeric types match what the validator expects.
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", source, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode config %s: %w", source, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("config %s does not match schema: %w", source, err)
	}
	return nil
}
