package validate

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Issue is one schema violation found in otherwise well-formed JSON.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// SchemaValidator checks JSON input against a user-supplied JSON Schema.
// Its findings are advisory and never affect Result.Valid.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidator compiles schemaJSON.
func NewSchemaValidator(schemaJSON string) (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// LoadSchemaValidator reads and compiles the schema file at path.
func LoadSchemaValidator(path string) (*SchemaValidator, error) {
	// #nosec G304 -- schema path comes from user config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return NewSchemaValidator(string(data))
}

// Check returns the schema issues for text. Text that is blank or not
// parsable yields no issues; syntax problems are ValidateJSON's concern.
func (v *SchemaValidator) Check(text string) []Issue {
	if v == nil || !IsParsableJSON(text) {
		return nil
	}

	result, err := v.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return []Issue{{Field: "(root)", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, Issue{Field: desc.Field(), Message: desc.Description()})
	}
	return issues
}
