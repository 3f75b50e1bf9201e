// Package schemas validates API request documents against embedded JSON
// Schemas before they are decoded.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Request document kinds.
const (
	CompareRequest = "compareRequest"
	ProjectRequest = "projectRequest"
	TaxRequest     = "taxRequest"
	TaxRates       = "taxRates"
	Package        = "package"
)

//go:embed definitions.json
var definitions string

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, err := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Sprintf("%s does not match schema: %s", ve.Schema, strings.Join(parts, "; "))
}

func compile() {
	compiled = make(map[string]*gojsonschema.Schema)
	for _, name := range []string{CompareRequest, ProjectRequest, TaxRequest, TaxRates, Package} {
		doc := fmt.Sprintf(`{"$schema": "http://json-schema.org/draft-07/schema#", "$ref": "#/definitions/%s", "definitions": %s}`, name, definitions)
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// ValidateJSON validates a raw JSON document against the named schema.
func ValidateJSON(name string, document []byte) error {
	compileOnce.Do(compile)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
