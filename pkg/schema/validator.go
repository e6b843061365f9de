// Package schema provides JSON-Schema-like descriptor utilities: unwrapping
// wrapper shapes, enumerating typed properties, and lightweight structural
// validation. It underpins the schema-directed coercion in
// pkg/toolprotocol/coerce, which walks these same descriptors to repair
// weakly-typed parsed trees into schema-conformant values.
package schema

import "fmt"

// Validator validates data against a schema.
type Validator interface {
	// Validate validates data against the schema.
	// Returns an error if validation fails.
	Validate(data interface{}) error

	// JSONSchema returns the JSON Schema representation of this validator.
	// This is used when sending schemas to AI providers.
	JSONSchema() map[string]interface{}
}

// Schema represents a validation schema.
type Schema interface {
	// Validator returns the validator for this schema.
	Validator() Validator
}

// JSONSchemaValidator validates using a JSON-Schema-like descriptor.
type JSONSchemaValidator struct {
	schema map[string]interface{}
}

// NewJSONSchema creates a new JSON Schema validator.
func NewJSONSchema(s map[string]interface{}) *JSONSchemaValidator {
	return &JSONSchemaValidator{schema: s}
}

// Validate performs a structural (type-level, not format/range-level) check
// of data against the schema: object property types, array item types, and
// presence of required properties. Unknown properties are ignored. This is
// intentionally shallow — the schema-directed coercer is what does the real
// repair work; Validate exists so callers can reject data coercion could not
// save (e.g. a required property is entirely absent).
func (v *JSONSchemaValidator) Validate(data interface{}) error {
	return validateAgainst(UnwrapSchema(v.schema), data, "$")
}

// JSONSchema returns the JSON Schema.
func (v *JSONSchemaValidator) JSONSchema() map[string]interface{} {
	return v.schema
}

func validateAgainst(s map[string]interface{}, data interface{}, path string) error {
	if s == nil {
		return nil
	}

	switch SchemaType(s) {
	case "object":
		obj, ok := data.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, data)
		}
		for _, name := range RequiredProperties(s) {
			if _, present := obj[name]; !present {
				return fmt.Errorf("%s: missing required property %q", path, name)
			}
		}
		for name, value := range obj {
			childSchema, ok := Property(s, name)
			if !ok {
				continue // unknown properties are retained as-is, not rejected
			}
			if err := validateAgainst(childSchema, value, path+"."+name); err != nil {
				return err
			}
		}
		return nil

	case "array":
		arr, ok := data.([]interface{})
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, data)
		}
		itemSchema, ok := ItemSchema(s)
		if !ok {
			return nil
		}
		for i, item := range arr {
			if err := validateAgainst(itemSchema, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case "string":
		if _, ok := data.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, data)
		}
		return nil

	case "number", "integer":
		switch data.(type) {
		case float64, int:
			return nil
		default:
			return fmt.Errorf("%s: expected number, got %T", path, data)
		}

	case "boolean":
		if _, ok := data.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, data)
		}
		return nil

	default:
		return nil
	}
}

// SimpleJSONSchema is a simple implementation of Schema.
type SimpleJSONSchema struct {
	validator *JSONSchemaValidator
}

// NewSimpleJSONSchema creates a simple JSON Schema.
func NewSimpleJSONSchema(s map[string]interface{}) *SimpleJSONSchema {
	return &SimpleJSONSchema{validator: NewJSONSchema(s)}
}

// Validator returns the validator.
func (s *SimpleJSONSchema) Validator() Validator {
	return s.validator
}
