package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// MinProdYear is the lower bound on prod_year in VehicleSchemaJSON.
const MinProdYear = 1886

// VehicleSchemaJSON describes the shape and types of a VehicleRecord document.
// Value formats (mileage tokens, door codes, ...) are left to the encoder.
const VehicleSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "manufacturer", "model", "category", "leather_interior", "mileage",
    "cylinders", "engine_volume", "doors", "wheel", "color", "airbags",
    "prod_year", "drive_wheels", "gear_box_type", "fuel_type"
  ],
  "properties": {
    "manufacturer":     {"type": "string", "minLength": 1},
    "model":            {"type": "string", "minLength": 1},
    "category":         {"type": "string", "minLength": 1},
    "leather_interior": {"type": "string"},
    "mileage":          {"type": "string"},
    "cylinders":        {"type": "integer", "minimum": 0},
    "engine_volume":    {"type": "string"},
    "doors":            {"type": "string"},
    "wheel":            {"type": "string"},
    "color":            {"type": "string"},
    "airbags":          {"type": "integer", "minimum": 0},
    "prod_year":        {"type": "integer", "minimum": 1886},
    "drive_wheels":     {"type": "string"},
    "gear_box_type":    {"type": "string"},
    "fuel_type":        {"type": "string"}
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks request documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewVehicleValidator compiles VehicleSchemaJSON.
func NewVehicleValidator() (*Validator, error) {
	return NewValidator(VehicleSchemaJSON)
}

// NewValidator compiles an arbitrary schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks raw JSON. The error is non-nil only when raw is not JSON at all.
func (v *Validator) Validate(raw []byte) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toValidationResult(result), nil
}

// ValidateVehicle runs the schema and the year bound that a static schema cannot express.
func (v *Validator) ValidateVehicle(raw []byte, currentYear int) (*ValidationResult, error) {
	result, err := v.Validate(raw)
	if err != nil {
		return nil, err
	}
	if result.HasErrors("prod_year") {
		return result, nil
	}

	doc, err := gojsonschema.NewBytesLoader(raw).LoadJSON()
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if obj, ok := doc.(map[string]interface{}); ok {
		if n, ok := numberValue(obj["prod_year"]); ok && n > float64(currentYear) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "prod_year",
				Message: fmt.Sprintf("value must be <= %d", currentYear),
				Code:    "MAXIMUM_VIOLATION",
			})
			result.Valid = false
		}
	}
	return result, nil
}

func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toValidationResult(result *gojsonschema.Result) *ValidationResult {
	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    codeOf(desc.Type()),
		})
	}
	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}
}

// fieldOf names the offending property; "required" errors are reported on the root.
func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			return prop
		}
	}
	if desc.Field() == gojsonschema.STRING_CONTEXT_ROOT {
		return ""
	}
	return desc.Field()
}

func codeOf(errType string) string {
	switch errType {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "number_gte":
		return "MINIMUM_VIOLATION"
	case "number_lte":
		return "MAXIMUM_VIOLATION"
	default:
		return strings.ToUpper(errType)
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		if err.Field == "" {
			messages[i] = err.Message
			continue
		}
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// FirstField returns the field of the first error, or "" for document-level errors.
func (vr *ValidationResult) FirstField() string {
	if len(vr.Errors) == 0 {
		return ""
	}
	return vr.Errors[0].Field
}
