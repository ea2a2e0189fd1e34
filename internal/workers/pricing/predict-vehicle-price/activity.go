package predictvehicleprice

import (
	"encoding/json"
	"fmt"

	"vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/common/validation"
	"vehicle-pricing/pkg/registry"
)

const ActivityVersion = "1.0.0"

// errorCodes are the BPMN error codes a job of this type can throw.
var errorCodes = []errors.ErrorCode{
	errors.ErrCodeInvalidRequestBody,
	errors.ErrCodeMalformedInput,
	errors.ErrCodeModelUnavailable,
	errors.ErrCodePredictorFailed,
	errors.ErrCodeInternal,
}

// Activity describes this worker for the activity registry. The input schema
// embeds the same vehicle schema the service validates against.
func Activity(cfg *Config) (registry.Activity, error) {
	var vehicle map[string]interface{}
	if err := json.Unmarshal([]byte(validation.VehicleSchemaJSON), &vehicle); err != nil {
		return registry.Activity{}, fmt.Errorf("parse vehicle schema: %w", err)
	}
	delete(vehicle, "$schema")

	codes := make([]string, len(errorCodes))
	for i, c := range errorCodes {
		codes[i] = string(c)
	}

	return registry.Activity{
		ID:                   TaskType,
		DisplayName:          "Predict Vehicle Price",
		Description:          "Estimates the market price of a used vehicle from its listing attributes",
		Category:             "pricing",
		Version:              ActivityVersion,
		TaskType:             TaskType,
		ImplementationStatus: "completed",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"vehicle"},
			"properties": map[string]interface{}{
				"vehicle":   vehicle,
				"requestId": map[string]interface{}{"type": "string"},
			},
		},
		OutputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"predictedPrice"},
			"properties": map[string]interface{}{
				"predictedPrice": map[string]interface{}{"type": "number"},
				"modelVersion":   map[string]interface{}{"type": "string"},
			},
		},
		ErrorCodes: codes,
		Timeout:    cfg.Timeout.String(),
		Retries:    0,
		Workflows:  []string{},
		Tags:       []string{"pricing", "ml", "vehicle"},
	}, nil
}
