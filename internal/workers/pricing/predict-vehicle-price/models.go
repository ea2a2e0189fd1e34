package predictvehicleprice

import "encoding/json"

// Input is read from the job variables. Vehicle is kept raw so it goes through
// the same schema validation as an HTTP request body.
type Input struct {
	Vehicle   json.RawMessage `json:"vehicle"`
	RequestID string          `json:"requestId,omitempty"`
}

// Output is merged into the process variables on completion.
type Output struct {
	PredictedPrice float64 `json:"predictedPrice"`
	ModelVersion   string  `json:"modelVersion,omitempty"`
}
