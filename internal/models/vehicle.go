// internal/models/vehicle.go
package models

import (
	"encoding/json"
	"errors"
	"math"

	perrors "vehicle-pricing/internal/common/errors"
)

var errNotWholeNumber = errors.New("value is not a whole number")

// VehicleRecord is the raw attribute record submitted for a price prediction.
// Text values are matched case-insensitively; keys are case-sensitive.
type VehicleRecord struct {
	Manufacturer    string `json:"manufacturer"`
	Model           string `json:"model"`
	Category        string `json:"category"`
	LeatherInterior string `json:"leather_interior"`
	Mileage         string `json:"mileage"`
	Cylinders       int    `json:"cylinders"`
	EngineVolume    string `json:"engine_volume"`
	Doors           string `json:"doors"`
	Wheel           string `json:"wheel"`
	Color           string `json:"color"`
	Airbags         int    `json:"airbags"`
	ProdYear        int    `json:"prod_year"`
	DriveWheels     string `json:"drive_wheels"`
	GearBoxType     string `json:"gear_box_type"`
	FuelType        string `json:"fuel_type"`
}

// UnmarshalJSON accepts whole-valued numbers such as 4.0 for the integer fields.
// A fractional or out-of-range value is a *errors.MalformedInputError.
func (r *VehicleRecord) UnmarshalJSON(data []byte) error {
	type plain VehicleRecord
	var aux struct {
		plain
		Cylinders json.Number `json:"cylinders"`
		Airbags   json.Number `json:"airbags"`
		ProdYear  json.Number `json:"prod_year"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	rec := VehicleRecord(aux.plain)
	var err error
	if rec.Cylinders, err = wholeNumber(FieldCylinders, aux.Cylinders); err != nil {
		return err
	}
	if rec.Airbags, err = wholeNumber(FieldAirbags, aux.Airbags); err != nil {
		return err
	}
	if rec.ProdYear, err = wholeNumber(FieldProdYear, aux.ProdYear); err != nil {
		return err
	}
	*r = rec
	return nil
}

func wholeNumber(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, perrors.NewMalformedInput(field, n.String(), errNotWholeNumber)
	}
	return int(f), nil
}

// Field names as they appear in the JSON document.
const (
	FieldManufacturer    = "manufacturer"
	FieldModel           = "model"
	FieldCategory        = "category"
	FieldLeatherInterior = "leather_interior"
	FieldMileage         = "mileage"
	FieldCylinders       = "cylinders"
	FieldEngineVolume    = "engine_volume"
	FieldDoors           = "doors"
	FieldWheel           = "wheel"
	FieldColor           = "color"
	FieldAirbags         = "airbags"
	FieldProdYear        = "prod_year"
	FieldDriveWheels     = "drive_wheels"
	FieldGearBoxType     = "gear_box_type"
	FieldFuelType        = "fuel_type"
)

// PredictionResponse is the success body of POST /predict.
type PredictionResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
	ModelFormat  string `json:"model_format,omitempty"`
}
