package models

import (
	"encoding/json"
	"errors"
	"testing"

	perrors "vehicle-pricing/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleRecord_UnmarshalJSON(t *testing.T) {
	var rec VehicleRecord
	err := json.Unmarshal([]byte(`{"manufacturer":"Toyota","cylinders":4.0,"airbags":6,"prod_year":2.018e3,"doors":"04-May"}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, "Toyota", rec.Manufacturer)
	assert.Equal(t, "04-May", rec.Doors)
	assert.Equal(t, 4, rec.Cylinders)
	assert.Equal(t, 6, rec.Airbags)
	assert.Equal(t, 2018, rec.ProdYear)
}

func TestVehicleRecord_UnmarshalJSON_MissingIntegersAreZero(t *testing.T) {
	var rec VehicleRecord
	require.NoError(t, json.Unmarshal([]byte(`{"model":"Camry"}`), &rec))
	assert.Zero(t, rec.Cylinders)
	assert.Zero(t, rec.ProdYear)
}

func TestVehicleRecord_UnmarshalJSON_NotWhole(t *testing.T) {
	tests := []struct {
		body  string
		field string
		value string
	}{
		{`{"cylinders":4.5}`, FieldCylinders, "4.5"},
		{`{"airbags":-0.25}`, FieldAirbags, "-0.25"},
		{`{"prod_year":1e12}`, FieldProdYear, "1e12"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var rec VehicleRecord
			err := json.Unmarshal([]byte(tt.body), &rec)

			var malformed *perrors.MalformedInputError
			require.True(t, errors.As(err, &malformed), "error: %v", err)
			assert.Equal(t, tt.field, malformed.Field)
			assert.Equal(t, tt.value, malformed.Value)
		})
	}
}

func TestVehicleRecord_UnmarshalJSON_TypeErrorNamesField(t *testing.T) {
	var rec VehicleRecord
	err := json.Unmarshal([]byte(`{"manufacturer":1}`), &rec)

	var typeErr *json.UnmarshalTypeError
	require.True(t, errors.As(err, &typeErr), "error: %v", err)
	assert.Equal(t, FieldManufacturer, typeErr.Field)
}
