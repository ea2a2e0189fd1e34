package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	perrors "vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/common/validation"
	"vehicle-pricing/internal/encoder"
	"vehicle-pricing/internal/models"
	"vehicle-pricing/internal/predictor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePredictor struct {
	mu    sync.Mutex
	price float64
	err   error
	seen  []encoder.FeatureVector
}

func (f *fakePredictor) Predict(_ context.Context, v encoder.FeatureVector) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, v)
	return f.price, f.err
}

func (f *fakePredictor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func camry() models.VehicleRecord {
	return models.VehicleRecord{
		Manufacturer:    "Toyota",
		Model:           "Camry",
		Category:        "Sedan",
		LeatherInterior: "yes",
		Mileage:         "35000 km",
		Cylinders:       4,
		EngineVolume:    "2.5 Turbo",
		Doors:           "4",
		Wheel:           "Left wheel",
		Color:           "Black",
		Airbags:         6,
		ProdYear:        2018,
		DriveWheels:     "front",
		GearBoxType:     "automatic",
		FuelType:        "gasoline",
	}
}

const camryJSON = `{
	"manufacturer": "Toyota", "model": "Camry", "category": "Sedan",
	"leather_interior": "yes", "mileage": "35000 km", "cylinders": 4,
	"engine_volume": "2.5 Turbo", "doors": "4", "wheel": "Left wheel",
	"color": "Black", "airbags": 6, "prod_year": 2018,
	"drive_wheels": "front", "gear_box_type": "automatic", "fuel_type": "gasoline"
}`

func createTestService(t *testing.T, p predictor.Predictor, loadErr error) *PredictionService {
	t.Helper()
	v, err := validation.NewVehicleValidator()
	require.NoError(t, err)

	var loaded *predictor.Loaded
	if p != nil {
		loaded = &predictor.Loaded{
			Predictor: p,
			Info:      predictor.Info{Version: "v-test", Format: predictor.FormatLinear, Source: "test"},
		}
	}
	return New(Deps{
		Encoder:   encoder.New(encoder.WithReferenceYear(2025)),
		Validator: v,
		Model:     loaded,
		LoadErr:   loadErr,
		Logger:    logger.NewTestLogger(t),
	})
}

func requireCode(t *testing.T, err error, code perrors.ErrorCode) *perrors.StandardError {
	t.Helper()
	require.Error(t, err)
	std := perrors.Normalize(err)
	assert.Equal(t, code, std.Code, "error: %v", err)
	return std
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPredict_Success(t *testing.T) {
	fake := &fakePredictor{price: 15234.5}
	svc := createTestService(t, fake, nil)

	price, err := svc.Predict(context.Background(), camry())
	require.NoError(t, err)
	assert.Equal(t, 15234.5, price)

	require.Equal(t, 1, fake.calls())
	v := fake.seen[0]
	assert.Equal(t, 7.0, v[encoder.IdxCarAge])
	assert.Equal(t, 35000.0, v[encoder.IdxMileage])
	assert.Equal(t, 1.0, v[encoder.IdxTurbo])
	assert.Equal(t, 1.0, v[encoder.IdxFuelGasoline])
}

func TestPredict_WithLinearModel(t *testing.T) {
	coef := make([]float64, encoder.NumFeatures)
	coef[encoder.IdxCarAge] = -500
	coef[encoder.IdxEngineVolume] = 4000
	model, err := predictor.NewLinearModel(10000, coef, nil)
	require.NoError(t, err)

	svc := createTestService(t, model, nil)
	price, err := svc.Predict(context.Background(), camry())
	require.NoError(t, err)
	assert.InDelta(t, 10000-3500+10000, price, 1e-9)
}

func TestPredict_ModelUnavailable(t *testing.T) {
	loadErr := errors.New("open models/best_model.json: no such file or directory")
	svc := createTestService(t, nil, loadErr)

	assert.False(t, svc.ModelLoaded())
	_, ok := svc.ModelInfo()
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		_, err := svc.Predict(context.Background(), camry())
		var unavailable *perrors.ModelUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.ErrorIs(t, err, loadErr)
		requireCode(t, err, perrors.ErrCodeModelUnavailable)
	}
}

func TestPredict_MalformedInput(t *testing.T) {
	fake := &fakePredictor{price: 1}
	svc := createTestService(t, fake, nil)

	rec := camry()
	rec.Mileage = "abc km"

	_, err := svc.Predict(context.Background(), rec)
	var malformed *perrors.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, models.FieldMileage, malformed.Field)
	assert.Equal(t, "abc km", malformed.Value)
	assert.Equal(t, 0, fake.calls(), "no vector may reach the predictor")

	std := requireCode(t, err, perrors.ErrCodeMalformedInput)
	assert.Equal(t, "mileage", std.Metadata["field"])
}

func TestPredict_ConstraintViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rec *models.VehicleRecord)
		field  string
		value  string
	}{
		{"empty manufacturer", func(r *models.VehicleRecord) { r.Manufacturer = "" }, models.FieldManufacturer, ""},
		{"blank model", func(r *models.VehicleRecord) { r.Model = "  " }, models.FieldModel, "  "},
		{"empty category", func(r *models.VehicleRecord) { r.Category = "" }, models.FieldCategory, ""},
		{"negative cylinders", func(r *models.VehicleRecord) { r.Cylinders = -3 }, models.FieldCylinders, "-3"},
		{"negative airbags", func(r *models.VehicleRecord) { r.Airbags = -1 }, models.FieldAirbags, "-1"},
		{"future production year", func(r *models.VehicleRecord) { r.ProdYear = 2099 }, models.FieldProdYear, "2099"},
		{"implausible production year", func(r *models.VehicleRecord) { r.ProdYear = 12 }, models.FieldProdYear, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePredictor{price: 1}
			svc := createTestService(t, fake, nil)

			rec := camry()
			tt.mutate(&rec)

			_, err := svc.Predict(context.Background(), rec)
			var malformed *perrors.MalformedInputError
			require.True(t, errors.As(err, &malformed), "error: %v", err)
			assert.Equal(t, tt.field, malformed.Field)
			assert.Equal(t, tt.value, malformed.Value)
			assert.Equal(t, 0, fake.calls())
		})
	}
}

func TestPredict_ConstraintsCheckedBeforeAvailability(t *testing.T) {
	svc := createTestService(t, nil, errors.New("not loaded"))

	rec := camry()
	rec.Cylinders = -1
	_, err := svc.Predict(context.Background(), rec)
	requireCode(t, err, perrors.ErrCodeMalformedInput)
}

func TestPredict_CurrentYearProduction(t *testing.T) {
	fake := &fakePredictor{price: 1}
	svc := createTestService(t, fake, nil)

	rec := camry()
	rec.ProdYear = 2025
	_, err := svc.Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fake.seen[0][encoder.IdxCarAge])
}

func TestPredict_PredictorError(t *testing.T) {
	cause := errors.New("tensor shape mismatch")
	svc := createTestService(t, &fakePredictor{err: cause}, nil)

	_, err := svc.Predict(context.Background(), camry())
	var predErr *perrors.PredictorError
	require.True(t, errors.As(err, &predErr))
	assert.Equal(t, "v-test", predErr.Model)
	assert.ErrorIs(t, err, cause)
	requireCode(t, err, perrors.ErrCodePredictorFailed)
}

func TestPredict_NonFinitePrice(t *testing.T) {
	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		svc := createTestService(t, &fakePredictor{price: price}, nil)

		_, err := svc.Predict(context.Background(), camry())
		requireCode(t, err, perrors.ErrCodePredictorFailed)
	}
}

func TestPredict_Concurrent(t *testing.T) {
	fake := &fakePredictor{price: 100}
	svc := createTestService(t, fake, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			price, err := svc.Predict(context.Background(), camry())
			assert.NoError(t, err)
			assert.Equal(t, 100.0, price)
		}()
	}
	wg.Wait()

	require.Equal(t, 32, fake.calls())
	for _, v := range fake.seen {
		assert.Equal(t, fake.seen[0], v)
	}
}

// ==========================
// JSON Entry Point Tests
// ==========================

func TestPredictJSON_Success(t *testing.T) {
	fake := &fakePredictor{price: 20000}
	svc := createTestService(t, fake, nil)

	price, err := svc.PredictJSON(WithSource(context.Background(), SourceHTTP), []byte(camryJSON))
	require.NoError(t, err)
	assert.Equal(t, 20000.0, price)
	assert.Equal(t, 1, fake.calls())
}

func TestPredictJSON_WholeFloatForInteger(t *testing.T) {
	fake := &fakePredictor{price: 1}
	svc := createTestService(t, fake, nil)

	body := strings.Replace(camryJSON, `"cylinders": 4`, `"cylinders": 4.0`, 1)
	_, err := svc.PredictJSON(context.Background(), []byte(body))
	require.NoError(t, err)
	require.Equal(t, 1, fake.calls())
	assert.Equal(t, 4.0, fake.seen[0][encoder.IdxCylinders])
}

func TestPredictJSON_InvalidBody(t *testing.T) {
	svc := createTestService(t, &fakePredictor{price: 1}, nil)

	_, err := svc.PredictJSON(context.Background(), []byte(`{"manufacturer": `))
	requireCode(t, err, perrors.ErrCodeInvalidRequestBody)

	var malformed *perrors.MalformedInputError
	assert.False(t, errors.As(err, &malformed))
}

func TestPredictJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		value string
	}{
		{
			name:  "missing field",
			body:  strings.Replace(camryJSON, `"color": "Black",`, "", 1),
			field: "color",
			value: "",
		},
		{
			name:  "wrong type",
			body:  strings.Replace(camryJSON, `"airbags": 6`, `"airbags": "six"`, 1),
			field: "airbags",
			value: "six",
		},
		{
			name:  "negative cylinders",
			body:  strings.Replace(camryJSON, `"cylinders": 4`, `"cylinders": -1`, 1),
			field: "cylinders",
			value: "-1",
		},
		{
			name:  "fractional cylinders",
			body:  strings.Replace(camryJSON, `"cylinders": 4`, `"cylinders": 4.5`, 1),
			field: "cylinders",
			value: "4.5",
		},
		{
			name:  "empty manufacturer",
			body:  strings.Replace(camryJSON, `"manufacturer": "Toyota"`, `"manufacturer": ""`, 1),
			field: "manufacturer",
			value: "",
		},
		{
			name:  "future production year",
			body:  strings.Replace(camryJSON, `"prod_year": 2018`, `"prod_year": 2099`, 1),
			field: "prod_year",
			value: "2099",
		},
		{
			name:  "unparseable doors",
			body:  strings.Replace(camryJSON, `"doors": "4"`, `"doors": "four"`, 1),
			field: "doors",
			value: "four",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePredictor{price: 1}
			svc := createTestService(t, fake, nil)

			_, err := svc.PredictJSON(context.Background(), []byte(tt.body))

			var malformed *perrors.MalformedInputError
			require.True(t, errors.As(err, &malformed), "error: %v", err)
			assert.Equal(t, tt.field, malformed.Field)
			assert.Equal(t, tt.value, malformed.Value)

			std := requireCode(t, err, perrors.ErrCodeMalformedInput)
			assert.Equal(t, tt.field, std.Metadata["field"])
			assert.Equal(t, tt.value, std.Metadata["value"])
			assert.Equal(t, 0, fake.calls())
		})
	}
}

func TestPredictJSON_ValidationBeforeAvailability(t *testing.T) {
	svc := createTestService(t, nil, errors.New("not loaded"))

	_, err := svc.PredictJSON(context.Background(), []byte(`{}`))
	requireCode(t, err, perrors.ErrCodeMalformedInput)

	_, err = svc.PredictJSON(context.Background(), []byte(camryJSON))
	requireCode(t, err, perrors.ErrCodeModelUnavailable)
}

// ==========================
// Health Tests
// ==========================

func TestModelInfo(t *testing.T) {
	svc := createTestService(t, &fakePredictor{}, nil)

	assert.True(t, svc.ModelLoaded())
	info, ok := svc.ModelInfo()
	require.True(t, ok)
	assert.Equal(t, "v-test", info.Version)
	assert.Equal(t, 2025, svc.CurrentYear())
}

func TestNew_Defaults(t *testing.T) {
	svc := New(Deps{})

	assert.False(t, svc.ModelLoaded())
	assert.Equal(t, time.Now().Year(), svc.CurrentYear())

	_, err := svc.PredictJSON(context.Background(), []byte(`{"manufacturer": 1}`))
	std := requireCode(t, err, perrors.ErrCodeMalformedInput)
	assert.Equal(t, "manufacturer", std.Metadata["field"])

	_, err = svc.PredictJSON(context.Background(), []byte(`not json`))
	requireCode(t, err, perrors.ErrCodeInvalidRequestBody)
}
