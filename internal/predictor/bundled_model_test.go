package predictor

import (
	"context"
	"math"
	"testing"

	"vehicle-pricing/internal/common/config"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/encoder"
	"vehicle-pricing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledModel_Camry(t *testing.T) {
	cfg := config.ModelConfig{Source: config.ModelSourceFile, ArtifactPath: "../../models/best_model.json"}
	loaded, err := Load(context.Background(), cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, FormatTreeEnsemble, loaded.Info.Format)

	v, err := encoder.Encode(models.VehicleRecord{
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
	}, 2025)
	require.NoError(t, err)

	price, err := loaded.Predictor.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.InDelta(t, math.Expm1(9.35+0.31-0.05+0.11+0.08), price, 1e-6)
}
