// internal/encoder/features.go
package encoder

// NumFeatures is the length of every encoded vector.
const NumFeatures = 27

// Feature positions. The order is the column order the model was trained on;
// changing it silently desynchronises inference from training.
const (
	IdxManufacturer = iota
	IdxModel
	IdxCarAge
	IdxCategory
	IdxLeatherInterior
	IdxEngineVolume
	IdxMileage
	IdxCylinders
	IdxDoors
	IdxWheel
	IdxColor
	IdxAirbags
	IdxTurbo
	IdxDrive4WD
	IdxDriveFront
	IdxDriveRear
	IdxGearAutomatic
	IdxGearManual
	IdxGearTiptronic
	IdxGearVariator
	IdxFuelCNG
	IdxFuelDiesel
	IdxFuelHybrid
	IdxFuelHydrogen
	IdxFuelLPG
	IdxFuelGasoline
	IdxFuelPluginHybrid
)

// FeatureNames lists the column names in vector order. Model artifacts must declare
// exactly this list.
var FeatureNames = [NumFeatures]string{
	"manufacturer",
	"model",
	"car_age",
	"category",
	"leather_interior",
	"engine_volume",
	"mileage",
	"cylinders",
	"doors",
	"wheel",
	"color",
	"airbags",
	"turbo",
	"drive_4wd",
	"drive_front",
	"drive_rear",
	"gear_automatic",
	"gear_manual",
	"gear_tiptronic",
	"gear_variator",
	"fuel_cng",
	"fuel_diesel",
	"fuel_hybrid",
	"fuel_hydrogen",
	"fuel_lpg",
	"fuel_gasoline",
	"fuel_plugin_hybrid",
}

// FeatureVector is a fixed-order encoded record.
type FeatureVector [NumFeatures]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// oneHotGroup is a mutually exclusive set of slots keyed by lowercased category value.
type oneHotGroup map[string]int

// Unrecognised values leave the whole group at zero.
var (
	driveWheelSlots = oneHotGroup{
		"4wd":   IdxDrive4WD,
		"front": IdxDriveFront,
		"rear":  IdxDriveRear,
	}

	gearBoxSlots = oneHotGroup{
		"automatic": IdxGearAutomatic,
		"manual":    IdxGearManual,
		"tiptronic": IdxGearTiptronic,
		"variator":  IdxGearVariator,
	}

	// IdxFuelHydrogen is a training category with no input spelling, so it is never set.
	fuelTypeSlots = oneHotGroup{
		"cng":           IdxFuelCNG,
		"diesel":        IdxFuelDiesel,
		"hybrid":        IdxFuelHybrid,
		"lpg":           IdxFuelLPG,
		"gasoline":      IdxFuelGasoline,
		"plugin hybrid": IdxFuelPluginHybrid,
	}
)

// OneHotGroups returns the slot indices of each one-hot group, keyed by group name.
func OneHotGroups() map[string][]int {
	return map[string][]int{
		"leather_interior": {IdxLeatherInterior},
		"turbo":            {IdxTurbo},
		"drive_wheels":     {IdxDrive4WD, IdxDriveFront, IdxDriveRear},
		"gear_box_type":    {IdxGearAutomatic, IdxGearManual, IdxGearTiptronic, IdxGearVariator},
		"fuel_type": {
			IdxFuelCNG, IdxFuelDiesel, IdxFuelHybrid, IdxFuelHydrogen,
			IdxFuelLPG, IdxFuelGasoline, IdxFuelPluginHybrid,
		},
	}
}

func (g oneHotGroup) set(v *FeatureVector, value string) {
	if idx, ok := g[value]; ok {
		v[idx] = 1
	}
}
