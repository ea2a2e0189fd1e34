// Package encoder turns a raw VehicleRecord into the fixed-order numeric vector
// the price model was trained on.
package encoder

import (
	"strings"
	"time"

	"vehicle-pricing/internal/models"
)

// Encode converts a record into a FeatureVector. currentYear is the reference for car age.
// It performs no I/O and holds no state. Parse failures return a
// *errors.MalformedInputError and the zero vector.
func Encode(rec models.VehicleRecord, currentYear int) (FeatureVector, error) {
	// parsers see the raw values so errors report what the caller sent
	mileage, err := parseMileage(rec.Mileage)
	if err != nil {
		return FeatureVector{}, err
	}
	engineVolume, turbo, err := parseEngineVolume(rec.EngineVolume)
	if err != nil {
		return FeatureVector{}, err
	}
	doors, err := parseDoors(rec.Doors)
	if err != nil {
		return FeatureVector{}, err
	}

	rec = lowercase(rec)

	var v FeatureVector
	v[IdxManufacturer] = float64(Bucket(rec.Manufacturer))
	v[IdxModel] = float64(Bucket(rec.Model))
	v[IdxCarAge] = float64(currentYear - rec.ProdYear)
	v[IdxCategory] = float64(Bucket(rec.Category))
	v[IdxLeatherInterior] = boolToFloat(rec.LeatherInterior == "yes")
	v[IdxEngineVolume] = engineVolume
	v[IdxMileage] = float64(mileage)
	v[IdxCylinders] = float64(rec.Cylinders)
	v[IdxDoors] = float64(doors)
	v[IdxWheel] = float64(Bucket(rec.Wheel))
	v[IdxColor] = float64(Bucket(rec.Color))
	v[IdxAirbags] = float64(rec.Airbags)
	v[IdxTurbo] = boolToFloat(turbo)

	driveWheelSlots.set(&v, rec.DriveWheels)
	gearBoxSlots.set(&v, rec.GearBoxType)
	fuelTypeSlots.set(&v, rec.FuelType)

	return v, nil
}

func lowercase(rec models.VehicleRecord) models.VehicleRecord {
	rec.Manufacturer = strings.ToLower(rec.Manufacturer)
	rec.Model = strings.ToLower(rec.Model)
	rec.Category = strings.ToLower(rec.Category)
	rec.LeatherInterior = strings.ToLower(rec.LeatherInterior)
	rec.Wheel = strings.ToLower(rec.Wheel)
	rec.Color = strings.ToLower(rec.Color)
	rec.DriveWheels = strings.ToLower(rec.DriveWheels)
	rec.GearBoxType = strings.ToLower(rec.GearBoxType)
	rec.FuelType = strings.ToLower(rec.FuelType)
	return rec
}

// Encoder binds Encode to a reference year. By default the year is taken from the
// wall clock on every call, so the same record encodes differently across New Year.
type Encoder struct {
	now           func() time.Time
	referenceYear int
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

// WithReferenceYear pins the car-age reference year. Zero keeps the clock.
func WithReferenceYear(year int) Option {
	return func(e *Encoder) { e.referenceYear = year }
}

func New(opts ...Option) *Encoder {
	e := &Encoder{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CurrentYear returns the reference year used for car age.
func (e *Encoder) CurrentYear() int {
	if e.referenceYear > 0 {
		return e.referenceYear
	}
	return e.now().Year()
}

// Encode encodes rec against CurrentYear.
func (e *Encoder) Encode(rec models.VehicleRecord) (FeatureVector, error) {
	return Encode(rec, e.CurrentYear())
}
