// Package service runs a vehicle record through validation, encoding and the
// loaded predictor, and maps every failure onto the error taxonomy.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	perrors "vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/common/metrics"
	"vehicle-pricing/internal/common/observability"
	"vehicle-pricing/internal/common/validation"
	"vehicle-pricing/internal/encoder"
	"vehicle-pricing/internal/models"
	"vehicle-pricing/internal/predictor"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	SourceHTTP   = "http"
	SourceWorker = "worker"
)

var (
	errEmptyText = errors.New("value must not be empty")
	errNegative  = errors.New("value must be >= 0")
)

type sourceKey struct{}

// WithSource labels predictions made with ctx for metrics.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceOf(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return "direct"
}

// PredictionService holds only read-only collaborators and is safe for concurrent use.
type PredictionService struct {
	encoder   *encoder.Encoder
	validator *validation.Validator
	model     *predictor.Loaded
	loadErr   error
	obs       *observability.Observability
	logger    logger.Logger
}

// Deps are the collaborators of a PredictionService. Model is nil when loading
// failed; LoadErr then explains why and is reported on every request.
type Deps struct {
	Encoder       *encoder.Encoder
	Validator     *validation.Validator
	Model         *predictor.Loaded
	LoadErr       error
	Observability *observability.Observability
	Logger        logger.Logger
}

func New(deps Deps) *PredictionService {
	s := &PredictionService{
		encoder:   deps.Encoder,
		validator: deps.Validator,
		model:     deps.Model,
		loadErr:   deps.LoadErr,
		obs:       deps.Observability,
		logger:    deps.Logger,
	}
	if s.encoder == nil {
		s.encoder = encoder.New()
	}
	if s.obs == nil {
		s.obs = observability.NewNoop()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}

	if s.model != nil {
		metrics.ModelLoaded.WithLabelValues(s.model.Info.Version, s.model.Info.Format).Set(1)
	} else {
		metrics.ModelLoaded.WithLabelValues("", "").Set(0)
	}
	return s
}

// ModelLoaded reports whether a predictor is available.
func (s *PredictionService) ModelLoaded() bool {
	return s.model != nil
}

// ModelInfo describes the loaded model. ok is false when none is loaded.
func (s *PredictionService) ModelInfo() (info predictor.Info, ok bool) {
	if s.model == nil {
		return predictor.Info{}, false
	}
	return s.model.Info, true
}

// CurrentYear is the car-age reference year the encoder uses right now.
func (s *PredictionService) CurrentYear() int {
	return s.encoder.CurrentYear()
}

// Predict encodes rec and scores it. The returned price is always finite.
func (s *PredictionService) Predict(ctx context.Context, rec models.VehicleRecord) (float64, error) {
	return s.observe(ctx, "PredictionService.Predict", func(ctx context.Context) (float64, error) {
		return s.predict(ctx, rec)
	})
}

// PredictJSON validates a raw request document against the vehicle schema,
// decodes it and predicts.
func (s *PredictionService) PredictJSON(ctx context.Context, raw []byte) (float64, error) {
	return s.observe(ctx, "PredictionService.PredictJSON", func(ctx context.Context) (float64, error) {
		rec, err := s.decode(raw)
		if err != nil {
			return 0, err
		}
		return s.predict(ctx, rec)
	})
}

func (s *PredictionService) decode(raw []byte) (models.VehicleRecord, error) {
	var rec models.VehicleRecord

	if s.validator != nil {
		result, err := s.validator.ValidateVehicle(raw, s.encoder.CurrentYear())
		if err != nil {
			return rec, perrors.NewInvalidRequestBodyError(err)
		}
		if !result.Valid {
			field := result.FirstField()
			return rec, perrors.NewMalformedInput(field, documentValue(raw, field),
				errors.New(strings.Join(result.GetErrorMessages(), "; ")))
		}
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		var malformed *perrors.MalformedInputError
		if errors.As(err, &malformed) {
			return rec, malformed
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return rec, perrors.NewMalformedInput(typeErr.Field, documentValue(raw, typeErr.Field), err)
		}
		return rec, perrors.NewInvalidRequestBodyError(err)
	}
	return rec, nil
}

// documentValue returns the raw text of a top-level field, unquoted for strings.
// It is empty for a missing field or a document that is not an object.
func documentValue(raw []byte, field string) string {
	if field == "" {
		return ""
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	v, ok := doc[field]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		return str
	}
	return string(v)
}

// checkRecord enforces the record constraints the encoder does not parse.
func checkRecord(rec models.VehicleRecord, currentYear int) error {
	switch {
	case strings.TrimSpace(rec.Manufacturer) == "":
		return perrors.NewMalformedInput(models.FieldManufacturer, rec.Manufacturer, errEmptyText)
	case strings.TrimSpace(rec.Model) == "":
		return perrors.NewMalformedInput(models.FieldModel, rec.Model, errEmptyText)
	case strings.TrimSpace(rec.Category) == "":
		return perrors.NewMalformedInput(models.FieldCategory, rec.Category, errEmptyText)
	case rec.Cylinders < 0:
		return perrors.NewMalformedInput(models.FieldCylinders, strconv.Itoa(rec.Cylinders), errNegative)
	case rec.Airbags < 0:
		return perrors.NewMalformedInput(models.FieldAirbags, strconv.Itoa(rec.Airbags), errNegative)
	case rec.ProdYear < validation.MinProdYear:
		return perrors.NewMalformedInput(models.FieldProdYear, strconv.Itoa(rec.ProdYear),
			fmt.Errorf("value must be >= %d", validation.MinProdYear))
	case rec.ProdYear > currentYear:
		return perrors.NewMalformedInput(models.FieldProdYear, strconv.Itoa(rec.ProdYear),
			fmt.Errorf("value must be <= %d", currentYear))
	}
	return nil
}

func (s *PredictionService) predict(ctx context.Context, rec models.VehicleRecord) (float64, error) {
	currentYear := s.encoder.CurrentYear()
	if err := checkRecord(rec, currentYear); err != nil {
		return 0, err
	}
	if s.model == nil {
		return 0, &perrors.ModelUnavailableError{Reason: "no model loaded", Err: s.loadErr}
	}

	v, err := encoder.Encode(rec, currentYear)
	if err != nil {
		return 0, err
	}

	price, err := s.model.Predictor.Predict(ctx, v)
	if err != nil {
		return 0, &perrors.PredictorError{Model: s.model.Info.Version, Err: err}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, &perrors.PredictorError{
			Model: s.model.Info.Version,
			Err:   fmt.Errorf("non-finite prediction %v", price),
		}
	}
	return price, nil
}

func (s *PredictionService) observe(ctx context.Context, name string, fn func(context.Context) (float64, error)) (float64, error) {
	source := sourceOf(ctx)
	start := time.Now()

	ctx, span := s.obs.StartSpan(ctx, name, attribute.String("prediction.source", source))
	defer span.End()

	price, err := fn(ctx)
	elapsed := time.Since(start)

	metrics.PredictionDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		stdErr := perrors.Normalize(err)
		metrics.PredictionsTotal.WithLabelValues(source, "error").Inc()
		metrics.PredictionErrors.WithLabelValues(source, string(stdErr.Code)).Inc()
		s.obs.RecordPrediction(ctx, source, "error", elapsed)

		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))

		s.logger.Warn("Prediction failed", map[string]interface{}{
			"source":    source,
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		return 0, err
	}

	metrics.PredictionsTotal.WithLabelValues(source, "success").Inc()
	s.obs.RecordPrediction(ctx, source, "success", elapsed)
	span.SetAttributes(attribute.Float64("prediction.price", price))

	s.logger.Debug("Prediction completed", map[string]interface{}{
		"source":   source,
		"price":    price,
		"duration": elapsed.String(),
	})
	return price, nil
}
