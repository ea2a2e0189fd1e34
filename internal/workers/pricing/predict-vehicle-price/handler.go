package predictvehicleprice

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"vehicle-pricing/internal/common/camunda"
	"vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/common/metrics"
	"vehicle-pricing/internal/predictor"
	"vehicle-pricing/internal/service"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "predict-vehicle-price"

var errMissingVehicle = stderrors.New("job variable vehicle is required")

// Service is the part of service.PredictionService the worker needs.
type Service interface {
	PredictJSON(ctx context.Context, raw []byte) (float64, error)
	ModelInfo() (predictor.Info, bool)
}

type Handler struct {
	config       *Config
	service      Service
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, svc Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      svc,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// Execute prices input.Vehicle.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Vehicle) == 0 || string(input.Vehicle) == "null" {
		return nil, errors.NewMalformedInput("vehicle", string(input.Vehicle), errMissingVehicle)
	}

	price, err := h.service.PredictJSON(service.WithSource(ctx, service.SourceWorker), input.Vehicle)
	if err != nil {
		return nil, err
	}

	output := &Output{PredictedPrice: price}
	if info, ok := h.service.ModelInfo(); ok {
		output.ModelVersion = info.Version
	}

	h.logger.Debug("vehicle priced", map[string]interface{}{
		"requestId": input.RequestID,
		"price":     price,
	})
	return output, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidRequestBodyError(fmt.Errorf("parse job variables: %w", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}
	return camunda.SendWithRetry(ctx, camunda.DefaultRetryConfig, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}
