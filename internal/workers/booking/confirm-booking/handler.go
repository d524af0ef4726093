// internal/workers/booking/confirm-booking/handler.go
package confirmbooking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/booking"
	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/metrics"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

const (
	TaskType = "confirm-booking"
)

// Coordinator is the slice of the negotiation coordinator this worker uses.
type Coordinator interface {
	Confirm(ctx context.Context, bookingID, by string, agreed booking.ConfirmOverrides) (*models.BookingRequest, error)
}

type Handler struct {
	config      *Config
	coordinator Coordinator
	logger      logger.Logger
}

func NewHandler(config *Config, coordinator Coordinator, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		coordinator: coordinator,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, apperrors.AsStandard(err))
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.BookingID == "" {
		return nil, apperrors.NewValidationFailedError("bookingId is required")
	}

	agreed := booking.ConfirmOverrides{
		Date:          input.Date,
		Price:         input.Price,
		DurationHours: input.DurationHours,
	}
	updated, err := h.coordinator.Confirm(ctx, input.BookingID, input.By, agreed)
	if err != nil {
		return nil, err
	}

	h.logger.Info("booking confirmed", map[string]interface{}{
		"bookingId": updated.ID,
		"date":      updated.Confirmed.Date,
		"price":     updated.Confirmed.Price,
	})

	return &Output{
		BookingID:     updated.ID,
		Status:        string(updated.Status),
		ConfirmedDate: updated.Confirmed.Date,
		Price:         updated.Confirmed.Price,
		DurationHours: updated.Confirmed.DurationHours,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    stdErr.Code,
		"errorMessage": stdErr.Message,
	})

	bpmnErr := apperrors.ConvertToBPMNError(stdErr)
	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
