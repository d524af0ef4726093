// internal/workers/portfolio/analyze-portfolio/handler.go
package analyzeportfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/metrics"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

const (
	TaskType = "analyze-portfolio"
)

// Analyzer produces a descriptor for one image.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageURL string) (*models.DesignDescriptor, error)
}

// DescriptorWriter swaps the stored descriptor of one portfolio item.
type DescriptorWriter interface {
	UpdateDescriptor(ctx context.Context, artistID, itemID string, descriptor *models.DesignDescriptor) error
}

type Handler struct {
	config   *Config
	analyzer Analyzer
	store    DescriptorWriter
	logger   logger.Logger
}

func NewHandler(config *Config, analyzer Analyzer, store DescriptorWriter, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		analyzer: analyzer,
		store:    store,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	switch {
	case input.ArtistID == "":
		return nil, apperrors.NewValidationFailedError("artistId is required")
	case input.ItemID == "":
		return nil, apperrors.NewValidationFailedError("itemId is required")
	case input.ImageURL == "":
		return nil, apperrors.NewValidationFailedError("imageUrl is required")
	}

	descriptor, err := h.analyzer.AnalyzeImage(ctx, input.ImageURL)
	if err != nil {
		return nil, err
	}

	if err := h.store.UpdateDescriptor(ctx, input.ArtistID, input.ItemID, descriptor); err != nil {
		return nil, err
	}

	h.logger.Info("portfolio item analyzed", map[string]interface{}{
		"artistId": input.ArtistID,
		"itemId":   input.ItemID,
		"style":    descriptor.Style,
	})

	return &Output{
		ArtistID:   input.ArtistID,
		ItemID:     input.ItemID,
		Descriptor: descriptor,
		Analyzed:   true,
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
