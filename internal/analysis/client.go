// Package analysis is the client for the visual-analysis collaborator. The
// core never analyzes images itself; it only consumes descriptors.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/httpx"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// Client calls the visual-analysis service over HTTP.
type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	logger  logger.Logger
}

// NewClient creates an analysis client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		http:    httpx.NewClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  log,
	}
}

type analyzeRequest struct {
	ImageURL string `json:"imageUrl"`
}

type analyzeResponse struct {
	Descriptor *models.DesignDescriptor `json:"descriptor"`
	Error      string                   `json:"error,omitempty"`
}

// AnalyzeImage submits one image URL and returns its descriptor.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL string) (*models.DesignDescriptor, error) {
	payload, err := json.Marshal(analyzeRequest{ImageURL: imageURL})
	if err != nil {
		return nil, apperrors.NewAnalysisFailedError(err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewAnalysisFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, apperrors.NewAnalysisFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAnalysisFailedError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAnalysisFailedError(
			fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, string(body)))
	}

	var out analyzeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewAnalysisFailedError(err)
	}
	if out.Error != "" {
		return nil, apperrors.NewAnalysisFailedError(fmt.Errorf("analysis service error: %s", out.Error))
	}
	if out.Descriptor == nil || out.Descriptor.Style == "" {
		return nil, apperrors.NewAnalysisFailedError(fmt.Errorf("analysis service returned no usable descriptor"))
	}

	return out.Descriptor, nil
}
