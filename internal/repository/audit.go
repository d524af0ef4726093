package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// MatchQueryRecord is the audit document written for every match query.
type MatchQueryRecord struct {
	QueryID        string    `json:"queryId"`
	CustomerID     string    `json:"customerId"`
	Style          string    `json:"style,omitempty"`
	MaxRadiusKm    float64   `json:"maxRadiusKm"`
	BudgetMin      int       `json:"budgetMin"`
	BudgetMax      int       `json:"budgetMax"`
	CandidateCount int       `json:"candidateCount"`
	ResultCount    int       `json:"resultCount"`
	TopScore       float64   `json:"topScore"`
	DurationMs     int64     `json:"durationMs"`
	Timestamp      time.Time `json:"timestamp"`
}

// AuditSink writes match-query records to Elasticsearch. It is advisory: the
// ranker calls it after results are computed and treats failures as
// log-and-continue.
type AuditSink struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewAuditSink creates a sink over the given index.
func NewAuditSink(client *elasticsearch.Client, index string, log logger.Logger) *AuditSink {
	return &AuditSink{client: client, index: index, logger: log}
}

// RecordMatchQuery indexes one audit record.
func (a *AuditSink) RecordMatchQuery(ctx context.Context, record *MatchQueryRecord) error {
	if record.QueryID == "" {
		record.QueryID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewSearchUnavailableError(err)
	}

	req := esapi.IndexRequest{
		Index:      a.index,
		DocumentID: record.QueryID,
		Body:       bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return apperrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		a.logger.Warn("Match query audit rejected", map[string]interface{}{
			"status": res.Status(),
			"index":  a.index,
		})
		return apperrors.NewSearchUnavailableError(errIndexRejected{status: res.Status()})
	}

	return nil
}

// RecordFromQuery builds a record from the query and the ranked results.
func RecordFromQuery(query *models.CustomerQuery, candidateCount int, results []models.MatchResult, elapsed time.Duration) *MatchQueryRecord {
	record := &MatchQueryRecord{
		CustomerID:     query.CustomerID,
		MaxRadiusKm:    query.MaxRadiusKm,
		BudgetMin:      query.Budget.Min,
		BudgetMax:      query.Budget.Max,
		CandidateCount: candidateCount,
		ResultCount:    len(results),
		DurationMs:     elapsed.Milliseconds(),
	}
	if query.Descriptor != nil {
		record.Style = query.Descriptor.Style
	}
	if len(results) > 0 {
		record.TopScore = results[0].Score
	}
	return record
}

type errIndexRejected struct {
	status string
}

func (e errIndexRejected) Error() string {
	return "elasticsearch index request rejected: " + e.status
}
