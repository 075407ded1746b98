package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// AgentMetrics is an aggregated view of one agent's oracle usage over a run,
// pulled back out of Prometheus for run summaries.
type AgentMetrics struct {
	AgentID         string  `json:"agent_id"`
	Requests        int64   `json:"requests"`
	Errors          int64   `json:"errors"`
	PromptChars     int64   `json:"prompt_chars"`
	CompletionChars int64   `json:"completion_chars"`
	AvgLatency      float64 `json:"avg_latency_seconds"`
}

// QueryService reads aggregates back from a Prometheus server.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a query service against prometheusURL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{client: client, queryAPI: v1.NewAPI(client)}, nil
}

// GetAgentMetrics aggregates one agent's oracle usage.
func (q *QueryService) GetAgentMetrics(ctx context.Context, agentID string) (*AgentMetrics, error) {
	m := &AgentMetrics{AgentID: agentID}

	var err error
	if m.Requests, err = q.scalar(ctx, fmt.Sprintf(`sum(oracle_requests_total{agent_id=%q})`, agentID)); err != nil {
		return nil, fmt.Errorf("failed to query request count: %w", err)
	}
	if m.Errors, err = q.scalar(ctx, fmt.Sprintf(`sum(oracle_requests_total{agent_id=%q, status="error"})`, agentID)); err != nil {
		return nil, fmt.Errorf("failed to query error count: %w", err)
	}
	if m.PromptChars, err = q.scalar(ctx, fmt.Sprintf(`sum(oracle_chars_total{agent_id=%q, direction="prompt"})`, agentID)); err != nil {
		return nil, fmt.Errorf("failed to query prompt chars: %w", err)
	}
	if m.CompletionChars, err = q.scalar(ctx, fmt.Sprintf(`sum(oracle_chars_total{agent_id=%q, direction="completion"})`, agentID)); err != nil {
		return nil, fmt.Errorf("failed to query completion chars: %w", err)
	}

	latencyQuery := fmt.Sprintf(
		`sum(oracle_request_duration_seconds_sum{agent_id=%q}) / sum(oracle_request_duration_seconds_count{agent_id=%q})`,
		agentID, agentID,
	)
	result, _, err := q.queryAPI.Query(ctx, latencyQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query latency: %w", err)
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		m.AvgLatency = float64(vector[0].Value)
	}

	return m, nil
}

func (q *QueryService) scalar(ctx context.Context, query string) (int64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return int64(vector[0].Value), nil
	}
	return 0, nil
}
