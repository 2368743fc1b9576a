package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/model"
)

// MetricsInterface is what the log processor needs from the metrics layer
type MetricsInterface interface {
	RecordChatLog(log *model.ChatLog)
	IncMalformedDelta(model string)
	GetRegistry() *prometheus.Registry
}

// MetricsService handles Prometheus metrics collection
type MetricsService struct {
	registry *prometheus.Registry

	// Request metrics
	requestsTotal *prometheus.CounterVec
	roundsTotal   *prometheus.CounterVec

	// Tool metrics
	toolCallsTotal  *prometheus.CounterVec
	toolCallLatency *prometheus.HistogramVec

	// Latency metrics
	firstCallLatency *prometheus.HistogramVec
	followUpLatency  *prometheus.HistogramVec
	totalLatency     *prometheus.HistogramVec

	// Stream metrics
	malformedDeltas *prometheus.CounterVec

	// Response metrics
	responseTokens *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec
}

// NewMetricsService creates a metrics service on its own registry
func NewMetricsService() *MetricsService {
	ms := &MetricsService{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_requests_total",
				Help: "Total number of chat requests by outcome",
			},
			[]string{"model", "endpoint", "outcome"},
		),

		roundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_completion_rounds_total",
				Help: "Total number of upstream completion calls",
			},
			[]string{"model"},
		),

		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_tool_calls_total",
				Help: "Total number of tool calls by final status",
			},
			[]string{"tool", "status"},
		),

		toolCallLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_gateway_tool_call_latency_ms",
				Help:    "Tool call latency in milliseconds",
				Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
			},
			[]string{"tool"},
		),

		firstCallLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_gateway_first_call_latency_ms",
				Help:    "First completion call latency in milliseconds",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000},
			},
			[]string{"model"},
		),

		followUpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_gateway_follow_up_latency_ms",
				Help:    "Follow-up completion call latency in milliseconds",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000},
			},
			[]string{"model"},
		),

		totalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_gateway_total_latency_ms",
				Help:    "Total request latency in milliseconds",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000},
			},
			[]string{"model"},
		),

		malformedDeltas: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_malformed_deltas_total",
				Help: "Upstream data lines that failed to parse",
			},
			[]string{"model"},
		),

		responseTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_response_tokens_total",
				Help: "Total number of response tokens generated",
			},
			[]string{"model"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_gateway_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"model", "error_type"},
		),
	}

	ms.registry.MustRegister(
		ms.requestsTotal,
		ms.roundsTotal,
		ms.toolCallsTotal,
		ms.toolCallLatency,
		ms.firstCallLatency,
		ms.followUpLatency,
		ms.totalLatency,
		ms.malformedDeltas,
		ms.responseTokens,
		ms.errorsTotal,
	)

	return ms
}

// RecordChatLog records metrics from a ChatLog entry
func (ms *MetricsService) RecordChatLog(log *model.ChatLog) {
	modelLabels := prometheus.Labels{"model": log.Model}

	outcome := log.Outcome
	if outcome == "" {
		outcome = "unknown"
	}
	ms.requestsTotal.With(prometheus.Labels{
		"model":    log.Model,
		"endpoint": log.Endpoint,
		"outcome":  outcome,
	}).Inc()

	if log.Rounds > 0 {
		ms.roundsTotal.With(modelLabels).Add(float64(log.Rounds))
	}

	for _, call := range log.ToolCalls {
		ms.toolCallsTotal.With(prometheus.Labels{
			"tool":   call.ToolName,
			"status": call.ResultStatus,
		}).Inc()
		ms.toolCallLatency.With(prometheus.Labels{"tool": call.ToolName}).Observe(float64(call.Latency))
	}

	if log.FirstCallLatency > 0 {
		ms.firstCallLatency.With(modelLabels).Observe(float64(log.FirstCallLatency))
	}

	if log.FollowUpLatency > 0 {
		ms.followUpLatency.With(modelLabels).Observe(float64(log.FollowUpLatency))
	}

	if log.TotalLatency > 0 {
		ms.totalLatency.With(modelLabels).Observe(float64(log.TotalLatency))
	}

	if log.Usage.CompletionTokens > 0 {
		ms.responseTokens.With(modelLabels).Add(float64(log.Usage.CompletionTokens))
	}

	for _, errType := range log.ErrorTypes() {
		ms.errorsTotal.With(prometheus.Labels{
			"model":      log.Model,
			"error_type": string(errType),
		}).Inc()
	}
}

// IncMalformedDelta counts one unparseable upstream line as it happens
func (ms *MetricsService) IncMalformedDelta(model string) {
	ms.malformedDeltas.With(prometheus.Labels{"model": model}).Inc()
}

// GetRegistry returns the Prometheus registry
func (ms *MetricsService) GetRegistry() *prometheus.Registry {
	return ms.registry
}
