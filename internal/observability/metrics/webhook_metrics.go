package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	WebhookOutcomeHandled  = "handled"
	WebhookOutcomeSkipped  = "skipped"
	WebhookOutcomeFailed   = "failed"
	WebhookOutcomeRejected = "rejected"
	WebhookOutcomeUnparsed = "unparsed"
)

// WebhookMetrics captures webhook processing health signals.
type WebhookMetrics struct {
	deliveries      *prometheus.CounterVec
	handlerOutcomes *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	replayedEvents  prometheus.Counter
}

var (
	webhookMetricsOnce sync.Once
	webhookMetrics     *WebhookMetrics
)

// Webhook returns the singleton webhook metrics registry.
func Webhook() *WebhookMetrics {
	return WebhookWithConfig(Config{})
}

// WebhookWithConfig returns the singleton webhook metrics registry using config labels.
func WebhookWithConfig(cfg Config) *WebhookMetrics {
	webhookMetricsOnce.Do(func() {
		webhookMetrics = newWebhookMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return webhookMetrics
}

// ResetWebhookMetricsForTest resets the webhook metrics singleton for tests.
func ResetWebhookMetricsForTest() {
	webhookMetricsOnce = sync.Once{}
	webhookMetrics = nil
}

func newWebhookMetrics(registerer prometheus.Registerer, cfg Config) *WebhookMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "inkpress"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "inkpress_webhook_deliveries_total",
		Help:        "Webhook deliveries by acceptance outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	handlerOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "inkpress_webhook_handler_outcomes_total",
		Help:        "Webhook handler results by event type and outcome.",
		ConstLabels: constLabels,
	}, []string{"event_type", "outcome"})
	handlerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "inkpress_webhook_handler_duration_seconds",
		Help:        "Webhook handler latency by event type.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"event_type"})
	replayedEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "inkpress_webhook_replayed_events_total",
		Help:        "Webhook events that converged without any state change.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		deliveries,
		handlerOutcomes,
		handlerDuration,
		replayedEvents,
	)

	return &WebhookMetrics{
		deliveries:      deliveries,
		handlerOutcomes: handlerOutcomes,
		handlerDuration: handlerDuration,
		replayedEvents:  replayedEvents,
	}
}

// IncDelivery increments the delivery counter for an acceptance outcome.
func (m *WebhookMetrics) IncDelivery(outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

// IncHandlerOutcome increments the handler outcome counter for an event type.
func (m *WebhookMetrics) IncHandlerOutcome(eventType, outcome string) {
	if m == nil || m.handlerOutcomes == nil {
		return
	}
	m.handlerOutcomes.WithLabelValues(eventType, outcome).Inc()
}

// ObserveHandlerDuration records handler latency in seconds.
func (m *WebhookMetrics) ObserveHandlerDuration(eventType string, duration time.Duration) {
	if m == nil || m.handlerDuration == nil {
		return
	}
	m.handlerDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// IncReplayedEvent increments the counter for no-op event replays.
func (m *WebhookMetrics) IncReplayedEvent() {
	if m == nil || m.replayedEvents == nil {
		return
	}
	m.replayedEvents.Inc()
}
