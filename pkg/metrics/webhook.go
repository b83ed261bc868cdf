package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts gateway webhook deliveries by outcome.
type WebhookMetrics struct {
	processed *prometheus.CounterVec
	duplicate *prometheus.CounterVec
	failed    *prometheus.CounterVec
	rejected  prometheus.Counter
}

// NewWebhookMetrics registers webhook metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Webhook events handled successfully.",
	}, []string{"event_type"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate_total",
		Help: "Webhook events skipped as already processed.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed_total",
		Help: "Webhook events whose handler returned an error.",
	}, []string{"event_type"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_rejected_total",
		Help: "Webhook payloads rejected for an invalid signature.",
	})
	reg.MustRegister(processed, duplicate, failed, rejected)
	return &WebhookMetrics{
		processed: processed,
		duplicate: duplicate,
		failed:    failed,
		rejected:  rejected,
	}
}

// IncProcessed counts a successfully handled event.
func (w *WebhookMetrics) IncProcessed(eventType string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate counts a replayed event that was skipped.
func (w *WebhookMetrics) IncDuplicate(eventType string) {
	if w == nil || w.duplicate == nil {
		return
	}
	w.duplicate.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed counts a handler failure.
func (w *WebhookMetrics) IncFailed(eventType string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRejected counts a signature rejection.
func (w *WebhookMetrics) IncRejected() {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.Inc()
}
