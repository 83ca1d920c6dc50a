package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/BrianaLong/CS340---Client-Server-Development/crud"
)

// Namespace prefixes every metric name.
const Namespace = "crud"

// Observer counts accessor calls for Prometheus.
// It implements crud.Observer.
type Observer struct {
	operations *prometheus.CounterVec
	documents  *prometheus.CounterVec
}

var _ crud.Observer = &Observer{}

// NewObserver returns an Observer with unregistered counters.
func NewObserver() *Observer {
	return &Observer{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: Namespace, Name: "operations_total", Help: "Number of accessor calls by operation and outcome."},
			[]string{"operation", "outcome"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: Namespace, Name: "documents_total", Help: "Number of documents inserted, returned, modified or deleted by operation."},
			[]string{"operation"},
		),
	}
}

// RegisterCollectors registers the counters, it panics if they are already registered.
func (o *Observer) RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(o.operations)
	reg.MustRegister(o.documents)
}

// Observe counts one call and the documents it affected.
func (o *Observer) Observe(op crud.Operation, outcome crud.Outcome, count int64) {
	o.operations.WithLabelValues(string(op), string(outcome)).Inc()
	if count > 0 {
		o.documents.WithLabelValues(string(op)).Add(float64(count))
	}
}

// WriteSummary prints one line per counter series in the namespace.
func WriteSummary(gatherer prometheus.Gatherer, w io.Writer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), Namespace+"_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			fmt.Fprintf(w, "%s%s %g\n", family.GetName(), labels(metric), value(metric))
		}
	}

	return nil
}

func labels(metric *dto.Metric) string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func value(metric *dto.Metric) float64 {
	switch {
	case metric.GetCounter() != nil:
		return metric.GetCounter().GetValue()
	case metric.GetGauge() != nil:
		return metric.GetGauge().GetValue()
	default:
		return 0
	}
}
