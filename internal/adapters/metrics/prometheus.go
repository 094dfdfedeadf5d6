package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusticketing/internal/domain"
)

// Recorder implements domain.MetricsRecorder with Prometheus counters.
type Recorder struct {
	registrations *prometheus.CounterVec
	checkIns      *prometheus.CounterVec
	retries       *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusticketing_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusticketing_check_ins_total",
			Help: "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusticketing_transient_retries_total",
			Help: "Retries of atomic sections after transient storage failures.",
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.registrations, r.checkIns, r.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) RecordRegistration(outcome string) {
	r.registrations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordCheckIn(outcome string) {
	r.checkIns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordRetry(operation string) {
	r.retries.WithLabelValues(operation).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ domain.MetricsRecorder = (*Recorder)(nil)
