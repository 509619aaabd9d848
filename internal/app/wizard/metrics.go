package wizard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "meca",
	Subsystem: "wizard",
	Name:      "submissions_total",
	Help:      "Total number of wizard submissions broken down by path and result.",
}, []string{"path", "result"})

// result is one of ok, partial, invalid, error.
func recordSubmission(path Path, result string) {
	submissions.WithLabelValues(string(path), result).Inc()
}
