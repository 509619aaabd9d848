package memberships

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orphanedSecondaries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "meca",
		Subsystem: "memberships",
		Name:      "orphaned_secondaries",
		Help:      "Secondary memberships whose master was not found in the last roster build.",
	})

	rosterBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meca",
		Subsystem: "memberships",
		Name:      "roster_builds_total",
		Help:      "Total number of member roster builds broken down by result.",
	}, []string{"result"})
)

func recordRosterBuild(err error, orphans int) {
	if err != nil {
		rosterBuilds.WithLabelValues("error").Inc()
		return
	}
	rosterBuilds.WithLabelValues("ok").Inc()
	orphanedSecondaries.Set(float64(orphans))
}
