package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the scrubber-level counters exposed next to the HTTP metrics.
type Metrics struct {
	scans             prometheus.Counter
	replacementsFound prometheus.Counter
	applied           prometheus.Counter
	applyErrors       prometheus.Counter
	backupsMirrored   *prometheus.CounterVec
	duration          *prometheus.HistogramVec
}

// NewMetrics registers the scrubber metrics with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrub_scans_total",
			Help: "Total number of scans run.",
		}),
		replacementsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrub_replacements_found_total",
			Help: "Hardcoded strings reported across all scans.",
		}),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrub_replacements_applied_total",
			Help: "Replacements written back into source files.",
		}),
		applyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrub_apply_errors_total",
			Help: "Entries reported in errors[] by apply passes.",
		}),
		backupsMirrored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrub_backup_mirror_total",
			Help: "Backup mirror attempts by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scrub_operation_duration_seconds",
			Help:    "Duration of scrubber operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{
		m.scans, m.replacementsFound, m.applied, m.applyErrors, m.backupsMirrored, m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
