// Package metrics exposes Prometheus counters for the commit, conflict and
// rollback paths. Global counters only, no unbounded label cardinality.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CommitsTotal counts commit attempts by outcome: success, conflict,
	// validation, permission, not_found, error.
	CommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mmb_commits_total",
		Help: "Total commit attempts by outcome",
	}, []string{"outcome"})

	// RollbacksTotal counts rollback attempts by result: success, not_found,
	// permission_denied, not_rollbackable, window_expired, error.
	RollbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mmb_rollbacks_total",
		Help: "Total rollback attempts by result",
	}, []string{"result"})

	// AuditWriteFailures counts audit entries that could not be persisted.
	// Audit writes are best-effort, so this is the only trace of the loss.
	AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmb_audit_write_failures_total",
		Help: "Total audit entries dropped due to persistence failures",
	})
)

// MustRegister registers all engine metrics with the given registerer.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(CommitsTotal, RollbacksTotal, AuditWriteFailures)
}
