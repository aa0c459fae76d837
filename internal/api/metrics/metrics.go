// Package metrics defines and registers the custom Prometheus metrics for the
// groupsplit API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry through promauto on import; the
// HTTP request metrics come from the echoprometheus middleware in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "groupsplit"

// ── Membership metrics ────────────────────────────────────────────────────────

// MembershipChangesTotal counts successful roster and group lifecycle changes.
// Label:
//   - action: "group_created", "group_deleted", "joined", "added", "removed",
//     "left" or "role_changed"
var MembershipChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_changes_total",
		Help:      "Total number of roster and group lifecycle changes, by action.",
	},
	[]string{"action"},
)

// InvitesTotal counts invite ledger outcomes.
// Label:
//   - outcome: "added" (registered user enrolled directly), "invited",
//     "accepted", "revoked" or "expired"
var InvitesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_total",
		Help:      "Total number of invite outcomes.",
	},
	[]string{"outcome"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// ExpensesTotal counts expense writes.
// Label:
//   - action: "created", "updated" or "deleted"
var ExpensesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expenses_total",
		Help:      "Total number of expense writes, by action.",
	},
	[]string{"action"},
)

// BalanceComputeDuration measures a full balance report: loading the roster
// and expense set plus running the engine.
var BalanceComputeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "balance_compute_duration_seconds",
		Help:      "Duration of a group balance report from load to response.",
		Buckets:   prometheus.DefBuckets,
	},
)
