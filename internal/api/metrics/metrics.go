// Package metrics defines and registers all custom Prometheus metrics for the
// account system. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry at import time;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "account"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "disabled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts account registrations.
// Label:
//   - result: "success" or "failure"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthFailuresTotal counts rejected authentications on protected routes.
// Label:
//   - reason: "missing_credentials", "invalid_session", "invalid_bearer",
//     "insufficient_role", "disabled"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication attempts, by reason.",
	},
	[]string{"reason"},
)

// RateLimitDropsTotal counts requests rejected by a rate limiter.
// Label:
//   - limiter: "global" or "critical"
var RateLimitDropsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_drops_total",
		Help:      "Total number of requests dropped by rate limiting, by limiter.",
	},
	[]string{"limiter"},
)

// AccessTokensGeneratedTotal counts personal access token (re)generations.
var AccessTokensGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_tokens_generated_total",
		Help:      "Total number of personal access tokens generated.",
	},
)

// APITokenOpsTotal counts API token CRUD operations.
// Label:
//   - op: "create", "update", "delete"
var APITokenOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_token_ops_total",
		Help:      "Total number of API token management operations, by op.",
	},
	[]string{"op"},
)
