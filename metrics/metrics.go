// Package metrics holds the Prometheus collectors for the claim portal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claim_portal",
			Subsystem: "roblox",
			Name:      "lookups_total",
			Help:      "Roblox username lookups by outcome.",
		},
		[]string{"outcome"},
	)

	avatarSources = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claim_portal",
			Subsystem: "roblox",
			Name:      "avatar_resolutions_total",
			Help:      "Avatar URLs resolved, by the strategy that produced them.",
		},
		[]string{"strategy"},
	)

	claims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claim_portal",
			Subsystem: "claims",
			Name:      "submissions_total",
			Help:      "Claim submissions by outcome.",
		},
		[]string{"outcome"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claim_portal",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Claim export runs by outcome.",
		},
		[]string{"outcome"},
	)

	exportedClaims = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "claim_portal",
			Subsystem: "export",
			Name:      "claims_total",
			Help:      "Claims written to object storage.",
		},
	)
)

func init() {
	Registry.MustRegister(lookups, avatarSources, claims, exports, exportedClaims)
}

func ObserveLookup(outcome string) { lookups.WithLabelValues(outcome).Inc() }

func ObserveAvatarSource(strategy string) { avatarSources.WithLabelValues(strategy).Inc() }

func ObserveClaim(outcome string) { claims.WithLabelValues(outcome).Inc() }

// ObserveExport records one exporter run and how many claims it shipped.
func ObserveExport(outcome string, count int) {
	exports.WithLabelValues(outcome).Inc()
	if count > 0 {
		exportedClaims.Add(float64(count))
	}
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
