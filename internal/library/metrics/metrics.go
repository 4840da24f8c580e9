// Package metrics declares the Prometheus collectors of the news service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngagementEvents counts engagement requests by type and whether a counter moved.
	EngagementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "news",
		Name:      "engagement_events_total",
		Help:      "engagement requests by type and outcome",
	}, []string{"type", "outcome"})

	// TranslationCalls counts provider calls by provider and result.
	TranslationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "news",
		Name:      "translation_calls_total",
		Help:      "translation and speech provider calls",
	}, []string{"provider", "result"})

	// Uploads counts stored media objects by mode.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "news",
		Name:      "uploads_total",
		Help:      "media uploads by mode",
	}, []string{"mode"})
)
