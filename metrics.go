package main

import (
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// counters registers every counter the application emits and returns them keyed
// for the telemetry provider.
func counters(r prometrics.Registry) map[observability.MetricKey]observability.Counter {
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: r.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MOrdersPlaced: r.Counter(
			string(observability.MOrdersPlaced),
			"Orders successfully placed.",
		),
		observability.MOrderStatusChanges: r.Counter(
			string(observability.MOrderStatusChanges),
			"Order lifecycle transitions.",
			"to",
		),
		observability.MRatingsSubmitted: r.Counter(
			string(observability.MRatingsSubmitted),
			"Ratings created or updated.",
			"kind",
		),
		observability.MRatingsRemoved: r.Counter(
			string(observability.MRatingsRemoved),
			"Ratings deleted.",
		),
		observability.MStockReleases: r.Counter(
			string(observability.MStockReleases),
			"Stock reservations released by checkout compensation.",
		),
	}
}

func histograms(r prometrics.Registry) map[observability.MetricKey]observability.Histogram {
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: r.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
	}
}
