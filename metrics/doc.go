// Package metrics records pipeline run metrics with Prometheus.
//
// Pipeline runs are short-lived batch jobs, so metrics are kept on a
// private registry and pushed to a Pushgateway at the end of a run
// instead of being scraped.
package metrics
