// Package metrics provides observability hooks for the farm task economy.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs nil checks:
//
//	proposer := economy.NewProposer(gen, repo, economy.WithRecorder(metrics.NoopRecorder{}))
//
// When a metrics listener is configured the CLI swaps in a PrometheusRecorder
// and serves its registry through HTTPHandler.
package metrics
