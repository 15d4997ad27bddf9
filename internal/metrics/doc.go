// Package metrics provides observability hooks for promotion runs.
//
// The package follows the Null Object pattern: components receive a Recorder
// through dependency injection and default to NoopRecorder, so metrics can be
// enabled without code changes and disabled without nil checks.
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	result := runner.WithRecorder(recorder).Run(ctx, req)
//
// A one-shot CLI cannot be scraped, so gathered metrics leave the process
// through a Pushgateway (see Pusher) when one is configured.
package metrics
