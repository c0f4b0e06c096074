// Package metrics records site build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never check for nil:
//
//	b := builder.New(opts) // uses metrics.NoopRecorder{}
//
// When metrics are wanted, swap in a PrometheusRecorder backed by its own
// registry. The registry can be dumped to a node_exporter textfile after a
// run (WriteTextfile) or served over HTTP by long-running commands
// (HTTPHandler).
package metrics
