// Package metrics records pipeline observations behind the Recorder interface.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no call site needs a nil check. When the configuration
// names a metrics textfile, the command wires a PrometheusRecorder and writes
// its registry in the node_exporter textfile format once the run settles:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	// ... run the pipeline with recorder ...
//	_ = recorder.WriteTextfile(".contentbuilder/metrics.prom")
package metrics
