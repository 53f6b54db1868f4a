/*
Package observability turns engine lifecycle events into signals.

Metrics exposes Prometheus collectors fed by domain.LifecycleHooks, and
LogHooks writes one structured log line per event. Both return plain hooks,
so they compose with domain.LifecycleHooks.Chain:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	agent := catena.New(initial, catena.WithLifecycleHooks(
		metrics.Hooks().Chain(observability.LogHooks(logger)),
	))
*/
package observability
