package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	SpfLatency      = metric.NewHistogram("1m1s")
	SpfRuns         = metric.NewCounter("10s1s")
	RoutesInstalled = metric.NewCounter("10s1s")
	Lookups         = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("gospf:SpfLatency (µs)", SpfLatency)
	expvar.Publish("gospf:SpfRuns/s", SpfRuns)
	expvar.Publish("gospf:RoutesInstalled/s", RoutesInstalled)
	expvar.Publish("gospf:Lookups/s", Lookups)
}
