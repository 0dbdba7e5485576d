package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(Appends, Gets, Deletes, DuplicateRejects, TombstoneReuse,
		PageLoads, PageFlushes, PageSpills, AppendLatency, IndexEntries)
}

// StartMetricsServer exposes /metrics on the given port. The engine itself
// never opens sockets; this is opt-in from the command wrappers.
func StartMetricsServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		fmt.Println("[METRICS] Prometheus exporter listening on", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("[METRICS] Failed to start metrics server: %v\n", err)
		}
	}()
}

// ObserveAppend updates the append counters for one completed append.
func ObserveAppend(elapsedSeconds float64, reused bool) {
	Appends.Inc()
	AppendLatency.Observe(elapsedSeconds)
	if reused {
		TombstoneReuse.Inc()
	}
}
