package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type uniqueClients struct {
	counter prometheus.Gauge
	seen    map[string]struct{}
	day     string
	mu      sync.Mutex
}

var totalUniqueClientsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: videoDownloader,
		Name:      uniqueClientsDaily,
		Help:      "number of distinct client addresses that started a download today (UTC)",
	},
)

var UniqueClientsPerDay = &uniqueClients{
	counter: totalUniqueClientsMetric,
	seen:    make(map[string]struct{}),
}

// Observe records a client. The set is reset when the UTC day changes.
func (u *uniqueClients) Observe(client string, now time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()

	day := now.UTC().Format(time.DateOnly)
	if day != u.day {
		u.day = day
		u.seen = make(map[string]struct{})
		u.counter.Set(0)
	}

	if _, exists := u.seen[client]; exists {
		return
	}

	u.seen[client] = struct{}{}
	u.counter.Inc()
}

func (u *uniqueClients) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.seen)
}
