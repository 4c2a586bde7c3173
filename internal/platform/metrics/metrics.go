package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	routes map[string]*routeStats
}

type routeStats struct {
	count      uint64
	errors     uint64
	durationMs uint64
}

type RouteSnapshot struct {
	Route         string  `json:"route"`
	Requests      uint64  `json:"requests"`
	Errors        uint64  `json:"errors"`
	AvgDurationMs float64 `json:"avgDurationMs"`
}

func New() *Collector {
	return &Collector{routes: map[string]*routeStats{}}
}

// Record counts one finished request. route is the matched pattern, such
// as "GET /api/v1/users/{id}", so ids do not explode the key space.
func (c *Collector) Record(route string, status int, duration time.Duration) {
	ms := uint64(duration.Milliseconds())
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, ms)

	if route == "" {
		return
	}
	c.mu.Lock()
	stats, ok := c.routes[route]
	if !ok {
		stats = &routeStats{}
		c.routes[route] = stats
	}
	stats.count++
	if status >= 500 {
		stats.errors++
	}
	stats.durationMs += ms
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"routes":           c.routeSnapshot(),
	}
}

func (c *Collector) routeSnapshot() []RouteSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RouteSnapshot, 0, len(c.routes))
	for route, stats := range c.routes {
		out = append(out, RouteSnapshot{
			Route:         route,
			Requests:      stats.count,
			Errors:        stats.errors,
			AvgDurationMs: float64(stats.durationMs) / float64(stats.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}
