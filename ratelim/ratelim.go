package ratelim

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ShouldProcess is the sole gate between "record seen" and the expensive
// detail fetch. It must be consulted before any network call for the detail
// page. force always wins; otherwise a record is due once its last successful
// run is at least skipWindowDays old, or it has never been seen.
func ShouldProcess(lastSeenAt *time.Time, now time.Time, skipWindowDays int, force bool) bool {
	if force {
		return true
	}
	if lastSeenAt == nil {
		return true
	}
	days := int(now.Sub(*lastSeenAt).Hours() / 24)
	return days >= skipWindowDays
}

// CrawlLimiter spaces outbound requests per host so the fan-out of one index
// job does not overwhelm a source. Hosts are independent.
type CrawlLimiter struct {
	hosts map[string]*rate.Limiter
	every time.Duration
	mu    sync.Mutex
}

// NewCrawlLimiter allows one request per `every` per host, with a burst of 1.
func NewCrawlLimiter(every time.Duration) *CrawlLimiter {
	if every <= 0 {
		every = 2 * time.Second
	}
	return &CrawlLimiter{
		hosts: make(map[string]*rate.Limiter),
		every: every,
	}
}

func (cl *CrawlLimiter) getLimiter(host string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if limiter, exists := cl.hosts[host]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(cl.every), 1)
	cl.hosts[host] = limiter

	// Drop idle hosts after a while so the map does not grow unbounded.
	go func() {
		time.Sleep(30 * time.Minute)
		cl.mu.Lock()
		delete(cl.hosts, host)
		cl.mu.Unlock()
	}()

	return limiter
}

// Reserve returns how long the caller must wait before hitting host.
func (cl *CrawlLimiter) Reserve(host string) time.Duration {
	return cl.getLimiter(host).Reserve().Delay()
}
