package fetch

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

// writeQueue performs cache writes off the request path. Writes are
// fire-and-forget from the requester's point of view, but every one is
// tracked so drain can finish them before shutdown.
type writeQueue struct {
	wg      sync.WaitGroup
	gate    chan struct{}
	metrics *Metrics
}

func newWriteQueue(concurrency int, metrics *Metrics) *writeQueue {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &writeQueue{
		gate:    make(chan struct{}, concurrency),
		metrics: metrics,
	}
}

// enqueue schedules a snapshot write. Failures are logged and counted,
// never returned.
func (q *writeQueue) enqueue(h store.Handle, key string, snap store.Snapshot) {
	q.metrics.CacheWrites.Inc()
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.gate <- struct{}{}
		defer func() { <-q.gate }()

		if err := h.Put(key, snap); err != nil {
			logrus.Errorf("Failed to cache response for %s: %v", key, err)
			q.metrics.WriteFailures.Inc()
			return
		}
		logrus.Debugf("Cached response for %s", key)
	}()
}

// drain waits for all in-flight writes to complete.
func (q *writeQueue) drain() {
	q.wg.Wait()
}
