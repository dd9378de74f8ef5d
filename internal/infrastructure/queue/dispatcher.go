package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rulesiliveby/rules-api/internal/api/metrics"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes stats recompute jobs to a fixed set of workers using
// consistent hashing on the rule id, so recomputes for the same rule never
// run concurrently or out of order.
type Dispatcher struct {
	workers []chan ports.StatsJob
	updater ports.StatsUpdater
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, updater ports.StatsUpdater, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.StatsJob, numWorkers),
		updater: updater,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.StatsJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a job to the worker responsible for its rule.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(job ports.StatsJob) {
	i := d.shardIndex(job.RuleID)
	d.workers[i] <- job
	metrics.StatsQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

// shardIndex maps a rule id deterministically to a worker index.
func (d *Dispatcher) shardIndex(ruleID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ruleID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.StatsJob) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.StatsQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.updater.Recompute(ctx, job); err != nil {
				d.log.Error().Err(err).
					Str("rule_id", job.RuleID).
					Int("worker_id", id).
					Msg("stats recompute failed")
			}
		}
	}
}
