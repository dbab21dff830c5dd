package pool

import (
	"context"
	"sync"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/internal/job"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/worker"
)

// WorkerPool owns a fixed set of polling workers plus a janitor that
// reports expired locks. The janitor only observes: expired locks are
// stolen lazily at claim time, never swept.
type WorkerPool struct {
	workers []*worker.Worker
	store   job.JobStoreInterface
	log     *logger.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorkerPool(count int, service job.JobServiceInterface, store job.JobStoreInterface, renderer worker.Renderer, log *logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{store: store, log: log.With("component", "pool"), ctx: ctx, cancel: cancel}

	for i := 1; i <= count; i++ {
		p.workers = append(p.workers, worker.NewWorker(i, service, renderer, log))
	}
	return p
}

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()
}

func (p *WorkerPool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			expired, err := p.store.ListExpiredLocks(p.ctx, time.Now())
			if err != nil {
				p.log.Warn("expired lock scan failed", "error", err)
				continue
			}
			for i := range expired {
				j := &expired[i]
				p.log.Warn("job lock expired, eligible for takeover",
					"job_id", j.ID, "locked_by", *j.LockedBy, "locked_at", *j.LockedAt)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}
