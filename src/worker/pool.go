package worker

import (
	"context"
	"runtime"
	"sync"

	"screen-pin/src/capture"
	"screen-pin/src/coords"
	"screen-pin/src/logutil"
)

// Capturer is the part of capture.Service the pool needs.
type Capturer interface {
	CaptureRegion(ctx context.Context, region coords.Rect, progress capture.ProgressFunc) capture.Result
}

// ResultCallback is invoked on capture completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(res capture.Result)

// Pool is a fixed-size capture worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	svc  Capturer
	log  logutil.Sink
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx      context.Context
	region   coords.Rect
	progress capture.ProgressFunc
	cb       ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, svc Capturer, log logutil.Sink) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if log == nil {
		log = logutil.Discard()
	}
	p := &Pool{svc: svc, log: log, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				logutil.Logf(p.log, logutil.LevelDebug, "worker: capturing %v", j.region)
				res := p.svc.CaptureRegion(j.ctx, j.region, j.progress)
				logutil.Logf(p.log, logutil.LevelDebug, "worker: capture done, success=%v kind=%v", res.Success, res.Failure)
				if j.cb != nil {
					j.cb(res)
				}
			}
		}()
	}
}

// Submit enqueues a capture job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, region coords.Rect, progress capture.ProgressFunc, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, region: region, progress: progress, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
