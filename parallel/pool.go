// Package parallel provides a small closure-based worker pool used to
// fan image processing out across CPUs.
package parallel

import (
	"runtime"
	"sync"
)

type (
	// WorkerFunc submits one unit of work to the pool.
	WorkerFunc func(func())
	// WaitFunc blocks until submitted work has drained. Passing done
	// also closes the pool to further submissions.
	WaitFunc func(done bool)
	// CancelFunc closes the pool to further submissions.
	CancelFunc func()
)

type Pool struct {
	wg     sync.WaitGroup
	Do     WorkerFunc
	Wait   WaitFunc
	Cancel CancelFunc
}

// Start launches numWorkers goroutines draining a shared work channel.
// Values below 1 use all CPUs. With a single worker the pool degenerates
// to synchronous inline execution and Wait/Cancel become no-ops.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		Do:     func(f func()) { f() },
		Wait:   func(bool) {},
		Cancel: func() {},
	}
	if numWorkers == 1 {
		return pool
	}

	work := make(chan func(), numWorkers)
	for i := 0; i < numWorkers; i++ {
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			for f := range work {
				f()
			}
		}()
	}

	pool.Do = func(f func()) {
		work <- f
	}
	pool.Cancel = sync.OnceFunc(func() { close(work) })
	pool.Wait = func(done bool) {
		if done {
			pool.Cancel()
		}
		pool.wg.Wait()
	}

	return pool
}
