package fitcommon

import (
	"sync"
	"sync/atomic"
)

// ForEach calls fn for every index in [0, n) on up to workers goroutines.
// Every index is visited even when some calls fail; the returned slice holds
// the error of each index, or is nil when all succeeded.
func ForEach(n, workers int, fn func(i int) error) []error {
	workers = MinInt(ResolveWorkers(workers), MaxInt(n, 1))
	errs := make([]error, n)
	var next int64 = -1
	var failed atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= n {
					return
				}
				if err := fn(i); err != nil {
					errs[i] = err
					failed.Store(true)
				}
			}
		}()
	}
	wg.Wait()

	if !failed.Load() {
		return nil
	}
	return errs
}

// ReserveEval atomically takes one evaluation slot out of maxEvals. It returns
// the 1-based slot number, or false once the budget is spent.
func ReserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}
