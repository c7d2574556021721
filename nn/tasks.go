package nn

import (
	"runtime"
	"sync"
)

// Runner maps a requested task count onto execution units. Tasks within one
// invocation are independent and may execute in any order; the runner must
// not return before every task has completed.
type Runner func(tasks int, fn func(task int))

// RunSerial executes tasks one after another on the calling goroutine.
func RunSerial(tasks int, fn func(task int)) {
	for t := 0; t < tasks; t++ {
		fn(t)
	}
}

// RunParallel fans tasks out over runtime.NumCPU() workers in contiguous
// chunks and waits for completion.
func RunParallel(tasks int, fn func(task int)) {
	workers := runtime.NumCPU()
	if workers > tasks {
		workers = tasks
	}
	if workers <= 1 {
		RunSerial(tasks, fn)
		return
	}

	chunk := (tasks + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > tasks {
			end = tasks
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for t := start; t < end; t++ {
				fn(t)
			}
		}(start, end)
	}
	wg.Wait()
}

// taskPos converts a flat spatial task index into its (n, y, x) location.
// The windowed kernels launch one task per spatial column: N*H*W in total.
func taskPos(task, height, width int) (n, y, x int) {
	n = task / (height * width)
	rem := task % (height * width)
	return n, rem / width, rem % width
}
