package nn

import (
	"sync/atomic"
	"testing"
)

// TestTaskPos verifies the flat task index decomposes into (n, y, x).
func TestTaskPos(t *testing.T) {
	const height, width = 3, 4

	seen := make(map[[3]int]bool)
	for task := 0; task < 2*height*width; task++ {
		n, y, x := taskPos(task, height, width)
		if n < 0 || n >= 2 || y < 0 || y >= height || x < 0 || x >= width {
			t.Fatalf("task %d: out of range position (%d,%d,%d)", task, n, y, x)
		}
		key := [3]int{n, y, x}
		if seen[key] {
			t.Fatalf("task %d: duplicate position (%d,%d,%d)", task, n, y, x)
		}
		seen[key] = true
	}
	if len(seen) != 2*height*width {
		t.Errorf("expected %d distinct positions, got %d", 2*height*width, len(seen))
	}
}

// TestRunParallelCoversAllTasks verifies every task runs exactly once.
func TestRunParallelCoversAllTasks(t *testing.T) {
	for _, tasks := range []int{0, 1, 7, 64, 1000} {
		counts := make([]int32, tasks)
		RunParallel(tasks, func(task int) {
			atomic.AddInt32(&counts[task], 1)
		})
		for i, c := range counts {
			if c != 1 {
				t.Errorf("tasks=%d: task %d ran %d times", tasks, i, c)
			}
		}
	}
}
