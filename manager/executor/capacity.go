package executor

import "runtime"

// Capacity is the number of tasks the host can run in parallel, never
// less than one.
func Capacity() int {
	n := affinityCount()
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}
