//go:build linux

package executor

import "golang.org/x/sys/unix"

// affinityCount counts the CPUs this process may be scheduled on.
func affinityCount() int {
	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0
	}

	return set.Count()
}
