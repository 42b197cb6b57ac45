//go:build !linux

package executor

func affinityCount() int {
	return 0
}
