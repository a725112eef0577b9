//go:build linux

package smartplot

import "golang.org/x/sys/unix"

// setSchedPolicy applies policy and priority to the calling OS thread.
func setSchedPolicy(policy, priority int) error {
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   uint32(policy),   //nolint: gosec
		Priority: uint32(priority), //nolint: gosec
	}

	return unix.SchedSetAttr(0, &attr, 0)
}
