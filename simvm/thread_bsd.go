//go:build darwin || dragonfly || netbsd || openbsd

package simvm

import "golang.org/x/sys/unix"

// currentThreadID identifies the calling OS thread.
func currentThreadID() int {
	id, _, _ := unix.RawSyscall(threadSelfTrap, 0, 0, 0)
	return int(id)
}
