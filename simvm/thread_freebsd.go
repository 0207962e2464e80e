package simvm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// currentThreadID identifies the calling OS thread.
func currentThreadID() int {
	var id int64
	unix.RawSyscall(unix.SYS_THR_SELF, uintptr(unsafe.Pointer(&id)), 0, 0)
	return int(id)
}
