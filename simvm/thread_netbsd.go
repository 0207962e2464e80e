package simvm

import "golang.org/x/sys/unix"

const threadSelfTrap = unix.SYS__LWP_SELF
