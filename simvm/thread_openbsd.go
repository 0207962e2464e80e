package simvm

import "golang.org/x/sys/unix"

const threadSelfTrap = unix.SYS_GETTHRID
