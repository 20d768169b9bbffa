//go:build !windows

package keystore

import "syscall"

// flockLock takes the exclusive cross-process lock guarding the
// credentials file (Unix flock).
func flockLock(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_EX)
}

// flockUnlock drops the credentials lock.
func flockUnlock(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_UN)
}
