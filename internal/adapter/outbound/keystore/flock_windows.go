//go:build windows

package keystore

import "golang.org/x/sys/windows"

// flockLock takes the cross-process lock guarding the credentials file on
// Windows via LockFileEx. Blocks until available, matching Unix flock.
func flockLock(fd uintptr) error {
	var ol windows.Overlapped
	return windows.LockFileEx(windows.Handle(fd), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &ol)
}

// flockUnlock drops the credentials lock via UnlockFileEx.
func flockUnlock(fd uintptr) error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(fd), 0, 1, 0, &ol)
}
