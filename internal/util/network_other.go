//go:build !linux && !darwin
// +build !linux,!darwin

package util

import "syscall"

// detectPlatformNetwork has no detection on this platform; paths are
// treated as local so no NAS tuning kicks in.
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	return &NetworkInfo{}, nil
}
