//go:build darwin
// +build darwin

package util

import (
	"strings"
	"syscall"
)

// Filesystem type names macOS reports for network mounts.
var darwinNetworkFsTypes = []string{"nfs", "smbfs", "afpfs", "cifs", "webdav", "osxfuse"}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	// statfs on Darwin carries the filesystem type name and mount point
	// directly, as NUL-terminated int8 arrays.
	fsType := strings.ToLower(cString(stat.Fstypename[:]))
	for _, netType := range darwinNetworkFsTypes {
		if strings.Contains(fsType, netType) {
			info.IsNetwork = true
			info.Protocol = fsType
			info.MountPath = cString(stat.Mntonname[:])
			break
		}
	}

	return info, nil
}

// cString converts a NUL-terminated int8 array from a syscall struct into
// a Go string.
func cString(arr []int8) string {
	buf := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	return string(buf)
}
