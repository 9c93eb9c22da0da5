package util

import (
	"fmt"
	"path/filepath"
	"syscall"
)

// NetworkInfo describes where a path lives. Scanning stations drop their
// session trees on SMB/NFS shares, so both the ingest walk and the catalog
// database can end up on network storage that needs different tuning.
type NetworkInfo struct {
	IsNetwork bool   // true when the path sits on a network mount
	Protocol  string // nfs, cifs, smbfs, ... (empty for local disks)
	MountPath string // mount point owning the path, when known
}

// DetectNetworkFilesystem reports whether path is on a network mount.
// Detection is platform-specific (statfs magic numbers on Linux, the
// filesystem type name on macOS); other platforms report local.
func DetectNetworkFilesystem(path string) (*NetworkInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(abs, &stat); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", abs, err)
	}

	return detectPlatformNetwork(abs, &stat)
}

// IsNetworkPath is DetectNetworkFilesystem reduced to a yes/no; errors
// count as local so callers never tune for NAS by accident.
func IsNetworkPath(path string) bool {
	info, err := DetectNetworkFilesystem(path)
	return err == nil && info.IsNetwork
}
