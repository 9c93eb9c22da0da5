//go:build linux
// +build linux

package util

import (
	"os"
	"strings"
	"syscall"
)

// Statfs magic numbers for the network filesystem types archive shares
// actually get mounted as (linux/magic.h).
var linuxNetworkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0xfe534d42: "smb2",
	0x517b:     "smb",
	0x01021994: "smbfs",
	0x564c:     "ncp",
}

// Mount-table filesystem type substrings that mean "network", covering the
// FUSE transports the magic-number check can't see.
var linuxNetworkFsTypes = []string{
	"nfs", "cifs", "smb", "smbfs", "ncpfs", "fuse.sshfs", "fuse.rclone",
}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	if proto, ok := linuxNetworkMagic[uint32(stat.Type)]; ok {
		info.IsNetwork = true
		info.Protocol = proto
	}

	// The magic number identifies the protocol but not the mount point;
	// the mount table has both. If it is unreadable the magic-number
	// verdict stands.
	mounts, err := parseProcMounts()
	if err != nil {
		return info, nil
	}

	best := ""
	for mountPoint, fsType := range mounts {
		if !strings.HasPrefix(path, mountPoint) || len(mountPoint) <= len(best) {
			continue
		}
		best = mountPoint

		lower := strings.ToLower(fsType)
		for _, netType := range linuxNetworkFsTypes {
			if strings.Contains(lower, netType) {
				info.IsNetwork = true
				info.Protocol = lower
				info.MountPath = mountPoint
				break
			}
		}
	}

	return info, nil
}

// parseProcMounts maps mount points to filesystem types from /proc/mounts
// (device mountpoint fstype options dump pass).
func parseProcMounts() (map[string]string, error) {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return nil, err
	}

	mounts := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}

	return mounts, nil
}
