//go:build linux
// +build linux

package util

import "testing"

func TestParseProcMounts(t *testing.T) {
	mounts, err := parseProcMounts()
	if err != nil {
		t.Fatalf("parseProcMounts: %v", err)
	}

	if len(mounts) == 0 {
		t.Fatal("expected at least one mount point")
	}
	if _, ok := mounts["/"]; !ok {
		t.Error("expected root filesystem in the mount table")
	}
}
