// Package fileutil provides small filesystem helpers shared by the stores.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Exists reports whether path refers to an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirSize walks dir and returns the total size in bytes of the regular files
// beneath it, along with the file count. A missing directory counts as empty.
func DirSize(dir string) (int64, int, error) {
	var total int64
	var count int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		count++
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	return total, count, nil
}

// DiskUsage returns the total and available bytes of the filesystem holding path.
func DiskUsage(path string) (total uint64, free uint64, err error) {
	t, f, err := statfs(path)
	if err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return t, f, nil
}

// statfs allows tests to stub filesystem stats.
var statfs = realStatfs

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Blocks * blockSize, stat.Bavail * blockSize, nil
}
