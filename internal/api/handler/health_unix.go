//go:build linux || darwin

package handler

import "golang.org/x/sys/unix"

// getDiskStats returns total and available bytes on the filesystem holding path.
func getDiskStats(path string) (total, free int64) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0
	}
	total = int64(st.Blocks) * int64(st.Bsize)
	free = int64(st.Bavail) * int64(st.Bsize)
	return total, free
}
