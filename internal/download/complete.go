package download

import (
	"golang.org/x/sys/unix"

	"loopfetch/internal/manifest"
)

// Complete reports whether the file at path already satisfies pkg. The
// declared and local sizes are both truncated to storage-block counts using
// the file's own block size; the file is complete when it occupies at least
// as many blocks as the remote package would. This tolerates the one-block
// rounding drift some filesystems introduce while still catching genuinely
// truncated files.
func Complete(pkg manifest.Package, path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}

	blockSize := int64(st.Blksize)
	if blockSize <= 0 {
		return false
	}

	remoteBlocks := pkg.Size / blockSize
	localBlocks := st.Size / blockSize
	return localBlocks >= remoteBlocks
}
