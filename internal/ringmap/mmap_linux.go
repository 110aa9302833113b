//go:build linux

package ringmap

import "golang.org/x/sys/unix"

// DefaultMmap maps the given region of fd using MAP_SHARED|MAP_POPULATE,
// matching the mapping the kernel expects callers to make against an
// io_uring instance fd.
func DefaultMmap(fd int, offset int64, length int) ([]byte, error) {
	return unix.Mmap(fd, offset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
}

// DefaultMunmap is the matching teardown half of DefaultMmap.
func DefaultMunmap(b []byte) error {
	return unix.Munmap(b)
}

// DontFork marks a mapped region MADV_DONTFORK so a forked child does not
// inherit (and then race on) stale ring state, per spec.md §4.1.
func DontFork(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Madvise(b, unix.MADV_DONTFORK)
}
