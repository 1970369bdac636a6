//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package notify

import (
	"errors"
	"syscall"
)

const openNonblock = syscall.O_NONBLOCK

func mkfifo(path string) error {
	return syscall.Mkfifo(path, 0o644)
}

func isNoReader(err error) bool {
	return errors.Is(err, syscall.ENXIO)
}
