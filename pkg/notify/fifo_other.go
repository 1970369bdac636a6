//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package notify

import "errors"

const openNonblock = 0

var errFifoUnsupported = errors.New("named pipes are not supported on this platform")

func mkfifo(string) error {
	return errFifoUnsupported
}

func isNoReader(error) bool {
	return false
}
