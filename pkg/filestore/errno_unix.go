//go:build unix

package filestore

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isNotEmpty(err error) bool {
	return errors.Is(err, unix.ENOTEMPTY)
}

// rmdir reports EEXIST instead of ENOTEMPTY on some platforms.
func isNotEmptyOnRemove(err error) bool {
	return errors.Is(err, unix.ENOTEMPTY) || errors.Is(err, unix.EEXIST)
}

func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}
