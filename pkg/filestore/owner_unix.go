//go:build unix

package filestore

import (
	"io/fs"
	"syscall"
)

func ownerIDs(fi fs.FileInfo) (uid, gid uint32, ok bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}
