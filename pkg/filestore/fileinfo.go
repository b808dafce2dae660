package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os/user"
	"strconv"
	"time"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/cache"
)

// FileInfo describes a single file or directory inside a filestore.
type FileInfo struct {
	// Name is the final path component
	Name string `json:"name"`

	// Path is slash-separated and relative to the filestore root ("." for
	// the root itself)
	Path string `json:"path"`

	// Size in bytes; always 0 for directories
	Size int64 `json:"size"`

	IsDir bool `json:"is_dir"`

	// Permissions in ten-character symbolic form, e.g. "-rw-r--r--"
	Permissions string `json:"permissions"`

	// Owner and Group are empty when the id has no name on this host
	Owner string `json:"owner,omitempty"`
	Group string `json:"group,omitempty"`

	// LastModified is seconds since the Unix epoch
	LastModified float64 `json:"last_modified"`
}

// ModTime returns LastModified as a time.Time.
func (fi FileInfo) ModTime() time.Time {
	sec := int64(fi.LastModified)
	nsec := int64((fi.LastModified - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// DefaultOwnerTTL is how long uid/gid name lookups are remembered.
const DefaultOwnerTTL = 10 * time.Minute

// OwnerResolver maps numeric uids and gids to names, remembering results
// for a while. One resolver can be shared by any number of filestores.
type OwnerResolver struct {
	users  *cache.Table[uint32, string]
	groups *cache.Table[uint32, string]
}

// NewOwnerResolver creates a resolver whose lookups stay valid for ttl.
func NewOwnerResolver(ttl time.Duration, opts ...cache.Option) *OwnerResolver {
	return &OwnerResolver{
		users:  cache.NewTable[uint32, string]("owners", ttl, opts...),
		groups: cache.NewTable[uint32, string]("groups", ttl, opts...),
	}
}

var defaultOwners = NewOwnerResolver(DefaultOwnerTTL)

// Names returns the owner and group names for fi. Either is empty when it
// cannot be resolved; resolution never fails the caller.
func (r *OwnerResolver) Names(ctx context.Context, fi fs.FileInfo) (owner, group string) {
	uid, gid, ok := ownerIDs(fi)
	if !ok {
		return "", ""
	}

	owner, err := r.users.Get(ctx, uid, lookupUser(uid))
	if err != nil {
		logger.Debug("Cannot resolve uid %d: %v", uid, err)
	}
	group, err = r.groups.Get(ctx, gid, lookupGroup(gid))
	if err != nil {
		logger.Debug("Cannot resolve gid %d: %v", gid, err)
	}
	return owner, group
}

// Unknown ids are remembered as "" so they are not looked up on every stat.
func lookupUser(uid uint32) cache.FetchFunc[string] {
	return func(context.Context) (string, error) {
		u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
		if err != nil {
			var unknown user.UnknownUserIdError
			if errors.As(err, &unknown) {
				return "", nil
			}
			return "", err
		}
		return u.Username, nil
	}
}

func lookupGroup(gid uint32) cache.FetchFunc[string] {
	return func(context.Context) (string, error) {
		g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
		if err != nil {
			var unknown user.UnknownGroupIdError
			if errors.As(err, &unknown) {
				return "", nil
			}
			return "", err
		}
		return g.Name, nil
	}
}

// newFileInfo builds a FileInfo for the confined path full.
func (f *Filestore) newFileInfo(ctx context.Context, full string, fi fs.FileInfo) FileInfo {
	size := fi.Size()
	if fi.IsDir() {
		size = 0
	}

	owner, group := f.owners.Names(ctx, fi)

	mtime := fi.ModTime()
	return FileInfo{
		Name:         fi.Name(),
		Path:         relative(f.root, full),
		Size:         size,
		IsDir:        fi.IsDir(),
		Permissions:  FormatMode(fi.Mode()),
		Owner:        owner,
		Group:        group,
		LastModified: float64(mtime.UnixNano()) / 1e9,
	}
}
