// Package filestore implements sandboxed file operations under one root
// directory.
//
// Every operation takes a caller-supplied path relative to the root, confines
// it with Confine, and then acts on the platform filesystem. A path that
// would resolve outside the root fails with ErrEscape before the filesystem
// is touched.
//
// A Filestore holds no mutable state: it is safe for concurrent use, and two
// filestores over the same root never coordinate. Concurrent mutations of the
// same path are resolved by the platform.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/metrics"
)

// DefaultChunkSize is the ReadStream chunk size when none is configured.
const DefaultChunkSize = 8192

// readDirBatch bounds how many directory entries are read per syscall batch
// while listing.
const readDirBatch = 256

// Filestore gives confined access to the tree below one root directory.
type Filestore struct {
	root      string
	chunkSize int
	owners    *OwnerResolver
	metrics   metrics.FilestoreMetrics
}

// Option configures a Filestore.
type Option func(*Filestore)

// WithChunkSize sets the default ReadStream chunk size.
func WithChunkSize(n int) Option {
	return func(f *Filestore) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithOwnerResolver shares an owner/group name resolver between filestores.
func WithOwnerResolver(r *OwnerResolver) Option {
	return func(f *Filestore) {
		if r != nil {
			f.owners = r
		}
	}
}

// WithMetrics records per-operation counts and latencies.
func WithMetrics(m metrics.FilestoreMetrics) Option {
	return func(f *Filestore) {
		if m != nil {
			f.metrics = m
		}
	}
}

// New creates a filestore rooted at root.
//
// The root is made absolute and symlinks in it are resolved once, here; all
// confinement checks compare against that canonical form. A root that does
// not exist yet (for example an unmounted share) is accepted in its absolute
// lexical form, and operations on it fail with ErrNotFound until it appears.
func New(root string, opts ...Option) (*Filestore, error) {
	if root == "" {
		return nil, newError(ErrInvalidArgument, "new", root, errors.New("root directory is required"))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, newError(ErrInvalidArgument, "new", root, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("Filestore root %s does not exist yet", abs)
		canonical = abs
	default:
		return nil, mapOSError("new", root, err)
	}

	f := &Filestore{
		root:      canonical,
		chunkSize: DefaultChunkSize,
		owners:    defaultOwners,
		metrics:   metrics.NewFilestoreMetrics(canonical),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the canonical absolute root directory.
func (f *Filestore) Root() string {
	return f.root
}

// Describe returns metadata for path. Symlinks are followed.
func (f *Filestore) Describe(ctx context.Context, path string) (info FileInfo, err error) {
	defer f.record("describe", time.Now(), &err)

	full, err := f.resolve(ctx, "describe", path)
	if err != nil {
		return FileInfo{}, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, mapOSError("describe", path, err)
	}
	return f.newFileInfo(ctx, full, fi), nil
}

// Entries returns a lazy, single-pass sequence describing the children of
// the directory at path, in platform enumeration order.
//
// The directory itself is checked before Entries returns: a missing path
// fails with ErrNotFound and a non-directory with ErrNotDirectory. Children
// that vanish or cannot be stat'ed while the sequence is consumed are skipped.
// Iteration stops early when ctx is done.
func (f *Filestore) Entries(ctx context.Context, path string) (seq iter.Seq[FileInfo], err error) {
	defer f.record("list", time.Now(), &err)

	full, err := f.resolve(ctx, "list", path)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return nil, mapOSError("list", path, err)
	}
	if !fi.IsDir() {
		return nil, newError(ErrNotDirectory, "list", path, nil)
	}

	return func(yield func(FileInfo) bool) {
		dir, err := os.Open(full)
		if err != nil {
			logger.Warn("Cannot open directory %s for listing: %v", full, err)
			return
		}
		defer dir.Close()

		for {
			if ctx.Err() != nil {
				return
			}

			batch, err := dir.ReadDir(readDirBatch)
			for _, entry := range batch {
				child := filepath.Join(full, entry.Name())
				cfi, serr := os.Stat(child)
				if serr != nil {
					logger.Debug("Skipping %s: %v", child, serr)
					continue
				}
				if !yield(f.newFileInfo(ctx, child, cfi)) {
					return
				}
			}

			if err != nil {
				if err != io.EOF {
					logger.Warn("Listing of %s ended early: %v", full, err)
				}
				return
			}
		}
	}, nil
}

// List is Entries collected into a slice sorted by name.
func (f *Filestore) List(ctx context.Context, path string) ([]FileInfo, error) {
	seq, err := f.Entries(ctx, path)
	if err != nil {
		return nil, err
	}

	infos := slices.Collect(seq)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(infos, func(a, b FileInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos, nil
}

// ReadStream returns a sequence of the file's contents in chunks of
// chunkSize bytes (the last may be shorter). Each chunk is a fresh slice the
// caller may retain. chunkSize <= 0 uses the filestore default.
//
// Missing paths and directories fail with ErrNotFound before ReadStream
// returns. The file is opened when iteration starts and closed when it ends
// or the consumer stops; read errors are yielded once and end the sequence.
func (f *Filestore) ReadStream(ctx context.Context, path string, chunkSize int) (seq iter.Seq2[[]byte, error], err error) {
	defer f.record("read", time.Now(), &err)

	full, err := f.readable(ctx, "read", path)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = f.chunkSize
	}

	return func(yield func([]byte, error) bool) {
		file, err := os.Open(full)
		if err != nil {
			yield(nil, mapOSError("read", path, err))
			return
		}
		defer file.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			buf := make([]byte, chunkSize)
			n, err := io.ReadFull(file, buf)
			if n > 0 {
				f.metrics.RecordBytesRead(n)
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			if err != nil {
				yield(nil, mapOSError("read", path, err))
				return
			}
		}
	}, nil
}

// Open returns a reader over the file at path. The caller must Close it.
func (f *Filestore) Open(ctx context.Context, path string) (rc io.ReadCloser, err error) {
	defer f.record("open", time.Now(), &err)

	full, err := f.readable(ctx, "open", path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, mapOSError("open", path, err)
	}
	return &countingReader{file: file, metrics: f.metrics}, nil
}

// CreateFile creates an empty regular file. It fails with ErrAlreadyExists
// if anything exists at path; missing parent directories are not created.
func (f *Filestore) CreateFile(ctx context.Context, path string) (err error) {
	defer f.record("create_file", time.Now(), &err)

	full, err := f.resolve(ctx, "create_file", path)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return mapOSError("create_file", path, err)
	}
	if err := file.Close(); err != nil {
		return mapOSError("create_file", path, err)
	}
	return nil
}

// CreateDirectory creates a single directory. It fails with
// ErrAlreadyExists if anything exists at path.
func (f *Filestore) CreateDirectory(ctx context.Context, path string) (err error) {
	defer f.record("create_directory", time.Now(), &err)

	full, err := f.resolve(ctx, "create_directory", path)
	if err != nil {
		return err
	}

	if err := os.Mkdir(full, 0o755); err != nil {
		return mapOSError("create_directory", path, err)
	}
	return nil
}

// Rename moves oldPath to newPath. Both are confined independently. Whether
// an existing destination is replaced is left to the platform.
func (f *Filestore) Rename(ctx context.Context, oldPath, newPath string) (err error) {
	defer f.record("rename", time.Now(), &err)

	oldFull, err := f.resolveMutable(ctx, "rename", oldPath)
	if err != nil {
		return err
	}
	newFull, err := f.resolveMutable(ctx, "rename", newPath)
	if err != nil {
		return err
	}

	if err := os.Rename(oldFull, newFull); err != nil {
		return mapOSError("rename", oldPath, err)
	}
	return nil
}

// Remove deletes a file or an empty directory. Non-empty directories fail
// with ErrNotEmpty; nothing is removed recursively.
func (f *Filestore) Remove(ctx context.Context, path string) (err error) {
	defer f.record("remove", time.Now(), &err)

	full, err := f.resolveMutable(ctx, "remove", path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if isNotEmptyOnRemove(err) {
			return newError(ErrNotEmpty, "remove", path, err)
		}
		return mapOSError("remove", path, err)
	}
	return nil
}

// SetPermissions applies a symbolic ("-rw-r--r--", "rwxr-x---") or octal
// ("644", "2775") permission string to path.
func (f *Filestore) SetPermissions(ctx context.Context, path, permissions string) (err error) {
	defer f.record("chmod", time.Now(), &err)

	full, err := f.resolve(ctx, "chmod", path)
	if err != nil {
		return err
	}

	mode, err := ParseMode(permissions)
	if err != nil {
		return newError(ErrInvalidArgument, "chmod", path, err)
	}

	if err := os.Chmod(full, mode); err != nil {
		return mapOSError("chmod", path, err)
	}
	return nil
}

// resolve checks ctx and confines path.
func (f *Filestore) resolve(ctx context.Context, op, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := Confine(f.root, path)
	if err != nil {
		var se *StoreError
		if errors.As(err, &se) {
			se.Op = op
			if se.Code == ErrEscape {
				logger.Warn("Rejected %s of %q: resolves outside %s", op, path, f.root)
			}
		}
		return "", err
	}
	return full, nil
}

// resolveMutable is resolve for operations that must not target the root.
func (f *Filestore) resolveMutable(ctx context.Context, op, path string) (string, error) {
	full, err := f.resolve(ctx, op, path)
	if err != nil {
		return "", err
	}
	if full == f.root {
		return "", newError(ErrInvalidArgument, op, path, fmt.Errorf("cannot %s the filestore root", op))
	}
	return full, nil
}

// readable confines path and requires it to be an existing non-directory.
func (f *Filestore) readable(ctx context.Context, op, path string) (string, error) {
	full, err := f.resolve(ctx, op, path)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(full)
	if err != nil {
		return "", mapOSError(op, path, err)
	}
	if fi.IsDir() {
		return "", newError(ErrNotFound, op, path, errors.New("is a directory"))
	}
	return full, nil
}

func (f *Filestore) record(op string, start time.Time, errp *error) {
	status := "success"
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = "canceled"
		default:
			status = CodeOf(err).String()
		}
	}
	f.metrics.RecordOperation(op, time.Since(start), status)
}

type countingReader struct {
	file    *os.File
	metrics metrics.FilestoreMetrics
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	if n > 0 {
		r.metrics.RecordBytesRead(n)
	}
	return n, err
}

func (r *countingReader) Close() error {
	return r.file.Close()
}
