package metaprot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// IsGoogleStoragePath reports whether path names a gs://bucket/object.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path for reading. gs:// paths are read
// through client, which must then be non-nil; anything else is a local file.
func MaybeOpenFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, fmt.Errorf("%s: no google storage client was initialized", path)
		}

		bucketName, pathName, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return rdr, nil
	}

	return os.Open(ExpandHome(path))
}

// PendingWriter is an output that only becomes visible at its final path
// once Commit succeeds. Abort discards everything written so far. After
// either call, further calls are no-ops.
type PendingWriter interface {
	io.Writer
	Commit() error
	Abort() error
}

// MaybeCreateOnGoogleStorage opens a PendingWriter for path, which may be a
// local file or a gs:// object.
func MaybeCreateOnGoogleStorage(ctx context.Context, path string, client *storage.Client) (PendingWriter, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, fmt.Errorf("%s: no google storage client was initialized", path)
		}

		bucketName, pathName, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		// Cancelling the context before Close abandons the upload, so the
		// object is never created.
		cctx, cancel := context.WithCancel(ctx)

		return &pendingObject{
			Writer: client.Bucket(bucketName).Object(pathName).NewWriter(cctx),
			cancel: cancel,
		}, nil
	}

	path = ExpandHome(path)
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.partial")
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &pendingFile{File: f, final: path}, nil
}

type pendingFile struct {
	*os.File
	final string
	done  bool
}

func (p *pendingFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true

	if err := p.File.Close(); err != nil {
		os.Remove(p.File.Name())
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(p.File.Name(), p.final))
}

func (p *pendingFile) Abort() error {
	if p.done {
		return nil
	}
	p.done = true

	p.File.Close()

	return os.Remove(p.File.Name())
}

type pendingObject struct {
	*storage.Writer
	cancel context.CancelFunc
	done   bool
}

func (p *pendingObject) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	defer p.cancel()

	return pfx.Err(p.Writer.Close())
}

func (p *pendingObject) Abort() error {
	if p.done {
		return nil
	}
	p.done = true

	p.cancel()
	p.Writer.Close()

	return nil
}
