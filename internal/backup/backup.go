package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Options struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	// Root is the directory object names are made relative to.
	Root string
}

// OpenWriter returns a writer for one object. Closing it commits the upload.
type OpenWriter func(ctx context.Context, object string) io.WriteCloser

// Uploader copies persisted data files to a Cloud Storage bucket.
type Uploader struct {
	opts   Options
	open   OpenWriter
	client *storage.Client
	logger *slog.Logger
}

func New(ctx context.Context, opts Options, logger *slog.Logger) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("backup bucket is required")
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	bucket := client.Bucket(opts.Bucket)
	u := NewWithWriter(opts, func(ctx context.Context, object string) io.WriteCloser {
		w := bucket.Object(object).NewWriter(ctx)
		w.ContentType = "text/plain; charset=utf-8"
		return w
	}, logger)
	u.client = client
	return u, nil
}

func NewWithWriter(opts Options, open OpenWriter, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{opts: opts, open: open, logger: logger}
}

// ObjectName maps a local file to its object name under the prefix.
func (u *Uploader) ObjectName(file string) string {
	rel := filepath.Base(file)
	if u.opts.Root != "" {
		if r, err := filepath.Rel(u.opts.Root, file); err == nil && filepath.IsLocal(r) {
			rel = r
		}
	}
	return path.Join(u.opts.Prefix, filepath.ToSlash(rel))
}

// Upload copies each file to the bucket. Missing files are skipped. All files
// are attempted; the joined errors are returned.
func (u *Uploader) Upload(ctx context.Context, files ...string) error {
	var errs []error
	uploaded := 0
	for _, file := range files {
		done, err := u.uploadOne(ctx, file)
		if err != nil {
			u.logger.Warn("backup upload failed", "file", file, "err", err)
			errs = append(errs, err)
			continue
		}
		if done {
			uploaded++
		}
	}
	u.logger.Info("backup finished", "bucket", u.opts.Bucket, "uploaded", uploaded, "failed", len(errs))
	return errors.Join(errs...)
}

func (u *Uploader) uploadOne(ctx context.Context, file string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	object := u.ObjectName(file)
	w := u.open(ctx, object)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return false, fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return false, fmt.Errorf("commit %s: %w", object, err)
	}
	return true, nil
}

func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}
