// Package artifact delivers the reassembled document to its destination:
// a local file, standard output ("-") or a Cloud Storage object
// ("gs://bucket/object").
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/shouni/go-utils/iohandler"
)

// DefaultName is the file name used when no output is given.
const DefaultName = "transcripcion_formateada.txt"

// ContentType is the MIME type of every artifact.
const ContentType = "text/plain; charset=utf-8"

// Stdout is the destination that selects standard output.
const Stdout = "-"

const gcsScheme = "gs://"

var (
	// ErrOutputExists indicates the local output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrInvalidURI indicates a malformed gs:// destination.
	ErrInvalidURI = errors.New("invalid object URI")
)

// ObjectStore uploads a whole object.
type ObjectStore interface {
	Put(ctx context.Context, bucket, object, contentType string, content []byte) error
}

// GCSStore is an ObjectStore backed by Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a client using application default credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Put writes content to bucket/object. The upload happens on Close.
func (s *GCSStore) Put(ctx context.Context, bucket, object, contentType string, content []byte) error {
	wc := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(content); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Writer routes content to its destination.
type Writer struct {
	stdout    io.Writer
	openStore func(ctx context.Context) (ObjectStore, io.Closer, error)
}

// Option configures a Writer.
type Option func(*Writer)

// WithStdout sets the writer used for the "-" destination.
func WithStdout(w io.Writer) Option {
	return func(wr *Writer) {
		wr.stdout = w
	}
}

// WithObjectStore uses s for gs:// destinations instead of a Cloud Storage client.
func WithObjectStore(s ObjectStore) Option {
	return func(wr *Writer) {
		wr.openStore = func(context.Context) (ObjectStore, io.Closer, error) {
			return s, nopCloser{}, nil
		}
	}
}

// NewWriter returns a Writer. The Cloud Storage client is only created for gs:// destinations.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		stdout: os.Stdout,
		openStore: func(ctx context.Context) (ObjectStore, io.Closer, error) {
			s, err := NewGCSStore(ctx)
			if err != nil {
				return nil, nil, err
			}
			return s, s, nil
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write delivers content to dest and returns a display name for it.
// Local files are created exclusively unless force is set.
func (w *Writer) Write(ctx context.Context, dest, content string, force bool) (string, error) {
	switch {
	case dest == Stdout:
		if _, err := io.WriteString(w.stdout, content); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		if !strings.HasSuffix(content, "\n") {
			_, _ = io.WriteString(w.stdout, "\n")
		}
		return "stdout", nil

	case strings.HasPrefix(dest, gcsScheme):
		bucket, object, err := ParseObjectURI(dest)
		if err != nil {
			return "", err
		}
		store, closer, err := w.openStore(ctx)
		if err != nil {
			return "", err
		}
		defer func() { _ = closer.Close() }()
		if err := store.Put(ctx, bucket, object, ContentType, []byte(content)); err != nil {
			return "", fmt.Errorf("%s: %w", dest, err)
		}
		return dest, nil

	case force:
		if err := iohandler.WriteOutputString(dest, content); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		return dest, nil

	default:
		if err := writeFileAtomic(dest, content); err != nil {
			return "", err
		}
		return dest, nil
	}
}

// ParseObjectURI splits gs://bucket/object.
func ParseObjectURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%q: %w", uri, ErrInvalidURI)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("%q (use gs://bucket/object): %w", uri, ErrInvalidURI)
	}
	return bucket, object, nil
}

// writeFileAtomic writes content to path.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s (use --force to overwrite): %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
