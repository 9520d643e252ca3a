package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSProvider stores history in a Google Cloud Storage bucket under
// prefix. Credentials come from the environment unless opts say otherwise.
//
// The returned close function releases the storage client.
func NewGCSProvider(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (Provider, func() error, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return NewGCSProviderWithClient(client, bucket, prefix), client.Close, nil
}

// NewGCSProviderWithClient is like NewGCSProvider with an existing client.
func NewGCSProviderWithClient(client *storage.Client, bucket, prefix string) Provider {
	return &provider{store: &gcsStore{client: client, bucket: bucket, prefix: prefix}}
}

type gcsStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func (s *gcsStore) describe() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.prefix)
}

func (s *gcsStore) objectName(key string) string {
	return path.Join(s.prefix, key)
}

func (s *gcsStore) read(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", s.objectName(key), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", s.objectName(key), err)
	}
	return data, nil
}

func (s *gcsStore) write(ctx context.Context, key string, data []byte) error {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(key))
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write GCS object %s: %w", s.objectName(key), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", s.objectName(key), err)
	}
	return nil
}
