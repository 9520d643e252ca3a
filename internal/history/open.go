package history

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/option"

	"github.com/wesleyorama2/settle/internal/config"
)

// Open returns the provider selected by cfg. The closer releases any client
// the provider holds and must be called when done.
//
// Returns (nil, nil, nil) when history is disabled.
func Open(ctx context.Context, cfg config.HistoryConfig) (Provider, io.Closer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil, nil
	case "local":
		return NewLocalProvider(cfg.Path), nopCloser{}, nil
	case "gcs":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		p, closeFn, err := NewGCSProvider(ctx, cfg.Bucket, cfg.Prefix, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, closerFunc(closeFn), nil
	default:
		return nil, nil, fmt.Errorf("unknown history provider %q", cfg.Provider)
	}
}

// PersistOptionsFrom extracts the persistence policy from cfg.
func PersistOptionsFrom(cfg config.HistoryConfig) PersistOptions {
	return PersistOptions{
		Persist:       cfg.Persist,
		Branches:      cfg.PersistBranches,
		DefaultBranch: cfg.DefaultBranch,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
