package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
)

// Open returns a reader over the source. Sources are local paths, file://
// URIs or http(s) URLs; a .gz suffix selects gzip decompression.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source is empty")
	}

	rc, name, err := openRaw(ctx, source)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(name), ".gz") {
		return rc, nil
	}

	zr, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return &gzipReadCloser{Reader: zr, underlying: rc}, nil
}

func openRaw(ctx context.Context, source string) (io.ReadCloser, string, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		f, err := os.Open(source)
		if err != nil {
			return nil, "", err
		}
		return f, source, nil
	}

	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, "", err
		}
		return f, u.Path, nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", err
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, "", fmt.Errorf("fetching %s: unexpected status %s", source, resp.Status)
		}
		return resp.Body, u.Path, nil
	default:
		return nil, "", fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

type gzipReadCloser struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipReadCloser) Close() error {
	return multierr.Append(g.Reader.Close(), g.underlying.Close())
}
