package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type GetOptions struct {
	// Reject archives larger than this many bytes. Zero means no
	// limit.
	MaxSize int

	Timeout time.Duration
}

// A thing capable of fetching a feed archive over the network.
type Downloader interface {
	Get(ctx context.Context, url string, options GetOptions) ([]byte, error)
}

// HTTPDownloader fetches archives over plain HTTP(S).
type HTTPDownloader struct {
	// Client to use for requests. Nil means a fresh default client;
	// the per-request timeout comes from GetOptions either way.
	Client *http.Client
}

func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{}
}

func (d *HTTPDownloader) Get(ctx context.Context, url string, options GetOptions) ([]byte, error) {
	client := d.Client
	if client == nil {
		client = &http.Client{}
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if options.MaxSize > 0 {
		// Read one extra byte so an oversized archive is an error
		// rather than a silently truncated zip.
		reader = io.LimitReader(resp.Body, int64(options.MaxSize)+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if options.MaxSize > 0 && len(body) > options.MaxSize {
		return nil, fmt.Errorf("archive exceeds %d bytes", options.MaxSize)
	}

	return body, nil
}
