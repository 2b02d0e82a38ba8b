package transitdash

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/downloader"
	"github.com/openmetro/transitdash/parse"
	"github.com/openmetro/transitdash/storage"
)

const (
	// Timeout and max size for feed archive downloads. Static dumps
	// for large agencies run into the hundreds of megabytes.
	DefaultFeedTimeout = 60 * time.Second
	DefaultFeedMaxSize = 800 << 20
)

// LoadSnapshot fetches a feed archive from src (an http(s) URL or a
// local file path), parses it into store, and returns a snapshot over
// it. Feeds are keyed by the SHA256 of the archive, so a persistent
// store acts as a parse cache: a byte-identical archive loads without
// re-parsing.
func LoadSnapshot(ctx context.Context, src string, store storage.Storage, dl downloader.Downloader) (*Snapshot, error) {
	if dl == nil {
		dl = downloader.NewHTTPDownloader()
	}

	var buf []byte
	var err error
	var url string
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		url = src
		buf, err = dl.Get(ctx, src, downloader.GetOptions{
			Timeout: DefaultFeedTimeout,
			MaxSize: DefaultFeedMaxSize,
		})
		if err != nil {
			return nil, fmt.Errorf("downloading feed: %w", err)
		}
	} else {
		buf, err = os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading feed file: %w", err)
		}
	}

	feedID := fmt.Sprintf("%x", sha256.Sum256(buf))

	if reader, err := store.GetReader(feedID); err == nil {
		metadata, err := reader.Metadata()
		if err != nil {
			return nil, fmt.Errorf("reading cached metadata: %w", err)
		}
		logrus.WithField("feed", feedID).Info("loaded feed from storage")
		return NewSnapshot(reader, metadata)
	}

	writer, err := store.GetWriter(feedID)
	if err != nil {
		return nil, fmt.Errorf("getting writer: %w", err)
	}

	began := time.Now()
	metadata, err := parse.ParseArchive(writer, buf)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	metadata.SHA256 = feedID
	metadata.URL = url
	metadata.RetrievedAt = time.Now().UTC()

	if err := writer.WriteMetadata(metadata); err != nil {
		return nil, fmt.Errorf("writing metadata: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"feed":     feedID,
		"duration": time.Since(began),
	}).Info("parsed and stored feed")

	reader, err := store.GetReader(feedID)
	if err != nil {
		return nil, fmt.Errorf("getting reader: %w", err)
	}
	return NewSnapshot(reader, metadata)
}
