// download.go
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/registry"
)

const (
	// DefaultMaxRetries is the number of download attempts
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the pause between attempts
	DefaultRetryDelay = 60 * time.Second
)

// Downloader fetches and verifies release archives into a cache directory
type Downloader struct {
	Client     *Client
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.SugaredLogger
}

// NewDownloader creates a downloader with default retry settings
func NewDownloader(logger *zap.SugaredLogger) *Downloader {
	return &Downloader{
		Client:     NewClient(),
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Logger:     core.OrNop(logger),
	}
}

// Fetch makes sure dir/<artifact file name> exists with the expected SHA-1
// and returns its path. A cached file with the right hash is reused.
func (d *Downloader) Fetch(ctx context.Context, art *registry.Artifact, dir string) (string, error) {
	logger := core.OrNop(d.Logger)
	localPath := filepath.Join(dir, art.FileName)

	if ok, _ := hashMatches(localPath, art.SHA1, logger); ok {
		logger.Infof("File already downloaded: %s", localPath)
		return localPath, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	attempts := d.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			logger.Warnf("Download failed (%v), retry %d of %d", lastErr, i+1, attempts)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.RetryDelay):
			}
		}

		lastErr = d.fetchOnce(ctx, art, localPath)
		if lastErr == nil {
			return localPath, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &core.Error{Op: "download", Subject: art.URL, Err: lastErr}
}

func (d *Downloader) fetchOnce(ctx context.Context, art *registry.Artifact, localPath string) error {
	logger := core.OrNop(d.Logger)
	logger.Infof("Downloading %s -> %s", art.URL, localPath)

	client := d.Client
	if client == nil {
		client = NewClient()
	}

	f, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".part-*")
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	written, err := client.Download(ctx, art.URL, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	logger.Debugf("  Downloaded %d bytes", written)

	ok, err := hashMatches(tmpPath, art.SHA1, logger)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrHashMismatch
	}

	return os.Rename(tmpPath, localPath)
}

// hashMatches computes the SHA-1 of filePath and compares it to expected.
func hashMatches(filePath, expected string, logger *zap.SugaredLogger) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	logger.Debugf("Calculating hash of %s", filePath)
	hasher := sha1.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, fmt.Errorf("computing hash: %w", err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		logger.Debugf("SHA1 mismatch for %s: %s (real), %s (expected)", filePath, actual, expected)
		return false, nil
	}
	return true, nil
}
