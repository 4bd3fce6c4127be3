/*
Package bootstrap downloads prebuilt thesaurus artifacts when none exist
locally.

A download goes to a temporary file next to its destination and is renamed
into place only once complete, so an interrupted fetch never leaves a partial
artifact behind. There is no retry; a failed download reports
ErrDownloadFailed and the caller decides what to do next.
*/
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/wordsim/internal/utils"
	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/charmbracelet/log"
)

// ErrDownloadFailed is returned for any transport error or non-2xx response.
var ErrDownloadFailed = errors.New("download failed: try again later or provide valid artifact files")

// DefaultTimeout bounds a whole download.
const DefaultTimeout = 30 * time.Minute

// NewClient returns an http.Client with DefaultTimeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Fetch downloads rawURL to dest unless dest already exists. A nil client
// means NewClient().
func Fetch(ctx context.Context, client *http.Client, rawURL, dest string) (err error) {
	if utils.FileExists(dest) {
		log.Debugf("%s already present, skipping download", dest)
		return nil
	}
	if client == nil {
		client = NewClient()
	}
	if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	log.Infof("Downloading %s, this can take several minutes...", rawURL)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: HTTP %d", ErrDownloadFailed, rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, rawURL, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("%w: %s: got %d of %d bytes", ErrDownloadFailed, rawURL, n, resp.ContentLength)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	log.Infof("Downloaded %s to %s (%d bytes in %v)", rawURL, dest, n, time.Since(start).Round(time.Millisecond))
	return nil
}

// EnsureArtifacts fetches every artifact missing from dir from baseURL and
// checks the headers of what it downloaded. An artifact that fails the
// check is removed again.
func EnsureArtifacts(ctx context.Context, client *http.Client, baseURL, dir string) error {
	for _, kind := range []artifact.Kind{artifact.KindKeys, artifact.KindScores} {
		dest := artifact.Path(dir, kind)
		if utils.FileExists(dest) {
			continue
		}
		src, err := artifactURL(baseURL, filepath.Base(dest))
		if err != nil {
			return err
		}
		if err := Fetch(ctx, client, src, dest); err != nil {
			return err
		}
		if _, err := artifact.Validate(dest, kind); err != nil {
			os.Remove(dest)
			return fmt.Errorf("%w: %s is not a valid %s artifact: %w", ErrDownloadFailed, src, kind, err)
		}
	}
	return nil
}

func artifactURL(baseURL, name string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("bad bootstrap url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("bad bootstrap url %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + name
	return u.String(), nil
}
