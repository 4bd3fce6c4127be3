package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/bastiangx/wordsim/pkg/index"
	"github.com/bastiangx/wordsim/pkg/scores"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	return matches
}

func TestFetchWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "sub", "file.bin")
	require.NoError(t, Fetch(context.Background(), srv.Client(), srv.URL+"/file.bin", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.Empty(t, tempFiles(t, filepath.Dir(dest)))
}

func TestFetchSkipsExisting(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("new"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))
	require.NoError(t, Fetch(context.Background(), srv.Client(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchFailureLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	err := Fetch(context.Background(), srv.Client(), srv.URL, dest)
	require.ErrorIs(t, err, ErrDownloadFailed)
	assert.NoFileExists(t, dest)
	assert.Empty(t, tempFiles(t, dir))
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	err := Fetch(context.Background(), srv.Client(), srv.URL, dest)
	require.ErrorIs(t, err, ErrDownloadFailed)
	assert.NoFileExists(t, dest)
	assert.Empty(t, tempFiles(t, dir))
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := Fetch(context.Background(), nil, url, filepath.Join(t.TempDir(), "f"))
	require.ErrorIs(t, err, ErrDownloadFailed)
}

func TestEnsureArtifacts(t *testing.T) {
	ix, err := index.FromSorted([]string{"a\tb", "a\tc"}, 16)
	require.NoError(t, err)
	var keys, vals bytes.Buffer
	require.NoError(t, ix.Write(&keys, "\t"))
	require.NoError(t, scores.New(2, scores.Half).Write(&vals))

	files := map[string][]byte{
		"/rdt/" + artifact.KeysFile:   keys.Bytes(),
		"/rdt/" + artifact.ScoresFile: vals.Bytes(),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, EnsureArtifacts(context.Background(), srv.Client(), srv.URL+"/rdt/", dir))
	assert.Empty(t, artifact.Missing(dir))
}

func TestEnsureArtifactsRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an artifact</html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	err := EnsureArtifacts(context.Background(), srv.Client(), srv.URL, dir)
	require.ErrorIs(t, err, ErrDownloadFailed)
	assert.NoFileExists(t, artifact.Path(dir, artifact.KindKeys))
}

func TestArtifactURL(t *testing.T) {
	got, err := artifactURL("http://example.com/data/rdt", "keys.idx")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/data/rdt/keys.idx", got)

	_, err = artifactURL("ftp://example.com", "keys.idx")
	require.Error(t, err)
}
