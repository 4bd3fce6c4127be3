package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// FormatInfo contains metadata about a persisted file
type FormatInfo struct {
	Kind        Kind
	FileName    string
	Description string
	MinSize     int64 // magic + length + smallest msgpack header
}

var supportedFormats = map[Kind]FormatInfo{
	KindKeys: {
		Kind:        KindKeys,
		FileName:    KeysFile,
		Description: "Front-coded prefix index",
		MinSize:     9,
	},
	KindScores: {
		Kind:        KindScores,
		FileName:    ScoresFile,
		Description: "Dense score array",
		MinSize:     9,
	},
}

// GetFormatInfo returns information about a specific kind
func GetFormatInfo(kind Kind) (FormatInfo, bool) {
	info, exists := supportedFormats[kind]
	return info, exists
}

// Path returns the conventional location of kind inside dir.
func Path(dir string, kind Kind) string {
	return filepath.Join(dir, supportedFormats[kind].FileName)
}

// Missing lists the artifacts of dir that do not exist.
func Missing(dir string) []string {
	var missing []string
	for _, kind := range []Kind{KindKeys, KindScores} {
		path := Path(dir, kind)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// Validate checks that path exists, is large enough and carries a readable
// header of the expected kind.
func Validate(path string, kind Kind) (Header, error) {
	info, exists := supportedFormats[kind]
	if !exists {
		return Header{}, fmt.Errorf("unknown artifact kind: %q", kind)
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Header{}, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return Header{}, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if fileInfo.Size() < info.MinSize {
		return Header{}, fmt.Errorf("file %s is too small (%d bytes) for %s (minimum: %d bytes)",
			path, fileInfo.Size(), info.Description, info.MinSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	h, err := ReadHeader(bufio.NewReader(file), kind)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Artifact %s validated: kind=%s version=%d count=%d", path, h.Kind, h.Version, h.Count)
	return h, nil
}
