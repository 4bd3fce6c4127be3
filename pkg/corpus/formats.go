package corpus

import (
	"fmt"
	"strings"
)

// Format selects how a corpus line is split into relations. The caller picks
// it explicitly; lines are never sniffed.
type Format int

const (
	// PairPerLine is `word_i<SEP>word_j<SEP>score`.
	PairPerLine Format = iota
	// NeighborListPerLine is `word_i<SEP>word_j1:score1,word_j2:score2,...`.
	NeighborListPerLine
)

// FormatInfo describes a corpus format.
type FormatInfo struct {
	Format      Format
	Name        string
	Aliases     []string
	Description string
}

var supportedFormats = map[Format]FormatInfo{
	PairPerLine: {
		Format:      PairPerLine,
		Name:        "pair",
		Aliases:     []string{"pair_per_line", "word_word_score"},
		Description: "one relation per line: word_i, word_j, score",
	},
	NeighborListPerLine: {
		Format:      NeighborListPerLine,
		Name:        "neighbors",
		Aliases:     []string{"neighbor_list_per_line", "word_neighbors"},
		Description: "one source word per line followed by its neighbour list",
	},
}

func (f Format) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, info := range supportedFormats {
		if name == info.Name {
			return info.Format, nil
		}
		for _, alias := range info.Aliases {
			if name == alias {
				return info.Format, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown corpus format %q (expected %q or %q)",
		name, supportedFormats[PairPerLine].Name, supportedFormats[NeighborListPerLine].Name)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// Compression of a corpus file, chosen from its extension.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

// DetectCompression maps `.gz` to Gzip, `.zst`/`.zstd` to Zstd and anything
// else to Plain.
func DetectCompression(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return Gzip
	case strings.HasSuffix(lower, ".zst"), strings.HasSuffix(lower, ".zstd"):
		return Zstd
	default:
		return Plain
	}
}
