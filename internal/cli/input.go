// Package cli handles interactive thesaurus queries typed on stdin, for debugging and exploring a built thesaurus.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/wordsim/internal/utils"
	"github.com/bastiangx/wordsim/pkg/suggest"
	"github.com/bastiangx/wordsim/pkg/thesaurus"
	"github.com/charmbracelet/log"
)

const maxInputBytes = 512

// Querier is the part of a thesaurus the CLI talks to.
type Querier interface {
	MostSimilar(word string, topN int) []thesaurus.Neighbor
	Score(source, target string) (float32, bool)
	Vocabulary() *suggest.Vocabulary
	Stats() map[string]int
}

// InputHandler reads words from its input and prints their neighbours.
// Lines starting with ':' are commands:
//
//	:n 10          set the number of neighbours shown
//	:words gra     list source words starting with "gra"
//	:score a b     print the stored score of (a, b)
//	:stats         print thesaurus statistics
type InputHandler struct {
	th           Querier
	topN         int
	wordsLimit   int
	requestCount int
	in           io.Reader
	log          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(th Querier, topN, wordsLimit int, in io.Reader, l *log.Logger) *InputHandler {
	if l == nil {
		l = log.Default()
	}
	return &InputHandler{
		th:         th,
		topN:       topN,
		wordsLimit: wordsLimit,
		in:         in,
		log:        l,
	}
}

// Start begins the interface loop. It returns nil once the input ends.
func (h *InputHandler) Start() error {
	h.log.Print("wordsim CLI")
	h.log.Print("type a word and press Enter to see similar words, :help for commands (Ctrl+C to exit):")
	reader := bufio.NewReader(h.in)

	for {
		h.log.Print("> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			h.handleInput(line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	if strings.HasPrefix(line, ":") {
		h.handleCommand(strings.Fields(line[1:]))
		return
	}

	if !utils.IsValidInput(line, maxInputBytes) {
		h.log.Errorf("Not a valid word: %q", line)
		return
	}

	start := time.Now()
	neighbors := h.th.MostSimilar(line, h.topN)
	h.log.Debugf("Took [ %v ] for '%s'", time.Since(start), line)

	if len(neighbors) == 0 {
		h.log.Warnf("No similar words found for '%s'", line)
		return
	}

	h.log.Printf("Found %d similar words for '%s':", len(neighbors), line)
	for i, n := range neighbors {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", n.Word)
		h.log.Printf("%2d. %-40s (score: %.3f)", i+1, clWord, n.Score)
	}
}

func (h *InputHandler) handleCommand(args []string) {
	if len(args) == 0 {
		h.printHelp()
		return
	}

	switch args[0] {
	case "n":
		if len(args) != 2 {
			h.log.Error("usage: :n <count>")
			return
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			h.log.Errorf("Not a positive count: %s", args[1])
			return
		}
		h.topN = n
		h.log.Printf("Showing %d neighbours", n)
	case "words":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		h.listWords(prefix)
	case "score":
		if len(args) != 3 {
			h.log.Error("usage: :score <word> <word>")
			return
		}
		if v, ok := h.th.Score(args[1], args[2]); ok {
			h.log.Printf("%s -> %s: %.3f", args[1], args[2], v)
		} else {
			h.log.Warnf("No score stored for %s -> %s", args[1], args[2])
		}
	case "stats":
		stats := h.th.Stats()
		for _, k := range slices.Sorted(maps.Keys(stats)) {
			h.log.Printf("%-24s %s", k, utils.FormatWithCommas(stats[k]))
		}
	default:
		h.printHelp()
	}
}

func (h *InputHandler) listWords(prefix string) {
	vocab := h.th.Vocabulary()
	if vocab == nil {
		h.log.Warn("No thesaurus loaded")
		return
	}
	words := vocab.Complete(prefix, h.wordsLimit)
	if len(words) == 0 {
		h.log.Warnf("No words start with '%s'", prefix)
		return
	}
	h.log.Printf("Found %d words starting with '%s':", len(words), prefix)
	for i, w := range words {
		h.log.Printf("%2d. %-40s (neighbours: %8s)", i+1, w.Word, utils.FormatWithCommas(w.Neighbors))
	}
}

func (h *InputHandler) printHelp() {
	h.log.Print("commands: :n <count>, :words [prefix], :score <word> <word>, :stats")
}
