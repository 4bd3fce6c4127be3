// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordsim thesaurus builder, query CLI and IPC server.

wordsim stores a distributional thesaurus (for every word a ranked list of
similar words with scores) as a front-coded prefix index plus a dense score
vector, and answers "most similar words to W" queries from it.

# Usage

Build a thesaurus from a pair-per-line corpus into the data directory:

	wordsim -data dt/ build -corpus pairs.txt.gz -format pair -min-sim 0.1

or from a neighbour-list corpus:

	wordsim -data dt/ build -corpus neighbors.txt -format neighbors

Query it:

	wordsim -data dt/ query -n 5 граф
	wordsim -data dt/ words -l 20 гра

Change the saved query defaults:

	wordsim config -top-n 10 -max-top-n 200

Download prebuilt artifacts instead of building:

	wordsim -data dt/ fetch -url http://example.com/rdt

Run an interactive session, or serve msgpack requests on stdin/stdout:

	wordsim -data dt/ -c
	wordsim -data dt/ serve

Without a command wordsim serves.

# Configuration

Settings live in wordsim.toml under the user config directory, created with
defaults on first run. -config points at another file.

	[thesaurus]
	field_separator = "\t"
	score_separator = ":"
	list_separator = ","
	placeholder_separator = "_"
	min_similarity = 0.0
	score_precision = "float16"

	[query]
	default_top_n = 20
	max_top_n = 1000

# Command Line Flags

	-config string
	    Path to a wordsim.toml
	-data string
	    Directory holding keys.idx and scores.bin (default from config)
	-d  Enable debug logging
	-c  Run the interactive CLI
	-fetch
	    Download missing artifacts before loading
	-reset-config
	    Rewrite the default wordsim.toml and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bastiangx/wordsim/internal/cli"
	"github.com/bastiangx/wordsim/internal/logger"
	"github.com/bastiangx/wordsim/internal/utils"
	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/bastiangx/wordsim/pkg/bootstrap"
	"github.com/bastiangx/wordsim/pkg/config"
	"github.com/bastiangx/wordsim/pkg/corpus"
	"github.com/bastiangx/wordsim/pkg/scores"
	"github.com/bastiangx/wordsim/pkg/server"
	"github.com/bastiangx/wordsim/pkg/thesaurus"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = "wordsim"
	gh      = "https://github.com/bastiangx/wordsim"

	// probeWord is queried after a fetch to show the thesaurus works.
	probeWord = "граф"
)

// app carries what every command needs.
type app struct {
	ctx        context.Context
	cfg        *config.Config
	configPath string
	dataDir    string
	fetch      bool
}

// sigHandler exits normally on the first interrupt once ctx is cancelled by it.
func sigHandler(ctx context.Context) {
	go func() {
		<-ctx.Done()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only parses flags and dispatches to the commands.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a wordsim.toml")
	dataDir := flag.String("data", "", "Directory holding keys.idx and scores.bin (default from config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for exploring a thesaurus")
	fetch := flag.Bool("fetch", false, "Download missing artifacts from the bootstrap url before loading")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the default wordsim.toml with defaults and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if *resetConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		path, _ := config.GetDefaultConfigPath()
		log.Infof("Wrote default config to %s", path)
		os.Exit(0)
	}

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))
	if cfg.Thesaurus.VerboseLogging && !*debugMode {
		log.SetLevel(log.DebugLevel)
	}

	cmd, args := "serve", []string(nil)
	if flag.NArg() > 0 {
		cmd, args = flag.Arg(0), flag.Args()[1:]
	}
	if *cliMode {
		cmd = "cli"
	}

	a := &app{ctx: ctx, cfg: cfg, configPath: usedPath, fetch: *fetch}
	a.dataDir = resolveDataDir(*dataDir, cfg.Store.Dir, cmd == "build")
	log.Debugf("Using data dir at: %s", a.dataDir)

	switch cmd {
	case "build":
		sigHandler(ctx)
		err = a.build(args)
	case "query":
		sigHandler(ctx)
		err = a.query(args)
	case "words":
		sigHandler(ctx)
		err = a.words(args)
	case "fetch":
		err = a.fetchCmd(args)
	case "config":
		err = a.configCmd(args)
	case "serve":
		sigHandler(ctx)
		err = a.serve()
	case "cli":
		sigHandler(ctx)
		err = a.interactive()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] [build|query|words|fetch|config|serve] [command flags]\n\nFlags:\n", AppName)
	flag.PrintDefaults()
	fmt.Fprintf(out, "\nRun '%s <command> -h' for command flags.\n", AppName)
}

// resolveDataDir finds an existing thesaurus directory. Builds write exactly
// where they are told.
func resolveDataDir(flagDir, cfgDir string, building bool) string {
	dir := flagDir
	if dir == "" {
		dir = cfgDir
	}
	if building {
		return utils.GetAbsolutePath(dir)
	}
	pathResolver, err := utils.NewPathResolver(AppName)
	if err != nil {
		log.Warnf("Failed to initialize path resolver: %v", err)
		return dir
	}
	return pathResolver.GetDataDir(dir, artifact.KeysFile)
}

func (a *app) build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	corpusPath := fs.String("corpus", "", "Corpus file (.gz and .zst are decompressed)")
	formatName := fs.String("format", "pair", "Corpus format: pair (word<TAB>word<TAB>score) or neighbors (word<TAB>word:score,...)")
	minSim := fs.Float64("min-sim", a.cfg.Thesaurus.MinSimilarity, "Drop relations scoring below this")
	precision := fs.String("precision", a.cfg.Thesaurus.ScorePrecision, "Score precision: float16 or float32")
	_ = fs.Parse(args)

	if *corpusPath == "" {
		fs.Usage()
		return fmt.Errorf("build: -corpus is required")
	}
	format, err := corpus.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	p, err := scores.ParsePrecision(*precision)
	if err != nil {
		return err
	}

	opts := a.cfg.ThesaurusOptions()
	opts.Corpus.MinSimilarity = *minSim
	opts.Precision = p
	log.Info("Building thesaurus",
		"corpus", *corpusPath,
		"format", format,
		"minSimilarity", *minSim,
		"precision", p,
		"dir", a.dataDir)

	th := thesaurus.New(opts, a.dataDir)
	if err := th.Build(*corpusPath, format); err != nil {
		return err
	}
	stats := th.Stats()
	log.Infof("Stored %s relations, index %s, scores %s",
		utils.FormatWithCommas(stats["keys"]),
		utils.FormatBytes(stats["indexBytes"]),
		utils.FormatBytes(stats["scoreBytes"]))
	return nil
}

// load opens the thesaurus, fetching missing artifacts first when asked to.
func (a *app) load() (*thesaurus.Thesaurus, error) {
	if a.fetch {
		if err := bootstrap.EnsureArtifacts(a.ctx, bootstrap.NewClient(), a.cfg.Bootstrap.URL, a.dataDir); err != nil {
			return nil, err
		}
	}
	th, err := thesaurus.Load(a.dataDir, a.cfg.ThesaurusOptions())
	if err != nil {
		return nil, err
	}
	if !th.Loaded() {
		log.Warnf("No thesaurus in %s: run '%s build' or '%s fetch' first", a.dataDir, AppName, AppName)
	}
	return th, nil
}

func (a *app) query(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	n := fs.Int("n", a.cfg.Query.DefaultTopN, "Number of similar words per query")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("query: no words given")
	}

	th, err := a.load()
	if err != nil {
		return err
	}
	topN := a.cfg.ClampTopN(*n)
	for _, word := range fs.Args() {
		neighbors := th.MostSimilar(word, topN)
		fmt.Printf("%s\t%d\n", word, len(neighbors))
		for _, nb := range neighbors {
			fmt.Printf("\t%s\t%.3f\n", nb.Word, nb.Score)
		}
	}
	return nil
}

func (a *app) words(args []string) error {
	fs := flag.NewFlagSet("words", flag.ExitOnError)
	limit := fs.Int("l", a.cfg.CLI.DefaultLimit, "Number of words to list (0 for all)")
	_ = fs.Parse(args)

	th, err := a.load()
	if err != nil {
		return err
	}
	vocab := th.Vocabulary()
	if vocab == nil {
		return nil
	}
	for _, w := range vocab.Complete(strings.Join(fs.Args(), " "), *limit) {
		fmt.Printf("%s\t%d\n", w.Word, w.Neighbors)
	}
	return nil
}

func (a *app) fetchCmd(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	url := fs.String("url", a.cfg.Bootstrap.URL, "Base url serving keys.idx and scores.bin")
	_ = fs.Parse(args)

	if err := bootstrap.EnsureArtifacts(a.ctx, bootstrap.NewClient(), *url, a.dataDir); err != nil {
		return err
	}
	th, err := thesaurus.Load(a.dataDir, a.cfg.ThesaurusOptions())
	if err != nil {
		return err
	}
	log.Infof("Testing the loaded thesaurus with '%s':", probeWord)
	for _, nb := range th.MostSimilar(probeWord, 5) {
		log.Printf("  %s %.3f", nb.Word, nb.Score)
	}
	return nil
}

// configCmd prints the query settings, or saves the ones given as flags to
// the active config file.
func (a *app) configCmd(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	topN := fs.Int("top-n", a.cfg.Query.DefaultTopN, "Default number of neighbours per query")
	maxTopN := fs.Int("max-top-n", a.cfg.Query.MaxTopN, "Upper bound for requested neighbours")
	minSim := fs.Float64("min-sim", a.cfg.Thesaurus.MinSimilarity, "Build threshold for relation scores")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		setTopN, setMaxTopN *int
		setMinSim           *float64
	)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "top-n":
			setTopN = topN
		case "max-top-n":
			setMaxTopN = maxTopN
		case "min-sim":
			setMinSim = minSim
		}
	})

	if fs.NFlag() == 0 {
		log.Print("", "config", config.GetActiveConfigPath(a.configPath))
		log.Print("", "default_top_n", a.cfg.Query.DefaultTopN, "max_top_n", a.cfg.Query.MaxTopN,
			"min_similarity", a.cfg.Thesaurus.MinSimilarity)
		return nil
	}
	if a.configPath == "" {
		return fmt.Errorf("config: no config file in use, run with -config or -reset-config first")
	}
	if err := a.cfg.Update(a.configPath, setTopN, setMaxTopN, setMinSim); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.Infof("Saved %s", a.configPath)
	return nil
}

func (a *app) serve() error {
	log.Debug("spawning IPC")
	th, err := a.load()
	if err != nil {
		return err
	}
	srv := server.NewServer(th, a.cfg)
	showStartupInfo(a.dataDir, th)
	return srv.Start()
}

func (a *app) interactive() error {
	th, err := a.load()
	if err != nil {
		return err
	}
	l := logger.NewWithConfig(os.Stderr, "", log.GetLevel(), false, false, log.TextFormatter)
	topN := a.cfg.ClampTopN(a.cfg.Query.DefaultTopN)
	return cli.NewInputHandler(th, topN, a.cfg.CLI.DefaultLimit, os.Stdin, l).Start()
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordsim ] Distributional thesaurus lookups")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir string, th *thesaurus.Thesaurus) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println("  wordsim  ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("relations: %s", utils.FormatWithCommas(th.Len()))
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
