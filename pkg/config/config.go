/*
Package config manages TOML config for wordsim.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/wordsim/internal/utils"
	"github.com/bastiangx/wordsim/pkg/corpus"
	"github.com/bastiangx/wordsim/pkg/scores"
	"github.com/bastiangx/wordsim/pkg/thesaurus"
	"github.com/charmbracelet/log"
)

const (
	appName        = "wordsim"
	configFileName = "wordsim.toml"
	// DefaultBootstrapURL serves prebuilt keys.idx and scores.bin files.
	DefaultBootstrapURL = "http://panchenko.me/data/russe/rdt"
)

// Config holds the entire config structure
type Config struct {
	Thesaurus ThesaurusConfig `toml:"thesaurus"`
	Store     StoreConfig     `toml:"store"`
	Query     QueryConfig     `toml:"query"`
	Bootstrap BootstrapConfig `toml:"bootstrap"`
	CLI       CliConfig       `toml:"cli"`
}

// ThesaurusConfig has corpus parsing and storage options.
type ThesaurusConfig struct {
	FieldSeparator       string  `toml:"field_separator"`
	ScoreSeparator       string  `toml:"score_separator"`
	ListSeparator        string  `toml:"list_separator"`
	PlaceholderSeparator string  `toml:"placeholder_separator"`
	MinSimilarity        float64 `toml:"min_similarity"`
	VerboseLogging       bool    `toml:"verbose_logging"`
	ScorePrecision       string  `toml:"score_precision"`
	BlockSize            int     `toml:"block_size"`
}

// StoreConfig says where artifacts live.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// QueryConfig holds query limits.
type QueryConfig struct {
	DefaultTopN int `toml:"default_top_n"`
	MaxTopN     int `toml:"max_top_n"`
	CacheSize   int `toml:"cache_size"`
}

// BootstrapConfig holds the prebuilt artifact location.
type BootstrapConfig struct {
	URL string `toml:"url"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", appName)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback from ~/.config if not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", appName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for wordsim.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordsim/wordsim.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Thesaurus: ThesaurusConfig{
			FieldSeparator:       corpus.DefaultFieldSeparator,
			ScoreSeparator:       corpus.DefaultScoreSeparator,
			ListSeparator:        corpus.DefaultListSeparator,
			PlaceholderSeparator: "_",
			MinSimilarity:        0.0,
			VerboseLogging:       false,
			ScorePrecision:       scores.Half.String(),
			BlockSize:            16,
		},
		Store: StoreConfig{
			Dir: "data/",
		},
		Query: QueryConfig{
			DefaultTopN: thesaurus.DefaultTopN,
			MaxTopN:     1000,
			CacheSize:   thesaurus.DefaultCacheSize,
		},
		Bootstrap: BootstrapConfig{
			URL: DefaultBootstrapURL,
		},
		CLI: CliConfig{
			DefaultLimit: 20,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file the struct decoder
// rejected and defaults the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "thesaurus"); ok {
		extractThesaurusConfig(section, &config.Thesaurus)
	}
	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		if val, ok := utils.ExtractString(section, "dir"); ok {
			config.Store.Dir = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "query"); ok {
		extractQueryConfig(section, &config.Query)
	}
	if section, ok := utils.ExtractSection(tempConfig, "bootstrap"); ok {
		if val, ok := utils.ExtractString(section, "url"); ok {
			config.Bootstrap.URL = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	return config, nil
}

func extractThesaurusConfig(data map[string]any, th *ThesaurusConfig) {
	if val, ok := utils.ExtractString(data, "field_separator"); ok {
		th.FieldSeparator = val
	}
	if val, ok := utils.ExtractString(data, "score_separator"); ok {
		th.ScoreSeparator = val
	}
	if val, ok := utils.ExtractString(data, "list_separator"); ok {
		th.ListSeparator = val
	}
	if val, ok := utils.ExtractString(data, "placeholder_separator"); ok {
		th.PlaceholderSeparator = val
	}
	if val, ok := utils.ExtractFloat(data, "min_similarity"); ok {
		th.MinSimilarity = val
	}
	if val, ok := utils.ExtractBool(data, "verbose_logging"); ok {
		th.VerboseLogging = val
	}
	if val, ok := utils.ExtractString(data, "score_precision"); ok {
		th.ScorePrecision = val
	}
	if val, ok := utils.ExtractInt64(data, "block_size"); ok {
		th.BlockSize = val
	}
}

func extractQueryConfig(data map[string]any, q *QueryConfig) {
	if val, ok := utils.ExtractInt64(data, "default_top_n"); ok {
		q.DefaultTopN = val
	}
	if val, ok := utils.ExtractInt64(data, "max_top_n"); ok {
		q.MaxTopN = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		q.CacheSize = val
	}
}

// ThesaurusOptions converts the config into thesaurus options. An unknown
// score precision falls back to half precision with a warning.
func (c *Config) ThesaurusOptions() thesaurus.Options {
	opts := thesaurus.DefaultOptions()
	th := c.Thesaurus
	opts.Corpus.FieldSeparator = th.FieldSeparator
	opts.Corpus.ScoreSeparator = th.ScoreSeparator
	opts.Corpus.ListSeparator = th.ListSeparator
	opts.Corpus.MinSimilarity = th.MinSimilarity
	opts.Corpus.Verbose = th.VerboseLogging
	opts.Placeholder = th.PlaceholderSeparator
	opts.BlockSize = th.BlockSize
	opts.CacheSize = c.Query.CacheSize

	p, err := scores.ParsePrecision(th.ScorePrecision)
	if err != nil {
		log.Warnf("%v. Using %s.", err, scores.Half)
	}
	opts.Precision = p
	return opts
}

// ClampTopN applies the query defaults: n <= 0 means DefaultTopN and
// anything above MaxTopN is cut down to it.
func (c *Config) ClampTopN(n int) int {
	if n <= 0 {
		n = c.Query.DefaultTopN
	}
	if c.Query.MaxTopN > 0 && n > c.Query.MaxTopN {
		n = c.Query.MaxTopN
	}
	return n
}

// RebuildConfigFile force creates a new wordsim.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the query limits and saves to file
func (c *Config) Update(configPath string, defaultTopN, maxTopN *int, minSimilarity *float64) error {
	if defaultTopN != nil {
		c.Query.DefaultTopN = *defaultTopN
	}
	if maxTopN != nil {
		c.Query.MaxTopN = *maxTopN
	}
	if minSimilarity != nil {
		c.Thesaurus.MinSimilarity = *minSimilarity
	}
	return SaveConfig(c, configPath)
}
