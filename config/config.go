// Package config loads the badank tournament configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// DefaultFile is the config file looked for when none is given on the
// command line.
const DefaultFile = "badank.cfg"

// xdgFile is the XDG fallback location searched after the working
// directory.
const xdgFile = "badank/badank.cfg"

// ConfigError describes an unusable configuration.
type ConfigError struct {
	err string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

// EngineConfig describes one contestant.
type EngineConfig struct {
	Command string `toml:"command"`
	Dir     string `toml:"dir"`
	AltName string `toml:"alt_name"`
	Target  bool   `toml:"target"`
}

// Config is the full tournament configuration.
type Config struct {
	LogLevelScreen string `toml:"log_level_screen"`
	LogLevelFile   string `toml:"log_level_file"`

	Engines []EngineConfig `toml:"engines"`

	ScorerCommand string `toml:"scorer_command"`
	ScorerDir     string `toml:"scorer_dir"`

	PGNFile string `toml:"pgn_file"`
	SGFFile string `toml:"sgf_file"`

	Concurrency int `toml:"concurrency"`
	NGames      int `toml:"n_games"`
	BoardSize   int `toml:"board_size"`

	MainTime      int `toml:"main_time"`
	ByoYomiTime   int `toml:"byo_yomi_time"`
	ByoYomiStones int `toml:"byo_yomi_stones"`

	// TimeIncrement is credited to the mover's remaining time (main
	// time or the current byo-yomi period) after every move; 0 disables
	// it.
	TimeIncrement float64 `toml:"time_increment"`

	NRandomStones int     `toml:"n_random_stones"`
	Komi          float64 `toml:"komi"`

	SGFBookPath string `toml:"sgf_book_path"`

	// GTPTimeout bounds ordinary GTP responses, in seconds.
	GTPTimeout int `toml:"gtp_timeout"`

	// TUI enables the live standings screen.
	TUI bool `toml:"tui"`
}

// Default returns the values for keys that may be left out.
func Default() Config {
	return Config{
		LogLevelScreen: "info",
		LogLevelFile:   "debug",
		GTPTimeout:     60,
	}
}

// Resolve picks the config file to load: the explicit path when given,
// else DefaultFile in the working directory, else the XDG config
// search.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}

	if path, err := xdg.SearchConfigFile(xdgFile); err == nil {
		return path, nil
	}

	return "", &ConfigError{err: fmt.Sprintf("no %s in the working directory and nothing in the XDG config path", DefaultFile)}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	for _, key := range []string{"scorer_command", "concurrency", "n_games", "board_size", "main_time", "komi"} {
		if !md.IsDefined(key) {
			return nil, &ConfigError{err: fmt.Sprintf("required key %q is missing", key)}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that have to make sense for a batch to
// run at all.
func (c *Config) Validate() error {
	if len(c.Engines) == 0 {
		return &ConfigError{err: "no engines configured"}
	}

	for i, e := range c.Engines {
		if e.Command == "" {
			return &ConfigError{err: fmt.Sprintf("engine %d has no command", i)}
		}
	}

	if c.ScorerCommand == "" {
		return &ConfigError{err: "no scorer_command configured"}
	}

	if c.Concurrency < 1 {
		return &ConfigError{err: "concurrency must be at least 1"}
	}

	if c.NGames < 1 {
		return &ConfigError{err: "n_games must be at least 1"}
	}

	if c.BoardSize < 2 || c.BoardSize > 25 {
		return &ConfigError{err: "board_size must be in 2..25"}
	}

	if c.MainTime < 0 || c.ByoYomiTime < 0 || c.ByoYomiStones < 0 {
		return &ConfigError{err: "time control values cannot be negative"}
	}

	if c.NRandomStones < 0 {
		return &ConfigError{err: "n_random_stones cannot be negative"}
	}

	return nil
}
