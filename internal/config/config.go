package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabula-cli/internal/infer"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

const dirName = ".tabula"

// Global configuration structure.
type Global struct {
	DataDir         string `mapstructure:"data_dir" yaml:"data_dir"`
	InferSampleRows int    `mapstructure:"infer_sample_rows" yaml:"infer_sample_rows"`
	Workers         int    `mapstructure:"workers" yaml:"workers"`
	MaxRows         int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	SeqURL    string `mapstructure:"seq_url" yaml:"seq_url"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"data_dir", "infer_sample_rows", "workers", "max_rows", "log_level", "log_format", "seq_url"}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabula/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABULA")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "")
	v.SetDefault("infer_sample_rows", infer.DefaultSampleRows)
	v.SetDefault("workers", 4)
	v.SetDefault("max_rows", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seq_url", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "datasets")
	}
	dataDir, err := utils.ExpandHome(c.DataDir)
	if err != nil {
		return nil, err
	}
	c.DataDir = dataDir
	if c.InferSampleRows <= 0 {
		c.InferSampleRows = infer.DefaultSampleRows
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxRows < 0 {
		c.MaxRows = 0
	}
	return &c, nil
}
