// Package engineconfig loads the small set of tunables the kernel needs:
// page size, buffer-pool capacity, print width, and the data directory
// layout. Defaults match the typical values named in the specification.
package engineconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Config holds the engine-wide tunables. Values are expressed in the same
// units the rest of the kernel uses: BlockSize in bytes, everything else in
// rows or pages.
type Config struct {
	// BlockSize is the maximum number of bytes of integer payload a page may
	// hold on disk. Table.MaxRowsPerBlock is derived from this.
	BlockSize int `mapstructure:"block_size"`

	// BlockCount is the hard cap on pages simultaneously resident in the
	// buffer manager.
	BlockCount int `mapstructure:"block_count"`

	// PrintCount is the number of rows PRINT renders before truncating.
	PrintCount int `mapstructure:"print_count"`

	// DataDir is the root directory containing permanent CSV exports and
	// the temp/ subdirectory for page files.
	DataDir string `mapstructure:"data_dir"`

	// IntSize is the width in bytes of one stored integer cell. It is a
	// configuration constant rather than unsafe.Sizeof(int(0)) so that the
	// on-disk fan-out math in the B+Tree is reproducible across platforms.
	IntSize int `mapstructure:"int_size"`
}

// Default returns the configuration spec.md names as "typical" values.
func Default() *Config {
	return &Config{
		BlockSize:  1024,
		BlockCount: 10,
		PrintCount: 20,
		DataDir:    "./data",
		IntSize:    8,
	}
}

// TempDir returns the scratch directory for page files, partitions, and
// index node files.
func (c *Config) TempDir() string {
	return c.DataDir + "/temp"
}

// Load reads an optional YAML file at path, falling back to Default for any
// field the file doesn't set, then allows environment variables (prefixed
// RADB_) to override. A missing file is not an error: Load just returns the
// defaults. A malformed file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RADB")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("block_size", def.BlockSize)
	v.SetDefault("block_count", def.BlockCount)
	v.SetDefault("print_count", def.PrintCount)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("int_size", def.IntSize)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("engineconfig: read config %q: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: unmarshal config: %w", err)
	}
	if cfg.BlockCount < 2 {
		return nil, fmt.Errorf("engineconfig: block_count must be >= 2, got %d", cfg.BlockCount)
	}
	return &cfg, nil
}
