// Package config loads renderer settings with viper. Settings come from
// defaults, an optional config file and RENDER_ environment variables, in
// increasing priority.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"pipelined.dev/render/stream"
)

// EnvPrefix is the prefix of environment variables.
const EnvPrefix = "RENDER"

// Config holds renderer settings.
type Config struct {
	BlockSize   int     `mapstructure:"block_size"`
	MipLevels   int     `mapstructure:"mip_levels"`
	ChunkFrames int     `mapstructure:"chunk_frames"`
	NotifyEvery int     `mapstructure:"notify_every"`
	Backend     string  `mapstructure:"backend"`
	BitDepth    int     `mapstructure:"bit_depth"`
	Kind        string  `mapstructure:"kind"`
	ByteOrder   string  `mapstructure:"byte_order"`
	VUFalloffMs float64 `mapstructure:"vu_falloff_ms"`
	VUPeak      bool    `mapstructure:"vu_peak"`
	LogLevel    string  `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("block_size", 512)
	v.SetDefault("mip_levels", 5)
	v.SetDefault("chunk_frames", 4096)
	v.SetDefault("notify_every", 100)
	v.SetDefault("backend", "oto")
	v.SetDefault("bit_depth", 16)
	v.SetDefault("kind", "signed")
	v.SetDefault("byte_order", "little")
	v.SetDefault("vu_falloff_ms", 300)
	v.SetDefault("vu_peak", true)
	v.SetDefault("log_level", "info")
}

// Load reads config file at path. Empty path or missing file results in
// defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that sizes are positive and stream settings are known.
func (c Config) Validate() error {
	switch {
	case c.BlockSize <= 0:
		return fmt.Errorf("invalid block_size %d", c.BlockSize)
	case c.MipLevels <= 0:
		return fmt.Errorf("invalid mip_levels %d", c.MipLevels)
	case c.ChunkFrames <= 0:
		return fmt.Errorf("invalid chunk_frames %d", c.ChunkFrames)
	case c.NotifyEvery <= 0:
		return fmt.Errorf("invalid notify_every %d", c.NotifyEvery)
	}
	if _, err := stream.ParseKind(c.Kind); err != nil {
		return err
	}
	if _, err := stream.ParseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	return nil
}

// Format returns preferred stream format of the source layout.
func (c Config) Format(channels, sampleRate int) stream.Format {
	kind, err := stream.ParseKind(c.Kind)
	if err != nil {
		kind = stream.Signed
	}
	order, err := stream.ParseByteOrder(c.ByteOrder)
	if err != nil {
		order = binary.LittleEndian
	}
	return stream.Format{
		Channels:   channels,
		SampleRate: sampleRate,
		BitDepth:   c.BitDepth,
		Kind:       kind,
		ByteOrder:  order,
	}
}
