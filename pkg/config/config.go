// Package config loads envelope's layered configuration: built-in
// defaults, then the user config under the XDG config directory, then a
// .envelope.toml in the working directory, then an explicit --config
// file. Later layers win key by key.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/envelope/pkg/errors"
)

// SuffixSettings holds the default output filename suffix per mode.
type SuffixSettings struct {
	Encrypt string `koanf:"encrypt" toml:"encrypt"`
	Decrypt string `koanf:"decrypt" toml:"decrypt"`
}

// EncryptSettings holds encryption defaults applied when the matching
// flag is not given.
type EncryptSettings struct {
	Algorithm   string `koanf:"algorithm" toml:"algorithm"`
	FrameLength int    `koanf:"frame_length" toml:"frame_length"`
}

// MetadataSettings holds the default metadata record format.
type MetadataSettings struct {
	Format string `koanf:"format" toml:"format"`
}

// Settings is the fully merged configuration.
type Settings struct {
	Suffix   SuffixSettings   `koanf:"suffix" toml:"suffix"`
	Encrypt  EncryptSettings  `koanf:"encrypt" toml:"encrypt"`
	Metadata MetadataSettings `koanf:"metadata" toml:"metadata"`

	// Key and Caching are passed through to the materials provider.
	Key     map[string]string `koanf:"key" toml:"key,omitempty"`
	Caching map[string]string `koanf:"caching" toml:"caching,omitempty"`
}

// Default returns the built-in defaults with no user layers applied.
func Default() (*Settings, error) {
	return load("", "")
}

// Load merges all configuration layers. explicitPath may be empty; when
// given it must exist.
func Load(explicitPath string) (*Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return load(cwd, explicitPath)
}

func load(workDir, explicitPath string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load built-in defaults")
	}

	userPath := filepath.Join(xdg.ConfigHome, "envelope", "envelope.toml")
	if _, err := os.Stat(userPath); err == nil {
		if err := k.Load(file.Provider(userPath), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load user config from %s", userPath)
		}
	}

	if workDir != "" {
		for _, filename := range []string{".envelope.toml", "envelope.toml"} {
			path := filepath.Join(workDir, filename)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
				}
				break
			}
		}
	}

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file not found: %s", explicitPath)
		}
		if err := k.Load(file.Provider(explicitPath), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", explicitPath)
		}
	}

	var cfg Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}
